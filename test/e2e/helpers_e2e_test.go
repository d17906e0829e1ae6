//go:build e2e

package e2e_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// getenv returns the value of the environment variable k or def if empty.
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

var baseURL = strings.TrimSuffix(getenv("E2E_BASE_URL", "http://localhost:3111"), "/")

// newClient does not follow redirects so the create flow can assert the 303.
func newClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// requireApp skips the test when no server answers on baseURL.
func requireApp(t *testing.T, client *http.Client) {
	t.Helper()
	resp, err := client.Get(baseURL + "/healthz")
	if err != nil {
		t.Skipf("App not available at %s; skipping E2E: %v", baseURL, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Skipf("App unhealthy at %s (status %d); skipping E2E", baseURL, resp.StatusCode)
	}
}

func get(t *testing.T, client *http.Client, path string) (int, string) {
	t.Helper()
	resp, err := client.Get(baseURL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func postForm(t *testing.T, client *http.Client, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := client.PostForm(baseURL+path, form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

type stats struct {
	DBConnectionCount int64 `json:"db_connection_count"`
	PostCount         int64 `json:"post_count"`
}

func getStats(t *testing.T, client *http.Client) stats {
	t.Helper()
	code, body := get(t, client, "/metrics")
	require.Equal(t, http.StatusOK, code, body)
	var st stats
	require.NoError(t, json.Unmarshal([]byte(body), &st))
	return st
}
