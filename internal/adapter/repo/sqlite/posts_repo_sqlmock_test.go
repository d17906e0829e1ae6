package sqlite_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/techtrends/internal/adapter/repo/sqlite"
	"github.com/fairyhunter13/techtrends/internal/domain"
)

var (
	columnsQuery = regexp.QuoteMeta(`SELECT name FROM pragma_table_info('posts')`)
	fullColumns  = []string{"id", "created", "title", "content"}
)

func columnRows(names ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"name"})
	for _, n := range names {
		rows.AddRow(n)
	}
	return rows
}

// newMockRepo builds a repo whose single connection is backed by sqlmock.
func newMockRepo(t *testing.T) (*sqlite.PostRepo, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "sqlmock")
	acc := sqlite.NewAccessor(sqlite.Config{}, nil, sqlite.WithConnectFunc(func(context.Context, string, string) (*sqlx.DB, error) {
		return db, nil
	}))
	return sqlite.NewPostRepo(acc), mock
}

func TestPostRepo_List_Mock(t *testing.T) {
	t.Parallel()
	created := time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock)
		want    []domain.Post
		wantErr error
	}{
		{
			name: "rows mapped by column name",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(columnsQuery).WillReturnRows(columnRows(fullColumns...))
				rows := sqlmock.NewRows([]string{"title", "id", "content", "created"}).
					AddRow("Hello", int64(7), "body", created)
				m.ExpectQuery(regexp.QuoteMeta(`SELECT id, created, title, COALESCE(content, '') AS content FROM posts`)).WillReturnRows(rows)
				m.ExpectClose()
			},
			want: []domain.Post{{ID: 7, Created: created, Title: "Hello", Content: "body"}},
		},
		{
			name: "store without created column lists undated posts",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(columnsQuery).WillReturnRows(columnRows("id", "title", "content"))
				rows := sqlmock.NewRows([]string{"id", "created", "title", "content"}).
					AddRow(int64(1), nil, "Plain", "")
				m.ExpectQuery(regexp.QuoteMeta(`SELECT id, NULL AS created, title, COALESCE(content, '') AS content FROM posts`)).WillReturnRows(rows)
				m.ExpectClose()
			},
			want: []domain.Post{{ID: 1, Title: "Plain"}},
		},
		{
			name: "column lookup error",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(columnsQuery).WillReturnError(assert.AnError)
				m.ExpectClose()
			},
			wantErr: domain.ErrQuery,
		},
		{
			name: "query error",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(columnsQuery).WillReturnRows(columnRows(fullColumns...))
				m.ExpectQuery(regexp.QuoteMeta(`SELECT id, created, title, COALESCE(content, '') AS content FROM posts`)).WillReturnError(assert.AnError)
				m.ExpectClose()
			},
			wantErr: domain.ErrQuery,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo, mock := newMockRepo(t)
			tt.setup(mock)

			got, err := repo.List(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "op=post.list")
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostRepo_Get_Mock(t *testing.T) {
	t.Parallel()

	getQuery := regexp.QuoteMeta(`SELECT id, created, title, COALESCE(content, '') AS content FROM posts WHERE id = ?`)

	t.Run("query error is not reported as absent", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(columnsQuery).WillReturnRows(columnRows(fullColumns...))
		mock.ExpectQuery(getQuery).
			WithArgs(int64(3)).
			WillReturnError(assert.AnError)
		mock.ExpectClose()

		_, found, err := repo.Get(context.Background(), 3)
		require.ErrorIs(t, err, domain.ErrQuery)
		assert.False(t, found)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows is absent", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(columnsQuery).WillReturnRows(columnRows(fullColumns...))
		mock.ExpectQuery(getQuery).
			WithArgs(int64(4)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectClose()

		_, found, err := repo.Get(context.Background(), 4)
		require.NoError(t, err)
		assert.False(t, found)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostRepo_Count_Mock(t *testing.T) {
	t.Parallel()

	t.Run("missing count row yields zero", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM posts`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}))
		mock.ExpectClose()

		n, err := repo.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null count yields zero", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM posts`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(nil))
		mock.ExpectClose()

		n, err := repo.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM posts`)).WillReturnError(assert.AnError)
		mock.ExpectClose()

		_, err := repo.Count(context.Background())
		require.ErrorIs(t, err, domain.ErrQuery)
		assert.Contains(t, err.Error(), "op=post.count")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostRepo_Insert_Mock(t *testing.T) {
	t.Parallel()

	t.Run("commits before close", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO posts (title, content) VALUES (?, ?)`)).
			WithArgs("T", "C").
			WillReturnResult(sqlmock.NewResult(42, 1))
		mock.ExpectCommit()
		mock.ExpectClose()

		id, err := repo.Insert(context.Background(), "T", "C")
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec error rolls back", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO posts (title, content) VALUES (?, ?)`)).
			WithArgs("T", "C").
			WillReturnError(assert.AnError)
		mock.ExpectRollback()
		mock.ExpectClose()

		_, err := repo.Insert(context.Background(), "T", "C")
		require.ErrorIs(t, err, domain.ErrQuery)
		assert.Contains(t, err.Error(), "op=post.insert")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO posts (title, content) VALUES (?, ?)`)).
			WithArgs("T", "C").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit().WillReturnError(assert.AnError)
		mock.ExpectClose()

		_, err := repo.Insert(context.Background(), "T", "C")
		require.ErrorIs(t, err, domain.ErrQuery)
		assert.Contains(t, err.Error(), "commit")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostRepo_Check_Mock(t *testing.T) {
	t.Parallel()
	catalog := regexp.QuoteMeta(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`)
	readQuery := regexp.QuoteMeta(`SELECT 1 FROM posts LIMIT 1`)

	t.Run("read failure closes connection", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(catalog).WithArgs("posts").
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("posts"))
		mock.ExpectQuery(columnsQuery).WillReturnRows(columnRows(fullColumns...))
		mock.ExpectQuery(readQuery).WillReturnError(assert.AnError)
		mock.ExpectClose()

		err := repo.Check(context.Background())
		require.ErrorIs(t, err, domain.ErrQuery)
		assert.Contains(t, err.Error(), "read")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("catalog failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(catalog).WithArgs("posts").WillReturnError(assert.AnError)
		mock.ExpectClose()

		err := repo.Check(context.Background())
		require.ErrorIs(t, err, domain.ErrQuery)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing content column", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(catalog).WithArgs("posts").
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("posts"))
		mock.ExpectQuery(columnsQuery).WillReturnRows(columnRows("id", "title"))
		mock.ExpectClose()

		err := repo.Check(context.Background())
		require.ErrorIs(t, err, domain.ErrSchemaMissing)
		assert.Contains(t, err.Error(), "content")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("created column is optional", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(catalog).WithArgs("posts").
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("posts"))
		mock.ExpectQuery(columnsQuery).WillReturnRows(columnRows("id", "title", "content"))
		mock.ExpectQuery(readQuery).WillReturnRows(sqlmock.NewRows([]string{"1"}))
		mock.ExpectClose()

		require.NoError(t, repo.Check(context.Background()))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing table", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(catalog).WithArgs("posts").WillReturnRows(sqlmock.NewRows([]string{"name"}))
		mock.ExpectClose()

		err := repo.Check(context.Background())
		require.ErrorIs(t, err, domain.ErrSchemaMissing)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
