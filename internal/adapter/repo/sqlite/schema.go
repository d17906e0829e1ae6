package sqlite

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schemaSQL string

// SeedPost is a post inserted by Provision when the table is empty.
type SeedPost struct {
	Title   string
	Content string
}

// DefaultSeed is the sample content shipped with a fresh database.
var DefaultSeed = []SeedPost{
	{
		Title:   "2020 CNCF Annual Report",
		Content: "The Cloud Native Computing Foundation looks back on a year of growth: more projects, more members, and a community that moved entirely online.",
	},
	{
		Title:   "KubeCon + CloudNativeCon 2021",
		Content: "The flagship conference gathers adopters and technologists from leading open source and cloud native communities.",
	},
	{
		Title:   "Kubernetes v1.20 Release Notes",
		Content: "This release ships 42 enhancements, including the deprecation of Dockershim as a container runtime.",
	},
	{
		Title:   "CNCF Cloud Native Definition v1.0",
		Content: "Cloud native technologies empower organizations to build and run scalable applications in modern, dynamic environments.",
	},
	{
		Title:   "Cloud Native Fundamentals is on Udacity!",
		Content: "Learn how to structure, package and release an application to a Kubernetes cluster using an automated CI/CD pipeline.",
	},
}

// Provision creates the database file at path if needed, ensures the posts
// table exists, and inserts seed when the table is empty. It is used by the
// initdb command and by tests; the server never changes the schema.
func Provision(ctx context.Context, path string, seed []SeedPost) error {
	db, err := sqlx.Open(DriverName, fmt.Sprintf("file:%s?mode=rwc", path))
	if err != nil {
		return fmt.Errorf("sqlite: open database for provisioning: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("sqlite: create schema: %w", err)
	}
	if len(seed) == 0 {
		return nil
	}

	var existing int64
	if err := db.GetContext(ctx, &existing, `SELECT COUNT(*) FROM posts`); err != nil {
		return fmt.Errorf("sqlite: count posts: %w", err)
	}
	if existing > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, p := range seed {
		if _, err := tx.ExecContext(ctx, `INSERT INTO posts (title, content) VALUES (?, ?)`, p.Title, p.Content); err != nil {
			return fmt.Errorf("sqlite: seed post %q: %w", p.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit seed: %w", err)
	}
	return nil
}
