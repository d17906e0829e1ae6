package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fairyhunter13/techtrends/internal/domain"
)

// PostsTable is the table every query targets.
const PostsTable = "posts"

// requiredColumns must exist for the store to serve reads and inserts.
// created is optional: stores provisioned without it list posts undated.
var requiredColumns = []string{"id", "title", "content"}

// postRow is the scan target for a posts row. Content may be NULL and the
// created column may be missing altogether.
type postRow struct {
	ID      int64        `db:"id"`
	Created sql.NullTime `db:"created"`
	Title   string       `db:"title"`
	Content string       `db:"content"`
}

func (p postRow) toDomain() domain.Post {
	post := domain.Post{ID: p.ID, Title: p.Title, Content: p.Content}
	if p.Created.Valid {
		post.Created = p.Created.Time
	}
	return post
}

// tableColumns lists the column names of the posts table, empty when the
// table does not exist.
func tableColumns(ctx domain.Context, db *sqlx.DB) ([]string, error) {
	var cols []string
	if err := db.SelectContext(ctx, &cols, `SELECT name FROM pragma_table_info('posts')`); err != nil {
		return nil, err
	}
	return cols, nil
}

// selectList builds the column list for reading posts from cols.
func selectList(cols []string) string {
	created := "NULL AS created"
	for _, c := range cols {
		if strings.EqualFold(c, "created") {
			created = "created"
			break
		}
	}
	return "id, " + created + ", title, COALESCE(content, '') AS content"
}

// PostRepo implements domain.PostRepository. Every method opens its own
// connection and closes it before returning.
type PostRepo struct{ Store Opener }

// NewPostRepo constructs a PostRepo over the given store.
func NewPostRepo(s Opener) *PostRepo { return &PostRepo{Store: s} }

var _ domain.PostRepository = (*PostRepo)(nil)

// List returns every post in store order.
func (r *PostRepo) List(ctx domain.Context) (posts []domain.Post, err error) {
	ctx, op := startOperation(ctx, "list", "SELECT")
	defer func() { op.end(err) }()

	conn, err := r.Store.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	cols, err := tableColumns(ctx, conn.db)
	if err != nil {
		return nil, fmt.Errorf("op=post.list: %w: columns: %v", domain.ErrQuery, err)
	}
	var rows []postRow
	if err := conn.db.SelectContext(ctx, &rows, `SELECT `+selectList(cols)+` FROM posts`); err != nil {
		return nil, fmt.Errorf("op=post.list: %w: %v", domain.ErrQuery, err)
	}
	posts = make([]domain.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toDomain())
	}
	return posts, nil
}

// Get loads the post with the given id; found is false when no row matches.
func (r *PostRepo) Get(ctx domain.Context, id int64) (post domain.Post, found bool, err error) {
	ctx, op := startOperation(ctx, "get", "SELECT")
	defer func() { op.end(err) }()

	conn, err := r.Store.Open(ctx)
	if err != nil {
		return domain.Post{}, false, err
	}
	defer func() { _ = conn.Close() }()

	cols, err := tableColumns(ctx, conn.db)
	if err != nil {
		return domain.Post{}, false, fmt.Errorf("op=post.get: %w: columns: %v", domain.ErrQuery, err)
	}
	var row postRow
	q := `SELECT ` + selectList(cols) + ` FROM posts WHERE id = ?`
	if err := conn.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, false, nil
		}
		return domain.Post{}, false, fmt.Errorf("op=post.get: %w: %v", domain.ErrQuery, err)
	}
	return row.toDomain(), true, nil
}

// Count returns the number of posts, 0 when the count row is absent.
func (r *PostRepo) Count(ctx domain.Context) (n int64, err error) {
	ctx, op := startOperation(ctx, "count", "COUNT")
	defer func() { op.end(err) }()

	conn, err := r.Store.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = conn.Close() }()

	var count sql.NullInt64
	if err := conn.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts`); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("op=post.count: %w: %v", domain.ErrQuery, err)
	}
	return count.Int64, nil
}

// Insert stores a new post and returns the id assigned by the store.
// The write is committed before the connection is closed.
func (r *PostRepo) Insert(ctx domain.Context, title, content string) (id int64, err error) {
	ctx, op := startOperation(ctx, "insert", "INSERT")
	defer func() { op.end(err) }()

	conn, err := r.Store.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = conn.Close() }()

	tx, err := conn.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("op=post.insert: %w: begin: %v", domain.ErrQuery, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO posts (title, content) VALUES (?, ?)`, title, content)
	if err != nil {
		return 0, fmt.Errorf("op=post.insert: %w: %v", domain.ErrQuery, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("op=post.insert: %w: last insert id: %v", domain.ErrQuery, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("op=post.insert: %w: commit: %v", domain.ErrQuery, err)
	}
	return id, nil
}

// Check verifies that the posts table is present in the schema catalog, that
// it carries the columns reads depend on, and that it can be read. An empty
// table is healthy.
func (r *PostRepo) Check(ctx domain.Context) (err error) {
	ctx, op := startOperation(ctx, "check", "SELECT")
	defer func() { op.end(err) }()

	conn, err := r.Store.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	var name string
	q := `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`
	if err := conn.db.GetContext(ctx, &name, q, PostsTable); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("op=post.check: %w: table %q not found", domain.ErrSchemaMissing, PostsTable)
		}
		return fmt.Errorf("op=post.check: %w: catalog: %v", domain.ErrQuery, err)
	}

	cols, err := tableColumns(ctx, conn.db)
	if err != nil {
		return fmt.Errorf("op=post.check: %w: columns: %v", domain.ErrQuery, err)
	}
	if missing := missingColumns(cols); len(missing) > 0 {
		return fmt.Errorf("op=post.check: %w: table %q lacks columns %s", domain.ErrSchemaMissing, PostsTable, strings.Join(missing, ", "))
	}

	var one int
	if err := conn.db.GetContext(ctx, &one, `SELECT 1 FROM posts LIMIT 1`); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("op=post.check: %w: read: %v", domain.ErrQuery, err)
	}
	return nil
}

func missingColumns(cols []string) []string {
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[strings.ToLower(c)] = true
	}
	var missing []string
	for _, c := range requiredColumns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing
}
