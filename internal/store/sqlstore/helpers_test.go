package sqlstore

import (
	"context"
	"database/sql"
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goalkeeper/internal/store"
	"github.com/nextlevelbuilder/goalkeeper/migrations"
)

// newTestDB returns an in-memory SQLite database with every up migration applied.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	files, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	sort.Strings(files)
	for _, name := range files {
		body, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		_, err = db.ExecContext(ctx, string(body))
		require.NoError(t, err, "apply %s", name)
	}
	return db
}

type fixture struct {
	t  *testing.T
	db *sql.DB
}

func (f fixture) exec(query string, args ...any) {
	f.t.Helper()
	_, err := f.db.Exec(query, args...)
	require.NoError(f.t, err)
}

func (f fixture) user(username string) uuid.UUID {
	id := uuid.Must(uuid.NewV7())
	f.exec(`INSERT INTO users (id, username) VALUES (?, ?)`, id, username)
	return id
}

func (f fixture) board(title string, deleted bool) uuid.UUID {
	id := uuid.Must(uuid.NewV7())
	f.exec(`INSERT INTO boards (id, title, is_deleted) VALUES (?, ?, ?)`, id, title, deleted)
	return id
}

func (f fixture) participant(board, user uuid.UUID, role store.Role) {
	f.exec(`INSERT INTO board_participants (id, board_id, user_id, role) VALUES (?, ?, ?, ?)`,
		uuid.Must(uuid.NewV7()), board, user, int16(role))
}

func (f fixture) category(board, user uuid.UUID, title string, deleted bool) uuid.UUID {
	id := uuid.Must(uuid.NewV7())
	f.exec(`INSERT INTO goal_categories (id, title, board_id, user_id, is_deleted) VALUES (?, ?, ?, ?, ?)`,
		id, title, board, user, deleted)
	return id
}

func (f fixture) goal(category, user uuid.UUID, title string, status store.GoalStatus) uuid.UUID {
	id := uuid.Must(uuid.NewV7())
	f.exec(`INSERT INTO goals (id, title, category_id, user_id, status) VALUES (?, ?, ?, ?, ?)`,
		id, title, category, user, int16(status))
	return id
}

func goalTitles(goals []store.Goal) []string {
	out := make([]string, 0, len(goals))
	for _, g := range goals {
		out = append(out, g.Title)
	}
	return out
}

func categoryTitles(cats []store.Category) string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.Title)
	}
	return strings.Join(out, ",")
}
