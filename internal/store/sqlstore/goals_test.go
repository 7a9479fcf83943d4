package sqlstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goalkeeper/internal/store"
)

func TestGoalStore_ListGoals(t *testing.T) {
	db := newTestDB(t)
	f := fixture{t: t, db: db}
	s := NewGoalStore(db, DialectSQLite)
	ctx := context.Background()

	alice := f.user("alice")
	bob := f.user("bob")
	board := f.board("Life", false)
	f.participant(board, alice, store.RoleOwner)
	work := f.category(board, alice, "Work", false)
	gone := f.category(board, alice, "Gone", true)

	f.goal(work, alice, "Ship release", store.GoalInProgress)
	f.goal(work, alice, "Answer mail", store.GoalToDo)
	f.goal(work, alice, "Old plan", store.GoalArchived)
	f.goal(gone, alice, "In deleted category", store.GoalToDo)
	f.goal(work, bob, "Not mine", store.GoalToDo)

	goals, err := s.ListGoals(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"Answer mail", "Ship release"}, goalTitles(goals))

	goals, err = s.ListGoals(ctx, uuid.Must(uuid.NewV7()))
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestGoalStore_ListCategories(t *testing.T) {
	db := newTestDB(t)
	f := fixture{t: t, db: db}
	s := NewGoalStore(db, DialectSQLite)
	ctx := context.Background()

	alice := f.user("alice")
	bob := f.user("bob")
	shared := f.board("Shared", false)
	private := f.board("Bob only", false)
	archived := f.board("Archived", true)
	f.participant(shared, alice, store.RoleReader)
	f.participant(shared, bob, store.RoleOwner)
	f.participant(private, bob, store.RoleOwner)
	f.participant(archived, alice, store.RoleOwner)

	f.category(shared, bob, "Work", false)
	f.category(shared, bob, "Home", false)
	f.category(shared, bob, "Deleted", true)
	f.category(private, bob, "Secret", false)
	f.category(archived, alice, "Dusty", false)

	cats, err := s.ListCategories(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Home,Work", categoryTitles(cats))

	cats, err = s.ListCategories(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "Home,Secret,Work", categoryTitles(cats))
}

func TestGoalStore_FindCategoryByTitle(t *testing.T) {
	db := newTestDB(t)
	f := fixture{t: t, db: db}
	s := NewGoalStore(db, DialectSQLite)
	ctx := context.Background()

	alice := f.user("alice")
	bob := f.user("bob")
	board := f.board("Life", false)
	f.participant(board, alice, store.RoleOwner)
	home := f.category(board, alice, "Home", false)
	f.category(board, alice, "Removed", true)

	other := f.board("Other", false)
	f.participant(other, bob, store.RoleOwner)
	f.category(other, bob, "Hidden", false)

	tests := []struct {
		name    string
		title   string
		want    uuid.UUID
		wantErr error
	}{
		{name: "exact match", title: "Home", want: home},
		{name: "case differs", title: "home", wantErr: store.ErrNotFound},
		{name: "deleted category", title: "Removed", wantErr: store.ErrNotFound},
		{name: "board without participation", title: "Hidden", wantErr: store.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := s.FindCategoryByTitle(ctx, alice, tt.title)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cat.ID)
			assert.Equal(t, board, cat.BoardID)
		})
	}
}

func TestGoalStore_CreateGoal(t *testing.T) {
	db := newTestDB(t)
	f := fixture{t: t, db: db}
	s := NewGoalStore(db, DialectSQLite)
	ctx := context.Background()

	owner := f.user("owner")
	writer := f.user("writer")
	reader := f.user("reader")
	stranger := f.user("stranger")
	board := f.board("Team", false)
	f.participant(board, owner, store.RoleOwner)
	f.participant(board, writer, store.RoleWriter)
	f.participant(board, reader, store.RoleReader)
	cat := f.category(board, owner, "Sprint", false)
	deleted := f.category(board, owner, "Dropped", true)

	t.Run("writer creates goal", func(t *testing.T) {
		g, err := s.CreateGoal(ctx, store.CreateGoalParams{Title: "Buy milk", CategoryID: cat, UserID: writer})
		require.NoError(t, err)
		assert.Equal(t, "Buy milk", g.Title)
		assert.Equal(t, store.GoalToDo, g.Status)
		assert.Equal(t, store.PriorityMedium, g.Priority)

		goals, err := s.ListGoals(ctx, writer)
		require.NoError(t, err)
		require.Len(t, goals, 1)
		assert.Equal(t, g.ID, goals[0].ID)
		assert.Equal(t, cat, goals[0].CategoryID)
	})

	t.Run("reader is forbidden", func(t *testing.T) {
		_, err := s.CreateGoal(ctx, store.CreateGoalParams{Title: "Nope", CategoryID: cat, UserID: reader})
		require.ErrorIs(t, err, store.ErrForbidden)
	})

	t.Run("non participant gets not found", func(t *testing.T) {
		_, err := s.CreateGoal(ctx, store.CreateGoalParams{Title: "Nope", CategoryID: cat, UserID: stranger})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("deleted category", func(t *testing.T) {
		_, err := s.CreateGoal(ctx, store.CreateGoalParams{Title: "Late", CategoryID: deleted, UserID: owner})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("board deleted after category was chosen", func(t *testing.T) {
		closing := f.board("Closing", false)
		f.participant(closing, owner, store.RoleOwner)
		last := f.category(closing, owner, "Last", false)
		f.exec(`UPDATE boards SET is_deleted = ? WHERE id = ?`, true, closing)

		_, err := s.CreateGoal(ctx, store.CreateGoalParams{Title: "Orphan", CategoryID: last, UserID: owner})
		require.ErrorIs(t, err, store.ErrNotFound)

		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM goals WHERE category_id = ?`, last).Scan(&n))
		assert.Zero(t, n)
	})
}

func TestOffsetStore(t *testing.T) {
	db := newTestDB(t)
	s := NewOffsetStore(db, DialectSQLite)
	ctx := context.Background()

	offset, err := s.Load(ctx, "main")
	require.NoError(t, err)
	assert.Zero(t, offset)

	require.NoError(t, s.Save(ctx, "main", 101))
	require.NoError(t, s.Save(ctx, "main", 205))
	require.NoError(t, s.Save(ctx, "other", 7))

	offset, err = s.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, 205, offset)
}
