package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goalkeeper/internal/store"
)

// GoalStore implements store.GoalStore.
type GoalStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewGoalStore(db *sql.DB, dialect Dialect) *GoalStore {
	return &GoalStore{db: db, sb: dialect.builder()}
}

func (s *GoalStore) ListGoals(ctx context.Context, userID uuid.UUID) ([]store.Goal, error) {
	q, args, err := s.sb.
		Select("g.id", "g.title", "g.category_id", "g.user_id", "g.status", "g.priority").
		From("goals g").
		Join("goal_categories c ON c.id = g.category_id").
		Where(sq.Eq{"g.user_id": userID, "c.is_deleted": false}).
		Where(sq.NotEq{"g.status": int16(store.GoalArchived)}).
		OrderBy("g.title", "g.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err, "goals of user", userID)
	}
	defer rows.Close()

	var goals []store.Goal
	for rows.Next() {
		var g store.Goal
		if err := rows.Scan(&g.ID, &g.Title, &g.CategoryID, &g.UserID, &g.Status, &g.Priority); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// visibleCategories selects non-deleted categories on live boards the user participates in.
func (s *GoalStore) visibleCategories(userID uuid.UUID) sq.SelectBuilder {
	return s.sb.
		Select("c.id", "c.board_id", "c.title").
		From("goal_categories c").
		Join("boards b ON b.id = c.board_id").
		Join("board_participants p ON p.board_id = c.board_id").
		Where(sq.Eq{"p.user_id": userID, "c.is_deleted": false, "b.is_deleted": false})
}

func (s *GoalStore) ListCategories(ctx context.Context, userID uuid.UUID) ([]store.Category, error) {
	q, args, err := s.visibleCategories(userID).OrderBy("c.title", "c.id").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err, "categories of user", userID)
	}
	defer rows.Close()

	var cats []store.Category
	for rows.Next() {
		var c store.Category
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Title); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *GoalStore) FindCategoryByTitle(ctx context.Context, userID uuid.UUID, title string) (*store.Category, error) {
	q, args, err := s.visibleCategories(userID).
		Where(sq.Eq{"c.title": title}).
		OrderBy("c.id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var c store.Category
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&c.ID, &c.BoardID, &c.Title); err != nil {
		return nil, mapError(err, "category", title)
	}
	return &c, nil
}

func (s *GoalStore) CreateGoal(ctx context.Context, p store.CreateGoalParams) (*store.Goal, error) {
	role, err := s.roleInCategory(ctx, p.UserID, p.CategoryID)
	if err != nil {
		return nil, err
	}
	if !role.CanWrite() {
		return nil, fmt.Errorf("category %s: %w", p.CategoryID, store.ErrForbidden)
	}

	g := store.Goal{
		ID:         uuid.Must(uuid.NewV7()),
		Title:      p.Title,
		CategoryID: p.CategoryID,
		UserID:     p.UserID,
		Status:     store.GoalToDo,
		Priority:   store.PriorityMedium,
	}
	now := time.Now().UTC()

	q, args, err := s.sb.Insert("goals").
		Columns("id", "title", "category_id", "user_id", "status", "priority", "created_at", "updated_at").
		Values(g.ID, g.Title, g.CategoryID, g.UserID, int16(g.Status), int16(g.Priority), now, now).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, mapError(err, "goal", g.Title)
	}
	return &g, nil
}

// roleInCategory returns the user's role on the live board owning a live category.
func (s *GoalStore) roleInCategory(ctx context.Context, userID, categoryID uuid.UUID) (store.Role, error) {
	q, args, err := s.sb.
		Select("p.role").
		From("goal_categories c").
		Join("boards b ON b.id = c.board_id").
		Join("board_participants p ON p.board_id = c.board_id").
		Where(sq.Eq{"c.id": categoryID, "p.user_id": userID, "c.is_deleted": false, "b.is_deleted": false}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var role store.Role
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&role); err != nil {
		return 0, mapError(err, "category", categoryID)
	}
	return role, nil
}

// OffsetStore implements store.OffsetStore.
type OffsetStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewOffsetStore(db *sql.DB, dialect Dialect) *OffsetStore {
	return &OffsetStore{db: db, sb: dialect.builder()}
}

func (s *OffsetStore) Load(ctx context.Context, bot string) (int, error) {
	q, args, err := s.sb.Select("update_offset").From("bot_offsets").Where(sq.Eq{"bot": bot}).ToSql()
	if err != nil {
		return 0, err
	}
	var offset int64
	err = s.db.QueryRowContext(ctx, q, args...).Scan(&offset)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, mapError(err, "offset", bot)
	}
	return int(offset), nil
}

func (s *OffsetStore) Save(ctx context.Context, bot string, offset int) error {
	q, args, err := s.sb.Insert("bot_offsets").
		Columns("bot", "update_offset", "updated_at").
		Values(bot, int64(offset), time.Now().UTC()).
		Suffix("ON CONFLICT (bot) DO UPDATE SET update_offset = EXCLUDED.update_offset, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return mapError(err, "offset", bot)
	}
	return nil
}
