package store

import (
	"context"

	"github.com/google/uuid"
)

// Role is a board participant role.
type Role int16

const (
	RoleOwner  Role = 1
	RoleWriter Role = 2
	RoleReader Role = 3
)

// CanWrite reports whether the role may add goals to the board's categories.
func (r Role) CanWrite() bool {
	return r == RoleOwner || r == RoleWriter
}

// GoalStatus is the lifecycle status of a goal.
type GoalStatus int16

const (
	GoalToDo       GoalStatus = 1
	GoalInProgress GoalStatus = 2
	GoalDone       GoalStatus = 3
	GoalArchived   GoalStatus = 4
)

// GoalPriority orders goals by importance.
type GoalPriority int16

const (
	PriorityLow      GoalPriority = 1
	PriorityMedium   GoalPriority = 2
	PriorityHigh     GoalPriority = 3
	PriorityCritical GoalPriority = 4
)

// Category groups goals on a board.
type Category struct {
	ID      uuid.UUID
	BoardID uuid.UUID
	Title   string
}

// Goal is a tracked goal owned by an account.
type Goal struct {
	ID         uuid.UUID
	Title      string
	CategoryID uuid.UUID
	UserID     uuid.UUID
	Status     GoalStatus
	Priority   GoalPriority
}

// MaxGoalTitleLen is the goals.title column width in characters.
const MaxGoalTitleLen = 255

// CreateGoalParams holds the fields the bot sets when creating a goal.
type CreateGoalParams struct {
	Title      string
	CategoryID uuid.UUID
	UserID     uuid.UUID
}

// GoalStore exposes the goal and category queries the bot needs.
// All queries are scoped to boards the account participates in.
type GoalStore interface {
	// ListGoals returns non-archived goals of the account in non-deleted categories.
	ListGoals(ctx context.Context, userID uuid.UUID) ([]Goal, error)
	// ListCategories returns non-deleted categories on the account's boards, ordered by title.
	ListCategories(ctx context.Context, userID uuid.UUID) ([]Category, error)
	// FindCategoryByTitle matches the title exactly. Returns ErrNotFound on a miss.
	FindCategoryByTitle(ctx context.Context, userID uuid.UUID, title string) (*Category, error)
	// CreateGoal returns ErrNotFound if the category is gone and ErrForbidden
	// if the account is only a reader on its board.
	CreateGoal(ctx context.Context, p CreateGoalParams) (*Goal, error)
}
