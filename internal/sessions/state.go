package sessions

import "github.com/nextlevelbuilder/goalkeeper/internal/store"

// Stage is a position in the goal-creation dialog.
type Stage int

const (
	StageIdle Stage = iota
	StageAwaitingCategoryChoice
	StageAwaitingGoalTitle
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAwaitingCategoryChoice:
		return "awaiting_category_choice"
	case StageAwaitingGoalTitle:
		return "awaiting_goal_title"
	default:
		return "unknown"
	}
}

// State is one chat's dialog state. The set of implementations is closed:
// Idle, AwaitingCategoryChoice and AwaitingGoalTitle. Only AwaitingGoalTitle
// carries a category.
type State interface {
	Stage() Stage
	sealed()
}

// Idle is the resting state.
type Idle struct{}

// AwaitingCategoryChoice waits for the user to type a category title.
type AwaitingCategoryChoice struct{}

// AwaitingGoalTitle waits for the goal title; Category was chosen in the previous step.
type AwaitingGoalTitle struct {
	Category store.Category
}

func (Idle) Stage() Stage                   { return StageIdle }
func (AwaitingCategoryChoice) Stage() Stage { return StageAwaitingCategoryChoice }
func (AwaitingGoalTitle) Stage() Stage      { return StageAwaitingGoalTitle }

func (Idle) sealed()                   {}
func (AwaitingCategoryChoice) sealed() {}
func (AwaitingGoalTitle) sealed()      {}
