// Package dialog implements the chat conversation: explicit commands first,
// then whatever the chat's current stage expects.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goalkeeper/internal/bus"
	"github.com/nextlevelbuilder/goalkeeper/internal/sessions"
	"github.com/nextlevelbuilder/goalkeeper/internal/store"
	"github.com/nextlevelbuilder/goalkeeper/pkg/protocol"
)

// Commands understood in any stage.
const (
	CmdGoals  = "/" + protocol.CommandGoals
	CmdCreate = "/" + protocol.CommandCreate
	CmdCancel = "/" + protocol.CommandCancel
	CmdHelp   = "/" + protocol.CommandHelp
)

// Identities resolves chats and onboards unlinked ones.
type Identities interface {
	Resolve(ctx context.Context, chatID, tgUserID int64, username string) (*store.TgUser, error)
	IsAuthorized(u *store.TgUser) bool
	Onboard(ctx context.Context, u *store.TgUser) (string, error)
}

// Dispatcher turns one inbound message into replies and the chat's next state.
type Dispatcher struct {
	identities Identities
	goals      store.GoalStore
	states     *sessions.Manager
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(identities Identities, goals store.GoalStore, states *sessions.Manager) *Dispatcher {
	return &Dispatcher{identities: identities, goals: goals, states: states}
}

// Handle processes msg and returns the replies to send, in order.
// When err is non-nil the replies already tell the user something failed;
// the error is returned for logging and tracing only.
func (d *Dispatcher) Handle(ctx context.Context, msg bus.Message) ([]string, error) {
	u, err := d.identities.Resolve(ctx, msg.ChatID, msg.UserID, msg.Username)
	if err != nil {
		return []string{replyGenericFailed}, err
	}

	if !d.identities.IsAuthorized(u) {
		code, err := d.identities.Onboard(ctx, u)
		if err != nil {
			return []string{replyGenericFailed}, err
		}
		slog.Info("verification code issued", "chat_id", msg.ChatID)
		return []string{formatGreeting(code)}, nil
	}

	return d.dispatch(ctx, *u.UserID, msg)
}

func (d *Dispatcher) dispatch(ctx context.Context, account uuid.UUID, msg bus.Message) ([]string, error) {
	chatID := msg.ChatID
	d.states.Touch(chatID)

	switch command(msg.Text) {
	case CmdGoals:
		return d.listGoals(ctx, account)
	case CmdCreate:
		return d.startCreate(ctx, chatID, account)
	case CmdCancel:
		d.states.Reset(chatID)
		return []string{replyCancelled}, nil
	case CmdHelp:
		return []string{helpText}, nil
	}

	switch st := d.states.Get(chatID).(type) {
	case sessions.AwaitingCategoryChoice:
		return d.chooseCategory(ctx, chatID, account, msg.Text)
	case sessions.AwaitingGoalTitle:
		return d.createGoal(ctx, chatID, account, st.Category, msg.Text)
	default:
		return []string{formatUnknownCommand(msg.Text)}, nil
	}
}

func (d *Dispatcher) listGoals(ctx context.Context, account uuid.UUID) ([]string, error) {
	goals, err := d.goals.ListGoals(ctx, account)
	if err != nil {
		return []string{replyGenericFailed}, fmt.Errorf("list goals: %w", err)
	}
	return []string{formatGoals(goals)}, nil
}

// startCreate moves to category choice even when the account has no categories.
func (d *Dispatcher) startCreate(ctx context.Context, chatID int64, account uuid.UUID) ([]string, error) {
	categories, err := d.goals.ListCategories(ctx, account)
	if err != nil {
		return []string{replyGenericFailed}, fmt.Errorf("list categories: %w", err)
	}

	var replies []string
	if len(categories) == 0 {
		replies = append(replies, replyNoCategories)
	}
	replies = append(replies, formatCategoryChooser(categories))
	d.states.Set(chatID, sessions.AwaitingCategoryChoice{})
	return replies, nil
}

func (d *Dispatcher) chooseCategory(ctx context.Context, chatID int64, account uuid.UUID, title string) ([]string, error) {
	cat, err := d.goals.FindCategoryByTitle(ctx, account, title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []string{formatCategoryNotFound(title)}, nil
		}
		return []string{replyGenericFailed}, fmt.Errorf("find category: %w", err)
	}
	d.states.Set(chatID, sessions.AwaitingGoalTitle{Category: *cat})
	return []string{replyEnterTitle}, nil
}

// createGoal returns the chat to Idle whether or not the goal was written.
// A title over the column limit is refused before any write and the stage is kept.
func (d *Dispatcher) createGoal(ctx context.Context, chatID int64, account uuid.UUID, cat store.Category, title string) ([]string, error) {
	if utf8.RuneCountInString(title) > store.MaxGoalTitleLen {
		return []string{replyTitleTooLong}, nil
	}
	defer d.states.Reset(chatID)

	goal, err := d.goals.CreateGoal(ctx, store.CreateGoalParams{
		Title:      title,
		CategoryID: cat.ID,
		UserID:     account,
	})
	switch {
	case err == nil:
		slog.Info("goal created", "chat_id", chatID, "goal_id", goal.ID, "category_id", cat.ID)
		return []string{formatGoalCreated(goal.Title)}, nil
	case errors.Is(err, store.ErrForbidden):
		return []string{replyNoPermission}, nil
	case errors.Is(err, store.ErrNotFound):
		return []string{replyCategoryGone}, nil
	default:
		return []string{replyGenericFailed}, fmt.Errorf("create goal: %w", err)
	}
}

// command extracts a bot command from text, dropping a "@botname" suffix.
// Text that is not a single slash command is returned unchanged.
func command(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "/") || strings.ContainsAny(t, " \n\t") {
		return text
	}
	t, _, _ = strings.Cut(t, "@")
	return strings.ToLower(t)
}
