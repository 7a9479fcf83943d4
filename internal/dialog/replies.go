package dialog

import (
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/goalkeeper/internal/store"
	"github.com/nextlevelbuilder/goalkeeper/pkg/protocol"
)

const (
	replyNoGoals       = "No goals"
	replyNoCategories  = "No categories found"
	replyCancelled     = "Cancelled"
	replyEnterTitle    = "Enter goal title"
	replyNoPermission  = "You have no permission to add goals to this category"
	replyCategoryGone  = "The selected category no longer exists, start again with /create"
	replyGenericFailed = "Something went wrong, try again"
)

var replyTitleTooLong = fmt.Sprintf("Goal title is too long (max %d characters), send a shorter one", store.MaxGoalTitleLen)

var helpText = formatHelp(protocol.Commands())

func formatHelp(cmds []protocol.Command) string {
	var b strings.Builder
	b.WriteString("Available commands:")
	for _, c := range cmds {
		fmt.Fprintf(&b, "\n%s - %s", c.Slash(), c.Description)
	}
	return b.String()
}

func formatGoals(goals []store.Goal) string {
	if len(goals) == 0 {
		return replyNoGoals
	}
	lines := make([]string, len(goals))
	for i, g := range goals {
		lines[i] = "# " + g.Title
	}
	return strings.Join(lines, "\n")
}

func formatCategoryChooser(categories []store.Category) string {
	var b strings.Builder
	b.WriteString("Choose a category:")
	for _, c := range categories {
		b.WriteString("\n-> ")
		b.WriteString(c.Title)
	}
	return b.String()
}

func formatGreeting(code string) string {
	return fmt.Sprintf("Hello! Verification code: %s\n"+
		"Ask an administrator to link it to your account, then send /help.", code)
}

func formatCategoryNotFound(title string) string {
	return fmt.Sprintf("Category %q not found", title)
}

func formatGoalCreated(title string) string {
	return fmt.Sprintf("Goal %q created", title)
}

func formatUnknownCommand(text string) string {
	return "Unknown command: " + text
}
