// Package channels provides the message source abstraction the bot polls.
// A source delivers updates in update-id order through long polling and sends
// plain text replies back to a chat.
package channels

import (
	"context"
	"unicode/utf8"

	"github.com/nextlevelbuilder/goalkeeper/internal/bus"
)

// Sender delivers an outbound text message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Source defines the interface that message source implementations must satisfy.
type Source interface {
	Sender

	// Name returns the source identifier (e.g., "telegram"). It also keys the persisted offset.
	Name() string

	// Fetch returns updates with UpdateID >= offset. It may block until an update
	// arrives or the long-poll timeout elapses; an empty batch is not an error.
	Fetch(ctx context.Context, offset int) ([]bus.Update, error)
}

// Truncate shortens a string to at most maxLen bytes, appending "..." if truncated.
// Multi-byte characters are never split.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:RuneCut(s, maxLen)] + "..."
}

// RuneCut returns the largest byte offset <= n that falls on a rune boundary of s.
// It returns the first rune's length when n would cut inside it, so callers always progress.
func RuneCut(s string, n int) int {
	if n >= len(s) {
		return len(s)
	}
	if n <= 0 {
		return 0
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}
