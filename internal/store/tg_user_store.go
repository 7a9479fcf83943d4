package store

import (
	"context"

	"github.com/google/uuid"
)

// TgUser is a Telegram chat known to the bot. UserID stays nil until the chat
// is linked to an account with a verification code.
type TgUser struct {
	ChatID           int64
	TgUserID         int64
	Username         string
	UserID           *uuid.UUID
	VerificationCode string
}

// IsLinked reports whether the chat is linked to an account.
func (u *TgUser) IsLinked() bool {
	return u != nil && u.UserID != nil && *u.UserID != uuid.Nil
}

// TgUserStore persists chat identities and their verification codes.
type TgUserStore interface {
	// GetOrCreate returns the identity for chatID, creating an unlinked one on first contact.
	GetOrCreate(ctx context.Context, chatID, tgUserID int64, username string) (*TgUser, error)
	// SetVerificationCode replaces any pending code for chatID.
	// Returns ErrAlreadyExists when another chat holds the same code.
	SetVerificationCode(ctx context.Context, chatID int64, code string) error
	GetByVerificationCode(ctx context.Context, code string) (*TgUser, error)
	// Link attaches the account and clears the pending code.
	Link(ctx context.Context, chatID int64, userID uuid.UUID) error
}

// User is an internal account.
type User struct {
	ID       uuid.UUID
	Username string
}

// UserStore looks up internal accounts.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// OffsetStore persists the polling offset per bot so restarts resume where they stopped.
type OffsetStore interface {
	// Load returns 0 when nothing was saved yet.
	Load(ctx context.Context, bot string) (int, error)
	Save(ctx context.Context, bot string, offset int) error
}
