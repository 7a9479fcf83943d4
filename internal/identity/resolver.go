// Package identity maps Telegram chats to internal accounts and runs the
// verification-code handshake for chats that are not linked yet.
package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nextlevelbuilder/goalkeeper/internal/store"
)

// codeAlphabet omits characters that are easy to misread (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	codeLength      = 12
	maxCodeAttempts = 3
)

// ErrInvalidCode is returned by Link when no chat holds the given code.
var ErrInvalidCode = errors.New("identity: invalid verification code")

// Resolver resolves chat identities and issues verification codes.
type Resolver struct {
	tgUsers store.TgUserStore
	users   store.UserStore
	newCode func() (string, error)
}

// NewResolver creates a Resolver backed by the given stores.
func NewResolver(tgUsers store.TgUserStore, users store.UserStore) *Resolver {
	return &Resolver{tgUsers: tgUsers, users: users, newCode: GenerateCode}
}

// Resolve returns the identity for chatID, creating it on first contact.
func (r *Resolver) Resolve(ctx context.Context, chatID, tgUserID int64, username string) (*store.TgUser, error) {
	u, err := r.tgUsers.GetOrCreate(ctx, chatID, tgUserID, username)
	if err != nil {
		return nil, fmt.Errorf("resolve chat %d: %w", chatID, err)
	}
	return u, nil
}

// IsAuthorized reports whether the identity is linked to an account.
func (r *Resolver) IsAuthorized(u *store.TgUser) bool {
	return u.IsLinked()
}

// Onboard issues a fresh verification code for u, replacing any pending one.
// A collision with another chat's code is retried with a new code.
func (r *Resolver) Onboard(ctx context.Context, u *store.TgUser) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := r.newCode()
		if err != nil {
			return "", fmt.Errorf("generate verification code: %w", err)
		}
		err = r.tgUsers.SetVerificationCode(ctx, u.ChatID, code)
		if err == nil {
			u.VerificationCode = code
			return code, nil
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return "", fmt.Errorf("store verification code: %w", err)
		}
		slog.Warn("verification code collision", "chat_id", u.ChatID, "attempt", attempt)
		lastErr = err
	}
	return "", fmt.Errorf("store verification code after %d attempts: %w", maxCodeAttempts, lastErr)
}

// Link consumes a pending verification code and attaches the chat to the
// account named username. The code cannot be used again.
func (r *Resolver) Link(ctx context.Context, code, username string) (*store.TgUser, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	tgUser, err := r.tgUsers.GetByVerificationCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("look up verification code: %w", err)
	}

	account, err := r.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("look up user %q: %w", username, err)
	}

	if err := r.tgUsers.Link(ctx, tgUser.ChatID, account.ID); err != nil {
		return nil, fmt.Errorf("link chat %d: %w", tgUser.ChatID, err)
	}
	tgUser.UserID = &account.ID
	tgUser.VerificationCode = ""
	return tgUser, nil
}

// GenerateCode returns a random code drawn from codeAlphabet.
func GenerateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	// 256 % 31 leaves a slight bias toward the first characters; fine for a one-time code.
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeCode trims and upper-cases a code typed by a human.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
