package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goalkeeper/internal/store"
)

// TgUserStore implements store.TgUserStore.
type TgUserStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewTgUserStore(db *sql.DB, dialect Dialect) *TgUserStore {
	return &TgUserStore{db: db, sb: dialect.builder()}
}

var tgUserSelectCols = []string{"chat_id", "tg_user_id", "username", "user_id", "verification_code"}

func (s *TgUserStore) GetOrCreate(ctx context.Context, chatID, tgUserID int64, username string) (*store.TgUser, error) {
	now := time.Now().UTC()
	insert, args, err := s.sb.Insert("tg_users").
		Columns("chat_id", "tg_user_id", "username", "created_at", "updated_at").
		Values(chatID, tgUserID, username, now, now).
		Suffix("ON CONFLICT (chat_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, insert, args...); err != nil {
		return nil, mapError(err, "tg_user", chatID)
	}
	return s.get(ctx, sq.Eq{"chat_id": chatID}, chatID)
}

func (s *TgUserStore) GetByVerificationCode(ctx context.Context, code string) (*store.TgUser, error) {
	return s.get(ctx, sq.Eq{"verification_code": code}, code)
}

func (s *TgUserStore) SetVerificationCode(ctx context.Context, chatID int64, code string) error {
	return s.update(ctx, chatID, map[string]any{"verification_code": code})
}

func (s *TgUserStore) Link(ctx context.Context, chatID int64, userID uuid.UUID) error {
	return s.update(ctx, chatID, map[string]any{
		"user_id":           userID,
		"verification_code": nil,
	})
}

func (s *TgUserStore) update(ctx context.Context, chatID int64, set map[string]any) error {
	set["updated_at"] = time.Now().UTC()
	q, args, err := s.sb.Update("tg_users").SetMap(set).Where(sq.Eq{"chat_id": chatID}).ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return mapError(err, "tg_user", chatID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapError(sql.ErrNoRows, "tg_user", chatID)
	}
	return nil
}

func (s *TgUserStore) get(ctx context.Context, where sq.Sqlizer, key any) (*store.TgUser, error) {
	q, args, err := s.sb.Select(tgUserSelectCols...).From("tg_users").Where(where).ToSql()
	if err != nil {
		return nil, err
	}

	var (
		u      store.TgUser
		userID uuid.NullUUID
		code   sql.NullString
	)
	err = s.db.QueryRowContext(ctx, q, args...).Scan(&u.ChatID, &u.TgUserID, &u.Username, &userID, &code)
	if err != nil {
		return nil, mapError(err, "tg_user", key)
	}
	if userID.Valid {
		id := userID.UUID
		u.UserID = &id
	}
	u.VerificationCode = code.String
	return &u, nil
}

// UserStore implements store.UserStore.
type UserStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewUserStore(db *sql.DB, dialect Dialect) *UserStore {
	return &UserStore{db: db, sb: dialect.builder()}
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*store.User, error) {
	q, args, err := s.sb.Select("id", "username").From("users").Where(sq.Eq{"username": username}).ToSql()
	if err != nil {
		return nil, err
	}
	var u store.User
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&u.ID, &u.Username); err != nil {
		return nil, mapError(err, "user", username)
	}
	return &u, nil
}
