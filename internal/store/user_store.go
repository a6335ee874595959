package store

import (
	"context"

	users "github.com/grahamford77/table-tennis/internal/user"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery        = "SELECT * FROM users WHERE id = ?"
	getUserByEmailQuery = "SELECT * FROM users WHERE email = ?"
	createUserQuery     = `
		INSERT INTO users (id, email, username, password_hash, is_admin, created_at) VALUES
		(:id, :email, :username, :password_hash, :is_admin, :created_at)
	`
	updateUserPasswordQuery = `
		UPDATE users SET
		password_hash = :password_hash
		WHERE id = :id
	`
	createResetTokenQuery = `
		INSERT INTO password_reset_tokens (token_hash, user_id, expires_at) VALUES
		(:token_hash, :user_id, :expires_at)
	`
	getResetTokenQuery            = "SELECT * FROM password_reset_tokens WHERE token_hash = ?"
	deleteResetTokensForUserQuery = "DELETE FROM password_reset_tokens WHERE user_id = ?"
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(ctx context.Context, id interface{}) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserQuery, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserByEmailQuery, email)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return err
}

func (s *UserStore) UpdateUserPassword(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, updateUserPasswordQuery, user)
	return err
}

func (s *UserStore) CreatePasswordResetToken(ctx context.Context, token *users.PasswordResetToken) error {
	_, err := s.db.NamedExecContext(ctx, createResetTokenQuery, token)
	return err
}

func (s *UserStore) GetPasswordResetToken(ctx context.Context, tokenHash string) (*users.PasswordResetToken, error) {
	var token users.PasswordResetToken
	err := s.db.GetContext(ctx, &token, getResetTokenQuery, tokenHash)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (s *UserStore) DeletePasswordResetTokens(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, deleteResetTokensForUserQuery, userID)
	return err
}
