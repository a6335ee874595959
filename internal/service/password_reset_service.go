package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/grahamford77/table-tennis/internal/mail"
	"github.com/grahamford77/table-tennis/internal/store"
	users "github.com/grahamford77/table-tennis/internal/user"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenLifetime = time.Hour

type PasswordResetService struct {
	db      *sqlx.DB
	store   *store.UserStore
	mailer  mail.Mailer
	baseURL string
}

func NewPasswordResetService(db *sqlx.DB, store *store.UserStore, mailer mail.Mailer, baseURL string) *PasswordResetService {
	return &PasswordResetService{db: db, store: store, mailer: mailer, baseURL: baseURL}
}

// RequestReset issues a reset token and emails the reset link. An unknown
// email succeeds silently so the endpoint cannot be used to probe accounts.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	token := hex.EncodeToString(raw)

	record := &users.PasswordResetToken{
		TokenHash: hashToken(token),
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(resetTokenLifetime),
	}
	if err := s.store.CreatePasswordResetToken(ctx, record); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link := s.baseURL + "/reset-password?token=" + token
	body := "<p>Hi " + user.Username + ",</p>" +
		"<p>Click <a href=\"" + link + "\">here</a> to reset your password. " +
		"The link expires in one hour.</p>"

	if err := s.mailer.Send(user.Email, "Reset your password", body); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	record, err := s.store.GetPasswordResetToken(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}
	if record.IsExpired(time.Now().UTC()) {
		return ErrInvalidResetToken
	}

	user, err := s.store.GetUser(ctx, record.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.store.UpdateUserPassword(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// A used token, and any other outstanding ones, must not be replayable.
	return s.store.DeletePasswordResetTokens(ctx, user.ID.String())
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
