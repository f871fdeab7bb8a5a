package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gomemo-fmtpla/backend/internal/domain"
)

func (s *Store) CreateUser(ctx context.Context, username, email, hashedPassword string) (domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, hashed_password)
		VALUES ($1, $2, $3)
		RETURNING id, username, email, hashed_password, subscription_plan,
			subscription_end_date, receipt_data, created_at`,
		username, email, hashedPassword).
		Scan(&user.ID, &user.Username, &user.Email, &user.HashedPassword,
			&user.SubscriptionPlan, &user.SubscriptionEndDate, &user.ReceiptData, &user.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.User{}, domain.Conflict("username or email already taken", err)
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, hashed_password, subscription_plan,
			subscription_end_date, receipt_data, created_at
		FROM users WHERE username = $1`, username).
		Scan(&user.ID, &user.Username, &user.Email, &user.HashedPassword,
			&user.SubscriptionPlan, &user.SubscriptionEndDate, &user.ReceiptData, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.NotFoundf("user %q not found", username)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, userID int64, plan domain.SubscriptionPlan, endDate *time.Time, receipt string) (domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET subscription_plan = $2, subscription_end_date = $3, receipt_data = $4
		WHERE id = $1
		RETURNING id, username, email, hashed_password, subscription_plan,
			subscription_end_date, receipt_data, created_at`,
		userID, plan, endDate, receipt).
		Scan(&user.ID, &user.Username, &user.Email, &user.HashedPassword,
			&user.SubscriptionPlan, &user.SubscriptionEndDate, &user.ReceiptData, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.NotFoundf("user %d not found", userID)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("update subscription: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user and everything they own.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM note_metadata WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("delete metadata: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("delete notes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM folders WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("delete folders: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.NotFoundf("user %d not found", userID)
		}
		return nil
	})
}
