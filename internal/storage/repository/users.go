package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ekunemmanuel/blog-saas/internal/models"
)

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, username, password_hash, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByEmail возвращает пользователя по его email.
// Используется и при входе в систему, и как индекс сопоставления
// клиента провайдера с внутренним пользователем при обработке вебхуков.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, customer_code,
			      subscription, created_at, updated_at
			  FROM users
			  WHERE email = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, email), op)
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, customer_code,
			      subscription, created_at, updated_at
			  FROM users
			  WHERE uid = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, userUID), op)
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	var customerCode sql.NullString
	var subscriptionJSON []byte

	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &customerCode, &subscriptionJSON, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if customerCode.Valid {
		u.CustomerCode = customerCode.String
	}
	if len(subscriptionJSON) > 0 {
		var sub models.Subscription
		if err := json.Unmarshal(subscriptionJSON, &sub); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		u.Subscription = &sub
	}
	return u, nil
}

// UpdateUserSubscription записывает подписку пользователя целиком одним
// запросом. Обновляются только колонки subscription, customer_code и
// updated_at, остальные поля документа не затрагиваются.
// Если пользователя уже нет, возвращает ErrUserNotFound.
func (s *Storage) UpdateUserSubscription(ctx context.Context, userUID string, sub *models.Subscription) error {
	const op = "storage.UpdateUserSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	subscriptionJSON, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE users
		      SET subscription = $1,
			      customer_code = $2,
			      updated_at = CURRENT_TIMESTAMP
		      WHERE uid = $3`
	result, err := s.DB.ExecContext(ctx, query, subscriptionJSON, sub.CustomerCode, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}
