package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledger-prototype/internal/models"
	"ledger-prototype/internal/utils"
)

const pgUniqueViolation = "23505"

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, owner_id, number, name, status, created_at)
		VALUES ($1, $2, $3, $4, 'active', NOW())
		RETURNING status, created_at
	`

	err := r.db.QueryRow(ctx, query,
		account.ID, account.OwnerID, account.Number, account.Name,
	).Scan(&account.Status, &account.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// Кто-то успел вставить тот же номер между проверкой и вставкой.
			utils.LogWarning("AccountRepo", "%s", fmt.Sprintf("Гонка по номеру счёта %s", account.Number))
			return ErrNumberTaken
		}
		return fmt.Errorf("ошибка создания счёта: %w", err)
	}

	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, accountID string) (*models.Account, error) {
	query := `
		SELECT id, owner_id, number, name, status, created_at
		FROM accounts
		WHERE id = $1
	`

	var account models.Account
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&account.ID,
		&account.OwnerID,
		&account.Number,
		&account.Name,
		&account.Status,
		&account.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("ошибка получения счёта: %w", err)
	}

	return &account, nil
}

func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Account, error) {
	query := `
		SELECT id, owner_id, number, name, status, created_at
		FROM accounts
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка счетов: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var account models.Account
		err := rows.Scan(
			&account.ID,
			&account.OwnerID,
			&account.Number,
			&account.Name,
			&account.Status,
			&account.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования счёта: %w", err)
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func (r *AccountRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM accounts WHERE number = $1)", number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки номера счёта: %w", err)
	}
	return exists, nil
}
