package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ledger-prototype/internal/models"
	"ledger-prototype/internal/utils"
)

// LedgerRepository - журнал транзакций поверх PostgreSQL.
// Единица сериализации мутаций - транзакция БД, открывающаяся блокировкой
// строки счёта (SELECT ... FOR UPDATE) и удерживающая её до commit/rollback.
// Проверка баланса и вставка записи происходят под этой блокировкой, поэтому
// два конкурентных снятия не могут оба пройти проверку по одному балансу.
type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// lockAccount блокирует строку счёта до конца транзакции БД.
func lockAccount(ctx context.Context, tx pgx.Tx, accountID string) error {
	var id string
	err := tx.QueryRow(ctx, "SELECT id FROM accounts WHERE id = $1 FOR UPDATE", accountID).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrAccountNotFound
		}
		return fmt.Errorf("ошибка блокировки счёта: %w", err)
	}
	return nil
}

// foldBalance сворачивает журнал счёта в баланс. Свёртка коммутативна,
// порядок записей на результат не влияет. Неизвестные типы транзакций
// игнорируются, а не валят запрос: схема резервирует типы на будущее.
func foldBalance(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, accountID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE type
				WHEN 'deposit' THEN amount
				WHEN 'withdraw' THEN -amount
				ELSE 0
			END
		), 0)
		FROM transactions
		WHERE account_id = $1
	`

	var balance decimal.Decimal
	if err := q.QueryRow(ctx, query, accountID).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("ошибка подсчёта баланса: %w", err)
	}
	return balance, nil
}

func appendTransaction(ctx context.Context, tx pgx.Tx, accountID, kind string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (id, account_id, amount, type, description, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NOW())
		RETURNING id, account_id, amount, type, COALESCE(description, ''), created_at
	`

	var transaction models.Transaction
	err := tx.QueryRow(ctx, query,
		uuid.New().String(), accountID, amount, kind, description,
	).Scan(
		&transaction.ID,
		&transaction.AccountID,
		&transaction.Amount,
		&transaction.Type,
		&transaction.Description,
		&transaction.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи транзакции: %w", err)
	}
	return &transaction, nil
}

func (r *LedgerRepository) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*models.Transaction, decimal.Decimal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockAccount(ctx, tx, accountID); err != nil {
		return nil, decimal.Zero, err
	}

	balance, err := foldBalance(ctx, tx, accountID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	transaction, err := appendTransaction(ctx, tx, accountID, models.KindDeposit, amount, description)
	if err != nil {
		return nil, decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, decimal.Zero, fmt.Errorf("ошибка подтверждения транзакции: %w", err)
	}

	newBalance := balance.Add(amount)
	utils.LogSuccess("LedgerRepo", "%s", fmt.Sprintf("Пополнение %s счёта %s на %s (баланс: %s)",
		transaction.ID, accountID, amount.StringFixed(2), newBalance.StringFixed(2)))

	return transaction, newBalance, nil
}

func (r *LedgerRepository) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*models.Transaction, decimal.Decimal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockAccount(ctx, tx, accountID); err != nil {
		return nil, decimal.Zero, err
	}

	balance, err := foldBalance(ctx, tx, accountID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	if amount.GreaterThan(balance) {
		// Отклонённое снятие не оставляет следа в журнале: rollback по defer.
		return nil, decimal.Zero, &InsufficientFundsError{Balance: balance}
	}

	transaction, err := appendTransaction(ctx, tx, accountID, models.KindWithdraw, amount, description)
	if err != nil {
		return nil, decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, decimal.Zero, fmt.Errorf("ошибка подтверждения транзакции: %w", err)
	}

	newBalance := balance.Sub(amount)
	utils.LogSuccess("LedgerRepo", "%s", fmt.Sprintf("Снятие %s со счёта %s на %s (баланс: %s)",
		transaction.ID, accountID, amount.StringFixed(2), newBalance.StringFixed(2)))

	return transaction, newBalance, nil
}

func (r *LedgerRepository) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return foldBalance(ctx, r.db, accountID)
}

func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	query := `
		SELECT id, account_id, amount, type, COALESCE(description, ''), created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(
			&t.ID,
			&t.AccountID,
			&t.Amount,
			&t.Type,
			&t.Description,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}

// DeleteAccount удаляет журнал и счёт одной транзакцией БД под той же
// блокировкой строки, что и мутации: конкурентное пополнение либо пройдёт
// целиком до удаления, либо получит "счёт не найден".
func (r *LedgerRepository) DeleteAccount(ctx context.Context, accountID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockAccount(ctx, tx, accountID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM transactions WHERE account_id = $1", accountID); err != nil {
		return fmt.Errorf("ошибка удаления транзакций счёта: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM accounts WHERE id = $1", accountID); err != nil {
		return fmt.Errorf("ошибка удаления счёта: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка подтверждения транзакции: %w", err)
	}

	utils.LogSuccess("LedgerRepo", "%s", fmt.Sprintf("Счёт %s удалён вместе с журналом", accountID))
	return nil
}
