// Package repository содержит хранилища счетов и журнала транзакций.
// Сервисы получают хранилище через интерфейсы AccountStore/LedgerStore:
// боевая реализация работает поверх PostgreSQL (pgx), in-memory реализация
// используется в тестах. Жизненным циклом соединений владеет точка входа.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"ledger-prototype/internal/models"
)

var (
	ErrAccountNotFound = errors.New("счёт не найден")
	ErrNumberTaken     = errors.New("номер счёта уже занят")
	ErrUserNotFound    = errors.New("пользователь не найден")
	ErrUserNameTaken   = errors.New("имя пользователя уже занято")
)

// InsufficientFundsError - снятие превышает текущий баланс.
// Несёт баланс на момент проверки, чтобы вызывающий мог решить,
// повторять ли запрос с меньшей суммой.
type InsufficientFundsError struct {
	Balance decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("недостаточно средств (текущий баланс: %s)", e.Balance.StringFixed(2))
}

type AccountStore interface {
	// Create сохраняет новый счёт; коллизия номера возвращается как ErrNumberTaken.
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, accountID string) (*models.Account, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Account, error)
	NumberExists(ctx context.Context, number string) (bool, error)
}

// LedgerStore - журнал транзакций и сериализованные мутации.
// Deposit, Withdraw и DeleteAccount выполняются как единая единица
// сериализации для счёта: проверка баланса и запись в журнал атомарны
// относительно любых других мутаций того же счёта. Операции над разными
// счетами друг друга не блокируют.
type LedgerStore interface {
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*models.Transaction, decimal.Decimal, error)
	// Withdraw возвращает InsufficientFundsError, не записав ничего в журнал,
	// если сумма превышает баланс.
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*models.Transaction, decimal.Decimal, error)
	// Balance сворачивает журнал счёта: +amount за deposit, -amount за withdraw.
	// Читает без блокировки; может отставать от незавершённой мутации.
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
	// ListByAccount возвращает транзакции от новых к старым.
	ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error)
	// DeleteAccount удаляет транзакции и сам счёт как одну атомарную операцию.
	DeleteAccount(ctx context.Context, accountID string) error
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByName(ctx context.Context, name string) (*models.User, error)
}
