package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"ledger-prototype/internal/cache"
	"ledger-prototype/internal/models"
	"ledger-prototype/internal/repository"
	"ledger-prototype/internal/utils"
	"ledger-prototype/internal/worker"
)

var (
	ErrInvalidAmount   = errors.New("сумма должна быть больше 0")
	ErrAmountPrecision = errors.New("сумма не может иметь больше двух знаков после запятой")
)

// TransactionService координирует мутации журнала. Валидация и проверка
// владельца происходят здесь; атомарность проверки баланса и записи
// обеспечивает сериализованная единица хранилища (LedgerStore).
type TransactionService struct {
	ledger     repository.LedgerStore
	accounts   repository.AccountStore
	cache      *cache.RedisCache
	workerPool *worker.Pool
}

func NewTransactionService(
	ledger repository.LedgerStore,
	accounts repository.AccountStore,
) *TransactionService {
	return &TransactionService{
		ledger:   ledger,
		accounts: accounts,
		cache:    nil,
	}
}

func NewTransactionServiceWithCache(
	ledger repository.LedgerStore,
	accounts repository.AccountStore,
	cache *cache.RedisCache,
) *TransactionService {
	return &TransactionService{
		ledger:   ledger,
		accounts: accounts,
		cache:    cache,
	}
}

// SetWorkerPool подключает пул воркеров для асинхронной инвалидации кеша.
func (s *TransactionService) SetWorkerPool(pool *worker.Pool) {
	s.workerPool = pool
	utils.LogSuccess("TransactionService", "Worker Pool подключен к сервису транзакций")
}

// validateAmount: сумма строго положительна, не больше двух знаков после
// запятой. Более точные суммы отклоняются, а не округляются.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return ErrAmountPrecision
	}
	return nil
}

func (s *TransactionService) Deposit(ctx context.Context, ownerID, accountID string, amount decimal.Decimal, description string) (*models.Transaction, decimal.Decimal, error) {
	utils.LogInfo("TransactionService", "%s", fmt.Sprintf("Пополнение счёта %s на %s владельцем %s",
		accountID, amount.String(), ownerID))

	if err := validateAmount(amount); err != nil {
		return nil, decimal.Zero, err
	}

	if err := s.verifyOwnership(ctx, accountID, ownerID); err != nil {
		return nil, decimal.Zero, err
	}

	transaction, balance, err := s.ledger.Deposit(ctx, accountID, amount, description)
	if err != nil {
		utils.LogError("TransactionService", "Ошибка пополнения", err)
		return nil, decimal.Zero, err
	}

	s.invalidateBalanceAsync(ctx, ownerID, accountID, transaction.ID)
	return transaction, balance, nil
}

func (s *TransactionService) Withdraw(ctx context.Context, ownerID, accountID string, amount decimal.Decimal, description string) (*models.Transaction, decimal.Decimal, error) {
	utils.LogInfo("TransactionService", "%s", fmt.Sprintf("Снятие со счёта %s на %s владельцем %s",
		accountID, amount.String(), ownerID))

	if err := validateAmount(amount); err != nil {
		return nil, decimal.Zero, err
	}

	if err := s.verifyOwnership(ctx, accountID, ownerID); err != nil {
		return nil, decimal.Zero, err
	}

	transaction, balance, err := s.ledger.Withdraw(ctx, accountID, amount, description)
	if err != nil {
		var insufficient *repository.InsufficientFundsError
		if errors.As(err, &insufficient) {
			// Не сбой, а отказ по условию: журнал не изменился,
			// вызывающий получает текущий баланс и решает сам.
			utils.LogInfo("TransactionService", "%s", fmt.Sprintf("Отказ в снятии со счёта %s: %v", accountID, err))
			return nil, decimal.Zero, err
		}
		utils.LogError("TransactionService", "Ошибка снятия", err)
		return nil, decimal.Zero, err
	}

	s.invalidateBalanceAsync(ctx, ownerID, accountID, transaction.ID)
	return transaction, balance, nil
}

func (s *TransactionService) verifyOwnership(ctx context.Context, accountID, ownerID string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.OwnerID != ownerID {
		utils.LogWarning("TransactionService", "%s", fmt.Sprintf("Попытка мутации чужого счёта %s владельцем %s", accountID, ownerID))
		return ErrForeignAccount
	}
	return nil
}

// invalidateBalanceAsync сбрасывает кешированный баланс и список счетов
// владельца после коммита. Через Worker Pool, если он подключён; при
// переполненной очереди - синхронно.
func (s *TransactionService) invalidateBalanceAsync(ctx context.Context, ownerID, accountID, transactionID string) {
	if s.cache == nil {
		return
	}

	keys := []string{
		cache.AccountBalanceKey(accountID),
		cache.OwnerAccountsKey(ownerID),
	}

	if s.workerPool != nil {
		job := worker.Job{
			ID: fmt.Sprintf("cache-invalidate-%s", transactionID),
			Task: func() error {
				return s.cache.Delete(context.Background(), keys...)
			},
		}

		if err := s.workerPool.Submit(job); err != nil {
			utils.LogWarning("TransactionService", "Worker Pool переполнен, инвалидация кеша выполняется синхронно")
			_ = s.cache.Delete(ctx, keys...)
		} else {
			utils.LogDebug("TransactionService", "Инвалидация кеша поставлена в очередь для транзакции %s", transactionID)
		}
		return
	}

	_ = s.cache.Delete(ctx, keys...)
	utils.LogDebug("Cache", "Сброшен кеш баланса счёта %s", accountID)
}
