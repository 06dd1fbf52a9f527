package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"ledger-prototype/internal/cache"
	"ledger-prototype/internal/models"
	"ledger-prototype/internal/numgen"
	"ledger-prototype/internal/repository"
	"ledger-prototype/internal/utils"
)

var (
	ErrOwnerRequired  = errors.New("owner_id обязателен")
	ErrNameRequired   = errors.New("название счёта обязательно")
	ErrNumberConflict = errors.New("не удалось выделить уникальный номер счёта, повторите запрос")
	ErrForeignAccount = errors.New("нет доступа к данному счёту")
)

// AccountService - реестр счетов: создание, чтение, список, удаление.
type AccountService struct {
	accounts repository.AccountStore
	ledger   repository.LedgerStore
	numbers  numgen.Generator
	cache    *cache.RedisCache
}

func NewAccountService(
	accounts repository.AccountStore,
	ledger repository.LedgerStore,
	numbers numgen.Generator,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		ledger:   ledger,
		numbers:  numbers,
		cache:    nil,
	}
}

func NewAccountServiceWithCache(
	accounts repository.AccountStore,
	ledger repository.LedgerStore,
	numbers numgen.Generator,
	cache *cache.RedisCache,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		ledger:   ledger,
		numbers:  numbers,
		cache:    cache,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, ownerID, name string) (*models.Account, error) {
	utils.LogInfo("AccountService", "%s", fmt.Sprintf("Создание счёта %q для владельца %s", name, ownerID))

	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	if name == "" {
		return nil, ErrNameRequired
	}

	number, err := s.numbers.Generate(ctx)
	if err != nil {
		if errors.Is(err, numgen.ErrExhausted) {
			utils.LogWarning("AccountService", "Исчерпаны попытки генерации номера счёта")
			return nil, ErrNumberConflict
		}
		utils.LogError("AccountService", "Ошибка генерации номера счёта", err)
		return nil, err
	}

	account := &models.Account{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Number:  number,
		Name:    name,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrNumberTaken) {
			// Конкурент вставил тот же номер раньше нас; вызывающий может
			// повторить запрос, получив свежий случайный номер.
			return nil, ErrNumberConflict
		}
		utils.LogError("AccountService", "Ошибка создания счёта", err)
		return nil, err
	}

	s.invalidateOwnerCache(ctx, ownerID)

	utils.LogSuccess("AccountService", "%s", fmt.Sprintf("Счёт %s (№%s) создан для владельца %s", account.ID, account.Number, ownerID))
	return account, nil
}

// GetAccount возвращает счёт, его баланс и журнал от новых к старым.
func (s *AccountService) GetAccount(ctx context.Context, accountID, ownerID string) (*models.Account, decimal.Decimal, []models.Transaction, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, decimal.Zero, nil, err
	}

	if account.OwnerID != ownerID {
		utils.LogWarning("AccountService", "%s", fmt.Sprintf("Попытка доступа к чужому счёту %s владельцем %s", accountID, ownerID))
		return nil, decimal.Zero, nil, ErrForeignAccount
	}

	balance, err := s.balanceCached(ctx, accountID)
	if err != nil {
		return nil, decimal.Zero, nil, err
	}

	transactions, err := s.ledger.ListByAccount(ctx, accountID)
	if err != nil {
		utils.LogError("AccountService", "Ошибка получения журнала транзакций", err)
		return nil, decimal.Zero, nil, err
	}

	return account, balance, transactions, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, ownerID string) ([]models.AccountSummary, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}

	if s.cache != nil {
		var cached []models.AccountSummary
		err := s.cache.GetJSON(ctx, cache.OwnerAccountsKey(ownerID), &cached)
		if err == nil {
			utils.LogDebug("Cache", "HIT: список счетов владельца %s (%d шт.)", ownerID, len(cached))
			return cached, nil
		}
		if err != redis.Nil {
			utils.LogWarning("Cache", "%s", fmt.Sprintf("Ошибка чтения из кеша: %v", err))
		}
	}

	accounts, err := s.accounts.ListByOwner(ctx, ownerID)
	if err != nil {
		utils.LogError("AccountService", fmt.Sprintf("Ошибка получения счетов владельца %s", ownerID), err)
		return nil, err
	}

	summaries := make([]models.AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		balance, err := s.balanceCached(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.AccountSummary{Account: account, Balance: balance})
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.OwnerAccountsKey(ownerID), summaries, cache.OwnerAccountsTTL); err != nil {
			utils.LogWarning("Cache", "%s", fmt.Sprintf("Не удалось сохранить список счетов в кеш: %v", err))
		}
	}

	utils.LogSuccess("AccountService", "%s", fmt.Sprintf("Найдено %d счетов владельца %s", len(summaries), ownerID))
	return summaries, nil
}

// DeleteAccount удаляет счёт вместе с журналом. Само удаление выполняется
// хранилищем как одна сериализованная операция, частичного состояния не бывает.
func (s *AccountService) DeleteAccount(ctx context.Context, accountID, ownerID string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if account.OwnerID != ownerID {
		utils.LogWarning("AccountService", "%s", fmt.Sprintf("Попытка удалить чужой счёт %s владельцем %s", accountID, ownerID))
		return ErrForeignAccount
	}

	if err := s.ledger.DeleteAccount(ctx, accountID); err != nil {
		utils.LogError("AccountService", fmt.Sprintf("Ошибка удаления счёта %s", accountID), err)
		return err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx,
			cache.AccountBalanceKey(accountID),
			cache.OwnerAccountsKey(ownerID),
		)
	}

	utils.LogSuccess("AccountService", "%s", fmt.Sprintf("Счёт %s удалён владельцем %s", accountID, ownerID))
	return nil
}

// balanceCached читает баланс через кеш, если тот подключён. Кеш обслуживает
// только читающие запросы: проверка овердрафта всегда пересчитывает баланс
// внутри единицы сериализации хранилища и кешем не пользуется.
func (s *AccountService) balanceCached(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if s.cache == nil {
		return s.ledger.Balance(ctx, accountID)
	}

	key := cache.AccountBalanceKey(accountID)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		if balance, parseErr := decimal.NewFromString(cached); parseErr == nil {
			utils.LogDebug("Cache", "HIT: баланс счёта %s = %s", accountID, cached)
			return balance, nil
		}
	}

	balance, err := s.ledger.Balance(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.cache.Set(ctx, key, balance.StringFixed(2), cache.AccountBalanceTTL); err != nil {
		utils.LogWarning("Cache", "%s", fmt.Sprintf("Не удалось сохранить баланс в кеш: %v", err))
	}
	return balance, nil
}

func (s *AccountService) invalidateOwnerCache(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, cache.OwnerAccountsKey(ownerID))
}
