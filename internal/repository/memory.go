package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledger-prototype/internal/models"
)

// MemoryStore - in-memory реализация AccountStore и LedgerStore.
// Единица сериализации - мьютекс счёта: проверка баланса и запись в журнал
// выполняются под ним, как в боевой реализации под блокировкой строки.
// Мутации разных счетов идут параллельно.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*memoryAccount
	numbers  map[string]string
}

type memoryAccount struct {
	mu      sync.Mutex
	account models.Account
	log     []models.Transaction // хронологический порядок добавления
	deleted bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*memoryAccount),
		numbers:  make(map[string]string),
	}
}

func (s *MemoryStore) get(accountID string) *memoryAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[accountID]
}

func (s *MemoryStore) Create(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.numbers[account.Number]; taken {
		return ErrNumberTaken
	}

	account.Status = models.StatusActive
	account.CreatedAt = time.Now().UTC()
	s.accounts[account.ID] = &memoryAccount{account: *account}
	s.numbers[account.Number] = account.ID
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, accountID string) (*models.Account, error) {
	a := s.get(accountID)
	if a == nil {
		return nil, ErrAccountNotFound
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.deleted {
		return nil, ErrAccountNotFound
	}
	cp := a.account
	return &cp, nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accounts []models.Account
	for _, a := range s.accounts {
		a.mu.Lock()
		if !a.deleted && a.account.OwnerID == ownerID {
			accounts = append(accounts, a.account)
		}
		a.mu.Unlock()
	}
	return accounts, nil
}

func (s *MemoryStore) NumberExists(ctx context.Context, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.numbers[number]
	return exists, nil
}

// balanceLocked сворачивает журнал; вызывается только под a.mu.
// Неизвестные типы игнорируются, как и в SQL-варианте.
func (a *memoryAccount) balanceLocked() decimal.Decimal {
	balance := decimal.Zero
	for _, t := range a.log {
		switch t.Type {
		case models.KindDeposit:
			balance = balance.Add(t.Amount)
		case models.KindWithdraw:
			balance = balance.Sub(t.Amount)
		}
	}
	return balance
}

func (a *memoryAccount) appendLocked(kind string, amount decimal.Decimal, description string) models.Transaction {
	t := models.Transaction{
		ID:          uuid.New().String(),
		AccountID:   a.account.ID,
		Amount:      amount,
		Type:        kind,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	a.log = append(a.log, t)
	return t
}

func (s *MemoryStore) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*models.Transaction, decimal.Decimal, error) {
	a := s.get(accountID)
	if a == nil {
		return nil, decimal.Zero, ErrAccountNotFound
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.deleted {
		return nil, decimal.Zero, ErrAccountNotFound
	}

	balance := a.balanceLocked()
	t := a.appendLocked(models.KindDeposit, amount, description)
	return &t, balance.Add(amount), nil
}

func (s *MemoryStore) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*models.Transaction, decimal.Decimal, error) {
	a := s.get(accountID)
	if a == nil {
		return nil, decimal.Zero, ErrAccountNotFound
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.deleted {
		return nil, decimal.Zero, ErrAccountNotFound
	}

	balance := a.balanceLocked()
	if amount.GreaterThan(balance) {
		return nil, decimal.Zero, &InsufficientFundsError{Balance: balance}
	}

	t := a.appendLocked(models.KindWithdraw, amount, description)
	return &t, balance.Sub(amount), nil
}

func (s *MemoryStore) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	a := s.get(accountID)
	if a == nil {
		return decimal.Zero, ErrAccountNotFound
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.deleted {
		return decimal.Zero, ErrAccountNotFound
	}
	return a.balanceLocked(), nil
}

func (s *MemoryStore) ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	a := s.get(accountID)
	if a == nil {
		return nil, ErrAccountNotFound
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.deleted {
		return nil, ErrAccountNotFound
	}

	// От новых к старым.
	out := make([]models.Transaction, 0, len(a.log))
	for i := len(a.log) - 1; i >= 0; i-- {
		out = append(out, a.log[i])
	}
	return out, nil
}

func (s *MemoryStore) DeleteAccount(ctx context.Context, accountID string) error {
	a := s.get(accountID)
	if a == nil {
		return ErrAccountNotFound
	}

	a.mu.Lock()
	if a.deleted {
		a.mu.Unlock()
		return ErrAccountNotFound
	}
	// После этой точки любая конкурентная мутация увидит deleted и получит
	// "счёт не найден"; журнал и счёт исчезают как одно целое.
	a.deleted = true
	number := a.account.Number
	a.log = nil
	a.mu.Unlock()

	s.mu.Lock()
	delete(s.accounts, accountID)
	delete(s.numbers, number)
	s.mu.Unlock()
	return nil
}
