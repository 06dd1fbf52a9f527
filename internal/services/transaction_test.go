package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ledger-prototype/internal/models"
	"ledger-prototype/internal/repository"
)

func newLedgerFixture(t *testing.T) (*repository.MemoryStore, *TransactionService, *models.Account) {
	t.Helper()
	store := repository.NewMemoryStore()
	accountService := newAccountService(store)

	account, err := accountService.CreateAccount(context.Background(), "u1", "Checking")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return store, NewTransactionService(store, store), account
}

func TestDepositValidation(t *testing.T) {
	_, service, account := newLedgerFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		amount string
		want   error
	}{
		{"zero", "0", ErrInvalidAmount},
		{"negative", "-10.00", ErrInvalidAmount},
		{"three decimal places", "10.123", ErrAmountPrecision},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := service.Deposit(ctx, "u1", account.ID, dec(t, tc.amount), "")
			if !errors.Is(err, tc.want) {
				t.Fatalf("сумма %s: ожидалось %v, получено %v", tc.amount, tc.want, err)
			}
		})
	}
}

func TestDepositNotFoundAndOwnership(t *testing.T) {
	_, service, account := newLedgerFixture(t)
	ctx := context.Background()

	if _, _, err := service.Deposit(ctx, "u1", "missing", dec(t, "10.00"), ""); !errors.Is(err, repository.ErrAccountNotFound) {
		t.Fatalf("несуществующий счёт: ожидался ErrAccountNotFound, получено %v", err)
	}
	if _, _, err := service.Deposit(ctx, "u2", account.ID, dec(t, "10.00"), ""); !errors.Is(err, ErrForeignAccount) {
		t.Fatalf("чужой счёт: ожидался ErrForeignAccount, получено %v", err)
	}
}

func TestDepositThenWithdraw(t *testing.T) {
	_, service, account := newLedgerFixture(t)
	ctx := context.Background()

	transaction, balance, err := service.Deposit(ctx, "u1", account.ID, dec(t, "100.00"), "зарплата")
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if transaction.Type != models.KindDeposit || !balance.Equal(dec(t, "100.00")) {
		t.Fatalf("пополнение: тип %s, баланс %s", transaction.Type, balance)
	}

	transaction, balance, err = service.Withdraw(ctx, "u1", account.ID, dec(t, "100.00"), "")
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if transaction.Type != models.KindWithdraw || !balance.IsZero() {
		t.Fatalf("снятие: тип %s, баланс %s", transaction.Type, balance)
	}
}

func TestWithdrawInsufficientCarriesBalance(t *testing.T) {
	store, service, account := newLedgerFixture(t)
	ctx := context.Background()

	if _, _, err := service.Deposit(ctx, "u1", account.ID, dec(t, "100.00"), ""); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	_, _, err := service.Withdraw(ctx, "u1", account.ID, dec(t, "150.00"), "")
	var insufficient *repository.InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("ожидался InsufficientFundsError, получено %v", err)
	}
	if !insufficient.Balance.Equal(dec(t, "100.00")) {
		t.Fatalf("в ошибке баланс %s, ожидалось 100.00", insufficient.Balance)
	}

	transactions, err := store.ListByAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("ListByAccount: %v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("отказ оставил след в журнале: %d записей", len(transactions))
	}
}

func TestConcurrentWithdrawalsThroughService(t *testing.T) {
	store, service, account := newLedgerFixture(t)
	ctx := context.Background()

	if _, _, err := service.Deposit(ctx, "u1", account.ID, dec(t, "60.00"), ""); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	// Два конкурентных снятия по 40.00 при балансе 60.00:
	// ровно одно проходит, второе получает отказ с актуальным балансом.
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := service.Withdraw(ctx, "u1", account.ID, dec(t, "40.00"), "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *repository.InsufficientFundsError
		if !errors.As(err, &insufficient) {
			t.Fatalf("неожиданная ошибка: %v", err)
		}
		rejected++
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("успехов %d, отказов %d; ожидалось 1 и 1", succeeded, rejected)
	}

	balance, _ := store.Balance(ctx, account.ID)
	if !balance.Equal(dec(t, "20.00")) {
		t.Fatalf("итоговый баланс %s, ожидалось 20.00", balance)
	}
}

// TestLedgerScenario - сквозной сценарий жизни счёта.
func TestLedgerScenario(t *testing.T) {
	store := repository.NewMemoryStore()
	accountService := newAccountService(store)
	transactionService := NewTransactionService(store, store)
	ctx := context.Background()

	// 1. Новый счёт - баланс 0.00.
	account, err := accountService.CreateAccount(ctx, "u1", "Checking")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	_, balance, _, err := accountService.GetAccount(ctx, account.ID, "u1")
	if err != nil || !balance.IsZero() {
		t.Fatalf("новый счёт: баланс %s, ошибка %v", balance, err)
	}

	// 2. Пополнение 100.00 - баланс 100.00, одна запись в журнале.
	if _, balance, err = transactionService.Deposit(ctx, "u1", account.ID, dec(t, "100.00"), ""); err != nil || !balance.Equal(dec(t, "100.00")) {
		t.Fatalf("пополнение: баланс %s, ошибка %v", balance, err)
	}

	// 3. Снятие 150.00 - отказ с балансом 100.00, журнал не изменился.
	_, _, err = transactionService.Withdraw(ctx, "u1", account.ID, dec(t, "150.00"), "")
	var insufficient *repository.InsufficientFundsError
	if !errors.As(err, &insufficient) || !insufficient.Balance.Equal(dec(t, "100.00")) {
		t.Fatalf("овердрафт: %v", err)
	}
	transactions, _ := store.ListByAccount(ctx, account.ID)
	if len(transactions) != 1 {
		t.Fatalf("после отказа в журнале %d записей, ожидалась 1", len(transactions))
	}

	// 4. Снятие 40.00 - баланс 60.00.
	if _, balance, err = transactionService.Withdraw(ctx, "u1", account.ID, dec(t, "40.00"), ""); err != nil || !balance.Equal(dec(t, "60.00")) {
		t.Fatalf("снятие: баланс %s, ошибка %v", balance, err)
	}

	// 5. Два конкурентных снятия по 40.00 - проходит ровно одно.
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := transactionService.Withdraw(ctx, "u1", account.ID, dec(t, "40.00"), "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("конкурентные снятия: успехов %d, ожидалось 1", succeeded)
	}
	if balance, _ = store.Balance(ctx, account.ID); !balance.Equal(dec(t, "20.00")) {
		t.Fatalf("баланс после гонки %s, ожидалось 20.00", balance)
	}

	// 6. Удаление счёта - дальнейшее чтение отвечает "не найден".
	if err := accountService.DeleteAccount(ctx, account.ID, "u1"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, _, _, err := accountService.GetAccount(ctx, account.ID, "u1"); !errors.Is(err, repository.ErrAccountNotFound) {
		t.Fatalf("после удаления: ожидался ErrAccountNotFound, получено %v", err)
	}
}
