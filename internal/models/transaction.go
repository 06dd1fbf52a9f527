package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Типы транзакций. Схема допускает расширение (transfer, charge, payoff),
// но операционно поддерживаются только пополнение и снятие; подсчёт баланса
// игнорирует неизвестные типы.
const (
	KindDeposit  = "deposit"
	KindWithdraw = "withdraw"
)

type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type MutationRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type TransactionResponse struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

type MutationResponse struct {
	Message     string              `json:"message"`
	Transaction TransactionResponse `json:"transaction"`
	Balance     decimal.Decimal     `json:"balance"`
}
