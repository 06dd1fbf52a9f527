package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive = "active"
	StatusClosed = "closed"
)

type Account struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Number    string    `json:"account_number"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountSummary - счёт вместе с балансом, выведенным из журнала транзакций.
// Баланс не хранится в Account: он всегда вычисляется по журналу.
type AccountSummary struct {
	Account Account
	Balance decimal.Decimal
}

type CreateAccountRequest struct {
	Name string `json:"name"`
}

type AccountResponse struct {
	ID        string          `json:"id"`
	Number    string          `json:"account_number"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Status    string          `json:"status"`
	CreatedAt string          `json:"created_at"`
}

type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Total    int               `json:"total"`
}

type AccountDetailResponse struct {
	AccountResponse
	Transactions []TransactionResponse `json:"transactions"`
	Total        int                   `json:"transactions_total"`
}
