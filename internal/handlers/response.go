package handlers

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"

	"ledger-prototype/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

func WriteJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	_ = json.NewEncoder(ctx).Encode(v)
}

func WriteError(ctx *fasthttp.RequestCtx, status int, message string) {
	WriteJSON(ctx, status, map[string]string{"error": message})
}

func accountResponse(account *models.Account, balance decimal.Decimal) models.AccountResponse {
	return models.AccountResponse{
		ID:        account.ID,
		Number:    account.Number,
		Name:      account.Name,
		Balance:   balance,
		Status:    account.Status,
		CreatedAt: account.CreatedAt.Format(timeLayout),
	}
}

func transactionResponse(t models.Transaction) models.TransactionResponse {
	return models.TransactionResponse{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Amount:      t.Amount,
		Type:        t.Type,
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format(timeLayout),
	}
}
