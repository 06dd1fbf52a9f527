package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"

	"ledger-prototype/internal/models"
	"ledger-prototype/internal/repository"
	"ledger-prototype/internal/services"
	"ledger-prototype/internal/utils"
)

type TransactionHandler struct {
	service *services.TransactionService
}

func NewTransactionHandler(service *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

type mutation func(ctx context.Context, ownerID, accountID string, amount decimal.Decimal, description string) (*models.Transaction, decimal.Decimal, error)

// Deposit обрабатывает POST /accounts/{id}/deposit
func (h *TransactionHandler) Deposit(ctx *fasthttp.RequestCtx) {
	h.mutate(ctx, "Пополнение выполнено", h.service.Deposit)
}

// Withdraw обрабатывает POST /accounts/{id}/withdraw
func (h *TransactionHandler) Withdraw(ctx *fasthttp.RequestCtx) {
	h.mutate(ctx, "Снятие выполнено", h.service.Withdraw)
}

func (h *TransactionHandler) mutate(ctx *fasthttp.RequestCtx, successMessage string, op mutation) {
	ownerID, ok := ctx.UserValue("owner_id").(string)
	if !ok {
		WriteError(ctx, fasthttp.StatusUnauthorized, "Unauthorized")
		return
	}

	accountID, _ := ctx.UserValue("id").(string)

	var req models.MutationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		utils.LogError("TransactionHandler", "Ошибка парсинга JSON", err)
		WriteError(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return
	}

	transaction, balance, err := op(ctx, ownerID, accountID, req.Amount, req.Description)
	if err != nil {
		h.writeMutationError(ctx, err)
		return
	}

	WriteJSON(ctx, fasthttp.StatusCreated, models.MutationResponse{
		Message:     successMessage,
		Transaction: transactionResponse(*transaction),
		Balance:     balance,
	})

	utils.LogSuccess("TransactionHandler", "%s", fmt.Sprintf("%s: %s (баланс: %s)",
		successMessage, transaction.ID, balance.StringFixed(2)))
}

func (h *TransactionHandler) writeMutationError(ctx *fasthttp.RequestCtx, err error) {
	var insufficient *repository.InsufficientFundsError

	switch {
	case errors.Is(err, services.ErrInvalidAmount) || errors.Is(err, services.ErrAmountPrecision):
		WriteError(ctx, fasthttp.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrAccountNotFound):
		WriteError(ctx, fasthttp.StatusNotFound, "Счёт не найден")
	case errors.Is(err, services.ErrForeignAccount):
		WriteError(ctx, fasthttp.StatusForbidden, "Нет доступа к данному счёту")
	case errors.As(err, &insufficient):
		// Отказ по балансу - ответ с текущим балансом, журнал не изменился.
		WriteJSON(ctx, fasthttp.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Недостаточно средств",
			"balance": insufficient.Balance,
		})
	default:
		utils.LogError("TransactionHandler", "Ошибка выполнения операции", err)
		WriteError(ctx, fasthttp.StatusInternalServerError, "Внутренняя ошибка сервера")
	}
}
