package handlers

import (
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

type AccountHandler struct {
	accountService *services.AccountService
}

func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// CreateAccount обрабатывает POST /accounts - создание нового счёта
func (h *AccountHandler) CreateAccount(ctx *fasthttp.RequestCtx) {
	ownerID, ok := ctx.UserValue("owner_id").(string)
	if !ok {
		WriteError(ctx, fasthttp.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateAccountRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		utils.LogError("AccountHandler", "Ошибка парсинга JSON", err)
		WriteError(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accountService.CreateAccount(ctx, ownerID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOwnerRequired) || errors.Is(err, services.ErrNameRequired):
			WriteError(ctx, fasthttp.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrNumberConflict):
			WriteError(ctx, fasthttp.StatusConflict, err.Error())
		default:
			utils.LogError("AccountHandler", "Ошибка создания счёта", err)
			WriteError(ctx, fasthttp.StatusInternalServerError, "Внутренняя ошибка сервера")
		}
		return
	}

	WriteJSON(ctx, fasthttp.StatusCreated, accountResponse(account, decimal.Zero))

	utils.LogSuccess("AccountHandler", "%s", fmt.Sprintf("Счёт создан: %s (№%s)", account.ID, account.Number))
}

// GetAccounts обрабатывает GET /accounts - список счетов владельца с балансами
func (h *AccountHandler) GetAccounts(ctx *fasthttp.RequestCtx) {
	ownerID, ok := ctx.UserValue("owner_id").(string)
	if !ok {
		WriteError(ctx, fasthttp.StatusUnauthorized, "Unauthorized")
		return
	}

	summaries, err := h.accountService.ListAccounts(ctx, ownerID)
	if err != nil {
		utils.LogError("AccountHandler", "Ошибка получения счетов", err)
		WriteError(ctx, fasthttp.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	accounts := make([]models.AccountResponse, 0, len(summaries))
	for _, s := range summaries {
		account := s.Account
		accounts = append(accounts, accountResponse(&account, s.Balance))
	}

	WriteJSON(ctx, fasthttp.StatusOK, models.AccountListResponse{
		Accounts: accounts,
		Total:    len(accounts),
	})
}

// GetAccountByID обрабатывает GET /accounts/{id} - счёт, баланс и журнал
// транзакций от новых к старым.
func (h *AccountHandler) GetAccountByID(ctx *fasthttp.RequestCtx) {
	ownerID, ok := ctx.UserValue("owner_id").(string)
	if !ok {
		WriteError(ctx, fasthttp.StatusUnauthorized, "Unauthorized")
		return
	}

	accountID, _ := ctx.UserValue("id").(string)

	account, balance, transactions, err := h.accountService.GetAccount(ctx, accountID, ownerID)
	if err != nil {
		h.writeAccountError(ctx, err)
		return
	}

	txResponses := make([]models.TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		txResponses = append(txResponses, transactionResponse(t))
	}

	WriteJSON(ctx, fasthttp.StatusOK, models.AccountDetailResponse{
		AccountResponse: accountResponse(account, balance),
		Transactions:    txResponses,
		Total:           len(txResponses),
	})
}

// DeleteAccount обрабатывает DELETE /accounts/{id}
func (h *AccountHandler) DeleteAccount(ctx *fasthttp.RequestCtx) {
	ownerID, ok := ctx.UserValue("owner_id").(string)
	if !ok {
		WriteError(ctx, fasthttp.StatusUnauthorized, "Unauthorized")
		return
	}

	accountID, _ := ctx.UserValue("id").(string)

	if err := h.accountService.DeleteAccount(ctx, accountID, ownerID); err != nil {
		h.writeAccountError(ctx, err)
		return
	}

	WriteJSON(ctx, fasthttp.StatusOK, map[string]string{
		"message":    "Счёт удалён вместе с журналом транзакций",
		"account_id": accountID,
	})

	utils.LogSuccess("AccountHandler", "%s", "Счёт удалён: "+accountID)
}

func (h *AccountHandler) writeAccountError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		WriteError(ctx, fasthttp.StatusNotFound, "Счёт не найден")
	case errors.Is(err, services.ErrForeignAccount):
		WriteError(ctx, fasthttp.StatusForbidden, "Нет доступа к данному счёту")
	default:
		utils.LogError("AccountHandler", "Ошибка операции со счётом", err)
		WriteError(ctx, fasthttp.StatusInternalServerError, "Внутренняя ошибка сервера")
	}
}
