package handlers

import (
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"ledger-prototype/internal/utils"
)

// Middleware оборачивает обработчик (авторизация и т.п.).
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// NewRouter собирает маршрутизатор поверх fasthttp. Всё под /accounts
// закрыто авторизацией; owner_id берётся из токена и прокидывается в ядро
// как непрозрачная строка.
func NewRouter(
	auth *AuthHandler,
	accounts *AccountHandler,
	transactions *TransactionHandler,
	requireAuth Middleware,
) fasthttp.RequestHandler {
	protected := requireAuth(func(ctx *fasthttp.RequestCtx) {
		routeAccounts(ctx, accounts, transactions)
	})

	return func(ctx *fasthttp.RequestCtx) {
		startTime := time.Now()
		path := string(ctx.Path())
		method := string(ctx.Method())

		switch {
		case path == "/health" && method == fasthttp.MethodGet:
			WriteJSON(ctx, fasthttp.StatusOK, map[string]string{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})

		case path == "/auth/register" && method == fasthttp.MethodPost:
			auth.Register(ctx)

		case path == "/auth/login" && method == fasthttp.MethodPost:
			auth.Login(ctx)

		case path == "/accounts" || strings.HasPrefix(path, "/accounts/"):
			protected(ctx)

		default:
			WriteError(ctx, fasthttp.StatusNotFound, "not found")
		}

		utils.LogResponse(method+" "+path, ctx.Response.StatusCode(), time.Since(startTime))
	}
}

func routeAccounts(ctx *fasthttp.RequestCtx, accounts *AccountHandler, transactions *TransactionHandler) {
	method := string(ctx.Method())
	parts := strings.Split(strings.Trim(string(ctx.Path()), "/"), "/")

	switch len(parts) {
	case 1: // /accounts
		switch method {
		case fasthttp.MethodPost:
			accounts.CreateAccount(ctx)
		case fasthttp.MethodGet:
			accounts.GetAccounts(ctx)
		default:
			WriteError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
		}

	case 2: // /accounts/{id}
		ctx.SetUserValue("id", parts[1])
		switch method {
		case fasthttp.MethodGet:
			accounts.GetAccountByID(ctx)
		case fasthttp.MethodDelete:
			accounts.DeleteAccount(ctx)
		default:
			WriteError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
		}

	case 3: // /accounts/{id}/deposit | /accounts/{id}/withdraw
		ctx.SetUserValue("id", parts[1])
		switch {
		case parts[2] == "deposit" && method == fasthttp.MethodPost:
			transactions.Deposit(ctx)
		case parts[2] == "withdraw" && method == fasthttp.MethodPost:
			transactions.Withdraw(ctx)
		default:
			WriteError(ctx, fasthttp.StatusNotFound, "not found")
		}

	default:
		WriteError(ctx, fasthttp.StatusNotFound, "not found")
	}
}
