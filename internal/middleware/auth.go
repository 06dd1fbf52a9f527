package middleware

import (
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	"ledger-prototype/internal/handlers"
	"ledger-prototype/internal/services"
	"ledger-prototype/internal/utils"
)

type AuthMiddleware struct {
	authService *services.AuthService
}

func NewAuthMiddleware(authService *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// RequireAuth проверяет JWT и кладёт owner_id в контекст запроса.
// Дальше по конвейеру owner_id - непрозрачная строка, ядро её не валидирует.
func (m *AuthMiddleware) RequireAuth(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		authHeader := string(ctx.Request.Header.Peek("Authorization"))
		if authHeader == "" {
			utils.LogWarning("Middleware", "Отсутствует заголовок Authorization")
			handlers.WriteError(ctx, fasthttp.StatusUnauthorized, "Требуется авторизация")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.LogWarning("Middleware", "Неверный формат заголовка Authorization")
			handlers.WriteError(ctx, fasthttp.StatusUnauthorized, "Неверный формат токена")
			return
		}

		claims, err := m.authService.ValidateToken(parts[1])
		if err != nil {
			utils.LogWarning("Middleware", "%s", fmt.Sprintf("Невалидный токен: %v", err))
			handlers.WriteError(ctx, fasthttp.StatusUnauthorized, "Невалидный или истёкший токен")
			return
		}

		ctx.SetUserValue("owner_id", claims.UserID)
		next(ctx)
	}
}
