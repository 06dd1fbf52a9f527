package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/valyala/fasthttp"

	"ledger-prototype/internal/models"
	"ledger-prototype/internal/repository"
	"ledger-prototype/internal/services"
	"ledger-prototype/internal/utils"
)

type AuthHandler struct {
	users repository.UserStore
	auth  *services.AuthService
}

func NewAuthHandler(users repository.UserStore, auth *services.AuthService) *AuthHandler {
	return &AuthHandler{users: users, auth: auth}
}

// Register обрабатывает POST /auth/register
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req models.RegisterRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		WriteError(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Password == "" {
		WriteError(ctx, fasthttp.StatusBadRequest, "Имя и пароль обязательны")
		return
	}

	passwordHash, err := h.auth.HashPassword(req.Password)
	if err != nil {
		WriteError(ctx, fasthttp.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	user := &models.User{Name: req.Name, PasswordHash: passwordHash}
	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNameTaken) {
			WriteError(ctx, fasthttp.StatusConflict, "Имя пользователя уже занято")
			return
		}
		utils.LogError("AuthHandler", "Ошибка регистрации", err)
		WriteError(ctx, fasthttp.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	token, err := h.auth.GenerateToken(user.ID)
	if err != nil {
		WriteError(ctx, fasthttp.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	WriteJSON(ctx, fasthttp.StatusCreated, map[string]string{
		"user_id": user.ID,
		"token":   token,
	})

	utils.LogSuccess("AuthHandler", "%s", fmt.Sprintf("Зарегистрирован пользователь %s", user.Name))
}

// Login обрабатывает POST /auth/login
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req models.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		WriteError(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Password == "" {
		WriteError(ctx, fasthttp.StatusBadRequest, "Имя и пароль обязательны")
		return
	}

	user, err := h.users.GetByName(ctx, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			WriteError(ctx, fasthttp.StatusUnauthorized, "Неверное имя или пароль")
			return
		}
		utils.LogError("AuthHandler", "Ошибка входа", err)
		WriteError(ctx, fasthttp.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	if err := h.auth.CheckPasswordHash(req.Password, user.PasswordHash); err != nil {
		WriteError(ctx, fasthttp.StatusUnauthorized, "Неверное имя или пароль")
		return
	}

	token, err := h.auth.GenerateToken(user.ID)
	if err != nil {
		WriteError(ctx, fasthttp.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	WriteJSON(ctx, fasthttp.StatusOK, map[string]string{
		"user_id": user.ID,
		"token":   token,
	})
}
