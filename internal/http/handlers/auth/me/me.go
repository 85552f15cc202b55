// Package me реализует HTTP-обработчик профиля текущей учётной записи.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/jarrod640-svg/pdfswift/internal/http/middlewarectx"
	"github.com/jarrod640-svg/pdfswift/internal/http/response"
	"github.com/jarrod640-svg/pdfswift/internal/lib/sl"
	"github.com/jarrod640-svg/pdfswift/internal/models"
)

// Service описывает интерфейс чтения профиля.
type Service interface {
	Profile(ctx context.Context, uid string) (*models.Account, error)
}

// Handler обрабатывает запрос профиля.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Профиль текущей учётной записи
// @Description Возвращает данные учётной записи из проверенного JWT.
// @Tags Auth
// @Produce  json
// @Success 200 {object} map[string]any "Данные учётной записи"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := r.Context().Value(middlewarectx.AccountUID).(string)
	if !ok || uid == "" {
		log.Error("account uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	account, err := h.service.Profile(r.Context(), uid)
	if err != nil {
		log.Error("failed to load profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"uid":        account.UID,
		"email":      account.Email,
		"name":       account.Name,
		"tier":       account.Tier,
		"status":     account.Status,
		"created_at": account.CreatedAt,
	}))
}
