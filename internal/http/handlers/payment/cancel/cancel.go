// Package cancel реализует HTTP-обработчик отмены подписки.
//
// Отмена планируется у провайдера на конец оплаченного периода; локальное
// состояние учётной записи изменится позже, когда провайдер доставит
// событие удаления подписки.
package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/jarrod640-svg/pdfswift/internal/http/middlewarectx"
	"github.com/jarrod640-svg/pdfswift/internal/http/response"
	"github.com/jarrod640-svg/pdfswift/internal/lib/sl"
	"github.com/jarrod640-svg/pdfswift/internal/services/billing"
)

// Service описывает интерфейс бизнес-логики отмены подписки.
type Service interface {
	CancelSubscription(ctx context.Context, accountUID string) error
}

// Handler обрабатывает запросы отмены подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отменить подписку
// @Description Планирует отмену подписки в конце оплаченного периода.
// @Tags Payments
// @Produce  json
// @Success 200 {object} map[string]any "Отмена запланирована"
// @Failure 400 {object} response.ErrorResponse "Активная подписка отсутствует"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /payments/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.cancel"

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

	if err := h.service.CancelSubscription(r.Context(), uid); err != nil {
		if errors.Is(err, billing.ErrNoActiveSubscription) {
			log.Info("no active subscription to cancel", slog.String("uid", uid))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("no active subscription"))
			return
		}
		log.Error("failed to cancel subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not cancel subscription"))
		return
	}

	log.Info("subscription cancellation scheduled", slog.String("uid", uid))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "cancellation scheduled at period end",
	}))
}
