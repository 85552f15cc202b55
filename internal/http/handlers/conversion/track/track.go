// Package track реализует HTTP-обработчик учёта конвертации.
//
// Обработчик определяет субъекта (учётную запись или анонимную сессию),
// проверяет допуск по тарифу и квоте и учитывает конвертацию. Отказы
// политики возвращаются как структурированный результат, а не ошибка;
// исчерпание дневной квоты дополнительно помечается статусом 429.
package track

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/jarrod640-svg/pdfswift/internal/entitlement"
	"github.com/jarrod640-svg/pdfswift/internal/http/response"
	"github.com/jarrod640-svg/pdfswift/internal/identity"
	"github.com/jarrod640-svg/pdfswift/internal/lib/sl"
	"github.com/jarrod640-svg/pdfswift/internal/models"
	"github.com/jarrod640-svg/pdfswift/internal/services/metering"
)

// Service описывает интерфейс бизнес-логики учёта конвертаций.
type Service interface {
	Track(ctx context.Context, p models.Principal, req models.TrackRequest, ipAddress string) (*models.TrackResult, error)
}

// Handler обрабатывает запросы учёта конвертаций.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Учесть конвертацию
// @Description Проверяет допуск конвертации по тарифу и квоте и учитывает её. Работает и для анонимных сессий.
// @Tags Conversions
// @Accept  json
// @Produce  json
// @Param request body models.TrackRequest true "Параметры конвертации"
// @Success 200 {object} map[string]any "Решение о допуске"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} map[string]any "Дневная квота исчерпана"
// @Failure 503 {object} response.ErrorResponse "Хранилище недоступно"
// @Router /conversions/track [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.conversion.track"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	p := identity.Resolve(w, r)

	result, err := h.service.Track(r.Context(), p, req, r.RemoteAddr)
	if err != nil {
		if errors.Is(err, metering.ErrStorageUnavailable) {
			log.Error("storage unavailable", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("service temporarily unavailable"))
			return
		}
		log.Error("failed to track conversion", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	data := map[string]any{
		"allowed": result.Allowed,
		"count":   result.Count,
		"limit":   result.Limit,
	}
	if !result.Allowed {
		data["reason"] = result.Reason
		if result.Reason == string(entitlement.ReasonDailyLimitReached) {
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}
	render.JSON(w, r, response.OKWithData(data))
}
