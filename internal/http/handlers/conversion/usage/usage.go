// Package usage реализует HTTP-обработчик сводки использования квоты.
package usage

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/jarrod640-svg/pdfswift/internal/http/response"
	"github.com/jarrod640-svg/pdfswift/internal/identity"
	"github.com/jarrod640-svg/pdfswift/internal/lib/sl"
	"github.com/jarrod640-svg/pdfswift/internal/models"
	"github.com/jarrod640-svg/pdfswift/internal/services/metering"
)

// Service описывает интерфейс чтения сводки использования.
type Service interface {
	Usage(ctx context.Context, p models.Principal) (*models.UsageSummary, error)
}

// Handler обрабатывает запросы сводки использования.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сводка использования
// @Description Возвращает дневную квоту бесплатного тарифа или месячный счётчик для платных.
// @Tags Conversions
// @Produce  json
// @Success 200 {object} map[string]any "Сводка использования"
// @Failure 503 {object} response.ErrorResponse "Хранилище недоступно"
// @Router /conversions/usage [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.conversion.usage"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p := identity.Resolve(w, r)

	summary, err := h.service.Usage(r.Context(), p)
	if err != nil {
		if errors.Is(err, metering.ErrStorageUnavailable) {
			log.Error("storage unavailable", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("service temporarily unavailable"))
			return
		}
		log.Error("failed to load usage summary", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.OKWithData(summary))
}
