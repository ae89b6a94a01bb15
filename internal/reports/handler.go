package reports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockledger/stockledger/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/balance", h.balance)
	r.Get("/charts", h.charts)
}

// MountDashboard registers the landing summary separately so the router can
// place it at the API root.
func (h *Handler) MountDashboard(r chi.Router) {
	r.Get("/", h.dashboard)
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.BalanceReport(r.Context())
	if err != nil {
		h.logger.Error("balance report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) charts(w http.ResponseWriter, r *http.Request) {
	days := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil {
		days = v
	}
	charts, err := h.service.Charts(r.Context(), days)
	if err != nil {
		h.logger.Error("charts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, charts)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}
