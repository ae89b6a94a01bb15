package ledger

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockledger/stockledger/internal/platform/httpx"
	"github.com/stockledger/stockledger/internal/shared"
)

// Handler wires HTTP endpoints for the movement ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Delete("/{id}", h.delete)
	r.Get("/stock-info", h.stockInfo)
}

type createMovementRequest struct {
	ProductID      string  `json:"product_id" validate:"required"`
	FromLocationID *string `json:"from_location_id"`
	ToLocationID   *string `json:"to_location_id"`
	Qty            int64   `json:"qty" validate:"required,gt=0"`
}

type movementListResponse struct {
	Movements  []Movement        `json:"movements"`
	Pagination shared.Pagination `json:"pagination"`
}

type deleteMovementResponse struct {
	Deleted Movement `json:"deleted"`
	Note    string   `json:"note"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createMovementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	created, err := h.service.ProposeMovement(r.Context(), Proposal{
		ProductID:      req.ProductID,
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		Qty:            req.Qty,
		ActorID:        shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Warn("movement rejected",
			slog.String("product_id", req.ProductID),
			slog.Int64("qty", req.Qty),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("movement recorded",
		slog.Int64("id", created.ID),
		slog.String("product_id", created.ProductID),
		slog.Int64("qty", created.Qty))
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		ProductID:  q.Get("product_id"),
		LocationID: q.Get("location_id"),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	movements, total, err := h.service.ListMovements(r.Context(), filter)
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if movements == nil {
		movements = []Movement{}
	}
	perPage := filter.Limit
	if perPage <= 0 {
		perPage = 200
	}
	page := 1
	if perPage > 0 {
		page = filter.Offset/perPage + 1
	}
	httpx.JSON(w, http.StatusOK, movementListResponse{
		Movements:  movements,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Movement ID", "")
		return
	}

	deleted, err := h.service.DeleteMovement(r.Context(), id, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Warn("delete movement", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, deleteMovementResponse{
		Deleted: deleted,
		Note:    "historical balances have been recomputed; movements recorded after this one were not re-validated",
	})
}

// stockInfo answers "how much of product P sits at location L right now".
func (h *Handler) stockInfo(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	locationID := r.URL.Query().Get("location_id")
	if productID == "" || locationID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "product_id and location_id are required")
		return
	}
	qty, err := h.service.CurrentStock(r.Context(), productID, locationID)
	if err != nil {
		h.logger.Error("stock info", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, Balance{ProductID: productID, LocationID: locationID, Qty: qty})
}
