package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
	"github.com/kenqu-rs/kugelpos-backend/internal/logger"
	"github.com/kenqu-rs/kugelpos-backend/internal/service"
)

// CartOperations is the part of service.CartService the handlers call.
type CartOperations interface {
	CreateCart(ctx context.Context, req service.CreateCartRequest) (*domain.Cart, error)
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	AddItems(ctx context.Context, cartID string, items []service.AddItemRequest) (*domain.Cart, error)
	UpdateLineItemQuantity(ctx context.Context, cartID string, lineNo, quantity int) (*domain.Cart, error)
	BulkReduceQuantity(ctx context.Context, cartID string, items []service.QuantityReduction) (*domain.Cart, error)
	CancelLineItem(ctx context.Context, cartID string, lineNo int) (*domain.Cart, error)
	CancelCart(ctx context.Context, cartID string) (*domain.Cart, error)
}

type CartHandler struct {
	carts   CartOperations
	timeout time.Duration
	log     *logger.Logger
}

func NewCartHandler(carts CartOperations, timeout time.Duration, log *logger.Logger) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
		log:     log,
	}
}

func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	terminalID := r.URL.Query().Get("terminal_id")
	if terminalID == "" {
		respondError(w, h.log, http.StatusUnprocessableEntity, codeValidation, "terminal_id is required")
		return
	}

	var req CreateCartRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body")
		return
	}

	cart, err := h.carts.CreateCart(ctx, service.CreateCartRequest{
		TerminalID:      terminalID,
		TransactionType: req.TransactionType,
		UserID:          req.UserID,
		UserName:        req.UserName,
	})
	if err != nil {
		respondCartError(w, h.log, err)
		return
	}
	respondOK(w, h.log, http.StatusCreated, cart)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.GetCart(ctx, chi.URLParam(r, "cart_id"))
	if err != nil {
		respondCartError(w, h.log, err)
		return
	}
	respondOK(w, h.log, http.StatusOK, cart)
}

func (h *CartHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req []AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body")
		return
	}
	if len(req) == 0 {
		respondError(w, h.log, http.StatusUnprocessableEntity, codeValidation, "at least one item is required")
		return
	}

	items := make([]service.AddItemRequest, len(req))
	for i, it := range req {
		if err := it.validate(); err != nil {
			respondError(w, h.log, http.StatusUnprocessableEntity, codeValidation, err.Error())
			return
		}
		items[i] = service.AddItemRequest{
			ItemCode:    it.ItemCode,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}

	cart, err := h.carts.AddItems(ctx, chi.URLParam(r, "cart_id"), items)
	if err != nil {
		respondCartError(w, h.log, err)
		return
	}
	respondOK(w, h.log, http.StatusOK, cart)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, h.log, http.StatusUnprocessableEntity, codeValidation, err.Error())
		return
	}

	cart, err := h.carts.UpdateLineItemQuantity(ctx, chi.URLParam(r, "cart_id"), req.LineNo, req.Quantity)
	if err != nil {
		respondCartError(w, h.log, err)
		return
	}
	respondOK(w, h.log, http.StatusOK, cart)
}

func (h *CartHandler) BulkReduceQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req BulkReduceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, h.log, http.StatusUnprocessableEntity, codeValidation, err.Error())
		return
	}

	cart, err := h.carts.BulkReduceQuantity(ctx, chi.URLParam(r, "cart_id"), req.toService())
	if err != nil {
		respondCartError(w, h.log, err)
		return
	}
	respondOK(w, h.log, http.StatusOK, cart)
}

func (h *CartHandler) CancelLineItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineNo, err := strconv.Atoi(chi.URLParam(r, "line_no"))
	if err != nil || lineNo < 1 {
		respondError(w, h.log, http.StatusUnprocessableEntity, codeValidation, "line_no must be a positive integer")
		return
	}

	cart, err := h.carts.CancelLineItem(ctx, chi.URLParam(r, "cart_id"), lineNo)
	if err != nil {
		respondCartError(w, h.log, err)
		return
	}
	respondOK(w, h.log, http.StatusOK, cart)
}

func (h *CartHandler) CancelCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.CancelCart(ctx, chi.URLParam(r, "cart_id"))
	if err != nil {
		respondCartError(w, h.log, err)
		return
	}
	respondOK(w, h.log, http.StatusOK, cart)
}
