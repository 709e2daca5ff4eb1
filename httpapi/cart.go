package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/cart"
	"github.com/goliatone/go-storefront/domain"
)

type cartHandler struct {
	carts  *cart.Service
	logger *zap.Logger
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=1000000"`
}

// updateItemRequest allows zero and negative quantities, which remove the
// item.
type updateItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"required,max=1000000"`
}

type removeItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

type cartResponse struct {
	Message string           `json:"message"`
	Cart    *domain.CartView `json:"cart"`
}

func (h *cartHandler) get(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	view, err := h.carts.GetCart(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, view)
}

func (h *cartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	identity, _ := auth.IdentityFrom(r.Context())
	view, err := h.carts.AddItem(r.Context(), identity.UserID, req.ProductID, req.Quantity)
	h.respondCart(w, "Product added to cart", view, err)
}

func (h *cartHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	identity, _ := auth.IdentityFrom(r.Context())
	view, err := h.carts.UpdateItemQuantity(r.Context(), identity.UserID, req.ProductID, *req.Quantity)
	h.respondCart(w, "Cart updated", view, err)
}

func (h *cartHandler) remove(w http.ResponseWriter, r *http.Request) {
	var req removeItemRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	identity, _ := auth.IdentityFrom(r.Context())
	view, err := h.carts.RemoveItem(r.Context(), identity.UserID, req.ProductID)
	h.respondCart(w, "Item removed from cart", view, err)
}

func (h *cartHandler) clear(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	view, err := h.carts.ClearCart(r.Context(), identity.UserID)
	h.respondCart(w, "Cart cleared successfully", view, err)
}

func (h *cartHandler) respondCart(w http.ResponseWriter, message string, view *domain.CartView, err error) {
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, cartResponse{Message: message, Cart: view})
}
