package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/goliatone/go-storefront/catalog"
)

type productHandler struct {
	catalog *catalog.Service
	logger  *zap.Logger
}

// productRequest bounds the request shape. Business rules (required
// fields, non-negative price and stock) are enforced by the catalog.
type productRequest struct {
	Name         *string          `json:"name" validate:"omitempty,max=200"`
	Description  *string          `json:"description" validate:"omitempty,max=5000"`
	Price        *decimal.Decimal `json:"price"`
	Brand        *string          `json:"brand" validate:"omitempty,max=100"`
	Category     *string          `json:"category" validate:"omitempty,max=100"`
	CountInStock *int             `json:"countInStock"`
	Images       []string         `json:"images" validate:"omitempty,max=20,dive,max=2048"`
}

func (req productRequest) input() catalog.ProductInput {
	return catalog.ProductInput{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Brand:        req.Brand,
		Category:     req.Category,
		CountInStock: req.CountInStock,
		Images:       req.Images,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

// list serves the full catalog with an ETag derived from the body, so
// clients polling an unchanged catalog get 304 without a payload.
func (h *productHandler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(products); err != nil {
		respondError(w, h.logger, err)
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(body.Bytes()))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body.Bytes()); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *productHandler) get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, product)
}

func (h *productHandler) create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	product, err := h.catalog.CreateProduct(r.Context(), req.input())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, product)
}

func (h *productHandler) update(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	product, err := h.catalog.UpdateProduct(r.Context(), chi.URLParam(r, "productID"), req.input())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, product)
}

func (h *productHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "productID")); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, messageResponse{Message: "Product deleted successfully"})
}
