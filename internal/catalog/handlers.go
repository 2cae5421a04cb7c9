package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/calculadora/internal/common"
	"github.com/noah-isme/calculadora/internal/pricing"
)

// Handler exposes public catalog endpoints.
type Handler struct {
	catalog   *Catalog
	formatter *pricing.Formatter
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Catalog   *Catalog
	Formatter *pricing.Formatter
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{catalog: cfg.Catalog, formatter: cfg.Formatter}
}

// ProductItem is the public representation of a catalog product.
type ProductItem struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Emoji          string `json:"emoji"`
	Value          string `json:"value"`
	ValueFormatted string `json:"valueFormatted"`
	Discount       string `json:"discount"`
}

func (h *Handler) item(p Product) ProductItem {
	return ProductItem{
		ID:             p.ID,
		Name:           p.Name,
		Emoji:          p.Emoji,
		Value:          p.Value.String(),
		ValueFormatted: h.formatter.Format(p.Value),
		Discount:       p.Discount.String(),
	}
}

// Products handles GET /api/v1/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	products := h.catalog.Products()
	items := make([]ProductItem, 0, len(products))
	for _, p := range products {
		items = append(items, h.item(p))
	}
	common.Data(w, http.StatusOK, items, nil)
}

// ProductDetail handles GET /api/v1/products/{id}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	p, ok := h.catalog.Lookup(chi.URLParam(r, "id"))
	if !ok {
		common.WriteError(w, common.NotFound("product not found"))
		return
	}
	common.Data(w, http.StatusOK, h.item(p), nil)
}
