package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/calculadora/internal/common"
	"github.com/noah-isme/calculadora/internal/pricing"
)

// Handler wires the calculator session to HTTP.
type Handler struct {
	Session   *Session
	Formatter *pricing.Formatter
}

// field carries the literal text of a form input whether it arrives as a JSON string or number.
// A JSON null is an explicit blank.
type field struct {
	set  bool
	text string
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *field) UnmarshalJSON(b []byte) error {
	f.set = true
	trimmed := bytes.TrimSpace(b)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		f.text = ""
		return nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		return json.Unmarshal(trimmed, &f.text)
	default:
		f.text = string(trimmed)
		return nil
	}
}

func (f field) ptr() *string {
	if !f.set {
		return nil
	}
	text := f.text
	return &text
}

type formView struct {
	ProductID    string  `json:"productId"`
	Quantity     int     `json:"quantity"`
	Discount     *string `json:"discount"`
	PanelPercent string  `json:"panelPercent"`
	CanAdd       bool    `json:"canAdd"`
}

type lineView struct {
	ProductID          string `json:"productId"`
	Name               string `json:"name"`
	Emoji              string `json:"emoji"`
	UnitPrice          string `json:"unitPrice"`
	UnitPriceFormatted string `json:"unitPriceFormatted"`
	Quantity           int    `json:"quantity"`
	Discount           string `json:"discount"`
	Gross              string `json:"gross"`
	GrossFormatted     string `json:"grossFormatted"`
	Cost               string `json:"cost"`
	CostFormatted      string `json:"costFormatted"`
}

type summaryView struct {
	Gross                    string `json:"gross"`
	GrossFormatted           string `json:"grossFormatted"`
	TransactionCost          string `json:"transactionCost"`
	TransactionCostFormatted string `json:"transactionCostFormatted"`
	PanelPercent             string `json:"panelPercent"`
	Panel                    string `json:"panel"`
	PanelFormatted           string `json:"panelFormatted"`
	SellerProfit             string `json:"sellerProfit"`
	SellerProfitFormatted    string `json:"sellerProfitFormatted"`
	CustomerPayout           string `json:"customerPayout"`
	CustomerPayoutFormatted  string `json:"customerPayoutFormatted"`
}

// View is the JSON representation of the calculator state.
type View struct {
	Form           formView     `json:"form"`
	Items          []lineView   `json:"items"`
	Count          int          `json:"count"`
	SummaryVisible bool         `json:"summaryVisible"`
	Summary        *summaryView `json:"summary,omitempty"`
	Currency       string       `json:"currency"`
}

func (h *Handler) view(st State) View {
	f := h.Formatter
	summary := st.Summary()

	var discount *string
	if st.Form.Discount.Valid {
		text := st.Form.Discount.Decimal.String()
		discount = &text
	}
	v := View{
		Form: formView{
			ProductID:    st.Form.ProductID,
			Quantity:     st.Form.Quantity,
			Discount:     discount,
			PanelPercent: st.PanelShare.String(),
			CanAdd:       st.Form.Selected(),
		},
		Items:          make([]lineView, 0, len(st.Lines)),
		Count:          len(st.Lines),
		SummaryVisible: st.SummaryVisible,
		Currency:       f.Currency(),
	}
	for i, l := range st.Lines {
		b := summary.Lines[i]
		v.Items = append(v.Items, lineView{
			ProductID:          l.Product.ID,
			Name:               l.Product.Name,
			Emoji:              l.Product.Emoji,
			UnitPrice:          l.Product.Value.String(),
			UnitPriceFormatted: f.Format(l.Product.Value),
			Quantity:           l.Quantity,
			Discount:           l.Discount.String(),
			Gross:              b.Gross.String(),
			GrossFormatted:     f.Format(b.Gross),
			Cost:               b.Cost.String(),
			CostFormatted:      f.Format(b.Cost),
		})
	}
	if st.ShowSummary() {
		v.Summary = &summaryView{
			Gross:                    summary.Gross.String(),
			GrossFormatted:           f.Format(summary.Gross),
			TransactionCost:          summary.TransactionCost.String(),
			TransactionCostFormatted: f.Format(summary.TransactionCost),
			PanelPercent:             summary.PanelShare.String(),
			Panel:                    summary.Panel.String(),
			PanelFormatted:           f.Format(summary.Panel),
			SellerProfit:             summary.SellerProfit.String(),
			SellerProfitFormatted:    f.Format(summary.SellerProfit),
			CustomerPayout:           summary.CustomerPayout.String(),
			CustomerPayoutFormatted:  f.Format(summary.CustomerPayout),
		}
	}
	return v
}

func (h *Handler) render(w http.ResponseWriter, st State, applied bool) {
	common.Data(w, http.StatusOK, h.view(st), map[string]any{"applied": applied})
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Session == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "calculator session not configured", nil)
		return false
	}
	return true
}

// decodeOptional decodes a JSON body into dst. An empty body leaves dst untouched.
func decodeOptional(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return common.BadRequest("invalid payload", err)
	}
	return nil
}

// Get handles GET /api/v1/calculator.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.render(w, h.Session.State(), true)
}

// Select handles POST /api/v1/calculator/select.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload struct {
		ProductID string `json:"productId"`
	}
	if err := decodeOptional(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	st, applied := h.Session.Select(payload.ProductID)
	h.render(w, st, applied)
}

// UpdateForm handles PATCH /api/v1/calculator/form.
func (h *Handler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload struct {
		Quantity     field `json:"quantity"`
		Discount     field `json:"discount"`
		PanelPercent field `json:"panelPercent"`
	}
	if err := decodeOptional(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	st, applied := h.Session.EditForm(FormEdit{
		Quantity:   payload.Quantity.ptr(),
		Discount:   payload.Discount.ptr(),
		PanelShare: payload.PanelPercent.ptr(),
	})
	h.render(w, st, applied)
}

// AddItem handles POST /api/v1/calculator/items. Fields in the body are applied to the form
// before the selected product is added.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload struct {
		ProductID *string `json:"productId"`
		Quantity  field   `json:"quantity"`
		Discount  field   `json:"discount"`
	}
	if err := decodeOptional(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	st, applied := h.Session.AddWithForm(FormEdit{
		ProductID: payload.ProductID,
		Quantity:  payload.Quantity.ptr(),
		Discount:  payload.Discount.ptr(),
	})
	h.render(w, st, applied)
}

// UpdateItem handles PATCH /api/v1/calculator/items/{productId}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id := chi.URLParam(r, "productId")
	var payload struct {
		Delta    *int  `json:"delta"`
		Discount field `json:"discount"`
	}
	if err := decodeOptional(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	st, applied := h.Session.EditLine(id, LineEdit{Delta: payload.Delta, Discount: payload.Discount.ptr()})
	h.render(w, st, applied)
}

// RemoveItem handles DELETE /api/v1/calculator/items/{productId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	st, applied := h.Session.Remove(chi.URLParam(r, "productId"))
	h.render(w, st, applied)
}

// Clear handles DELETE /api/v1/calculator/items.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.render(w, h.Session.Clear(), true)
}

// Calculate handles POST /api/v1/calculator/calculate.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.render(w, h.Session.Calculate(), true)
}
