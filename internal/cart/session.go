package cart

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/calculadora/internal/catalog"
	"github.com/noah-isme/calculadora/internal/obs"
	"github.com/noah-isme/calculadora/internal/pricing"
)

// Catalog resolves product identifiers.
type Catalog interface {
	Lookup(id string) (catalog.Product, bool)
}

// State is a snapshot of the calculator.
type State struct {
	Form           Form
	PanelShare     decimal.Decimal
	Lines          []Line
	SummaryVisible bool
}

// Summary computes every pricing figure for the snapshot.
func (st State) Summary() pricing.Summary {
	return pricing.Compute(PricingLines(st.Lines), st.PanelShare)
}

// ShowSummary reports whether the shell should render the summary.
func (st State) ShowSummary() bool {
	return st.SummaryVisible && len(st.Lines) > 0
}

// SessionConfig configures a Session.
type SessionConfig struct {
	Catalog    Catalog
	PanelShare decimal.Decimal
	Logger     zerolog.Logger
}

// Session owns the cart, the form, the panel share and the summary flag. Every operation is
// serialised and returns a snapshot taken under the same lock.
type Session struct {
	mu          sync.Mutex
	catalog     Catalog
	cart        *Cart
	form        Form
	panel       decimal.Decimal
	showSummary bool
	log         zerolog.Logger
}

// NewSession returns an empty calculator session.
func NewSession(cfg SessionConfig) *Session {
	return &Session{
		catalog: cfg.Catalog,
		cart:    New(),
		form:    NewForm(),
		panel:   ClampPercent(cfg.PanelShare),
		log:     cfg.Logger,
	}
}

func (s *Session) snapshot() State {
	return State{
		Form:           s.form,
		PanelShare:     s.panel,
		Lines:          s.cart.Lines(),
		SummaryVisible: s.showSummary,
	}
}

func (s *Session) lookup(id string) (catalog.Product, bool) {
	id = strings.TrimSpace(id)
	if s.catalog == nil || id == "" {
		return catalog.Product{}, false
	}
	return s.catalog.Lookup(id)
}

func (s *Session) record(action string, applied bool) {
	obs.RecordCartMutation(action, applied)
	obs.SetCartLines(s.cart.Len())
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// FormEdit carries raw field edits. Nil fields are left untouched.
type FormEdit struct {
	ProductID  *string
	Quantity   *string
	Discount   *string
	PanelShare *string
}

// LineEdit carries edits for an existing line. Nil fields are left untouched.
type LineEdit struct {
	Delta    *int
	Discount *string
}

func (s *Session) selectLocked(id string) bool {
	p, ok := s.lookup(id)
	if !ok {
		s.form.Deselect()
		s.log.Debug().Str("product_id", id).Msg("select_unknown_product")
	} else {
		s.form.Select(p)
	}
	s.record("select", ok)
	return ok
}

func (s *Session) setQuantityLocked(raw string) {
	s.form.SetQuantity(raw)
	s.record("form_quantity", true)
}

func (s *Session) setDiscountLocked(raw string) bool {
	applied := s.form.SetDiscount(raw)
	if !applied {
		s.log.Debug().Msg("discount_edit_without_selection")
	}
	s.record("form_discount", applied)
	return applied
}

func (s *Session) setPanelShareLocked(raw string) {
	s.panel = ParsePercent(raw)
	s.record("panel_share", true)
}

func (s *Session) addSelectedLocked() bool {
	p, ok := s.lookup(s.form.ProductID)
	if !ok {
		s.log.Debug().Str("product_id", s.form.ProductID).Msg("add_without_selection")
		s.record("add", false)
		return false
	}
	line := s.cart.Add(p, s.form.Quantity, s.form.EffectiveDiscount())
	s.form.Reset()
	s.log.Debug().
		Str("product_id", p.ID).
		Int("quantity", line.Quantity).
		Str("discount", line.Discount.String()).
		Msg("cart_add")
	s.record("add", true)
	return true
}

// applyFormLocked reports false when a requested edit was ignored.
func (s *Session) applyFormLocked(e FormEdit) bool {
	applied := true
	if e.ProductID != nil {
		applied = s.selectLocked(*e.ProductID) && applied
	}
	if e.Quantity != nil {
		s.setQuantityLocked(*e.Quantity)
	}
	if e.Discount != nil {
		applied = s.setDiscountLocked(*e.Discount) && applied
	}
	if e.PanelShare != nil {
		s.setPanelShareLocked(*e.PanelShare)
	}
	return applied
}

// Select chooses a product in the form. Unknown identifiers clear the selection.
func (s *Session) Select(id string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.selectLocked(id)
	return s.snapshot(), ok
}

// SetQuantity edits the form quantity.
func (s *Session) SetQuantity(raw string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setQuantityLocked(raw)
	return s.snapshot()
}

// SetDiscount edits the form discount. Ignored while no product is selected.
func (s *Session) SetDiscount(raw string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := s.setDiscountLocked(raw)
	return s.snapshot(), applied
}

// SetPanelShare edits the panel share percentage.
func (s *Session) SetPanelShare(raw string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPanelShareLocked(raw)
	return s.snapshot()
}

// EditForm applies several form edits as one operation. The selection is applied first so a
// discount in the same edit targets the new product.
func (s *Session) EditForm(e FormEdit) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := s.applyFormLocked(e)
	return s.snapshot(), applied
}

// AddSelected adds the selected product with the form's quantity and discount, merging into an
// existing line, then resets the form. Without a valid selection it does nothing.
func (s *Session) AddSelected() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.addSelectedLocked()
	return s.snapshot(), ok
}

// AddWithForm applies e to the form and adds the selected product under one lock.
func (s *Session) AddWithForm(e FormEdit) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyFormLocked(e)
	ok := s.addSelectedLocked()
	return s.snapshot(), ok
}

func (s *Session) stepLocked(id string, delta int) bool {
	line, ok := s.cart.Step(strings.TrimSpace(id), delta)
	if ok {
		s.log.Debug().Str("product_id", id).Int("quantity", line.Quantity).Msg("cart_step")
	}
	s.record("step", ok)
	return ok
}

func (s *Session) setLineDiscountLocked(id, raw string) bool {
	line, ok := s.cart.SetDiscount(strings.TrimSpace(id), ParsePercent(raw))
	if ok {
		s.log.Debug().Str("product_id", id).Str("discount", line.Discount.String()).Msg("cart_discount")
	}
	s.record("line_discount", ok)
	return ok
}

// Step changes a line's quantity by delta with a floor of 1.
func (s *Session) Step(id string, delta int) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.stepLocked(id, delta)
	return s.snapshot(), ok
}

// SetLineDiscount overwrites the discount of an existing line.
func (s *Session) SetLineDiscount(id, raw string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.setLineDiscountLocked(id, raw)
	return s.snapshot(), ok
}

// EditLine applies a step and a discount to one line as a single operation. It reports false
// when the line does not exist or the edit is empty.
func (s *Session) EditLine(id string, e LineEdit) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := false
	if e.Delta != nil {
		applied = s.stepLocked(id, *e.Delta)
	}
	if e.Discount != nil {
		applied = s.setLineDiscountLocked(id, *e.Discount)
	}
	return s.snapshot(), applied
}

// Remove deletes a line.
func (s *Session) Remove(id string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.cart.Remove(strings.TrimSpace(id))
	if ok {
		s.log.Debug().Str("product_id", id).Msg("cart_remove")
	}
	s.record("remove", ok)
	return s.snapshot(), ok
}

// Clear empties the cart and hides the summary.
func (s *Session) Clear() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
	s.showSummary = false
	s.log.Debug().Msg("cart_clear")
	s.record("clear", true)
	return s.snapshot()
}

// Calculate makes the summary visible.
func (s *Session) Calculate() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showSummary = true
	obs.RecordCalculation()
	s.record("calculate", true)
	return s.snapshot()
}
