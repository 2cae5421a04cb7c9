package cart

import (
	"os"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/calculadora/internal/catalog"
	"github.com/noah-isme/calculadora/internal/obs"
)

func TestMain(m *testing.M) {
	obs.MustRegisterDomainMetrics("calc_test", prometheus.NewRegistry())
	os.Exit(m.Run())
}

func newTestSession(t *testing.T, panel string) *Session {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return NewSession(SessionConfig{Catalog: c, PanelShare: pct(panel), Logger: zerolog.Nop()})
}

func TestSessionSelectPrefillsDiscount(t *testing.T) {
	s := newTestSession(t, "100")

	st, ok := s.Select("barra")
	require.True(t, ok)
	require.Equal(t, "barra", st.Form.ProductID)
	require.True(t, st.Form.Discount.Valid)
	require.True(t, st.Form.Discount.Decimal.Equal(pct("30")))

	st, ok = s.Select("unknown")
	require.False(t, ok)
	require.Equal(t, "", st.Form.ProductID)
	require.False(t, st.Form.Discount.Valid)
}

func TestSessionAddWithoutSelectionIsNoop(t *testing.T) {
	s := newTestSession(t, "100")

	st, ok := s.AddSelected()
	require.False(t, ok)
	require.Empty(t, st.Lines)
}

func TestSessionDiscountEditRequiresSelection(t *testing.T) {
	s := newTestSession(t, "100")

	st, ok := s.SetDiscount("40")
	require.False(t, ok)
	require.False(t, st.Form.Discount.Valid)

	s.Select("ps5")
	st, ok = s.SetDiscount("")
	require.True(t, ok)
	require.False(t, st.Form.Discount.Valid)

	st, _ = s.SetDiscount("250")
	require.True(t, st.Form.Discount.Decimal.Equal(pct("100")))

	st, _ = s.SetDiscount("x")
	require.True(t, st.Form.Discount.Valid)
	require.True(t, st.Form.Discount.Decimal.IsZero())
}

func TestSessionAddResetsFormAndMerges(t *testing.T) {
	s := newTestSession(t, "100")

	s.Select("ps5")
	s.SetQuantity("2")
	st, ok := s.AddSelected()
	require.True(t, ok)
	require.Len(t, st.Lines, 1)
	require.Equal(t, 2, st.Lines[0].Quantity)
	require.True(t, st.Lines[0].Discount.Equal(pct("15")))
	require.Equal(t, NewForm(), st.Form)

	s.Select("ps5")
	s.SetQuantity("3")
	s.SetDiscount("5")
	st, _ = s.AddSelected()
	require.Len(t, st.Lines, 1)
	require.Equal(t, 5, st.Lines[0].Quantity)
	require.True(t, st.Lines[0].Discount.Equal(pct("5")))
}

func TestSessionBlankDiscountAddsAsZero(t *testing.T) {
	s := newTestSession(t, "100")
	s.Select("colar")
	s.SetDiscount("")
	st, ok := s.AddSelected()
	require.True(t, ok)
	require.True(t, st.Lines[0].Discount.IsZero())
}

func TestSessionReferenceExample(t *testing.T) {
	s := newTestSession(t, "100")
	s.Select("ps5")
	s.SetQuantity("2")
	s.SetDiscount("15")
	s.AddSelected()

	st := s.Calculate()
	require.True(t, st.ShowSummary())
	sum := st.Summary()
	require.True(t, sum.Gross.Equal(pct("5000")))
	require.True(t, sum.TransactionCost.Equal(pct("750")))
	require.True(t, sum.Panel.Equal(pct("750")))
	require.True(t, sum.SellerProfit.IsZero())
	require.True(t, sum.CustomerPayout.Equal(pct("4250")))

	st = s.SetPanelShare("0")
	sum = st.Summary()
	require.True(t, sum.Panel.IsZero())
	require.True(t, sum.SellerProfit.Equal(pct("750")))
	require.True(t, sum.CustomerPayout.Equal(pct("4250")))
}

func TestSessionPanelShareClamps(t *testing.T) {
	s := newTestSession(t, "250")
	require.True(t, s.State().PanelShare.Equal(pct("100")))

	require.True(t, s.SetPanelShare("-10").PanelShare.IsZero())
	require.True(t, s.SetPanelShare("abc").PanelShare.IsZero())
	require.True(t, s.SetPanelShare("55.5").PanelShare.Equal(pct("55.5")))
}

func TestSessionLineEdits(t *testing.T) {
	s := newTestSession(t, "100")
	s.Select("relogio")
	s.AddSelected()

	st, ok := s.Step("relogio", -1)
	require.True(t, ok)
	require.Equal(t, 1, st.Lines[0].Quantity)

	st, _ = s.Step("relogio", 1)
	require.Equal(t, 2, st.Lines[0].Quantity)

	st, ok = s.SetLineDiscount("relogio", "-20")
	require.True(t, ok)
	require.True(t, st.Lines[0].Discount.IsZero())

	_, ok = s.Step("quadro", 1)
	require.False(t, ok)
	_, ok = s.SetLineDiscount("quadro", "10")
	require.False(t, ok)

	st, ok = s.Remove("relogio")
	require.True(t, ok)
	require.Empty(t, st.Lines)

	_, ok = s.Remove("relogio")
	require.False(t, ok)
}

func TestSessionClearHidesSummary(t *testing.T) {
	s := newTestSession(t, "100")
	s.Select("trofeu")
	s.AddSelected()
	s.Calculate()
	require.True(t, s.State().SummaryVisible)

	st := s.Clear()
	require.Empty(t, st.Lines)
	require.False(t, st.SummaryVisible)
	require.False(t, st.ShowSummary())
}

func TestSessionSummaryHiddenWhenEmpty(t *testing.T) {
	s := newTestSession(t, "100")
	st := s.Calculate()
	require.True(t, st.SummaryVisible)
	require.False(t, st.ShowSummary())
}

func TestSessionRecordsMetrics(t *testing.T) {
	s := newTestSession(t, "100")
	applied := obs.CartMutationsTotal.WithLabelValues("add", "applied")
	noop := obs.CartMutationsTotal.WithLabelValues("add", "noop")
	beforeApplied := testutil.ToFloat64(applied)
	beforeNoop := testutil.ToFloat64(noop)
	beforeCalc := testutil.ToFloat64(obs.CalculationsTotal)

	s.AddSelected()
	s.Select("ps5")
	s.AddSelected()
	s.Calculate()

	require.Equal(t, beforeApplied+1, testutil.ToFloat64(applied))
	require.Equal(t, beforeNoop+1, testutil.ToFloat64(noop))
	require.Equal(t, beforeCalc+1, testutil.ToFloat64(obs.CalculationsTotal))
	require.Equal(t, float64(1), testutil.ToFloat64(obs.CartLines))
}

func TestSessionConcurrentAdds(t *testing.T) {
	s := newTestSession(t, "100")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Step("ps5", 1)
			s.State()
		}()
	}
	s.Select("ps5")
	s.AddSelected()
	wg.Wait()

	st := s.State()
	require.Len(t, st.Lines, 1)
	require.GreaterOrEqual(t, st.Lines[0].Quantity, 1)
}

func strp(s string) *string { return &s }

func TestSessionEditFormAppliesTogether(t *testing.T) {
	s := newTestSession(t, "100")

	st, applied := s.EditForm(FormEdit{Quantity: strp("3"), Discount: strp("10"), PanelShare: strp("40")})
	require.False(t, applied)
	require.Equal(t, 3, st.Form.Quantity)
	require.False(t, st.Form.Discount.Valid)
	require.True(t, st.PanelShare.Equal(pct("40")))

	st, applied = s.EditForm(FormEdit{ProductID: strp("ps5"), Discount: strp("10")})
	require.True(t, applied)
	require.Equal(t, "ps5", st.Form.ProductID)
	require.True(t, st.Form.Discount.Decimal.Equal(pct("10")))
}

func TestSessionAddWithFormConcurrentRequests(t *testing.T) {
	s := newTestSession(t, "100")
	const perProduct = 50
	var wg sync.WaitGroup
	for i := 0; i < perProduct; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.AddWithForm(FormEdit{ProductID: strp("ps5"), Quantity: strp("1"), Discount: strp("5")})
		}()
		go func() {
			defer wg.Done()
			s.AddWithForm(FormEdit{ProductID: strp("colar"), Quantity: strp("2"), Discount: strp("5")})
		}()
	}
	wg.Wait()

	st := s.State()
	require.Len(t, st.Lines, 2)
	byID := map[string]int{}
	for _, l := range st.Lines {
		byID[l.Product.ID] = l.Quantity
	}
	require.Equal(t, perProduct, byID["ps5"])
	require.Equal(t, 2*perProduct, byID["colar"])
	require.False(t, st.Form.Selected())
}

func TestSessionEditLine(t *testing.T) {
	s := newTestSession(t, "100")
	s.AddWithForm(FormEdit{ProductID: strp("ps5"), Quantity: strp("2")})

	delta := 3
	st, applied := s.EditLine("ps5", LineEdit{Delta: &delta, Discount: strp("20")})
	require.True(t, applied)
	require.Equal(t, 5, st.Lines[0].Quantity)
	require.True(t, st.Lines[0].Discount.Equal(pct("20")))

	_, applied = s.EditLine("missing", LineEdit{Delta: &delta})
	require.False(t, applied)
	_, applied = s.EditLine("ps5", LineEdit{})
	require.False(t, applied)
}
