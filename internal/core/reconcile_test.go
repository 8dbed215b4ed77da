package core_test

import (
	"testing"
	"time"

	"moveflow/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func timePtr(t time.Time) *time.Time { return &t }

func assertInvoiceConserves(t *testing.T, inv *core.Invoice) {
	t.Helper()
	assert.Equal(t, inv.Subtotal-inv.RutDeduction, inv.TotalAmount, "totalAmount must equal subtotal - rutDeduction")
	var lineSum int64
	for _, l := range inv.LineItems {
		lineSum += l.Total
	}
	assert.Equal(t, inv.Subtotal, lineSum, "subtotal must equal sum of line totals")
}

func TestBuildInvoice_QuotePlusLedger(t *testing.T) {
	quote := core.Quote{BasePrice: 6500, AdditionalServicesTotal: 3500, TotalPrice: 10000}
	entries := []core.ServiceLedgerEntry{
		{Name: "Magasinering", Quantity: 2, UnitPrice: 1000, TotalPrice: 2000, AddedBy: "erik"},
	}

	inv, err := core.BuildInvoice(7, quote, entries)
	require.NoError(t, err)

	assert.Equal(t, int64(12000), inv.Subtotal)
	assert.Equal(t, int64(4200), inv.RutDeduction) // 12000 × 0.7 × 0.5
	assert.Equal(t, int64(7800), inv.TotalAmount)
	assert.Equal(t, int64(0), inv.VAT)
	assert.False(t, inv.AutoInvoiced)
	assertInvoiceConserves(t, inv)
}

func TestBuildInvoice_LineItemOrder(t *testing.T) {
	quote := core.Quote{TotalPrice: 5000}
	entries := []core.ServiceLedgerEntry{
		{Name: "Packhjälp", Quantity: 1, UnitPrice: 1500, TotalPrice: 1500},
		{Name: "Pianoflytt", Quantity: 1, UnitPrice: 2500, TotalPrice: 2500},
	}

	inv, err := core.BuildInvoice(1, quote, entries)
	require.NoError(t, err)

	require.Len(t, inv.LineItems, 3)
	assert.Equal(t, int64(5000), inv.LineItems[0].Total) // base move line first
	assert.Equal(t, "Packhjälp", inv.LineItems[1].Description)
	assert.Equal(t, "Pianoflytt", inv.LineItems[2].Description)
	assertInvoiceConserves(t, inv)
}

func TestBuildInvoice_NoLedgerEntries(t *testing.T) {
	inv, err := core.BuildInvoice(2, core.Quote{TotalPrice: 10000}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), inv.Subtotal)
	require.Len(t, inv.LineItems, 1)
	assertInvoiceConserves(t, inv)
}

func TestResolveBillableHours_TrackedWins(t *testing.T) {
	hours, source := core.ResolveBillableHours(core.HoursEvidence{
		TrackedHours:   decPtr(5),
		EstimatedHours: decPtr(6),
	})
	assert.True(t, decimal.NewFromInt(5).Equal(hours))
	assert.Equal(t, "time tracking", source)
}

func TestResolveBillableHours_TrackedCappedAtEstimateTimesOneAndAHalf(t *testing.T) {
	hours, _ := core.ResolveBillableHours(core.HoursEvidence{
		TrackedHours:   decPtr(20),
		EstimatedHours: decPtr(6),
	})
	assert.True(t, decimal.NewFromInt(9).Equal(hours), "got %s", hours)
}

func TestResolveBillableHours_GPSWithinBounds(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	hours, source := core.ResolveBillableHours(core.HoursEvidence{
		StartTime:   timePtr(start),
		LastGPSPing: timePtr(start.Add(5*time.Hour + 20*time.Minute)),
	})
	// 5h20m rounds to the nearest half hour: 5.5
	assert.True(t, decimal.NewFromFloat(5.5).Equal(hours), "got %s", hours)
	assert.Equal(t, "gps last seen", source)
}

func TestResolveBillableHours_GPSOutOfBoundsFallsThrough(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	// 15h elapsed is outside the (0, 12) sanity bound: the estimate wins.
	hours, source := core.ResolveBillableHours(core.HoursEvidence{
		StartTime:      timePtr(start),
		LastGPSPing:    timePtr(start.Add(15 * time.Hour)),
		EstimatedHours: decPtr(6),
	})
	assert.True(t, decimal.NewFromInt(6).Equal(hours))
	assert.Equal(t, "booking estimate", source)

	// Ping before start is equally implausible.
	hours, source = core.ResolveBillableHours(core.HoursEvidence{
		StartTime:   timePtr(start),
		LastGPSPing: timePtr(start.Add(-1 * time.Hour)),
	})
	assert.True(t, decimal.NewFromInt(4).Equal(hours))
	assert.Equal(t, "default", source)
}

func TestResolveBillableHours_HardDefault(t *testing.T) {
	hours, source := core.ResolveBillableHours(core.HoursEvidence{})
	assert.True(t, decimal.NewFromInt(4).Equal(hours))
	assert.Equal(t, "default", source)
}

func TestBuildAutoInvoice_HardDefault(t *testing.T) {
	inv, err := core.BuildAutoInvoice(9, core.HoursEvidence{})
	require.NoError(t, err)

	assert.Equal(t, int64(1600), inv.Subtotal) // 4h × 400 SEK
	assert.Equal(t, int64(800), inv.RutDeduction)
	assert.Equal(t, int64(800), inv.TotalAmount)
	assert.True(t, inv.AutoInvoiced)
	assert.NotEmpty(t, inv.AutoInvoiceReason)
	assertInvoiceConserves(t, inv)
}

func TestBuildAutoInvoice_UsesFlatRUTRule(t *testing.T) {
	// 6h × 400 = 2400; flat rule deducts 1200, not the labor-fraction 840.
	inv, err := core.BuildAutoInvoice(3, core.HoursEvidence{EstimatedHours: decPtr(6)})
	require.NoError(t, err)

	assert.Equal(t, int64(2400), inv.Subtotal)
	assert.Equal(t, int64(1200), inv.RutDeduction)
	assertInvoiceConserves(t, inv)
}

func TestEnsureFinalizable(t *testing.T) {
	assert.NoError(t, core.EnsureFinalizable(core.JobCompleted))
	assert.NoError(t, core.EnsureFinalizable(core.JobInProgress))
	assert.ErrorIs(t, core.EnsureFinalizable(core.JobInvoiced), core.ErrAlreadyInvoiced)
	assert.ErrorIs(t, core.EnsureFinalizable(core.JobCancelled), core.ErrJobCancelled)
}
