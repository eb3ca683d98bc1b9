package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"deliverydesk/backend/internal/domain"
)

func TestSortTableStringsIgnoreCase(t *testing.T) {
	rows := []domain.Invoice{
		{ID: "INV001", CustomerName: "mona"},
		{ID: "INV002", CustomerName: "Adel"},
		{ID: "INV003", CustomerName: "Zeinab"},
		{ID: "INV004", CustomerName: "adel"},
	}

	asc := SortTable(rows, "customerName", Ascending)
	assert.Equal(t, []string{"INV002", "INV004", "INV001", "INV003"}, invoiceIDs(asc))

	desc := SortTable(rows, "customerName", Descending)
	assert.Equal(t, []string{"INV003", "INV001", "INV002", "INV004"}, invoiceIDs(desc))

	assert.Equal(t, "INV001", rows[0].ID, "input must not be reordered")
}

func TestSortTableNumbersAndTimes(t *testing.T) {
	items := []domain.StockItem{
		{ID: "STK001", Quantity: 10},
		{ID: "STK002", Quantity: -1},
		{ID: "STK003", Quantity: 3},
	}
	sorted := SortTable(items, "quantity", Ascending)
	assert.Equal(t, "STK002", sorted[0].ID)
	assert.Equal(t, "STK001", sorted[2].ID)

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	invoices := []domain.Invoice{
		{ID: "INV001", LastStatusUpdate: base.Add(2 * time.Hour)},
		{ID: "INV002", LastStatusUpdate: base},
		{ID: "INV003", LastStatusUpdate: base.Add(time.Hour)},
	}
	assert.Equal(t, []string{"INV001", "INV003", "INV002"}, invoiceIDs(SortTable(invoices, "lastStatusUpdate", Descending)))
}

func TestSortTableTiesAreStableInBothDirections(t *testing.T) {
	rows := []domain.Invoice{
		{ID: "INV001", Status: domain.StatusDelivered},
		{ID: "INV002", Status: domain.StatusDelivered},
		{ID: "INV003", Status: domain.StatusDelivered},
	}

	assert.Equal(t, []string{"INV001", "INV002", "INV003"}, invoiceIDs(SortTable(rows, "status", Ascending)))
	assert.Equal(t, []string{"INV001", "INV002", "INV003"}, invoiceIDs(SortTable(rows, "status", Descending)))
}

func TestSortTableNilPointersFirst(t *testing.T) {
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := []domain.Invoice{
		{ID: "INV001", ArchivedDate: &at},
		{ID: "INV002"},
	}

	assert.Equal(t, []string{"INV002", "INV001"}, invoiceIDs(SortTable(rows, "archivedDate", Ascending)))
}

func TestSortTableUnknownColumnKeepsOrder(t *testing.T) {
	rows := []domain.Invoice{{ID: "INV002"}, {ID: "INV001"}}

	assert.Equal(t, []string{"INV002", "INV001"}, invoiceIDs(SortTable(rows, "nope", Ascending)))
	assert.Empty(t, SortTable([]domain.Invoice{}, "id", Ascending))
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Descending, ParseDirection("DESC"))
	assert.Equal(t, Ascending, ParseDirection("asc"))
	assert.Equal(t, Ascending, ParseDirection(""))
}
