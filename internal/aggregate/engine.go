package aggregate

import (
	"slices"
	"strings"

	"deliverydesk/backend/internal/domain"
	"deliverydesk/backend/internal/store"
)

const DefaultRecentLimit = 10

// Engine derives read-only views from the store. Nothing is cached; every
// call scans the current collections.
type Engine struct {
	repo store.Reader
}

func NewEngine(repo store.Reader) *Engine {
	return &Engine{repo: repo}
}

func (e *Engine) Statistics() domain.Statistics {
	invoices := e.repo.Invoices()
	stock := e.repo.Stock()

	stats := domain.Statistics{
		TotalInvoices:    len(invoices),
		TotalDrivers:     len(e.repo.Drivers()),
		TotalStockItems:  len(stock),
		ArchivedInvoices: len(e.repo.ArchivedInvoices()),
	}
	for _, inv := range invoices {
		switch inv.Status {
		case domain.StatusPendingDelivery:
			stats.PendingInvoices++
		case domain.StatusDelivered:
			stats.DeliveredInvoices++
		case domain.StatusReturned:
			stats.ReturnedInvoices++
		}
	}
	for _, item := range stock {
		if item.IsLow() {
			stats.LowStockItems++
		}
	}
	return stats
}

// RecentInvoices returns up to limit invoices, newest date first. Invoices
// sharing a date keep their insertion order.
func (e *Engine) RecentInvoices(limit int) []domain.Invoice {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	invoices := e.repo.Invoices()
	slices.SortStableFunc(invoices, func(a, b domain.Invoice) int {
		return b.CreatedOn().Compare(a.CreatedOn())
	})
	if len(invoices) > limit {
		invoices = invoices[:limit]
	}
	return invoices
}

// SearchInvoices is a case-sensitive substring match over customer name,
// id, phone number and address.
func (e *Engine) SearchInvoices(query string) []domain.Invoice {
	return filterInvoices(e.repo.Invoices(), func(inv domain.Invoice) bool {
		return strings.Contains(inv.CustomerName, query) ||
			strings.Contains(inv.ID, query) ||
			strings.Contains(inv.PhoneNumber, query) ||
			strings.Contains(inv.Address, query)
	})
}

// SearchArchivedInvoices matches customer name, id and phone number only.
func (e *Engine) SearchArchivedInvoices(query string) []domain.Invoice {
	return filterInvoices(e.repo.ArchivedInvoices(), func(inv domain.Invoice) bool {
		return strings.Contains(inv.CustomerName, query) ||
			strings.Contains(inv.ID, query) ||
			strings.Contains(inv.PhoneNumber, query)
	})
}

func (e *Engine) FilterInvoicesByStatus(status domain.InvoiceStatus) []domain.Invoice {
	return filterInvoices(e.repo.Invoices(), func(inv domain.Invoice) bool {
		return inv.Status == status
	})
}

func (e *Engine) FilterInvoicesByDriver(driverID string) []domain.Invoice {
	return filterInvoices(e.repo.Invoices(), func(inv domain.Invoice) bool {
		return inv.DriverID == driverID
	})
}

// DriverInvoices lists the live invoices assigned to a driver.
func (e *Engine) DriverInvoices(driverID string) []domain.Invoice {
	return e.FilterInvoicesByDriver(driverID)
}

func (e *Engine) LowStockItems() []domain.StockItem {
	low := make([]domain.StockItem, 0)
	for _, item := range e.repo.Stock() {
		if item.IsLow() {
			low = append(low, item)
		}
	}
	return low
}

func (e *Engine) DriverSummaries() []domain.DriverSummary {
	byDriver := make(map[string]*domain.DriverSummary)
	drivers := e.repo.Drivers()
	summaries := make([]domain.DriverSummary, len(drivers))
	for i, d := range drivers {
		summaries[i].Driver = d
		byDriver[d.ID] = &summaries[i]
	}

	for _, inv := range e.repo.Invoices() {
		summary, ok := byDriver[inv.DriverID]
		if !ok {
			continue
		}
		switch inv.Status {
		case domain.StatusPendingDelivery:
			summary.PendingInvoices++
		case domain.StatusDelivered:
			summary.DeliveredInvoices++
		case domain.StatusReturned:
			summary.ReturnedInvoices++
		}
	}
	return summaries
}

func filterInvoices(invoices []domain.Invoice, keep func(domain.Invoice) bool) []domain.Invoice {
	out := make([]domain.Invoice, 0)
	for _, inv := range invoices {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	return out
}
