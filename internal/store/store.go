package store

import (
	"errors"

	"deliverydesk/backend/internal/domain"
)

var ErrNotFound = errors.New("not found")

// Reader is the read side used by derived views.
type Reader interface {
	Invoices() []domain.Invoice
	ArchivedInvoices() []domain.Invoice
	Drivers() []domain.Driver
	Stock() []domain.StockItem
	GetInvoice(id string) (domain.Invoice, error)
	GetArchivedInvoice(id string) (domain.Invoice, error)
	GetDriver(id string) (domain.Driver, error)
	GetStockItem(id string) (domain.StockItem, error)
	Sequences() domain.Sequences
}

// Repository is the authoritative holder of the live and archived
// collections. Lookup misses on mutations are reported with false.
type Repository interface {
	Reader

	AddInvoice(in domain.InvoiceInput) domain.Invoice
	AddDriver(in domain.DriverInput) domain.Driver
	AddStockItem(in domain.StockItemInput) domain.StockItem
	UpdateInvoiceStatus(id string, status domain.InvoiceStatus) (domain.StatusChange, bool)
	UpdateStockQuantity(id string, qty int) bool
	RecordDriverOutcome(driverID string, status domain.InvoiceStatus) bool
	ArchiveInvoice(id string) (archived domain.Invoice, snapshot []domain.Invoice, ok bool)

	Replace(c domain.Collections, seq domain.Sequences)
	Reset()
}
