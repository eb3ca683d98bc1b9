package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"deliverydesk/backend/internal/domain"
	"deliverydesk/backend/internal/logger"
	"deliverydesk/backend/internal/store"
)

// Store keeps the live collections and the invoice archive. Every mutation
// holds the write lock for its whole read-modify-write.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	log      zerolog.Logger
	invoices []domain.Invoice
	archived []domain.Invoice
	drivers  []domain.Driver
	stock    []domain.StockItem
	seq      domain.Sequences
}

var _ store.Repository = (*Store)(nil)

// New returns an empty store. A nil clock means time.Now.
func New(clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		now: clock,
		log: logger.WithComponent("store"),
	}
}

func (s *Store) AddInvoice(in domain.InvoiceInput) domain.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	status := in.Status
	if status == "" {
		status = domain.StatusPendingDelivery
	}

	s.seq.Invoice++
	invoice := domain.Invoice{
		ID:               formatID(invoicePrefix, s.seq.Invoice),
		CustomerName:     in.CustomerName,
		PhoneNumber:      in.PhoneNumber,
		Address:          in.Address,
		Status:           status,
		DriverID:         in.DriverID,
		Amount:           in.Amount,
		Notes:            in.Notes,
		Date:             now.Format(domain.DateLayout),
		LastStatusUpdate: now,
	}
	s.invoices = append(s.invoices, invoice)
	s.log.Debug().Str("invoice_id", invoice.ID).Msg("invoice added")
	return invoice
}

func (s *Store) AddDriver(in domain.DriverInput) domain.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq.Driver++
	driver := domain.Driver{
		ID:            formatID(driverPrefix, s.seq.Driver),
		Name:          in.Name,
		PhoneNumber:   in.PhoneNumber,
		VehicleNumber: in.VehicleNumber,
		Status:        in.Status,
	}
	s.drivers = append(s.drivers, driver)
	s.log.Debug().Str("driver_id", driver.ID).Msg("driver added")
	return driver
}

func (s *Store) AddStockItem(in domain.StockItemInput) domain.StockItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq.Stock++
	item := domain.StockItem{
		ID:          formatID(stockPrefix, s.seq.Stock),
		Name:        in.Name,
		Category:    in.Category,
		Unit:        in.Unit,
		Quantity:    in.Quantity,
		MinQuantity: in.MinQuantity,
	}
	s.stock = append(s.stock, item)
	s.log.Debug().Str("stock_id", item.ID).Msg("stock item added")
	return item
}

// UpdateInvoiceStatus only looks at live invoices; archived ones are
// reported as missing.
func (s *Store) UpdateInvoiceStatus(id string, status domain.InvoiceStatus) (domain.StatusChange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.invoiceIndex(id)
	if idx < 0 {
		return domain.StatusChange{}, false
	}

	previous := s.invoices[idx].Status
	now := s.now().UTC()
	if now.Before(s.invoices[idx].LastStatusUpdate) {
		now = s.invoices[idx].LastStatusUpdate
	}
	s.invoices[idx].Status = status
	s.invoices[idx].LastStatusUpdate = now
	return domain.StatusChange{Invoice: s.invoices[idx].Clone(), Previous: previous}, true
}

// UpdateStockQuantity overwrites the quantity without bounds checks.
func (s *Store) UpdateStockQuantity(id string, qty int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.stock {
		if s.stock[i].ID == id {
			s.stock[i].Quantity = qty
			return true
		}
	}
	return false
}

func (s *Store) RecordDriverOutcome(driverID string, status domain.InvoiceStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.drivers {
		if s.drivers[i].ID != driverID {
			continue
		}
		switch status {
		case domain.StatusDelivered:
			s.drivers[i].TotalDeliveries++
		case domain.StatusReturned:
			s.drivers[i].TotalReturns++
		default:
			return false
		}
		return true
	}
	return false
}

// ArchiveInvoice moves the invoice into the archive and returns it together
// with a copy of the archive as it stood right after the move.
func (s *Store) ArchiveInvoice(id string) (domain.Invoice, []domain.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.invoiceIndex(id)
	if idx < 0 {
		return domain.Invoice{}, nil, false
	}

	invoice := s.invoices[idx]
	archivedAt := s.now().UTC()
	invoice.ArchivedDate = &archivedAt

	s.invoices = slices.Delete(s.invoices, idx, idx+1)
	s.archived = append(s.archived, invoice)
	s.log.Info().Str("invoice_id", id).Int("archive_size", len(s.archived)).Msg("invoice archived")

	return invoice.Clone(), cloneInvoices(s.archived), true
}

func (s *Store) GetInvoice(id string) (domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.invoiceIndex(id); idx >= 0 {
		return s.invoices[idx].Clone(), nil
	}
	return domain.Invoice{}, store.ErrNotFound
}

func (s *Store) GetArchivedInvoice(id string) (domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.archived {
		if inv.ID == id {
			return inv.Clone(), nil
		}
	}
	return domain.Invoice{}, store.ErrNotFound
}

func (s *Store) GetDriver(id string) (domain.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.drivers {
		if d.ID == id {
			return d, nil
		}
	}
	return domain.Driver{}, store.ErrNotFound
}

func (s *Store) GetStockItem(id string) (domain.StockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.stock {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.StockItem{}, store.ErrNotFound
}

func (s *Store) Invoices() []domain.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneInvoices(s.invoices)
}

func (s *Store) ArchivedInvoices() []domain.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneInvoices(s.archived)
}

func (s *Store) Drivers() []domain.Driver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.drivers)
}

func (s *Store) Stock() []domain.StockItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.stock)
}

func (s *Store) Sequences() domain.Sequences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// Replace swaps in a freshly loaded state. Each sequence resumes after the
// larger of the persisted counter and the highest id already in use. Seed
// invoices that are already archived stay archived.
func (s *Store) Replace(c domain.Collections, seq domain.Sequences) {
	archivedSet := make(map[string]struct{}, len(c.ArchivedInvoices))
	for _, inv := range c.ArchivedInvoices {
		archivedSet[inv.ID] = struct{}{}
	}
	live := make([]domain.Invoice, 0, len(c.Invoices))
	for _, inv := range c.Invoices {
		if _, ok := archivedSet[inv.ID]; ok {
			continue
		}
		live = append(live, inv)
	}
	skipped := len(c.Invoices) - len(live)
	c.Invoices = live

	invoiceIDs := make([]string, 0, len(c.Invoices))
	for _, inv := range c.Invoices {
		invoiceIDs = append(invoiceIDs, inv.ID)
	}
	archivedIDs := make([]string, 0, len(c.ArchivedInvoices))
	for _, inv := range c.ArchivedInvoices {
		archivedIDs = append(archivedIDs, inv.ID)
	}
	driverIDs := make([]string, 0, len(c.Drivers))
	for _, d := range c.Drivers {
		driverIDs = append(driverIDs, d.ID)
	}
	stockIDs := make([]string, 0, len(c.Stock))
	for _, item := range c.Stock {
		stockIDs = append(stockIDs, item.ID)
	}

	next := domain.Sequences{
		Invoice: max(seq.Invoice, highestSequence(invoicePrefix, invoiceIDs, archivedIDs)),
		Driver:  max(seq.Driver, highestSequence(driverPrefix, driverIDs)),
		Stock:   max(seq.Stock, highestSequence(stockPrefix, stockIDs)),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.invoices = cloneInvoices(c.Invoices)
	s.archived = cloneInvoices(c.ArchivedInvoices)
	s.drivers = cloneSlice(c.Drivers)
	s.stock = cloneSlice(c.Stock)
	s.seq = next

	s.log.Info().
		Int("invoices", len(s.invoices)).
		Int("archived", len(s.archived)).
		Int("drivers", len(s.drivers)).
		Int("stock", len(s.stock)).
		Int("skipped_archived", skipped).
		Msg("collections replaced")
}

func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invoices = nil
	s.archived = nil
	s.drivers = nil
	s.stock = nil
	s.seq = domain.Sequences{}
}

func (s *Store) invoiceIndex(id string) int {
	return slices.IndexFunc(s.invoices, func(inv domain.Invoice) bool {
		return inv.ID == id
	})
}

func cloneInvoices(src []domain.Invoice) []domain.Invoice {
	out := make([]domain.Invoice, len(src))
	for i, inv := range src {
		out[i] = inv.Clone()
	}
	return out
}

// cloneSlice never returns nil so empty collections encode as [].
func cloneSlice[T any](src []T) []T {
	out := make([]T, len(src))
	copy(out, src)
	return out
}
