package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"deliverydesk/backend/internal/aggregate"
	"deliverydesk/backend/internal/domain"
	"deliverydesk/backend/internal/lifecycle"
	"deliverydesk/backend/internal/logger"
	"deliverydesk/backend/internal/store"
)

var ErrLoadFailed = errors.New("initial data load failed")

// LoadFailedNotice is the one message surfaced to users when initialization
// fails.
const LoadFailedNotice = "Error loading data, please try again later"

type Loader interface {
	Load(ctx context.Context) (domain.Collections, domain.Sequences, error)
}

type Syncer interface {
	SubmitSequences(seq domain.Sequences)
	Reset()
}

type ThemeStore interface {
	Get(ctx context.Context) domain.Theme
	Set(ctx context.Context, theme domain.Theme) error
	Toggle(ctx context.Context) (domain.Theme, error)
}

type Service struct {
	repo      store.Repository
	lifecycle *lifecycle.Engine
	aggregate *aggregate.Engine
	loader    Loader
	syncer    Syncer
	themes    ThemeStore
	log       zerolog.Logger

	readyOnce sync.Once
	ready     chan struct{}
}

func New(repo store.Repository, lc *lifecycle.Engine, agg *aggregate.Engine, loader Loader, syncer Syncer, themes ThemeStore) *Service {
	return &Service{
		repo:      repo,
		lifecycle: lc,
		aggregate: agg,
		loader:    loader,
		syncer:    syncer,
		themes:    themes,
		log:       logger.WithComponent("service"),
		ready:     make(chan struct{}),
	}
}

// Initialize loads the seed documents and the durable entries into the
// store. On failure the store is left as it was.
func (s *Service) Initialize(ctx context.Context) error {
	start := time.Now()
	c, seq, err := s.loader.Load(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg(LoadFailedNotice)
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	s.syncer.Reset()
	s.repo.Replace(c, seq)
	s.readyOnce.Do(func() { close(s.ready) })

	s.log.Info().Dur("took", time.Since(start)).Msg("data loaded")
	return nil
}

// Ready is closed after the first successful Initialize.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

func (s *Service) IsReady() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

func (s *Service) Reset() {
	s.repo.Reset()
	s.syncer.Reset()
}

func (s *Service) AddInvoice(in domain.InvoiceInput) domain.Invoice {
	inv := s.repo.AddInvoice(in)
	s.syncer.SubmitSequences(s.repo.Sequences())
	return inv
}

func (s *Service) AddDriver(in domain.DriverInput) domain.Driver {
	d := s.repo.AddDriver(in)
	s.syncer.SubmitSequences(s.repo.Sequences())
	return d
}

func (s *Service) AddStockItem(in domain.StockItemInput) domain.StockItem {
	item := s.repo.AddStockItem(in)
	s.syncer.SubmitSequences(s.repo.Sequences())
	return item
}

func (s *Service) UpdateInvoiceStatus(id string, status domain.InvoiceStatus) (bool, error) {
	return s.lifecycle.UpdateInvoiceStatus(id, status)
}

func (s *Service) UpdateStockQuantity(id string, qty int) bool {
	return s.repo.UpdateStockQuantity(id, qty)
}

func (s *Service) ArchiveInvoice(id string) bool {
	return s.lifecycle.ArchiveInvoice(id)
}

func (s *Service) Invoices() []domain.Invoice {
	return s.repo.Invoices()
}

func (s *Service) ArchivedInvoices() []domain.Invoice {
	return s.repo.ArchivedInvoices()
}

func (s *Service) Drivers() []domain.Driver {
	return s.repo.Drivers()
}

func (s *Service) Stock() []domain.StockItem {
	return s.repo.Stock()
}

func (s *Service) GetInvoice(id string) (domain.Invoice, bool) {
	return found(s.repo.GetInvoice(id))
}

func (s *Service) GetArchivedInvoice(id string) (domain.Invoice, bool) {
	return found(s.repo.GetArchivedInvoice(id))
}

func (s *Service) GetDriver(id string) (domain.Driver, bool) {
	return found(s.repo.GetDriver(id))
}

func (s *Service) GetStockItem(id string) (domain.StockItem, bool) {
	return found(s.repo.GetStockItem(id))
}

func (s *Service) Statistics() domain.Statistics {
	return s.aggregate.Statistics()
}

func (s *Service) RecentInvoices(limit int) []domain.Invoice {
	return s.aggregate.RecentInvoices(limit)
}

func (s *Service) SearchInvoices(query string) []domain.Invoice {
	return s.aggregate.SearchInvoices(query)
}

func (s *Service) SearchArchivedInvoices(query string) []domain.Invoice {
	return s.aggregate.SearchArchivedInvoices(query)
}

func (s *Service) FilterInvoicesByStatus(status domain.InvoiceStatus) []domain.Invoice {
	return s.aggregate.FilterInvoicesByStatus(status)
}

func (s *Service) FilterInvoicesByDriver(driverID string) []domain.Invoice {
	return s.aggregate.FilterInvoicesByDriver(driverID)
}

func (s *Service) DriverInvoices(driverID string) []domain.Invoice {
	return s.aggregate.DriverInvoices(driverID)
}

func (s *Service) DriverSummaries() []domain.DriverSummary {
	return s.aggregate.DriverSummaries()
}

func (s *Service) LowStockItems() []domain.StockItem {
	return s.aggregate.LowStockItems()
}

func (s *Service) DelayedInvoices() []domain.Invoice {
	return s.lifecycle.DelayedInvoices()
}

func (s *Service) Theme(ctx context.Context) domain.Theme {
	return s.themes.Get(ctx)
}

func (s *Service) SetTheme(ctx context.Context, theme domain.Theme) error {
	return s.themes.Set(ctx, theme)
}

func (s *Service) ToggleTheme(ctx context.Context) (domain.Theme, error) {
	return s.themes.Toggle(ctx)
}

func found[T any](v T, err error) (T, bool) {
	if err != nil {
		var zero T
		return zero, false
	}
	return v, true
}
