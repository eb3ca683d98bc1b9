package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"deliverydesk/backend/internal/domain"
	"deliverydesk/backend/internal/logger"
	"deliverydesk/backend/internal/store"
)

// DefaultDelayThreshold is how long an invoice may sit in pending_delivery
// before it is reported as delayed.
const DefaultDelayThreshold = 24 * time.Hour

var ErrTransitionNotAllowed = errors.New("status transition not allowed")

// ArchiveSink receives the archive after every successful archival. Submit
// must not block.
type ArchiveSink interface {
	SubmitArchive(snapshot []domain.Invoice)
}

type noopSink struct{}

func (noopSink) SubmitArchive([]domain.Invoice) {}

type Engine struct {
	repo      store.Repository
	sink      ArchiveSink
	now       func() time.Time
	threshold time.Duration
	log       zerolog.Logger
}

func NewEngine(repo store.Repository, sink ArchiveSink, clock func() time.Time, threshold time.Duration) *Engine {
	if sink == nil {
		sink = noopSink{}
	}
	if clock == nil {
		clock = time.Now
	}
	if threshold <= 0 {
		threshold = DefaultDelayThreshold
	}
	return &Engine{
		repo:      repo,
		sink:      sink,
		now:       clock,
		threshold: threshold,
		log:       logger.WithComponent("lifecycle"),
	}
}

// CanTransition is the invoice transition policy. Every status may move to
// any valid status, itself included.
func CanTransition(from, to domain.InvoiceStatus) bool {
	return to.IsValid()
}

// UpdateInvoiceStatus sets a new status on a live invoice. A missing or
// archived invoice yields false with a nil error.
func (e *Engine) UpdateInvoiceStatus(id string, status domain.InvoiceStatus) (bool, error) {
	if !status.IsValid() {
		return false, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	current, err := e.repo.GetInvoice(id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !CanTransition(current.Status, status) {
		return false, fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, current.Status, status)
	}

	change, ok := e.repo.UpdateInvoiceStatus(id, status)
	if !ok {
		return false, nil
	}

	if change.Invoice.DriverID != "" && change.Previous != status {
		if status == domain.StatusDelivered || status == domain.StatusReturned {
			if !e.repo.RecordDriverOutcome(change.Invoice.DriverID, status) {
				e.log.Warn().
					Str("invoice_id", id).
					Str("driver_id", change.Invoice.DriverID).
					Msg("driver not found, counters unchanged")
			}
		}
	}

	e.log.Info().
		Str("invoice_id", id).
		Str("from", string(change.Previous)).
		Str("to", string(status)).
		Msg("invoice status updated")
	return true, nil
}

// ArchiveInvoice moves a live invoice into the archive and hands the new
// archive to the sink without waiting for it to be persisted.
func (e *Engine) ArchiveInvoice(id string) bool {
	_, snapshot, ok := e.repo.ArchiveInvoice(id)
	if !ok {
		return false
	}
	e.sink.SubmitArchive(snapshot)
	return true
}

// IsDelayed reports whether inv has been pending for longer than the
// threshold at now. Invoices without a status timestamp are never delayed.
func (e *Engine) IsDelayed(inv domain.Invoice, now time.Time) bool {
	if inv.Status != domain.StatusPendingDelivery || inv.LastStatusUpdate.IsZero() {
		return false
	}
	return now.Sub(inv.LastStatusUpdate) > e.threshold
}

// DelayedInvoices is recomputed from the live collection on every call.
func (e *Engine) DelayedInvoices() []domain.Invoice {
	now := e.now()
	delayed := make([]domain.Invoice, 0)
	for _, inv := range e.repo.Invoices() {
		if e.IsDelayed(inv, now) {
			delayed = append(delayed, inv)
		}
	}
	return delayed
}

func (e *Engine) Threshold() time.Duration {
	return e.threshold
}
