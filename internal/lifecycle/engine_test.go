package lifecycle

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deliverydesk/backend/internal/domain"
	"deliverydesk/backend/internal/store/memory"
	"deliverydesk/backend/internal/testutil"
)

var t0 = time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu        sync.Mutex
	snapshots [][]domain.Invoice
}

func (r *recordingSink) SubmitArchive(snapshot []domain.Invoice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
}

func newTestEngine() (*Engine, *memory.Store, *recordingSink, *testutil.Clock) {
	clock := testutil.NewClock(t0)
	repo := memory.New(clock.Now)
	sink := &recordingSink{}
	return NewEngine(repo, sink, clock.Now, 0), repo, sink, clock
}

func ids(invoices []domain.Invoice) []string {
	out := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, inv.ID)
	}
	return out
}

func TestCanTransitionPermitsEveryValidPair(t *testing.T) {
	for _, from := range domain.InvoiceStatuses() {
		for _, to := range domain.InvoiceStatuses() {
			assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition(domain.StatusDelivered, "lost"))
}

func TestDelayedInvoiceScenario(t *testing.T) {
	engine, repo, _, clock := newTestEngine()
	a := repo.AddInvoice(domain.InvoiceInput{CustomerName: "A", Status: domain.StatusPendingDelivery})

	assert.Empty(t, engine.DelayedInvoices())

	clock.Advance(25 * time.Hour)
	assert.Equal(t, []string{a.ID}, ids(engine.DelayedInvoices()))

	ok, err := engine.UpdateInvoiceStatus(a.ID, domain.StatusDelivered)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, engine.DelayedInvoices())
}

func TestDelayedRequiresStrictlyMoreThanThreshold(t *testing.T) {
	engine, repo, _, clock := newTestEngine()
	repo.AddInvoice(domain.InvoiceInput{})

	clock.Advance(24 * time.Hour)
	assert.Empty(t, engine.DelayedInvoices())

	clock.Advance(time.Second)
	assert.Len(t, engine.DelayedInvoices(), 1)
}

func TestStatusUpdateResetsDelayWindow(t *testing.T) {
	engine, repo, _, clock := newTestEngine()
	a := repo.AddInvoice(domain.InvoiceInput{})

	clock.Advance(30 * time.Hour)
	ok, err := engine.UpdateInvoiceStatus(a.ID, domain.StatusPendingDelivery)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, engine.DelayedInvoices())

	clock.Advance(25 * time.Hour)
	assert.Len(t, engine.DelayedInvoices(), 1)
}

func TestOnlyPendingInvoicesAreDelayed(t *testing.T) {
	engine, repo, _, clock := newTestEngine()
	repo.AddInvoice(domain.InvoiceInput{Status: domain.StatusDelivered})
	repo.AddInvoice(domain.InvoiceInput{Status: domain.StatusReturned})
	pending := repo.AddInvoice(domain.InvoiceInput{Status: domain.StatusPendingDelivery})

	clock.Advance(48 * time.Hour)

	assert.Equal(t, []string{pending.ID}, ids(engine.DelayedInvoices()))
}

func TestLoadedInvoiceWithoutTimestampIsNotDelayed(t *testing.T) {
	engine, repo, _, _ := newTestEngine()
	repo.Replace(domain.Collections{
		Invoices: []domain.Invoice{{ID: "INV001", Status: domain.StatusPendingDelivery}},
	}, domain.Sequences{})

	assert.Empty(t, engine.DelayedInvoices())
}

func TestCustomThreshold(t *testing.T) {
	clock := testutil.NewClock(t0)
	repo := memory.New(clock.Now)
	engine := NewEngine(repo, nil, clock.Now, 2*time.Hour)
	repo.AddInvoice(domain.InvoiceInput{})

	clock.Advance(3 * time.Hour)

	assert.Len(t, engine.DelayedInvoices(), 1)
	assert.Equal(t, 2*time.Hour, engine.Threshold())
}

func TestUpdateInvoiceStatusPermitsBackwardTransitions(t *testing.T) {
	engine, repo, _, clock := newTestEngine()
	a := repo.AddInvoice(domain.InvoiceInput{Status: domain.StatusDelivered})

	clock.Advance(time.Minute)
	ok, err := engine.UpdateInvoiceStatus(a.ID, domain.StatusPendingDelivery)

	require.NoError(t, err)
	require.True(t, ok)
	got, err := repo.GetInvoice(a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingDelivery, got.Status)
	assert.Equal(t, t0.Add(time.Minute), got.LastStatusUpdate)
}

func TestUpdateInvoiceStatusRejectsUnknownStatus(t *testing.T) {
	engine, repo, _, _ := newTestEngine()
	a := repo.AddInvoice(domain.InvoiceInput{})

	ok, err := engine.UpdateInvoiceStatus(a.ID, "lost")

	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	got, _ := repo.GetInvoice(a.ID)
	assert.Equal(t, domain.StatusPendingDelivery, got.Status)
}

func TestUpdateInvoiceStatusOnArchivedOrMissing(t *testing.T) {
	engine, repo, _, _ := newTestEngine()
	a := repo.AddInvoice(domain.InvoiceInput{})
	require.True(t, engine.ArchiveInvoice(a.ID))
	archivedBefore := repo.ArchivedInvoices()

	ok, err := engine.UpdateInvoiceStatus(a.ID, domain.StatusDelivered)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = engine.UpdateInvoiceStatus("INV404", domain.StatusDelivered)
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.Empty(t, repo.Invoices())
	assert.Equal(t, archivedBefore, repo.ArchivedInvoices())
}

func TestUpdateInvoiceStatusCountsDriverOutcomes(t *testing.T) {
	engine, repo, _, _ := newTestEngine()
	d := repo.AddDriver(domain.DriverInput{Name: "Karim"})
	a := repo.AddInvoice(domain.InvoiceInput{DriverID: d.ID})
	b := repo.AddInvoice(domain.InvoiceInput{DriverID: d.ID})

	_, err := engine.UpdateInvoiceStatus(a.ID, domain.StatusDelivered)
	require.NoError(t, err)
	_, err = engine.UpdateInvoiceStatus(a.ID, domain.StatusDelivered)
	require.NoError(t, err)
	_, err = engine.UpdateInvoiceStatus(b.ID, domain.StatusReturned)
	require.NoError(t, err)

	got, err := repo.GetDriver(d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalDeliveries)
	assert.Equal(t, 1, got.TotalReturns)
}

func TestArchiveInvoiceSubmitsSnapshot(t *testing.T) {
	engine, repo, sink, _ := newTestEngine()
	a := repo.AddInvoice(domain.InvoiceInput{})
	b := repo.AddInvoice(domain.InvoiceInput{})

	require.True(t, engine.ArchiveInvoice(a.ID))
	require.True(t, engine.ArchiveInvoice(b.ID))

	require.Len(t, sink.snapshots, 2)
	assert.Equal(t, []string{a.ID}, ids(sink.snapshots[0]))
	assert.Equal(t, []string{a.ID, b.ID}, ids(sink.snapshots[1]))
}

func TestArchiveInvoiceMissingDoesNotSubmit(t *testing.T) {
	engine, repo, sink, _ := newTestEngine()
	repo.AddInvoice(domain.InvoiceInput{})

	assert.False(t, engine.ArchiveInvoice("INV999"))
	assert.Empty(t, sink.snapshots)
	assert.Empty(t, repo.ArchivedInvoices())
}
