package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"deliverydesk/backend/internal/domain"
	"deliverydesk/backend/internal/kv"
	"deliverydesk/backend/internal/logger"
)

// Seed document names.
const (
	InvoicesDocument = "invoices.json"
	DriversDocument  = "drivers.json"
	StockDocument    = "stock.json"
)

// Source opens a named seed document.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirSource reads seed documents from a local directory.
type DirSource struct {
	Dir string
}

func (s DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.Dir, filepath.Base(name)))
}

// HTTPSource fetches seed documents relative to BaseURL.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func (s HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	target, err := url.JoinPath(s.BaseURL, name)
	if err != nil {
		return nil, fmt.Errorf("build url for %s: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %d", name, resp.StatusCode)
	}
	return resp.Body, nil
}

// Loader assembles the initial state from the seed documents and the
// durable key-value entries.
type Loader struct {
	source Source
	store  kv.Store
	log    zerolog.Logger
}

func NewLoader(source Source, store kv.Store) *Loader {
	return &Loader{
		source: source,
		store:  store,
		log:    logger.WithComponent("persistence"),
	}
}

// Load fetches the three seed documents concurrently, then reads the archive
// and the sequences. Any failure fails the whole load and no partial data is
// returned.
func (l *Loader) Load(ctx context.Context) (domain.Collections, domain.Sequences, error) {
	var (
		invoices []domain.Invoice
		drivers  []domain.Driver
		stock    []domain.StockItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.fetch(gctx, InvoicesDocument, &invoices) })
	g.Go(func() error { return l.fetch(gctx, DriversDocument, &drivers) })
	g.Go(func() error { return l.fetch(gctx, StockDocument, &stock) })
	if err := g.Wait(); err != nil {
		return domain.Collections{}, domain.Sequences{}, err
	}

	var archived []domain.Invoice
	if _, err := l.readEntry(ctx, kv.KeyArchivedInvoices, &archived); err != nil {
		return domain.Collections{}, domain.Sequences{}, err
	}
	var seq domain.Sequences
	if _, err := l.readEntry(ctx, kv.KeySequences, &seq); err != nil {
		return domain.Collections{}, domain.Sequences{}, err
	}

	l.log.Debug().
		Int("invoices", len(invoices)).
		Int("drivers", len(drivers)).
		Int("stock", len(stock)).
		Int("archived", len(archived)).
		Msg("seed data loaded")

	return domain.Collections{
		Invoices:         invoices,
		Drivers:          drivers,
		Stock:            stock,
		ArchivedInvoices: archived,
	}, seq, nil
}

func (l *Loader) fetch(ctx context.Context, name string, dst any) error {
	rc, err := l.source.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (l *Loader) readEntry(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
