package persistence

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"deliverydesk/backend/internal/domain"
	"deliverydesk/backend/internal/kv"
	"deliverydesk/backend/internal/logger"
)

const syncWriteTimeout = 5 * time.Second

// ArchiveSyncer writes durable entries in the background. Callers never wait
// on I/O and never see write errors; only the newest version of each key is
// kept, older versions submitted late are dropped.
type ArchiveSyncer struct {
	store kv.Store
	log   zerolog.Logger

	mu       sync.Mutex
	pending  map[string][]byte
	accepted map[string]int64
	closed   bool

	wake      chan struct{}
	flush     chan chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	failures  atomic.Int64
}

func NewArchiveSyncer(store kv.Store) *ArchiveSyncer {
	s := &ArchiveSyncer{
		store:    store,
		log:      logger.WithComponent("persistence"),
		pending:  make(map[string][]byte),
		accepted: make(map[string]int64),
		wake:     make(chan struct{}, 1),
		flush:    make(chan chan struct{}),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// Submit queues value for key. A version not newer than the last accepted
// one for the same key is ignored.
func (s *ArchiveSyncer) Submit(key string, version int64, value []byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.log.Warn().Str("key", key).Msg("submit after close dropped")
		return
	}
	if last, ok := s.accepted[key]; ok && version <= last {
		s.mu.Unlock()
		return
	}
	s.accepted[key] = version
	s.pending[key] = value
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// SubmitArchive queues the archive snapshot; its length is the version.
func (s *ArchiveSyncer) SubmitArchive(snapshot []domain.Invoice) {
	if snapshot == nil {
		snapshot = []domain.Invoice{}
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		s.failures.Add(1)
		s.log.Error().Err(err).Msg("encode archive")
		return
	}
	s.Submit(kv.KeyArchivedInvoices, int64(len(snapshot)), raw)
}

func (s *ArchiveSyncer) SubmitSequences(seq domain.Sequences) {
	raw, err := json.Marshal(seq)
	if err != nil {
		s.failures.Add(1)
		s.log.Error().Err(err).Msg("encode sequences")
		return
	}
	s.Submit(kv.KeySequences, seq.Total(), raw)
}

// Reset forgets accepted versions so a reloaded state can be written again.
func (s *ArchiveSyncer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.accepted)
	clear(s.pending)
}

// Failures counts writes that did not reach the store.
func (s *ArchiveSyncer) Failures() int64 {
	return s.failures.Load()
}

// Flush blocks until everything submitted so far has been written.
func (s *ArchiveSyncer) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case s.flush <- reply:
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting entries and waits for pending writes to drain.
func (s *ArchiveSyncer) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.quit)
	})

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ArchiveSyncer) run() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.drain()
		case reply := <-s.flush:
			s.drain()
			close(reply)
		case <-s.quit:
			s.drain()
			return
		}
	}
}

func (s *ArchiveSyncer) drain() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		batch := s.pending
		s.pending = make(map[string][]byte)
		s.mu.Unlock()

		for key, value := range batch {
			s.write(key, value)
		}
	}
}

func (s *ArchiveSyncer) write(key string, value []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), syncWriteTimeout)
	defer cancel()

	if err := s.store.Set(ctx, key, value); err != nil {
		s.failures.Add(1)
		s.log.Error().Err(err).Str("key", key).Msg("persist entry")
		return
	}
	s.log.Debug().Str("key", key).Int("bytes", len(value)).Msg("entry persisted")
}
