package search

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/roster/internal/players"
	"github.com/agentstation/roster/pkg/logging"
)

// defaultQueueSize bounds how many players may wait to be indexed.
const defaultQueueSize = 256

// Upserter is the part of Client the Indexer depends on.
type Upserter interface {
	Upsert(ctx context.Context, p players.Player) (TaskHandle, error)
	WaitForTask(ctx context.Context, handle TaskHandle, interval, timeout time.Duration) (TaskStatus, error)
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.queue = make(chan players.Player, n)
		}
	}
}

// WithAwait makes the Indexer wait for each task to finish so failures
// reported by the search server are logged too.
func WithAwait(interval, timeout time.Duration) IndexerOption {
	return func(ix *Indexer) {
		ix.await = true
		ix.pollInterval = interval
		ix.taskTimeout = timeout
	}
}

// Indexer pushes stored players into the search index in the background.
// Enqueue never blocks the caller and failures are only logged.
type Indexer struct {
	client       Upserter
	queue        chan players.Player
	logger       *zerolog.Logger
	await        bool
	pollInterval time.Duration
	taskTimeout  time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	stats   IndexerStats
}

// IndexerStats counts indexer outcomes.
type IndexerStats struct {
	Indexed int
	Failed  int
	Dropped int
}

// NewIndexer creates a new background indexer.
func NewIndexer(client Upserter, logger *zerolog.Logger, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		client: client,
		queue:  make(chan players.Player, defaultQueueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Start launches Run in a new goroutine. Wait observes it as soon as
// Start returns, and Stop cancels it.
func (ix *Indexer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	ix.mu.Lock()
	ix.running = true
	ix.cancel = cancel
	ix.mu.Unlock()
	go ix.Run(ctx)
}

// Stop cancels a started Indexer and waits for it to flush its queue.
func (ix *Indexer) Stop(ctx context.Context) error {
	ix.mu.Lock()
	cancel := ix.cancel
	ix.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return ix.Wait(ctx)
}

// Run processes the queue until ctx is canceled, then indexes whatever is
// already queued before returning. Run must only be called once.
func (ix *Indexer) Run(ctx context.Context) {
	ix.mu.Lock()
	ix.running = true
	ix.mu.Unlock()
	defer close(ix.done)

	for {
		// Cancellation wins over a ready queue so shutdown always flushes.
		if ctx.Err() != nil {
			ix.shutdown(ctx)
			return
		}
		select {
		case <-ctx.Done():
			ix.shutdown(ctx)
			return
		case p := <-ix.queue:
			ix.indexDetached(ctx, p)
		}
	}
}

func (ix *Indexer) shutdown(ctx context.Context) {
	ix.flush(ctx)
	ix.logger.Info().Msg("Search indexer shut down")
}

// flush indexes everything already queued.
func (ix *Indexer) flush(ctx context.Context) {
	for {
		select {
		case p := <-ix.queue:
			ix.indexDetached(ctx, p)
		default:
			return
		}
	}
}

// indexDetached indexes p under a context that outlives cancellation of
// parent, bounded by the task timeout. An upsert accepted by the search
// server is then still awaited when Stop fires mid-flight.
func (ix *Indexer) indexDetached(parent context.Context, p players.Player) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), ix.flushTimeout())
	defer cancel()
	ix.index(ctx, p)
}

func (ix *Indexer) flushTimeout() time.Duration {
	if ix.taskTimeout > 0 {
		return ix.taskTimeout
	}
	return DefaultTaskTimeout
}

func (ix *Indexer) index(ctx context.Context, p players.Player) {
	ctx = logging.WithPlayer(logging.WithLogger(ctx, ix.logger), p.Key())
	log := logging.FromContext(ctx).With().Str("username", p.Username).Logger()

	handle, err := ix.client.Upsert(ctx, p)
	if err != nil {
		log.Error().Err(err).Msg("Search indexing error")
		ix.record(func(s *IndexerStats) { s.Failed++ })
		return
	}

	if ix.await {
		status, err := ix.client.WaitForTask(ctx, handle, ix.pollInterval, ix.taskTimeout)
		if err != nil || status != TaskSucceeded {
			log.Error().Err(err).Int64("task_uid", handle.UID).Str("status", string(status)).Msg("Search indexing error")
			ix.record(func(s *IndexerStats) { s.Failed++ })
			return
		}
	}

	log.Debug().Int64("task_uid", handle.UID).Msg("Player indexed")
	ix.record(func(s *IndexerStats) { s.Indexed++ })
}

// Enqueue schedules p for indexing. When the queue is full the player is
// dropped and a warning is logged.
func (ix *Indexer) Enqueue(p players.Player) {
	select {
	case ix.queue <- p:
	default:
		ix.record(func(s *IndexerStats) { s.Dropped++ })
		ix.logger.Warn().
			Str("player_id", p.Key()).
			Msg("Index queue full, player dropped")
	}
}

// Wait blocks until Run has returned or ctx is done. It returns
// immediately if Run was never started.
func (ix *Indexer) Wait(ctx context.Context) error {
	ix.mu.Lock()
	running := ix.running
	ix.mu.Unlock()
	if !running {
		return nil
	}

	select {
	case <-ix.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued players.
func (ix *Indexer) Pending() int {
	return len(ix.queue)
}

// Stats returns a snapshot of the indexer counters.
func (ix *Indexer) Stats() IndexerStats {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.stats
}

func (ix *Indexer) record(fn func(*IndexerStats)) {
	ix.mu.Lock()
	fn(&ix.stats)
	ix.mu.Unlock()
}
