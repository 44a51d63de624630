package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/core"
	"finsight/internal/log"
)

// ProcessorConfig holds configuration for the mirror processor
type ProcessorConfig struct {
	// FlushInterval is how often pending months are mirrored (default: 5s)
	FlushInterval time.Duration

	// BatchSize is the max number of months mirrored per flush (default: 20)
	BatchSize int

	// MaxRetries is the number of failed flushes before a month is dropped (default: 3)
	MaxRetries int
}

// DefaultProcessorConfig returns sensible defaults
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		FlushInterval: 5 * time.Second,
		BatchSize:     20,
		MaxRetries:    3,
	}
}

type pendingKey struct {
	userID string
	period core.Period
}

// Processor coalesces events into pending (user, month) pairs and mirrors
// them on a ticker, so a burst of edits costs one spreadsheet write.
type Processor struct {
	worker *MirrorWorker
	config ProcessorConfig
	logger *log.Logger

	mu       sync.Mutex
	pending  map[pendingKey]int // value is the number of failed attempts
	order    []pendingKey
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce *sync.Once
}

func NewProcessor(w *MirrorWorker, config ProcessorConfig, logger *log.Logger) *Processor {
	def := DefaultProcessorConfig()
	if config.FlushInterval <= 0 {
		config.FlushInterval = def.FlushInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Processor{
		worker:  w,
		config:  config,
		logger:  logger.WithComponent(log.ComponentWorker),
		pending: make(map[pendingKey]int),
	}
}

// Enqueue marks the event's month dirty. It is an amqp.Handler, so the
// delivery is acked once the month is queued.
func (p *Processor) Enqueue(ctx context.Context, e amqp.RecordEvent) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid record event: %w", err)
	}
	key := pendingKey{userID: e.UserID, period: e.Period()}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[key]; !ok {
		p.pending[key] = 0
		p.order = append(p.order, key)
	}
	p.logger.DebugContext(ctx, "Queued month for mirroring",
		log.FieldUserID, e.UserID, log.FieldPeriod, key.period.String())
	return nil
}

// Pending returns the number of months waiting to be mirrored.
func (p *Processor) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Start begins the flush loop. Returns an error if already running.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("mirror processor is already running")
	}
	p.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	p.stopCh, p.doneCh, p.stopOnce = stopCh, doneCh, new(sync.Once)
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	p.logger.InfoContext(ctx, "Mirror processor started",
		"flush_interval", p.config.FlushInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop flushes what is pending and waits for the loop to exit. It is safe
// to call from several goroutines; all of them wait for the same loop.
func (p *Processor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh, once := p.stopCh, p.doneCh, p.stopOnce
	p.mu.Unlock()

	once.Do(func() { close(stopCh) })

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Mirror processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Mirror processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	if p.doneCh == doneCh {
		p.running = false
	}
	p.mu.Unlock()
	return nil
}

// IsRunning returns whether the processor is currently running
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			// Final flush on a fresh context so shutdown does not lose edits.
			p.Flush(context.WithoutCancel(ctx))
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Flush(ctx)
		}
	}
}

// Flush mirrors up to BatchSize pending months in arrival order.
func (p *Processor) Flush(ctx context.Context) {
	p.mu.Lock()
	n := min(len(p.order), p.config.BatchSize)
	batch := append([]pendingKey(nil), p.order[:n]...)
	p.mu.Unlock()

	for _, key := range batch {
		if ctx.Err() != nil {
			return
		}
		_, err := p.worker.MirrorMonth(ctx, key.userID, key.period)
		if err != nil {
			p.handleFailure(ctx, key, err)
			continue
		}
		p.remove(key)
	}
}

func (p *Processor) handleFailure(ctx context.Context, key pendingKey, err error) {
	p.mu.Lock()
	p.pending[key]++
	attempts := p.pending[key]
	p.mu.Unlock()

	p.logger.WarnContext(ctx, "Mirror write failed",
		log.FieldUserID, key.userID,
		log.FieldPeriod, key.period.String(),
		"attempt", attempts,
		log.FieldError, err.Error())

	if attempts >= p.config.MaxRetries {
		p.remove(key)
		p.logger.ErrorContext(ctx, "Mirror write failed permanently after max retries",
			log.FieldUserID, key.userID,
			log.FieldPeriod, key.period.String(),
			"attempts", attempts)
		return
	}

	// Move to the back so one failing month does not starve the rest.
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, k := range p.order {
		if k == key {
			p.order = append(append(p.order[:i:i], p.order[i+1:]...), key)
			break
		}
	}
}

func (p *Processor) remove(key pendingKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, key)
	for i, k := range p.order {
		if k == key {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}
