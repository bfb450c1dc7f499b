package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// GuildLister returns every guild with stored quests.
type GuildLister interface {
	Guilds(ctx context.Context) ([]int64, error)
}

// StartedQuestCloser closes signups on a guild's announced quests whose start
// time has passed.
type StartedQuestCloser interface {
	CloseStartedQuests(ctx context.Context, guildID int64) (int, error)
}

// Lifecycle defaults
const (
	DefaultLifecycleInterval    = time.Minute
	DefaultLifecycleStartDelay  = 5 * time.Second
	DefaultLifecycleRunTimeout  = 2 * time.Minute
	DefaultLifecycleConcurrency = 4
)

// QuestLifecycleConfig holds the processor collaborators and timing.
type QuestLifecycleConfig struct {
	Guilds GuildLister
	Quests StartedQuestCloser

	Interval    time.Duration
	StartDelay  time.Duration // negative runs the first pass immediately
	RunTimeout  time.Duration
	Concurrency int // guilds processed at once

	Logger *slog.Logger
}

// QuestLifecycleProcessor periodically closes signups for announced quests
// whose start time has passed.
type QuestLifecycleProcessor struct {
	guilds      GuildLister
	quests      StartedQuestCloser
	interval    time.Duration
	startDelay  time.Duration
	runTimeout  time.Duration
	concurrency int
	logger      *slog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewQuestLifecycleProcessor creates a new quest lifecycle processor job
func NewQuestLifecycleProcessor(cfg QuestLifecycleConfig) *QuestLifecycleProcessor {
	p := &QuestLifecycleProcessor{
		guilds:      cfg.Guilds,
		quests:      cfg.Quests,
		interval:    cfg.Interval,
		startDelay:  cfg.StartDelay,
		runTimeout:  cfg.RunTimeout,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
	if p.interval <= 0 {
		p.interval = DefaultLifecycleInterval
	}
	if p.startDelay == 0 {
		p.startDelay = DefaultLifecycleStartDelay
	}
	if p.runTimeout <= 0 {
		p.runTimeout = DefaultLifecycleRunTimeout
	}
	if p.concurrency <= 0 {
		p.concurrency = DefaultLifecycleConcurrency
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With(slog.String("job", "quest_lifecycle"))
	return p
}

// Start begins the processor loop
func (p *QuestLifecycleProcessor) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(stop)
	p.logger.Info("quest lifecycle processor started", slog.Duration("interval", p.interval))
}

// Stop gracefully stops the processor and waits for an in-flight pass
func (p *QuestLifecycleProcessor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("quest lifecycle processor stopped")
}

func (p *QuestLifecycleProcessor) run(stop <-chan struct{}) {
	defer p.wg.Done()

	// Short delay so dependent services finish starting.
	if p.startDelay > 0 {
		select {
		case <-time.After(p.startDelay):
		case <-stop:
			return
		}
	}
	p.tick()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.tick()
		case <-stop:
			return
		}
	}
}

func (p *QuestLifecycleProcessor) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), p.runTimeout)
	defer cancel()

	if _, err := p.RunOnce(ctx); err != nil {
		p.logger.Error("quest lifecycle pass failed", slog.String("error", err.Error()))
	}
}

// RunOnce makes a single pass over every guild and returns the number of
// quests closed. A failing guild does not stop the others; all failures are
// joined in the returned error.
func (p *QuestLifecycleProcessor) RunOnce(ctx context.Context) (int, error) {
	runID := uuid.NewString()
	logger := p.logger.With(slog.String("run_id", runID))

	guilds, err := p.guilds.Guilds(ctx)
	if err != nil {
		return 0, fmt.Errorf("list guilds: %w", err)
	}

	var (
		mu     sync.Mutex
		closed int
		errs   []error
	)

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, guildID := range guilds {
		g.Go(func() error {
			n, err := p.quests.CloseStartedQuests(ctx, guildID)

			mu.Lock()
			defer mu.Unlock()
			closed += n
			if err != nil {
				logger.Error("closing started quests failed",
					slog.Int64("guild_id", guildID),
					slog.String("error", err.Error()),
				)
				errs = append(errs, fmt.Errorf("guild %d: %w", guildID, err))
			} else if n > 0 {
				logger.Info("closed signups for started quests",
					slog.Int64("guild_id", guildID),
					slog.Int("count", n),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.Debug("quest lifecycle pass complete",
		slog.Int("guilds", len(guilds)),
		slog.Int("closed", closed),
	)
	return closed, errors.Join(errs...)
}

// IsRunning returns whether the processor is running
func (p *QuestLifecycleProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
