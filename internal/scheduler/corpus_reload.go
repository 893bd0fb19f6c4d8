package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/hub/internal/index"
	"github.com/MrSnakeDoc/hub/internal/logger"
	"github.com/MrSnakeDoc/hub/internal/metrics"
	"github.com/MrSnakeDoc/hub/internal/sources/corpus"
)

// Reload triggers, used as metric label values.
const (
	TriggerStartup  = "startup"
	TriggerInterval = "interval"
	TriggerManual   = "manual"
	TriggerWatch    = "watch"
)

// CorpusReloader keeps the memory index in sync with the corpus file
type CorpusReloader struct {
	loader        *corpus.Loader
	index         *index.MemoryIndex
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
	fileChanged   chan struct{}
}

// NewCorpusReloader creates a new corpus reloader. manualTrigger is fed by
// the /reload endpoint; a zero interval disables periodic reloads.
func NewCorpusReloader(
	corpusFile string,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *CorpusReloader {
	return &CorpusReloader{
		loader:        corpus.NewLoader(corpusFile),
		index:         idx,
		logger:        log.Named("corpus"),
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
		fileChanged:   make(chan struct{}, 1),
	}
}

// Path returns the corpus file being loaded.
func (cr *CorpusReloader) Path() string {
	return cr.loader.Path()
}

// FileChanged schedules a reload. Calls made while one is already pending are
// coalesced.
func (cr *CorpusReloader) FileChanged() {
	select {
	case cr.fileChanged <- struct{}{}:
	default:
	}
}

// Start loads the corpus once, failing if it cannot, then reloads it in the
// background until Stop is called or ctx is done.
func (cr *CorpusReloader) Start(ctx context.Context) error {
	if err := cr.Reload(ctx, TriggerStartup); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	var tick <-chan time.Time
	var ticker *time.Ticker
	if cr.interval > 0 {
		ticker = time.NewTicker(cr.interval)
		tick = ticker.C
	}

	go func() {
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-tick:
				cr.reloadLogged(ctx, TriggerInterval)
			case <-cr.manualTrigger:
				cr.logger.Info("manual reload triggered")
				cr.reloadLogged(ctx, TriggerManual)
			case <-cr.fileChanged:
				cr.logger.Info("corpus file changed", logger.String("file", cr.loader.Path()))
				cr.reloadLogged(ctx, TriggerWatch)
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (cr *CorpusReloader) Stop() {
	close(cr.stopCh)
}

func (cr *CorpusReloader) reloadLogged(ctx context.Context, trigger string) {
	if err := cr.Reload(ctx, trigger); err != nil {
		cr.logger.Error("failed to reload corpus, keeping previous snapshot",
			logger.String("trigger", trigger),
			logger.Error(err))
	}
}

// Reload reads the corpus file and swaps it into the index. On error the
// index keeps serving the previous corpus.
func (cr *CorpusReloader) Reload(ctx context.Context, trigger string) (err error) {
	defer func() {
		metrics.CorpusReloadsTotal.WithLabelValues(trigger, metrics.Result(err)).Inc()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	file, err := cr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}

	// Relative ages ("3d") resolve against the time of this load.
	c, err := corpus.NewMapper().MapCorpus(file)
	if err != nil {
		return fmt.Errorf("failed to map corpus: %w", err)
	}

	cr.index.Replace(c)

	metrics.CorpusDocuments.Reset()
	for source, n := range cr.index.SourceCounts() {
		metrics.CorpusDocuments.WithLabelValues(string(source)).Set(float64(n))
	}

	cr.logger.Info("corpus loaded",
		logger.String("trigger", trigger),
		logger.Int("documents", len(c.Documents)),
		logger.Strings("roles", c.Roles),
		logger.Uint64("generation", cr.index.Generation()))

	return nil
}
