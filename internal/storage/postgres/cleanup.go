package postgres

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultCleanupInterval  = 10 * time.Minute
	defaultCleanupBatchSize = 500
)

// CleanupWorker периодически удаляет просроченные строки kv_records.
type CleanupWorker struct {
	store     *Store
	logger    *log.Entry
	interval  time.Duration
	batchSize int
}

// NewCleanupWorker создаёт воркер очистки просроченных записей.
func NewCleanupWorker(store *Store, logger *log.Entry, interval time.Duration, batchSize int) *CleanupWorker {
	if logger == nil {
		logger = log.WithField("component", "kv-cleanup-worker")
	}
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	if batchSize <= 0 {
		batchSize = defaultCleanupBatchSize
	}
	return &CleanupWorker{
		store:     store,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run выполняет цикл очистки до отмены контекста.
func (w *CleanupWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.WithField("interval", w.interval).Info("kv cleanup worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("kv cleanup worker stopped")
			return
		case <-ticker.C:
			removed, err := w.store.DeleteExpired(ctx, time.Now().UTC(), w.batchSize)
			if err != nil {
				w.logger.WithError(err).Error("kv cleanup run failed")
				continue
			}
			if removed > 0 {
				w.logger.WithField("removed", removed).Debug("expired kv records removed")
			}
		}
	}
}
