// Package worker runs the background maintenance loop: refreshing expired
// version metadata and sweeping expired rows out of the kv cache.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jpcarver/versecache/internal/cache"
	"github.com/jpcarver/versecache/internal/constants"
	"github.com/jpcarver/versecache/internal/logger"
)

type Worker struct {
	Manager  *cache.Manager
	Interval time.Duration
	Logger   *logger.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewWorker(manager *cache.Manager, interval time.Duration, log *logger.Logger) *Worker {
	if interval <= 0 {
		interval = constants.DefaultSweepInterval
	}
	if log == nil {
		log = logger.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		Manager:  manager,
		Interval: interval,
		Logger:   log.WithComponent("worker"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (w *Worker) Start() {
	w.Logger.Info("starting maintenance worker", "interval", w.Interval)
	w.wg.Add(1)
	go w.loop()
}

func (w *Worker) Stop() {
	w.Logger.Info("stopping maintenance worker")
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) loop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(w.ctx)
		}
	}
}

// RunOnce performs one maintenance pass. Every step is best-effort; a failing
// step logs and the pass continues.
func (w *Worker) RunOnce(ctx context.Context) {
	refreshed := w.Manager.UpdateExpiredVersions(ctx)
	if refreshed > 0 {
		w.Logger.Info("refreshed expired versions", "count", refreshed)
	}

	swept, err := w.Manager.SweepKV()
	if err != nil {
		w.Logger.Warn("kv sweep failed", "error", err)
	} else if swept > 0 {
		w.Logger.Info("swept expired kv rows", "count", swept)
	}
}
