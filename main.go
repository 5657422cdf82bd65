package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go-rdl/config"
	"go-rdl/pkg/customerrors"
	"go-rdl/pkg/execlist"
	"go-rdl/util/logger"
	"go-rdl/util/timer"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	configs := config.New()

	mode := flag.String("mode", "demo", "demo, produce or consume")
	count := flag.Int("n", 100000, "payloads to move per worker")
	workers := flag.Int("workers", 4, "producer and consumer goroutines each")
	every := flag.Duration("stats", time.Second, "interval of progress logs, 0 disables them")
	flag.StringVar(&configs.PoolConfig.Path, "path", configs.PoolConfig.Path, "pool file shared between processes, :memory: for a private pool")
	flag.IntVar(&configs.PoolConfig.Capacity, "capacity", configs.PoolConfig.Capacity, "elements in the pool, 0 to attach to an existing pool file")
	flag.StringVar(&configs.LogLevel, "log", configs.LogLevel, "log level")
	flag.Parse()

	if *mode != "demo" && *mode != "produce" && *mode != "consume" {
		fatalf("unknown mode %q\n", *mode)
	}

	if err := logger.SetLevel(configs.LogLevel); err != nil {
		fatal(err)
	}
	log := logger.Component("main")

	var consumed atomic.Uint64
	l, err := execlist.Create(&execlist.Options{
		Path:     configs.PoolConfig.Path,
		Capacity: configs.PoolConfig.Capacity,
		FileMode: configs.PoolConfig.FileMode,
		Consume:  func(data uint64) { consumed.Add(1) },
		Retry:    configs.RetryConfig.Backoff(),
		List:     configs.ListConfig.Options(),
	})
	if err != nil {
		fatal(err)
	}

	defer func() {
		if err := l.Close(); err != nil {
			log.WithError(err).Error("error on gracefully stopping")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		q := <-quit
		log.Infof("%s signal received, stopping gracefully...", q.String())
		cancel()
	}()

	if *every > 0 {
		stop := timer.SetInterval(ctx, *every, func() {
			st, err := l.Stats()
			if err != nil {
				// rings change under the walk while workers run
				log.WithError(err).Debug("stats unavailable")
				return
			}
			log.WithFields(logrus.Fields{
				"produced": st.Produced,
				"consumed": st.Consumed,
				"retries":  st.Retries,
			}).Info("progress")
		})
		defer stop()
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < *workers; w++ {
		w := w
		if *mode == "demo" || *mode == "produce" {
			g.Go(func() error { return produce(gctx, l, w, *count) })
		}
		if *mode == "demo" || *mode == "consume" {
			g.Go(func() error { return consume(gctx, l, *count) })
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("run failed")
		return
	}

	st, err := l.Stats()
	if err != nil {
		log.WithError(err).Error("failed to count rings")
		return
	}
	log.WithFields(logrus.Fields{
		"elapsed":  time.Since(start).String(),
		"produced": st.Produced,
		"consumed": consumed.Load(),
		"retries":  st.Retries,
		"enrolled": st.Enrolled,
		"idle":     st.Idle,
		"bytes":    l.MemLen(),
	}).Info("done")

	if *mode == "demo" {
		if err := l.Pool().Verify(); err != nil {
			log.WithError(err).Error("pool verification failed")
		}
	}
}

// produce enrolls payload handles unique across workers of this process.
func produce(ctx context.Context, l *execlist.ExecList, worker, count int) error {
	for i := 0; i < count; i++ {
		data := uint64(worker)<<32 | uint64(i+1)
		if err := l.Produce(ctx, data); err != nil {
			return err
		}
	}
	return nil
}

func consume(ctx context.Context, l *execlist.ExecList, count int) error {
	for i := 0; i < count; i++ {
		if err := l.Consume(ctx); err != nil {
			if customerrors.IsFatal(err) {
				return err
			}
			return errors.Wrapf(err, "consumed %d of %d", i, count)
		}
	}
	return nil
}

func fatal(val interface{}) {
	fmt.Println(val)
	os.Exit(1)
}

func fatalf(format string, values ...interface{}) {
	fmt.Printf(format, values...)
	os.Exit(1)
}
