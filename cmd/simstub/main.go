// Command simstub runs a local stand-in for the population simulation API
// so the service can be exercised without upstream credentials.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prsim/prsim/internal/simstub"
	"github.com/prsim/prsim/pkg/logger"
)

func main() {
	addr := flag.String("addr", ":8099", "listen address")
	apiKey := flag.String("api-key", "", "required api key; empty accepts any")
	queueDelay := flag.Duration("queue-delay", 2*time.Second, "time an answer stays Queued")
	runDelay := flag.Duration("run-delay", 5*time.Second, "time an answer stays Running")
	failEvery := flag.Int("fail-every", 0, "every nth answer ends Failed; 0 disables")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Named("simstub")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stub := simstub.New(
		simstub.WithAPIKey(*apiKey),
		simstub.WithQueueDelay(*queueDelay),
		simstub.WithRunDelay(*runDelay),
		simstub.WithFailEvery(*failEvery),
	)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           stub.Handler(),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info(ctx, "simulation stub listening",
			logger.String("addr", *addr),
			logger.Duration("queue_delay", *queueDelay),
			logger.Duration("run_delay", *runDelay),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("simulation stub failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info(context.Background(), "simulation stub stopped")
}
