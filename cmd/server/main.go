package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"docshrink/internal/config"
	"docshrink/internal/handlers"
	"docshrink/internal/middleware"
	"docshrink/internal/pool"
	"docshrink/internal/service"
	"docshrink/internal/stats"
	"docshrink/internal/store"
)

func main() {
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	if cfg.Env == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	recorder, err := stats.Open(cfg.StatsDBPath)
	if err != nil {
		logger.Fatal("open stats db", zap.Error(err))
	}

	st, err := store.New(cfg.StorageDir, cfg.MaxFileSize, cfg.RetentionWindow, logger)
	if err != nil {
		logger.Fatal("init task store", zap.Error(err))
	}

	processor := service.NewProcessor(st, recorder, logger)
	workers := pool.New(cfg.WorkerCount)
	svc := service.NewTaskService(st, workers, processor, recorder, logger)
	h := handlers.NewTaskHandler(svc, cfg.MaxFileSize, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/compress", h.Compress)
	mux.HandleFunc("GET /api/status/{id}", h.Status)
	mux.HandleFunc("GET /api/download/{id}/{filename}", h.Download)
	mux.HandleFunc("DELETE /api/task/{id}", h.Delete)
	mux.HandleFunc("GET /api/stats", h.Stats)
	mux.HandleFunc("GET /api/health", h.Health)

	handler := middleware.TraceID(
		middleware.Logging(logger)(
			middleware.Recovery(logger)(mux)))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := st.SweepExpired(time.Now()); n > 0 {
					logger.Info("swept expired tasks", zap.Int("count", n))
				}
			}
		}
	}()

	go func() {
		logger.Info("server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}

	// Let in-flight compressions finish before exiting.
	workers.Wait()
	logger.Info("server stopped")
}
