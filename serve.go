package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"gossip-results/report"
	"gossip-results/storage"
)

func newRouter(exporter *storage.PrometheusExporter, summary report.Summary) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", exporter.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/report", func(w http.ResponseWriter, req *http.Request) {
		format := report.FormatJSON
		if q := req.URL.Query().Get("format"); q != "" {
			f, err := report.ParseFormat(q)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			format = f
		}
		writeReport(w, format, summary)
	}).Methods(http.MethodGet)

	r.HandleFunc("/report/{size:[0-9]+}", func(w http.ResponseWriter, req *http.Request) {
		size, err := strconv.Atoi(mux.Vars(req)["size"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, b := range summary.Buckets {
			if b.NetworkSize == size {
				one := summary
				one.Buckets = []report.Bucket{b}
				one.Records = b.Trials
				writeReport(w, report.FormatJSON, one)
				return
			}
		}
		http.NotFound(w, req)
	}).Methods(http.MethodGet)

	return r
}

func writeReport(w http.ResponseWriter, format report.Format, s report.Summary) {
	switch format {
	case report.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case report.FormatYAML:
		w.Header().Set("Content-Type", "application/yaml")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	_ = report.Render(w, format, s)
}

// serve blocks until the server fails or the process is interrupted
func serve(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics and report")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info().Msg("Received shutdown signal, stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
