package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/property-research-cli/internal/model"
	"github.com/sells-group/property-research-cli/internal/research"
	"github.com/sells-group/property-research-cli/internal/store"
)

// Bounds for one research request. Larger batches belong in the batch
// subcommand, not a single HTTP call.
const (
	maxRequestAddresses = 25
	requestConcurrency  = 5
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for research requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runner, st, err := initRunner(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(runner, st),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(runner *research.Runner, st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/research", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Addresses []string `json:"addresses"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if len(body.Addresses) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "at least one address is required"})
			return
		}
		if len(body.Addresses) > maxRequestAddresses {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("at most %d addresses per request", maxRequestAddresses),
			})
			return
		}
		for _, address := range body.Addresses {
			if strings.TrimSpace(address) == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "addresses must not be blank"})
				return
			}
		}

		runs := make([]*model.Run, len(body.Addresses))
		g, gctx := errgroup.WithContext(req.Context())
		g.SetLimit(requestConcurrency)
		for i, address := range body.Addresses {
			i, address := i, address
			g.Go(func() error {
				run, err := runner.Research(gctx, address)
				if err != nil {
					return eris.Wrap(err, address)
				}
				runs[i] = run
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			zap.L().Error("api research failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "research failed"})
			return
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 50
		}
		runs, err := st.ListRuns(req.Context(), store.RunFilter{
			Status:  model.RunStatus(req.URL.Query().Get("status")),
			Address: req.URL.Query().Get("address"),
			Limit:   limit,
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
			return
		}
		if runs == nil {
			runs = []model.Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		run, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "get run failed"})
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
