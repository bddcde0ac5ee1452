package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/divisual/leadgen-cli/internal/model"
	"github.com/divisual/leadgen-cli/internal/pipeline"
	"github.com/divisual/leadgen-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workflow HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		p, err := initPipeline(ctx)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newServeRouter(ctx, p, st, leadTab()),
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// workflowRunner is the pipeline surface the server needs.
type workflowRunner interface {
	RunDiscovery(ctx context.Context, params pipeline.DiscoveryParams) (*pipeline.DiscoveryResult, error)
	RunOutreach(ctx context.Context, params pipeline.OutreachParams) (*pipeline.OutreachResult, error)
}

// newServeRouter builds the HTTP routes. Workflow triggers return 202 with a
// run ID immediately; the pipeline itself runs on baseCtx so it survives the
// request, and its outcome lands in run history.
func newServeRouter(baseCtx context.Context, runner workflowRunner, st store.Store, defaultTab string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/workflows/discovery", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Tab    string `json:"tab"`
			Niche  string `json:"niche"`
			City   string `json:"city"`
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		detail := body.Niche
		if detail != "" && body.City != "" {
			detail += " en " + body.City
		}
		run, err := st.CreateRun(req.Context(), model.RunKindDiscovery, detail)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		tab := body.Tab
		if tab == "" {
			tab = defaultTab
		}

		go func() {
			result, err := runner.RunDiscovery(baseCtx, pipeline.DiscoveryParams{
				Tab:    tab,
				Niche:  body.Niche,
				City:   body.City,
				Prompt: body.Prompt,
			})
			finalizeRun(baseCtx, st, run.ID, discoveryOutcome(result), err)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"run_id": run.ID,
			"status": string(model.RunStatusRunning),
		})
	})

	r.Post("/workflows/outreach", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Tab    string `json:"tab"`
			Quota  int    `json:"quota"`
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		run, err := st.CreateRun(req.Context(), model.RunKindOutreach, "")
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		tab := body.Tab
		if tab == "" {
			tab = defaultTab
		}

		go func() {
			result, err := runner.RunOutreach(baseCtx, pipeline.OutreachParams{
				Tab:    tab,
				Quota:  body.Quota,
				Prompt: body.Prompt,
			})
			finalizeRun(baseCtx, st, run.ID, outreachOutcome(result), err)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"run_id": run.ID,
			"status": string(model.RunStatusRunning),
		})
	})

	r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		filter := store.RunFilter{
			Kind:   model.RunKind(req.URL.Query().Get("kind")),
			Status: model.RunStatus(req.URL.Query().Get("status")),
			Limit:  limit,
		}
		runs, err := st.ListRuns(req.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if runs == nil {
			runs = []model.Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/runs/{run_id}", func(w http.ResponseWriter, req *http.Request) {
		run, err := st.GetRun(req.Context(), chi.URLParam(req, "run_id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	return r
}

// runOutcome carries what a finished workflow contributes to its run record.
type runOutcome struct {
	count int
	log   []string
}

func discoveryOutcome(r *pipeline.DiscoveryResult) runOutcome {
	if r == nil {
		return runOutcome{}
	}
	return runOutcome{count: r.TotalUpserted, log: r.Log}
}

func outreachOutcome(r *pipeline.OutreachResult) runOutcome {
	if r == nil {
		return runOutcome{}
	}
	return runOutcome{count: r.Sent, log: r.Log}
}

func finalizeRun(ctx context.Context, st store.Store, runID string, out runOutcome, runErr error) {
	if runErr != nil {
		zap.L().Error("workflow failed", zap.String("run_id", runID), zap.Error(runErr))
		if err := st.FailRun(ctx, runID, out.count, out.log, runErr.Error()); err != nil {
			zap.L().Error("record failed run", zap.String("run_id", runID), zap.Error(err))
		}
		return
	}
	zap.L().Info("workflow complete", zap.String("run_id", runID), zap.Int("count", out.count))
	if err := st.CompleteRun(ctx, runID, out.count, out.log); err != nil {
		zap.L().Error("record completed run", zap.String("run_id", runID), zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
