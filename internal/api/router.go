package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/api/handler"
	mw "github.com/abhishekdav003/easyfinance-sub000/internal/api/middleware"
	"github.com/abhishekdav003/easyfinance-sub000/internal/config"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/agent"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/client"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/report"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	Agents  agent.AgentService
	Clients client.ClientService
	Loans   loan.LoanService
	Reports report.ReportService
}

// SetupRouter builds the HTTP surface. ctx bounds background work owned by the router,
// such as rate limiter eviction.
func SetupRouter(ctx context.Context, svc Services, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()
	loc := cfg.Reporting.Location()

	setupMiddleware(ctx, router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAgentRoutes(router, svc, logger)
	setupClientRoutes(router, svc.Clients, loc, logger)
	setupLoanRoutes(router, svc.Loans, loc, logger)
	setupReportRoutes(router, svc.Reports, loc, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return router
}

func setupMiddleware(ctx context.Context, router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	limiter := mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger)
	if cfg.Server.RateLimit.Enabled {
		go limiter.Run(ctx)
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(limiter.Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupAgentRoutes(router chi.Router, svc Services, logger *slog.Logger) {
	h := handler.NewAgentHandler(svc.Agents, svc.Reports, logger)

	router.Route("/agents", func(r chi.Router) {
		r.Post("/", h.CreateAgent)
		r.Get("/", h.ListAgents)
		r.Route("/{agentID}", func(r chi.Router) {
			r.Get("/", h.GetAgent)
			r.Put("/status", h.UpdateAgentStatus)
			r.Get("/collections", h.AgentCollections)
		})
	})
}

func setupClientRoutes(router chi.Router, svc client.ClientService, loc *time.Location, logger *slog.Logger) {
	h := handler.NewClientHandler(svc, loc, logger)

	router.Route("/clients", func(r chi.Router) {
		r.Post("/", h.CreateClient)
		r.Get("/", h.ListClients)
		r.Route("/{clientID}", func(r chi.Router) {
			r.Get("/", h.GetClient)
			r.Get("/status", h.ClientStatus)
			r.Post("/loans", h.IssueLoan)
		})
	})
}

func setupLoanRoutes(router chi.Router, svc loan.LoanService, loc *time.Location, logger *slog.Logger) {
	h := handler.NewLoanHandler(svc, loc, logger)

	router.Route("/loans", func(r chi.Router) {
		r.Get("/number/{loanNumber}", h.GetLoanByNumber)
		r.Route("/{loanID}", func(r chi.Router) {
			r.Get("/", h.GetLoan)
			r.Get("/status", h.LoanStatus)
			r.Post("/collections", h.CollectEmi)
		})
	})
}

func setupReportRoutes(router chi.Router, svc report.ReportService, loc *time.Location, logger *slog.Logger) {
	h := handler.NewReportHandler(svc, loc, logger)

	router.Route("/reports", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard)
		r.Get("/today", h.TodaysCollections)
		r.Get("/defaulters", h.Defaulters)
		r.Get("/defaulters/set", h.DefaulterSet)
		r.Get("/agents", h.AllAgentCollections)
	})
}
