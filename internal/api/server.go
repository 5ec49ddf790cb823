package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"velorent/internal/auth"
	"velorent/internal/config"
	"velorent/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the constructed handles the HTTP layer serves.
type Deps struct {
	Products   *service.ProductService
	Bookings   *service.BookingService
	Payments   *service.PaymentService
	Agreements *service.AgreementService
	Feedback   *service.FeedbackService
	Reports    *service.ReportService
	Store      Pinger
	Verifier   *auth.Verifier
}

// HTTPServer is the JSON API of the marketplace.
type HTTPServer struct {
	cfg      *config.Config
	deps     Deps
	validate *validator.Validate
	limiter  *rateLimiter
	server   *http.Server
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewHTTPServer(cfg *config.Config, deps Deps, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "http-api").Logger()

	s := &HTTPServer{
		cfg:      cfg,
		deps:     deps,
		validate: newValidator(),
		limiter:  newRateLimiter(cfg.RateLimit),
		logger:   &l,
		now:      time.Now,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(s.recoverer)
	r.Use(s.cors)
	r.Use(s.maxBody)
	r.Use(s.authenticate)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.With(requireAuth).Get("/agreements/{file}", s.handleAgreementFile)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleListProducts)
			r.Get("/top", s.handleTopProducts)
			r.Get("/new", s.handleNewestProducts)
			r.Get("/{id}", s.handleGetProduct)
			r.Get("/{id}/availability", s.handleAvailability)
			r.Get("/{id}/quote", s.handleQuote)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", s.handleCreateProduct)
				r.Put("/{id}", s.handleUpdateProduct)
				r.Delete("/{id}", s.handleDeleteProduct)
				r.Post("/{id}/reviews", s.handleAddReview)
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", s.handleCreateBooking)
			r.Get("/", s.handleListBookings)
			r.Get("/my", s.handleMyBookings)
			r.Get("/export", s.handleExportBookings)
			r.Get("/{id}", s.handleGetBooking)
			r.Put("/{id}/status", s.handleUpdateBookingStatus)
			r.Put("/{id}/cancel", s.handleCancelBooking)
			r.Delete("/{id}", s.handleDeleteBooking)
		})

		r.Route("/payments", func(r chi.Router) {
			r.With(requireAuth).Post("/process", s.handleProcessPayment)
			r.With(s.requireAPIKey(permissionWebhook)).Post("/webhook", s.handleWebhook)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", s.handleAllTransactions)
			r.Get("/my", s.handleMyTransactions)
		})

		r.Route("/rental-agreements", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", s.handleGenerateAgreement)
			r.Get("/{bookingId}", s.handleGetAgreement)
		})

		r.Route("/feedback", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", s.handleCreateFeedback)
			r.Get("/", s.handleListFeedback)
			r.Get("/{id}", s.handleGetFeedback)
			r.Put("/{id}", s.handleUpdateFeedback)
			r.Delete("/{id}", s.handleDeleteFeedback)
			r.Post("/{id}/response", s.handleRespondFeedback)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/fsn", s.handleFSN)
			r.Get("/fsn/export", s.handleExportFSN)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
