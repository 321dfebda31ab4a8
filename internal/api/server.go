package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/brisk/internal/agent"
	"github.com/MikeSquared-Agency/brisk/internal/auth"
	"github.com/MikeSquared-Agency/brisk/internal/events"
	"github.com/MikeSquared-Agency/brisk/internal/finance"
	"github.com/MikeSquared-Agency/brisk/internal/store"
)

// Store is everything the handlers read and write.
type Store interface {
	agent.Source

	GetAccount(ctx context.Context, userID, id uuid.UUID) (*finance.Account, error)
	CreateAccount(ctx context.Context, userID uuid.UUID, in finance.AccountInput) (*finance.Account, error)
	UpdateAccount(ctx context.Context, userID, id uuid.UUID, in finance.AccountInput) (*finance.Account, error)
	DeleteAccount(ctx context.Context, userID, id uuid.UUID) error

	CreateCategory(ctx context.Context, userID uuid.UUID, in finance.CategoryInput) (*finance.Category, error)
	UpdateCategory(ctx context.Context, userID, id uuid.UUID, in finance.CategoryInput) (*finance.Category, error)
	DeleteCategory(ctx context.Context, userID, id uuid.UUID) error

	GetTransaction(ctx context.Context, userID, id uuid.UUID) (*finance.Transaction, error)
	AddTransaction(ctx context.Context, userID uuid.UUID, in finance.TransactionInput) (*finance.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id uuid.UUID, in finance.TransactionInput) (prev, updated *finance.Transaction, err error)
	DeleteTransaction(ctx context.Context, userID, id uuid.UUID) (*finance.Transaction, error)

	CreateBudget(ctx context.Context, userID uuid.UUID, month time.Time, in finance.BudgetInput) (*finance.Budget, error)
	UpdateBudgetAmount(ctx context.Context, userID, id uuid.UUID, amount decimal.Decimal) (*finance.Budget, error)
	DeleteBudget(ctx context.Context, userID, id uuid.UUID) error

	UpsertProfile(ctx context.Context, userID uuid.UUID, in finance.ProfileInput) (*finance.Profile, error)
}

type Deps struct {
	Port     int
	Store    Store
	Verifier *auth.Verifier
	Agent    *agent.Client
	Events   *events.Publisher
	Limiter  *RateLimiter
	Location *time.Location
	Logger   *slog.Logger
}

type Server struct {
	router   *chi.Mux
	http     *http.Server
	port     int
	store    Store
	verifier *auth.Verifier
	agent    *agent.Client
	events   *events.Publisher
	limiter  *RateLimiter
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     d.Port,
		store:    d.Store,
		verifier: d.Verifier,
		agent:    d.Agent,
		events:   d.Events,
		limiter:  d.Limiter,
		loc:      d.Location,
		logger:   d.Logger,
		now:      time.Now,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/brisk/status", s.status)

	// The chat proxy authenticates inline so a missing body is reported first.
	router.Post("/api/v1/agent/chat", s.agentChat)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(s.verifier, s.logger))

		r.Get("/dashboard", s.dashboard)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.listAccounts)
			r.Post("/", s.createAccount)
			r.Get("/{id}", s.getAccount)
			r.Put("/{id}", s.updateAccount)
			r.Delete("/{id}", s.deleteAccount)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.listCategories)
			r.Post("/", s.createCategory)
			r.Put("/{id}", s.updateCategory)
			r.Delete("/{id}", s.deleteCategory)
		})
		r.Get("/icons", s.listIcons)
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.listTransactions)
			r.Post("/", s.createTransaction)
			r.Get("/{id}", s.getTransaction)
			r.Put("/{id}", s.updateTransaction)
			r.Delete("/{id}", s.deleteTransaction)
		})
		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.listBudgets)
			r.Post("/", s.createBudget)
			r.Patch("/{id}", s.updateBudget)
			r.Delete("/{id}", s.deleteBudget)
		})
		r.Get("/profile", s.getProfile)
		r.Put("/profile", s.updateProfile)
	})

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":    "brisk",
		"status":     "ok",
		"agent":      s.agent.Configured(),
		"events":     s.events != nil,
		"currencies": []finance.Currency{finance.UYU, finance.USD},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps domain errors to status codes; anything unexpected is
// logged and reported as a 500.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *finance.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "No encontrado")
	case errors.Is(err, store.ErrDuplicateBudget):
		writeError(w, http.StatusConflict, "Ya existe un presupuesto para esta categoría en este mes")
	default:
		s.logger.Error(op+" failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido: "+err.Error())
		return false
	}
	return true
}

func userID(r *http.Request) uuid.UUID {
	id, _ := auth.UserFromContext(r.Context())
	return id
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Identificador inválido")
		return uuid.Nil, false
	}
	return id, true
}

// month reads ?month=YYYY-MM in the server's timezone, defaulting to now.
func (s *Server) month(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		start, _ := finance.MonthRange(s.now().In(s.loc))
		return start, true
	}
	t, err := time.ParseInLocation("2006-01", raw, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Mes inválido, se espera AAAA-MM")
		return time.Time{}, false
	}
	return t, true
}
