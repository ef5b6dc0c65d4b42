package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	prizeservice "prizeforge/contexts/prize-lifecycle/prize-service"
	"prizeforge/internal/platform/identity"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "prizeforge/internal/platform/httpserver/docs"
)

const moduleName = "internal/platform/httpserver"

type Server struct {
	mux    *http.ServeMux
	http   *http.Server
	logger *slog.Logger
	addr   string
	prizes prizeservice.Module
	auth   *identity.Authenticator
}

func New(
	prizes prizeservice.Module,
	auth *identity.Authenticator,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if auth == nil {
		auth = identity.NewAuthenticator("")
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		prizes: prizes,
		auth:   auth,
	}
	s.registerRoutes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", moduleName,
		"layer", "platform",
		"addr", s.addr,
		"token_auth", s.auth.TokensEnabled(),
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /v1/routes", s.handleRoutes)

	s.mux.HandleFunc("POST /v1/prizes", s.handleCreatePrize)
	s.mux.HandleFunc("GET /v1/prizes", s.handleListPrizes)
	s.mux.HandleFunc("GET /v1/prizes/{prize_id}", s.handleGetPrize)
	s.mux.HandleFunc("GET /v1/prizes/{prize_id}/activity", s.handleActivity)
	s.mux.HandleFunc("GET /v1/prizes/{prize_id}/strategy", s.handleStrategy)
	s.mux.HandleFunc("GET /v1/prizes/{prize_id}/allocation-preview", s.handlePreviewAllocation)

	s.mux.HandleFunc("POST /v1/prizes/{prize_id}/evaluators", s.handleAddEvaluators)
	s.mux.HandleFunc("POST /v1/prizes/{prize_id}/evaluators/remove", s.handleRemoveEvaluators)
	s.mux.HandleFunc("POST /v1/prizes/{prize_id}/fund", s.handleFund)
	s.mux.HandleFunc("POST /v1/prizes/{prize_id}/withdraw", s.handleWithdrawFunds)
	s.mux.HandleFunc("POST /v1/prizes/{prize_id}/advance", s.handleAdvance)
	s.mux.HandleFunc("POST /v1/prizes/{prize_id}/cancel", s.handleCancel)

	s.mux.HandleFunc("POST /v1/prizes/{prize_id}/contributions", s.handleSubmitContribution)
	s.mux.HandleFunc("GET /v1/prizes/{prize_id}/contributions/{contestant}", s.handleGetContribution)
	s.mux.HandleFunc("POST /v1/prizes/{prize_id}/contributions/{contestant}/sealed-score", s.handleSealedScore)
	s.mux.HandleFunc("POST /v1/prizes/{prize_id}/contributions/{contestant}/sealed-reward", s.handleSealedReward)

	s.mux.HandleFunc("POST /v1/prizes/{prize_id}/evaluations", s.handleEvaluate)
	s.mux.HandleFunc("POST /v1/prizes/{prize_id}/scores", s.handleAssignScores)
	s.mux.HandleFunc("POST /v1/prizes/{prize_id}/verify", s.handleVerifyEvaluations)
	s.mux.HandleFunc("POST /v1/prizes/{prize_id}/allocate", s.handleAllocateRewards)
	s.mux.HandleFunc("POST /v1/prizes/{prize_id}/claim", s.handleClaimReward)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRoutes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.prizes.Handler.RoutesHandler())
}
