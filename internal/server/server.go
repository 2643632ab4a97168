package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"hackathon-portal/internal/auth"
	"hackathon-portal/internal/config"
	"hackathon-portal/internal/events"
	"hackathon-portal/internal/generator"
	"hackathon-portal/internal/model"
	"hackathon-portal/internal/ratelimit"
	"hackathon-portal/internal/store"
	"hackathon-portal/internal/timer"
	"hackathon-portal/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

type Server struct {
	store     store.Store
	cfg       config.Config
	clock     clockwork.Clock
	timer     *timer.Engine
	workflow  *workflow.Service
	issuer    *auth.Issuer
	limiter   ratelimit.Limiter
	publisher events.Publisher
	gen       workflow.Generator
	hub       *hub
	startedAt time.Time
}

type Option func(*Server)

func WithGenerator(gen workflow.Generator) Option {
	return func(s *Server) { s.gen = gen }
}

func WithLimiter(limiter ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = limiter }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Server) { s.publisher = publisher }
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

func New(st store.Store, cfg config.Config, opts ...Option) *Server {
	s := &Server{
		store: st,
		cfg:   cfg,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gen == nil {
		s.gen = generator.New(generator.Options{
			Candidates:    cfg.GeneratorURLs,
			Timeout:       cfg.GeneratorTimeout(),
			ExpertTimeout: cfg.ExpertGeneratorTimeout(),
			PublicBaseURL: cfg.ArtifactPublicBaseURL,
		})
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewMemory(cfg.LoginMaxAttempts, cfg.LoginWindow(), s.clock)
	}
	if s.publisher == nil {
		s.publisher = events.Noop{}
	}
	s.startedAt = s.clock.Now()
	s.hub = newHub(defaultHubConfig())
	s.timer = timer.New(s.clock, s)
	s.issuer = auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL(), s.clock)
	s.workflow = workflow.NewService(workflow.Options{
		Repo:                   st,
		Generator:              s.gen,
		Timer:                  s.timer,
		Clock:                  s.clock,
		DefaultDurationMinutes: cfg.DefaultDurationMinutes,
	})
	registerValidators()
	return s
}

// Timer exposes the countdown so the process can run its tick loop.
func (s *Server) Timer() *timer.Engine {
	return s.timer
}

// Bootstrap loads the countdown from the stored configuration and seeds the
// admin account when credentials are configured.
func (s *Server) Bootstrap(ctx context.Context) error {
	cfg, err := s.store.GetConfig(ctx)
	switch {
	case errors.Is(err, model.ErrNotFound):
		log.Warn().Msg("no hackathon configuration found; countdown stays paused at the default duration")
	case err != nil:
		return err
	case cfg.EventEnded:
		s.timer.Initialize(0, true)
	default:
		s.timer.Initialize(cfg.DurationMinutes, cfg.IsPaused)
	}

	if s.cfg.AdminEmail != "" && s.cfg.AdminPassword != "" {
		hash, err := auth.HashPassword(s.cfg.AdminPassword)
		if err != nil {
			return err
		}
		if _, err := s.store.UpsertAdmin(ctx, s.cfg.AdminEmail, hash); err != nil {
			return err
		}
		log.Info().Str("email", s.cfg.AdminEmail).Msg("admin account ensured")
	}
	return nil
}

func (s *Server) Handler() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	engine.GET("/health", s.handleHealth)
	engine.GET("/status", s.handleStatusView)
	engine.GET("/ws", s.handleWebsocket)

	v1 := engine.Group("/v1")
	v1.GET("/sys/status", s.handleSysStatus)
	v1.POST("/auth/login", s.handleLogin)

	team := v1.Group("/team", s.requireCapability(auth.CapTeamWork))
	team.GET("/profile", s.handleTeamProfile)
	team.GET("/submission", s.handleTeamSubmission)
	team.GET("/timer", s.handleTimer)
	team.POST("/save-draft", s.handleSaveDraft)
	team.POST("/submission", s.handleSaveDraft)
	team.POST("/generate-ppt", s.handleGenerateArtifact)
	team.POST("/generate-pitch-deck", s.handleGeneratePitchDeck)
	team.POST("/submit-prototype", s.handleSubmitPrototype)
	team.POST("/submit-certificate", s.handleSubmitCertificate)
	team.POST("/certificate-details", s.handleCertificateDetails)
	team.POST("/select-question", s.handleSelectQuestion)

	admin := v1.Group("/admin", s.requireCapability(auth.CapManage))
	admin.GET("/dashboard", s.handleAdminDashboard)
	admin.GET("/candidates", s.handleAdminCandidates)
	admin.POST("/create-team", s.handleCreateTeam)
	admin.DELETE("/teams/:id", s.handleDeleteTeam)
	admin.POST("/teams/:id/unlock", s.handleUnlockTeam)
	admin.POST("/teams/:id/reset-selection", s.handleResetSelection)
	admin.POST("/teams/:id/force-regenerate", s.handleForceRegenerate)
	admin.POST("/teams/:id/regenerate-permission", s.handleRegeneratePermission)
	admin.POST("/test-config", s.handleTestConfig)
	admin.POST("/toggle-halt", s.handleToggleHalt)
	admin.POST("/toggle-certificates", s.handleToggleCertificates)
	admin.POST("/timer/start", s.handleTimerStart)
	admin.POST("/timer/pause", s.handleTimerPause)
	admin.POST("/timer/reset", s.handleTimerReset)
	admin.GET("/problems", s.handleListProblems)
	admin.POST("/problems", s.handleCreateProblem)
	admin.POST("/problems/:id/allot", s.handleAllotProblem)
	admin.DELETE("/problems/:id", s.handleDeleteProblem)
	admin.POST("/reviewers", s.handleCreateReviewer)

	reviewer := v1.Group("/reviewer", s.requireCapability(auth.CapReview))
	reviewer.GET("/dashboard", s.handleReviewerDashboard)
	reviewer.GET("/team/:id", s.handleReviewerTeam)
	reviewer.POST("/score", s.handleScore)

	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	}).Handler(engine)
}

// TimerUpdate and TestEnded make the server the countdown's notifier.
func (s *Server) TimerUpdate(snap timer.Snapshot) {
	s.hub.Broadcast(eventTimerUpdate, snap)
}

func (s *Server) TestEnded(snap timer.Snapshot) {
	s.hub.Broadcast(eventTestEnded, snap)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.workflow.MarkEnded(ctx); err != nil {
			log.Error().Err(err).Msg("persist event end")
		}
		s.recordEvent(ctx, eventTestEnded, "", "system", EventPayload{TimeRemaining: snap.TimeRemaining})
	}()
}

// Close releases the event publisher.
func (s *Server) Close() {
	s.hub.CloseAll()
	s.publisher.Close()
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
