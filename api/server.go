// Package api exposes the broker over HTTP. Identity is a session cookie
// established by the Google OAuth flow; every trading route requires one.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rustyeddy/paperbroker/auth"
	"github.com/rustyeddy/paperbroker/engine"
	"github.com/rustyeddy/paperbroker/ledger"
)

// SessionCookie names the cookie carrying the session token.
const SessionCookie = "paperbroker_session"

// stateCookie pins the OAuth state between /login and /callback.
const stateCookie = "paperbroker_state"

const ctxUser = "user"

// Config carries the server's request-handling settings.
type Config struct {
	FrontendURL  string
	StartingCash int64
	CookieTTL    time.Duration
}

// Server wires the HTTP routes to the engine and its stores.
type Server struct {
	R        *gin.Engine
	eng      *engine.Engine
	store    ledger.Store
	sessions *auth.Sessions
	google   *auth.Google
	log      *zap.Logger
	cfg      Config
}

// NewServer builds the router. A nil logger disables logging.
func NewServer(eng *engine.Engine, store ledger.Store, sessions *auth.Sessions, google *auth.Google, logger *zap.Logger, cfg Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		R:        gin.New(),
		eng:      eng,
		store:    store,
		sessions: sessions,
		google:   google,
		log:      logger,
		cfg:      cfg,
	}

	s.R.Use(gin.Recovery())
	s.R.Use(requestLogger(logger))
	s.R.Use(corsMiddleware(cfg.FrontendURL))

	s.R.GET("/health", s.handleHealth)
	s.R.GET("/login", s.handleLogin)
	s.R.GET("/callback", s.handleCallback)
	s.R.GET("/logout", s.handleLogout)

	authed := s.R.Group("/", s.requireSession)
	authed.GET("/user", s.handleUser)
	authed.GET("/account", s.handleAccount)
	authed.GET("/portfolio", s.handlePortfolio)
	authed.GET("/transactions", s.handleTransactions)
	authed.POST("/buy", s.handleOrder(ledger.Buy))
	authed.POST("/sell", s.handleOrder(ledger.Sell))

	return s
}
