package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rustyeddy/paperbroker/auth"
	"github.com/rustyeddy/paperbroker/engine"
	"github.com/rustyeddy/paperbroker/ledger"
)

type tradeRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleLogin sends the browser to Google's consent page. The state value
// is pinned in a short-lived cookie and checked again on the callback.
func (s *Server) handleLogin(c *gin.Context) {
	state := auth.State()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusFound, s.google.LoginURL(state))
}

func (s *Server) handleCallback(c *gin.Context) {
	state, err := c.Cookie(stateCookie)
	if err != nil || state == "" || c.Query("state") != state {
		c.JSON(http.StatusBadRequest, apiError{
			Code:    http.StatusBadRequest,
			Message: "state mismatch",
		})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, apiError{
			Code:    http.StatusBadRequest,
			Message: "missing code",
		})
		return
	}

	user, err := s.google.Exchange(c.Request.Context(), code)
	if err != nil {
		s.log.Warn("oauth exchange failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, apiError{
			Code:    http.StatusBadGateway,
			Message: "sign-in failed",
		})
		return
	}

	// First sign-in funds the account; later sign-ins find it unchanged.
	if _, err := s.store.CreateAccount(c.Request.Context(), user.Email, s.cfg.StartingCash); err != nil {
		s.writeError(c, err)
		return
	}

	token := s.sessions.New(user)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)
	c.SetCookie(SessionCookie, token, int(s.cfg.CookieTTL.Seconds()), "/", "", false, true)

	s.log.Info("user signed in", zap.String("account", user.Email))
	c.Redirect(http.StatusFound, s.cfg.FrontendURL+"/home")
}

func (s *Server) handleLogout(c *gin.Context) {
	if token, err := c.Cookie(SessionCookie); err == nil {
		s.sessions.Delete(token)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, s.cfg.FrontendURL)
}

func (s *Server) handleUser(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) handleAccount(c *gin.Context) {
	sum, err := s.eng.Account(c.Request.Context(), currentUser(c).Email)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) handlePortfolio(c *gin.Context) {
	p, err := s.eng.Portfolio(c.Request.Context(), currentUser(c).Email)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleTransactions(c *gin.Context) {
	txs, err := s.store.ListTransactions(c.Request.Context(), currentUser(c).Email)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if txs == nil {
		txs = []ledger.Transaction{}
	}
	c.JSON(http.StatusOK, txs)
}

func (s *Server) handleOrder(side ledger.Side) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tradeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, apiError{
				Code:    http.StatusBadRequest,
				Message: "symbol and a positive quantity are required",
			})
			return
		}

		tx, err := s.eng.ExecuteOrder(c.Request.Context(), currentUser(c).Email, engine.OrderRequest{
			Symbol:   strings.ToUpper(strings.TrimSpace(req.Symbol)),
			Side:     side,
			Quantity: req.Quantity,
		})
		if err != nil {
			s.writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, tx)
	}
}
