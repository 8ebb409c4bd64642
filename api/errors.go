package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rustyeddy/paperbroker/engine"
	"github.com/rustyeddy/paperbroker/ledger"
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeError maps engine failures onto HTTP statuses. Unrecognized errors
// are logged and reported as a bare 500.
func (s *Server) writeError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, engine.ErrInvalidOrder),
		errors.Is(err, engine.ErrInsufficientFunds),
		errors.Is(err, engine.ErrInsufficientShares):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrAccountNotFound), errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrPriceUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, engine.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	default:
		s.log.Error("unhandled error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, apiError{
			Code:    http.StatusInternalServerError,
			Message: "internal error",
		})
		return
	}

	c.JSON(status, apiError{Code: status, Message: err.Error()})
}
