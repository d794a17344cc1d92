package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dreamjorge/StockStreamDB/internal/domain/dto"
	"github.com/dreamjorge/StockStreamDB/internal/logger"
)

// ErrorHandler renders the last error attached to the context (c.Error) as an
// ErrorResponse when the handler did not write a response itself.
//
// Behavior:
//   - dto.ErrorResponse values keep their message.
//   - Any other error becomes a 500 "Internal server error".
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	err := c.Errors.Last().Err
	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}

	var resp dto.ErrorResponse
	if !errors.As(err, &resp) {
		resp = dto.NewErrorResponse("Internal server error", err)
	}

	logger.L().Error().Err(err).Int("status", status).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(status, resp)
}

// AbortWithError stops the chain and writes a standardized error body.
//
// Parameters:
//   - status: HTTP status code to respond with.
//   - message: human-readable summary.
//   - err: optional cause, exposed as "error" in the body.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	resp := dto.NewErrorResponse(message, err)
	if status >= http.StatusInternalServerError {
		logger.L().Error().Err(err).Int("status", status).Str("path", c.Request.URL.Path).Msg(message)
	}
	c.AbortWithStatusJSON(status, resp)
}
