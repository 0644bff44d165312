package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"baches/internal/apperr"
	"baches/internal/report"
)

// respondError maps the error taxonomy onto HTTP. empty is merged into the
// body so a failed fetch still hands the client an empty collection.
func (h HandlerSet) respondError(c *gin.Context, err error, empty gin.H) {
	body := gin.H{}
	for k, v := range empty {
		body[k] = v
	}

	var verr *apperr.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		body["error"] = "validation_failed"
		body["fields"] = verr.Fields
	case errors.Is(err, apperr.ErrUserExists):
		status = http.StatusConflict
		body["error"] = "user_exists"
	case errors.Is(err, apperr.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		body["error"] = "invalid_credentials"
	case errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusUnauthorized
		body["error"] = "rejected_by_server"
	case errors.Is(err, apperr.ErrNetwork):
		status = http.StatusBadGateway
		body["error"] = "upstream_unavailable"
	case errors.Is(err, apperr.ErrStorage):
		status = http.StatusServiceUnavailable
		body["error"] = "storage_unavailable"
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("store unavailable")
	case errors.Is(err, report.ErrReportNotFound):
		status = http.StatusNotFound
		body["error"] = "report_not_found"
	default:
		body["error"] = "internal_error"
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}

	c.JSON(status, body)
}
