package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"baches/internal/metrics"
	"baches/internal/session"
)

type registerRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Name            string `json:"name"`
	Lastname        string `json:"lastname"`
	Role            string `json:"role"`
}

func (r registerRequest) identifier() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Username
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h HandlerSet) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.sessions.Register(c.Request.Context(), session.RegisterInput{
		Identifier: req.identifier(),
		Secret:     req.Password,
		Confirm:    req.ConfirmPassword,
		Name:       req.Name,
		Lastname:   req.Lastname,
		Role:       req.Role,
	})
	metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.Result(err)).Inc()
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, sess)
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}

	sess, err := h.sessions.Login(c.Request.Context(), identifier, req.Password)
	metrics.AuthAttemptsTotal.WithLabelValues("login", metrics.Result(err)).Inc()
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, sess)
}

// Logout is unconditional and needs no token.
func (h HandlerSet) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		h.log.Warn().Err(err).Msg("logout could not clear stored session")
	}
	c.Status(http.StatusNoContent)
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	User          string `json:"user,omitempty"`
}

func (h HandlerSet) Session(c *gin.Context) {
	current := h.sessions.Current()
	if current == nil {
		c.JSON(http.StatusOK, sessionResponse{})
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Authenticated: true, User: current.User})
}
