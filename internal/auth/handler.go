package auth

import (
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ayush/library-api/internal/httputil"
	"github.com/ayush/library-api/internal/metrics"
	"github.com/ayush/library-api/internal/models"
	"github.com/ayush/library-api/internal/validation"
)

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc *Service
	log logrus.FieldLogger
}

func NewHandler(svc *Service, logger logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, log: logger.WithField("component", "auth_http")}
}

// Register creates a new member.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		if verrs, ok := validation.FromDecodeError(err); ok {
			httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{"errors": verrs})
			return
		}
		httputil.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, err := h.svc.Register(r.Context(), req)
	var verrs validation.Errors
	switch {
	case err == nil:
		httputil.Message(w, http.StatusCreated, "Member registered successfully!")
	case errors.As(err, &verrs):
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{"errors": verrs})
	case errors.Is(err, ErrDuplicateEmail):
		httputil.Message(w, http.StatusBadRequest, "Email already exists!")
	default:
		h.log.WithError(err).Error("register failed")
		httputil.Message(w, http.StatusInternalServerError, "internal error")
	}
}

// Login authenticates a member and returns an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.svc.Login(r.Context(), req)
	switch {
	case err == nil:
		metrics.RecordLogin("success")
		httputil.WriteJSON(w, http.StatusOK, resp)
	case errors.Is(err, ErrInvalidCredentials):
		metrics.RecordLogin("invalid")
		httputil.Message(w, http.StatusUnauthorized, "Invalid email or password")
	default:
		metrics.RecordLogin("error")
		h.log.WithError(err).Error("login failed")
		httputil.Message(w, http.StatusInternalServerError, "internal error")
	}
}

// Logout revokes the bearer token used for this request.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		httputil.Message(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := h.svc.Logout(r.Context(), id); err != nil {
		h.log.WithError(err).Error("logout failed")
		httputil.Message(w, http.StatusInternalServerError, "internal error")
		return
	}
	httputil.Message(w, http.StatusOK, "Logged out")
}

// Me returns the currently authenticated member.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		httputil.Message(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	member, err := h.svc.CurrentMember(r.Context(), id.MemberID)
	switch {
	case err == nil:
		httputil.WriteJSON(w, http.StatusOK, member)
	case errors.Is(err, ErrMemberNotFound):
		httputil.Message(w, http.StatusNotFound, "Member not found!")
	default:
		h.log.WithError(err).Error("load member failed")
		httputil.Message(w, http.StatusInternalServerError, "internal error")
	}
}
