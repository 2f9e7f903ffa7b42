package handler

import (
	"net/http"

	"gnosislens-api/internal/middleware"
	"gnosislens-api/internal/model"
	"gnosislens-api/internal/service"
	"gnosislens-api/pkg/apierror"
	"gnosislens-api/pkg/response"
)

// AuthHandler handles account and session requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	HomeCurrency string `json:"homeCurrency"`
	Location     string `json:"location"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	result, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		HomeCurrency: req.HomeCurrency,
		Location:     req.Location,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Created(w, result)
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}
	if req.Username == "" || req.Password == "" {
		response.Error(w, apierror.BadRequest("username and password are required"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.OK(w, result)
}

// Logout handles POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r)
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.OK(w, map[string]bool{"loggedOut": true})
}

// UserResponse is the caller's session and, for registered users, account.
type UserResponse struct {
	Session *model.SessionData `json:"session"`
	User    *model.User        `json:"user,omitempty"`
}

// User handles GET /api/user. It is safe on a nil handler, which reports
// the session alone.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	resp := UserResponse{Session: session}
	if h != nil && h.auth != nil && session.UserID != model.AnonymousUserID {
		user, err := h.auth.CurrentUser(r.Context(), session)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		resp.User = user
	}
	response.OK(w, resp)
}
