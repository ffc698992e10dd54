package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vaughan-dsouza/BeAuth/internal/auth"
	"github.com/vaughan-dsouza/BeAuth/internal/metrics"
	"github.com/vaughan-dsouza/BeAuth/internal/middleware"
	"github.com/vaughan-dsouza/BeAuth/internal/models"
	"github.com/vaughan-dsouza/BeAuth/internal/session"
	"github.com/vaughan-dsouza/BeAuth/internal/utils"
)

// AuthService is the part of auth.Service the HTTP layer drives.
type AuthService interface {
	SignUp(ctx context.Context, in auth.SignUpInput) (*models.User, error)
	SignIn(ctx context.Context, in auth.SignInInput) (*models.User, string, error)
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type AuthHandler struct {
	svc       AuthService
	transport *session.Transport
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewAuthHandler(svc AuthService, transport *session.Transport, m *metrics.Metrics, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, transport: transport, metrics: m, logger: logger}
}

// ----------- Response DTOs -------------

type userResp struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type messageResp struct {
	Message string `json:"message"`
}

type meResp struct {
	User struct {
		ID    int64       `json:"id"`
		Email string      `json:"email"`
		Role  models.Role `json:"role"`
	} `json:"user"`
}

// -------------- SIGN UP ----------------------

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req auth.SignUpInput
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		h.metrics.RecordAuth("sign_up", "bad_request")
		return
	}

	u, err := h.svc.SignUp(r.Context(), req)
	if err != nil {
		h.metrics.RecordAuth("sign_up", outcome(err))
		writeError(w, err)
		return
	}

	h.metrics.RecordAuth("sign_up", "success")
	utils.JSON(w, http.StatusCreated, userResp{
		Message: "User registered successfully",
		User:    u,
	})
}

// -------------- SIGN IN ----------------------

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req auth.SignInInput
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		h.metrics.RecordAuth("sign_in", "bad_request")
		return
	}

	u, token, err := h.svc.SignIn(r.Context(), req)
	if err != nil {
		h.metrics.RecordAuth("sign_in", outcome(err))
		writeError(w, err)
		return
	}

	h.transport.Set(w, session.CookieName, token)

	h.metrics.RecordAuth("sign_in", "success")
	utils.JSON(w, http.StatusOK, userResp{
		Message: "User signed in successfully",
		User:    u,
	})
}

// -------------- SIGN OUT ---------------------

// SignOut only drops the client's cookie. The token itself stays valid
// until it expires.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.transport.Clear(w, session.CookieName)

	h.metrics.RecordAuth("sign_out", "success")
	h.logger.InfoContext(r.Context(), "user signed out")
	utils.JSON(w, http.StatusOK, messageResp{Message: "User signed out successfully"})
}

// -------------- ME (protected) ----------------

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, auth.CodeAuthRequired, "Authentication required")
		return
	}

	var resp meResp
	resp.User.ID = claims.UserID
	resp.User.Email = claims.Email
	resp.User.Role = claims.Role
	utils.JSON(w, http.StatusOK, resp)
}
