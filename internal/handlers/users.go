package handlers

import (
	"log/slog"
	"net/http"

	"github.com/vaughan-dsouza/BeAuth/internal/models"
	"github.com/vaughan-dsouza/BeAuth/internal/utils"
)

type UserHandler struct {
	svc    AuthService
	logger *slog.Logger
}

func NewUserHandler(svc AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

type usersResp struct {
	Message string        `json:"message"`
	Users   []models.User `json:"users"`
	Count   int           `json:"count"`
}

// FetchAllUsers lists every account. No authorization check is applied.
func (h *UserHandler) FetchAllUsers(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "Fetching all users")

	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, usersResp{
		Message: "Users fetched successfully",
		Users:   users,
		Count:   len(users),
	})
}
