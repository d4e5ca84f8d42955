package handlers

import (
	"net/http"

	"task-manager/server/response"
	"task-manager/server/services"
)

type UserHandler struct {
	users *services.UserService
	out   *response.Writer
}

func NewUserHandler(users *services.UserService, out *response.Writer) *UserHandler {
	return &UserHandler{users: users, out: out}
}

// GetUserStats is mounted behind RequireRoles(admin).
func (h *UserHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	stats, err := h.users.AdminStats(r.Context(), caller)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	h.out.JSON(w, http.StatusOK, "User statistics retrieved", stats)
}
