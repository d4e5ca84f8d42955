package handlers

import (
	"net/http"

	"task-manager/server/response"
	"task-manager/server/services"
)

type AuthHandler struct {
	users *services.UserService
	out   *response.Writer
}

func NewAuthHandler(users *services.UserService, out *response.Writer) *AuthHandler {
	return &AuthHandler{users: users, out: out}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.out.Error(w, r, err)
		return
	}
	user, err := h.users.Register(r.Context(), in)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	h.out.JSON(w, http.StatusCreated, "User registered successfully", map[string]any{"user": user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.out.Error(w, r, err)
		return
	}
	res, err := h.users.Login(r.Context(), in)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	h.out.JSON(w, http.StatusOK, "Login successful", res)
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	user, err := h.users.Profile(r.Context(), caller)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	h.out.JSON(w, http.StatusOK, "Profile retrieved successfully", map[string]any{"user": user})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	var in services.UpdateProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.out.Error(w, r, err)
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), caller, in)
	if err != nil {
		h.out.Error(w, r, err)
		return
	}
	h.out.JSON(w, http.StatusOK, "Profile updated successfully", map[string]any{"user": user})
}
