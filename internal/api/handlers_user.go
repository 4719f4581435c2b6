package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/glglak/elastic-personalization-poc/internal/api/respond"
	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/services"
)

type UserHandler struct {
	svc *services.UserService
}

func NewUserHandler(svc *services.UserService) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in createUserRequest
	if err := decode(r, &in); err != nil {
		respond.Error(w, err)
		return
	}
	u := &model.User{
		UserID:      in.UserID,
		Username:    in.Username,
		Email:       in.Email,
		Preferences: in.Preferences,
		Interests:   in.Interests,
	}
	out, err := h.svc.CreateUser(r.Context(), u)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}
