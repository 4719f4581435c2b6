package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/glglak/elastic-personalization-poc/internal/api/respond"
	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/services"
)

// InteractionHandler records and removes user interactions.
type InteractionHandler struct {
	svc *services.InteractionService
}

func NewInteractionHandler(svc *services.InteractionService) *InteractionHandler {
	return &InteractionHandler{svc: svc}
}

func (h *InteractionHandler) Share(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, h.svc.Share)
}

func (h *InteractionHandler) RemoveShare(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.svc.RemoveShare)
}

func (h *InteractionHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, h.svc.Like)
}

func (h *InteractionHandler) RemoveLike(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.svc.RemoveLike)
}

func (h *InteractionHandler) Comment(w http.ResponseWriter, r *http.Request) {
	var in commentRequest
	if err := decode(r, &in); err != nil {
		respond.Error(w, err)
		return
	}
	out, err := h.svc.Comment(r.Context(), in.UserID, in.ContentID, in.Text)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// RemoveComment handles DELETE /api/interactions/comment/{commentId}
func (h *InteractionHandler) RemoveComment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveComment(r.Context(), mux.Vars(r)["commentId"]); err != nil {
		respond.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InteractionHandler) Follow(w http.ResponseWriter, r *http.Request) {
	var in followRequest
	if err := decode(r, &in); err != nil {
		respond.Error(w, err)
		return
	}
	out, err := h.svc.Follow(r.Context(), in.UserID, in.FollowedUserID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (h *InteractionHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	var in followRequest
	if err := decode(r, &in); err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.svc.Unfollow(r.Context(), in.UserID, in.FollowedUserID); err != nil {
		respond.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InteractionHandler) AddPreference(w http.ResponseWriter, r *http.Request) {
	var in preferenceRequest
	h.editUser(w, r, &in, func() (*model.User, error) {
		return h.svc.AddPreference(r.Context(), in.UserID, in.Preference)
	})
}

func (h *InteractionHandler) RemovePreference(w http.ResponseWriter, r *http.Request) {
	var in preferenceRequest
	h.editUser(w, r, &in, func() (*model.User, error) {
		return h.svc.RemovePreference(r.Context(), in.UserID, in.Preference)
	})
}

func (h *InteractionHandler) AddInterest(w http.ResponseWriter, r *http.Request) {
	var in interestRequest
	h.editUser(w, r, &in, func() (*model.User, error) {
		return h.svc.AddInterest(r.Context(), in.UserID, in.Interest)
	})
}

func (h *InteractionHandler) RemoveInterest(w http.ResponseWriter, r *http.Request) {
	var in interestRequest
	h.editUser(w, r, &in, func() (*model.User, error) {
		return h.svc.RemoveInterest(r.Context(), in.UserID, in.Interest)
	})
}

func (h *InteractionHandler) record(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, contentID string) (*model.Interaction, error)) {
	var in contentInteractionRequest
	if err := decode(r, &in); err != nil {
		respond.Error(w, err)
		return
	}
	out, err := fn(r.Context(), in.UserID, in.ContentID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (h *InteractionHandler) remove(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, contentID string) error) {
	var in contentInteractionRequest
	if err := decode(r, &in); err != nil {
		respond.Error(w, err)
		return
	}
	if err := fn(r.Context(), in.UserID, in.ContentID); err != nil {
		respond.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InteractionHandler) editUser(w http.ResponseWriter, r *http.Request, in interface{}, fn func() (*model.User, error)) {
	if err := decode(r, in); err != nil {
		respond.Error(w, err)
		return
	}
	u, err := fn()
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}
