package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/glglak/elastic-personalization-poc/internal/api/respond"
	"github.com/glglak/elastic-personalization-poc/internal/api/validate"
	"github.com/glglak/elastic-personalization-poc/internal/personalization"
)

// PersonalizationHandler serves the feed, score and factors endpoints.
type PersonalizationHandler struct {
	svc *personalization.Service
}

func NewPersonalizationHandler(svc *personalization.Service) *PersonalizationHandler {
	return &PersonalizationHandler{svc: svc}
}

// Feed handles GET /api/personalization/feed/{userId}?page=&pageSize=
func (h *PersonalizationHandler) Feed(w http.ResponseWriter, r *http.Request) {
	page, size, err := validate.Page(r.URL.Query().Get("page"), r.URL.Query().Get("pageSize"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	items, err := h.svc.Feed(r.Context(), mux.Vars(r)["userId"], page, size)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, items)
}

// Score handles GET /api/personalization/score/{userId}/{contentId}
func (h *PersonalizationHandler) Score(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	score, err := h.svc.Score(r.Context(), vars["userId"], vars["contentId"])
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, scoreResponse{UserID: vars["userId"], ContentID: vars["contentId"], Score: score})
}

// Factors handles GET /api/personalization/factors/{userId}
func (h *PersonalizationHandler) Factors(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.Factors(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, f)
}
