package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/glglak/elastic-personalization-poc/internal/api/respond"
	"github.com/glglak/elastic-personalization-poc/internal/api/validate"
	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/services"
)

type ContentHandler struct {
	svc *services.ContentService
}

func NewContentHandler(svc *services.ContentService) *ContentHandler {
	return &ContentHandler{svc: svc}
}

func (h *ContentHandler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var in contentRequest
	if err := decode(r, &in); err != nil {
		respond.Error(w, err)
		return
	}
	out, err := h.svc.CreateContent(r.Context(), &model.Content{
		ContentID:   in.ContentID,
		CreatorID:   in.CreatorID,
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		ContentType: in.ContentType,
		Categories:  in.Categories,
		Tags:        in.Tags,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetContent(r.Context(), mux.Vars(r)["contentId"])
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

func (h *ContentHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var in updateContentRequest
	if err := decode(r, &in); err != nil {
		respond.Error(w, err)
		return
	}
	out, err := h.svc.UpdateContent(r.Context(), &model.Content{
		ContentID:   mux.Vars(r)["contentId"],
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		ContentType: in.ContentType,
		Categories:  in.Categories,
		Tags:        in.Tags,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

func (h *ContentHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteContent(r.Context(), mux.Vars(r)["contentId"]); err != nil {
		respond.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/content/search?q=
func (h *ContentHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(page, size int) ([]model.ContentView, error) {
		return h.svc.Search(r.Context(), r.URL.Query().Get("q"), page, size)
	})
}

func (h *ContentHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(page, size int) ([]model.ContentView, error) {
		return h.svc.ByCategory(r.Context(), mux.Vars(r)["category"], page, size)
	})
}

func (h *ContentHandler) ByTag(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(page, size int) ([]model.ContentView, error) {
		return h.svc.ByTag(r.Context(), mux.Vars(r)["tag"], page, size)
	})
}

func (h *ContentHandler) ByCreator(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(page, size int) ([]model.ContentView, error) {
		return h.svc.ByCreator(r.Context(), mux.Vars(r)["creatorId"], page, size)
	})
}

func (h *ContentHandler) EnsureIndex(w http.ResponseWriter, r *http.Request) {
	created, err := h.svc.EnsureIndex(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, ensureIndexResponse{Created: created})
}

func (h *ContentHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Reindex(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, reindexResponse{Indexed: n})
}

func (h *ContentHandler) list(w http.ResponseWriter, r *http.Request, fetch func(page, size int) ([]model.ContentView, error)) {
	page, size, err := validate.Page(r.URL.Query().Get("page"), r.URL.Query().Get("pageSize"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	items, err := fetch(page, size)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, items)
}
