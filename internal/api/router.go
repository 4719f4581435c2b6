package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glglak/elastic-personalization-poc/internal/api/recovery"
	"github.com/glglak/elastic-personalization-poc/internal/personalization"
	"github.com/glglak/elastic-personalization-poc/internal/services"
)

// Deps are the services the HTTP layer exposes.
type Deps struct {
	Personalization *personalization.Service
	Content         *services.ContentService
	Interactions    *services.InteractionService
	Users           *services.UserService
	Health          HealthReporter
}

// NewRouter wires every HTTP route to its handler.
func NewRouter(d Deps) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	// Personalization
	p := NewPersonalizationHandler(d.Personalization)
	root.HandleFunc("/api/personalization/feed/{userId}", p.Feed).Methods(http.MethodGet)
	root.HandleFunc("/api/personalization/score/{userId}/{contentId}", p.Score).Methods(http.MethodGet)
	root.HandleFunc("/api/personalization/factors/{userId}", p.Factors).Methods(http.MethodGet)

	// Content; fixed paths before {contentId}
	c := NewContentHandler(d.Content)
	root.HandleFunc("/api/content", c.CreateContent).Methods(http.MethodPost)
	root.HandleFunc("/api/content/search", c.Search).Methods(http.MethodGet)
	root.HandleFunc("/api/content/category/{category}", c.ByCategory).Methods(http.MethodGet)
	root.HandleFunc("/api/content/tag/{tag}", c.ByTag).Methods(http.MethodGet)
	root.HandleFunc("/api/content/creator/{creatorId}", c.ByCreator).Methods(http.MethodGet)
	root.HandleFunc("/api/content/index/ensure", c.EnsureIndex).Methods(http.MethodPost)
	root.HandleFunc("/api/content/index/reindex", c.Reindex).Methods(http.MethodPost)
	root.HandleFunc("/api/content/{contentId}", c.GetContent).Methods(http.MethodGet)
	root.HandleFunc("/api/content/{contentId}", c.UpdateContent).Methods(http.MethodPut)
	root.HandleFunc("/api/content/{contentId}", c.DeleteContent).Methods(http.MethodDelete)

	// Interactions
	i := NewInteractionHandler(d.Interactions)
	root.HandleFunc("/api/interactions/share", i.Share).Methods(http.MethodPost)
	root.HandleFunc("/api/interactions/share", i.RemoveShare).Methods(http.MethodDelete)
	root.HandleFunc("/api/interactions/like", i.Like).Methods(http.MethodPost)
	root.HandleFunc("/api/interactions/like", i.RemoveLike).Methods(http.MethodDelete)
	root.HandleFunc("/api/interactions/comment", i.Comment).Methods(http.MethodPost)
	root.HandleFunc("/api/interactions/comment/{commentId}", i.RemoveComment).Methods(http.MethodDelete)
	root.HandleFunc("/api/interactions/follow", i.Follow).Methods(http.MethodPost)
	root.HandleFunc("/api/interactions/follow", i.Unfollow).Methods(http.MethodDelete)
	root.HandleFunc("/api/interactions/preference", i.AddPreference).Methods(http.MethodPost)
	root.HandleFunc("/api/interactions/preference", i.RemovePreference).Methods(http.MethodDelete)
	root.HandleFunc("/api/interactions/interest", i.AddInterest).Methods(http.MethodPost)
	root.HandleFunc("/api/interactions/interest", i.RemoveInterest).Methods(http.MethodDelete)

	// Users
	u := NewUserHandler(d.Users)
	root.HandleFunc("/api/users", u.CreateUser).Methods(http.MethodPost)
	root.HandleFunc("/api/users/{userId}", u.GetUser).Methods(http.MethodGet)

	// Health and metrics
	root.HandleFunc("/api/health", NewHealthHandler(d.Health).CheckHealth).Methods(http.MethodGet)
	root.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return root
}
