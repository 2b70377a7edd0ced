package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tagly/internal/handlers"
	"tagly/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(middlewares.CorsMiddleware)
	r.Use(middlewares.RateLimit)
	r.Use(middlewares.Instrument)

	ch := handlers.NewCommonHandler(s.db)
	r.HandleFunc("/", ch.HelloWorldHandler)
	r.HandleFunc("/health", ch.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	s.registerTagRoutes(r)
	s.registerUserRoutes(r)

	return r
}

func (s *Server) registerTagRoutes(r *mux.Router) {
	th := handlers.NewTagHandler(s.tagService, s.associationService)
	ah := handlers.NewAssociationHandler(s.associationService)

	r.HandleFunc("/api/tags", th.CreateTag).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/tags", th.ListTags).Methods("GET", "OPTIONS")
	// Fixed paths registered before the {id} wildcard so mux does not
	// treat "search" or "popular" as ids.
	r.HandleFunc("/api/tags/search", th.SearchTags).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/tags/popular", th.PopularTags).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/tags/name/{name}/users", ah.FindUsersByTagName).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/tags/{id}", th.GetTag).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/tags/{id}", th.UpdateTag).Methods("PUT", "OPTIONS")
	r.HandleFunc("/api/tags/{id}", th.DeleteTag).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/api/tags/{tagId}/users", ah.FindUsersByTag).Methods("GET", "OPTIONS")
}

func (s *Server) registerUserRoutes(r *mux.Router) {
	uh := handlers.NewUserHandler(s.userService)
	ah := handlers.NewAssociationHandler(s.associationService)

	r.HandleFunc("/api/users/register", uh.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/users/login", uh.Login).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/users/count", uh.CountUsers).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/users/bytags", ah.FindUsersByAllTags).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/users", uh.ListUsers).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/users/{id}", uh.GetUser).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/users/{id}", uh.UpdateUser).Methods("PUT", "OPTIONS")
	r.HandleFunc("/api/users/{id}", uh.DeleteUser).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/api/users/{id}/hidden", uh.SetHidden).Methods("PUT", "OPTIONS")

	r.HandleFunc("/api/users/{id}/tags", ah.ListUserTags).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/users/{id}/tags", ah.AttachTags).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/users/{id}/tags/names", ah.AttachTagsByName).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/users/{id}/tags/{tagId}", ah.DetachTag).Methods("DELETE", "OPTIONS")
}
