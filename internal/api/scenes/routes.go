package scenes

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSceneRoutes mounts the scene endpoints on r. Every route sits
// behind requireAuth. The events websocket is only mounted when the handler
// has a hub.
func RegisterSceneRoutes(r *mux.Router, handler *SceneHandler, requireAuth mux.MiddlewareFunc) {
	scenes := r.PathPrefix("/api/scenes").Subrouter()
	scenes.Use(requireAuth)

	for _, path := range []string{"", "/"} {
		scenes.HandleFunc(path, handler.ListScenes).Methods(http.MethodGet)
		scenes.HandleFunc(path, handler.CreateScene).Methods(http.MethodPost)
	}
	scenes.HandleFunc("/{id}", handler.DeleteScene).Methods(http.MethodDelete)

	if handler.Hub != nil {
		r.Handle("/ws/scenes", requireAuth(http.HandlerFunc(handler.ServeEvents))).Methods(http.MethodGet)
	}
}
