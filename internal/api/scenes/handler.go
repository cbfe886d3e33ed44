package scenes

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Vasu1712/dronepilot-backend/internal/api"
	"github.com/Vasu1712/dronepilot-backend/internal/auth"
	"github.com/Vasu1712/dronepilot-backend/internal/logging"
	"github.com/Vasu1712/dronepilot-backend/internal/storage"
	"github.com/Vasu1712/dronepilot-backend/internal/validation"
	"github.com/Vasu1712/dronepilot-backend/internal/ws"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// SceneHandler holds the dependencies of the scene endpoints.
type SceneHandler struct {
	Store     storage.SceneStore
	Hub       *ws.Hub // optional; nil disables events
	Validator *validation.Validator
	Logger    logging.Logger

	// EnforceOwnership requires userId (or a stored scene's owner) to match
	// the verified caller.
	EnforceOwnership bool
}

var eventsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ListScenes handles GET /api/scenes?userId=.
func (h *SceneHandler) ListScenes(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		api.Fail(w, http.StatusBadRequest, api.MsgMissingUserID)
		return
	}
	if !h.permits(r, userID) {
		api.Fail(w, http.StatusForbidden, api.MsgForbidden)
		return
	}

	scenes, err := h.Store.ListScenes(r.Context(), userID)
	if err != nil {
		h.Logger.Error(r.Context(), "list scenes failed", "user_id", userID, "error", err)
		api.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	api.OK(w, scenes)
}

// CreateScene handles POST /api/scenes.
func (h *SceneHandler) CreateScene(w http.ResponseWriter, r *http.Request) {
	var in validation.SceneInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, api.MsgBodyTooLarge)
			return
		}
		h.Logger.Warn(r.Context(), "bad create body", "error", err)
		api.Fail(w, http.StatusBadRequest, api.MsgBadBody)
		return
	}

	if errs := h.Validator.ValidateScene(&in); len(errs) > 0 {
		api.Invalid(w, errs)
		return
	}

	scene := in.ToScene()
	if !h.permits(r, scene.UserID) {
		api.Fail(w, http.StatusForbidden, api.MsgForbidden)
		return
	}
	if validation.DecodedSize(scene.Texture) > validation.MaxTextureBytes {
		api.Fail(w, http.StatusBadRequest, api.MsgImageTooLarge)
		return
	}

	created, err := h.Store.CreateScene(r.Context(), scene)
	if err != nil {
		h.Logger.Error(r.Context(), "create scene failed", "user_id", scene.UserID, "error", err)
		api.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.publish(created.UserID, ws.Event{Type: ws.EventSceneCreated, Data: created})
	h.Logger.Info(r.Context(), "scene created", "scene_id", created.ID, "user_id", created.UserID)
	api.OK(w, created)
}

// DeleteScene handles DELETE /api/scenes/{id}.
func (h *SceneHandler) DeleteScene(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if h.EnforceOwnership {
		existing, err := h.Store.GetScene(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, api.MsgSceneNotFound)
			return
		}
		if err != nil {
			h.Logger.Error(r.Context(), "get scene failed", "scene_id", id, "error", err)
			api.Fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !h.permits(r, existing.UserID) {
			api.Fail(w, http.StatusForbidden, api.MsgForbidden)
			return
		}
	}

	deleted, err := h.Store.DeleteScene(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, api.MsgSceneNotFound)
		return
	}
	if err != nil {
		h.Logger.Error(r.Context(), "delete scene failed", "scene_id", id, "error", err)
		api.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	data := map[string]string{"id": deleted.ID}
	h.publish(deleted.UserID, ws.Event{Type: ws.EventSceneDeleted, Data: data})
	h.Logger.Info(r.Context(), "scene deleted", "scene_id", deleted.ID, "user_id", deleted.UserID)
	api.OK(w, data)
}

// ServeEvents upgrades GET /ws/scenes to a websocket streaming the scene
// events of userId, which defaults to the caller.
func (h *SceneHandler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		if id, ok := auth.IdentityFrom(r.Context()); ok {
			userID = id.UserID
		}
	}
	if userID == "" {
		api.Fail(w, http.StatusBadRequest, api.MsgMissingUserID)
		return
	}
	if !h.permits(r, userID) {
		api.Fail(w, http.StatusForbidden, api.MsgForbidden)
		return
	}

	conn, err := eventsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.Logger.Warn(r.Context(), "websocket upgrade failed", "user_id", userID, "error", err)
		return
	}
	if !h.Hub.Attach(conn, userID) {
		h.Logger.Warn(r.Context(), "event hub stopped, dropping subscriber", "user_id", userID)
		return
	}
	h.Logger.Info(r.Context(), "event subscriber attached", "user_id", userID, "active", h.Hub.ActiveClients(userID))
}

func (h *SceneHandler) permits(r *http.Request, userID string) bool {
	if !h.EnforceOwnership {
		return true
	}
	id, ok := auth.IdentityFrom(r.Context())
	return ok && id.UserID == userID
}

func (h *SceneHandler) publish(userID string, ev ws.Event) {
	if h.Hub == nil {
		return
	}
	h.Hub.Publish(userID, ev)
}
