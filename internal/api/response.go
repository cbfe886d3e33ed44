// Package api holds the JSON envelope every scene endpoint answers with and
// the user-facing messages shared by handlers and middleware.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/Vasu1712/dronepilot-backend/internal/validation"
)

// User-facing messages.
const (
	MsgUnauthorized     = "未经授权的访问"
	MsgForbidden        = "无权访问该场景"
	MsgMissingUserID    = "缺少 userId 参数"
	MsgImageTooLarge    = "图片大小不能超过5MB"
	MsgSceneNotFound    = "场景不存在"
	MsgInternal         = "服务器内部错误"
	MsgBadBody          = "请求体格式错误"
	MsgBodyTooLarge     = "请求体过大"
	MsgRouteNotFound    = "Not Found"
	MsgMethodNotAllowed = "Method Not Allowed"
)

// Envelope is {success, data?, message?, errors?}.
type Envelope struct {
	Success bool                    `json:"success"`
	Data    any                     `json:"data,omitempty"`
	Message string                  `json:"message,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope around data.
func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Fail writes a failure envelope with a message.
func Fail(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: false, Message: message})
}

// Invalid writes a 400 carrying field errors.
func Invalid(w http.ResponseWriter, errs []validation.FieldError) {
	WriteJSON(w, http.StatusBadRequest, Envelope{Success: false, Errors: errs})
}
