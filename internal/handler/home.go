package handler

import (
	"net/http"

	"github.com/templui/tutordesk/internal/ctxkeys"
)

type HomeHandler struct{}

func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

type healthResponse struct {
	Status string `json:"status"`
	App    string `json:"app,omitempty"`
}

func (h *HomeHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if cfg := ctxkeys.Config(r.Context()); cfg != nil {
		resp.App = cfg.AppName
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HomeHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}
