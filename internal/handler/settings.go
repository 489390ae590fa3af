package handler

import (
	"net/http"

	"github.com/templui/tutordesk/internal/service"
)

type SettingsHandler struct {
	store *service.GoalStore
}

func NewSettingsHandler(store *service.GoalStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

type soundSetting struct {
	Enabled *bool `json:"enabled"`
}

func (h *SettingsHandler) Sound(w http.ResponseWriter, r *http.Request) {
	enabled := h.store.SoundEnabled()
	writeJSON(w, http.StatusOK, soundSetting{Enabled: &enabled})
}

func (h *SettingsHandler) UpdateSound(w http.ResponseWriter, r *http.Request) {
	var req soundSetting
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	h.store.SetSoundEnabled(r.Context(), *req.Enabled)
	writeJSON(w, http.StatusOK, req)
}
