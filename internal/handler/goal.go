package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/templui/tutordesk/internal/markdown"
	"github.com/templui/tutordesk/internal/model"
	"github.com/templui/tutordesk/internal/service"
)

type GoalHandler struct {
	store    *service.GoalStore
	markdown *markdown.Parser
}

func NewGoalHandler(store *service.GoalStore, md *markdown.Parser) *GoalHandler {
	return &GoalHandler{
		store:    store,
		markdown: md,
	}
}

type goalResponse struct {
	*model.Goal
	DescriptionHTML string `json:"descriptionHtml,omitempty"`
}

type createGoalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Target      string `json:"target"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority"`
	Progress    int    `json:"progress"`
}

// editGoalRequest uses a raw dueDate so null (clear) differs from absent.
type editGoalRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Target      *string         `json:"target"`
	DueDate     json.RawMessage `json:"dueDate"`
	Priority    *string         `json:"priority"`
	Progress    *int            `json:"progress"`
}

type progressRequest struct {
	Delta int `json:"delta"`
}

type suspendRequest struct {
	Days int `json:"days"`
}

type deadlineRequest struct {
	DueDate string `json:"dueDate"`
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := model.ParseGoalFilter(r.URL.Query().Get("filter"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown filter")
		return
	}

	writeJSON(w, http.StatusOK, h.store.Filter(filter))
}

func (h *GoalHandler) Completed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.CompletedGoals())
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	goal, err := h.store.Goal(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	resp := goalResponse{Goal: goal}
	if goal.Description != "" {
		html, err := h.markdown.Render(goal.Description)
		if err != nil {
			slog.Warn("failed to render goal description", "error", err, "goal_id", goal.ID)
		} else {
			resp.DescriptionHTML = html
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	priority, ok := model.ParseGoalPriority(req.Priority)
	if !ok {
		writeError(w, http.StatusBadRequest, "priority must be one of: high, medium, low")
		return
	}

	in := service.GoalInput{
		Title:       req.Title,
		Description: req.Description,
		Target:      req.Target,
		Priority:    priority,
		Progress:    req.Progress,
	}
	if req.DueDate != "" {
		due, err := model.ParseDueDate(req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.DueDate = &due
	}

	goal, err := h.store.Create(r.Context(), in)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req editGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	upd := service.GoalUpdate{
		Title:       req.Title,
		Description: req.Description,
		Target:      req.Target,
		Progress:    req.Progress,
	}
	if req.Priority != nil {
		priority, ok := model.ParseGoalPriority(*req.Priority)
		if !ok {
			writeError(w, http.StatusBadRequest, "priority must be one of: high, medium, low")
			return
		}
		upd.Priority = &priority
	}

	if len(req.DueDate) > 0 {
		var raw *string
		if err := json.Unmarshal(req.DueDate, &raw); err != nil {
			writeError(w, http.StatusBadRequest, "dueDate must be a string or null")
			return
		}
		if raw == nil || *raw == "" {
			upd.ClearDueDate = true
		} else {
			due, err := model.ParseDueDate(*raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			upd.DueDate = &due
		}
	}

	goal, err := h.store.Edit(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Progress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	goal, err := h.store.UpdateProgress(r.Context(), r.PathValue("id"), req.Delta)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Complete(w http.ResponseWriter, r *http.Request) {
	goal, err := h.store.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	var req suspendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	goal, err := h.store.Suspend(r.Context(), r.PathValue("id"), req.Days)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Resume(w http.ResponseWriter, r *http.Request) {
	goal, err := h.store.Resume(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) ExtendDeadline(w http.ResponseWriter, r *http.Request) {
	var req deadlineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.DueDate == "" {
		writeError(w, http.StatusBadRequest, "dueDate is required")
		return
	}

	due, err := model.ParseDueDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	goal, err := h.store.ExtendDeadline(r.Context(), r.PathValue("id"), due)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export downloads the whole persisted state.
func (h *GoalHandler) Export(w http.ResponseWriter, r *http.Request) {
	state := h.store.State()

	filename := fmt.Sprintf("goals-%s.json", time.Now().Format(time.DateOnly))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writeJSON(w, http.StatusOK, state)
}
