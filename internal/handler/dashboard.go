package handler

import (
	"net/http"

	"github.com/templui/tutordesk/internal/model"
	"github.com/templui/tutordesk/internal/service"
)

type DashboardHandler struct {
	store *service.GoalStore
}

func NewDashboardHandler(store *service.GoalStore) *DashboardHandler {
	return &DashboardHandler{
		store: store,
	}
}

type dashboardResponse struct {
	Summary model.GoalSummary `json:"summary"`
	Overdue []*model.Goal     `json:"overdue"`
	DueSoon []*model.Goal     `json:"dueSoon"`
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dashboardResponse{
		Summary: h.store.Summary(),
		Overdue: h.store.Filter(model.GoalFilterOverdue),
		DueSoon: h.store.DueWithin(service.DigestWindow),
	})
}
