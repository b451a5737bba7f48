package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"clan-manager/internal/model"
	"clan-manager/internal/service"
)

type TaskHandler struct {
	service *service.TaskService
}

func NewTaskHandler(service *service.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var payload model.CreateTaskRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	task, err := h.service.Create(r.Context(), caller, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, task, nil)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	filter, err := taskFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, err := h.service.List(r.Context(), caller, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, tasks)
}

func taskFilterFromQuery(r *http.Request) (model.TaskFilter, error) {
	query := r.URL.Query()
	filter := model.TaskFilter{
		Status:       model.TaskStatus(strings.TrimSpace(query.Get("status"))),
		Priority:     model.TaskPriority(strings.TrimSpace(query.Get("priority"))),
		ClanID:       strings.TrimSpace(query.Get("clanId")),
		AssignedToID: strings.TrimSpace(query.Get("assignedToId")),
		Keyword:      strings.TrimSpace(query.Get("keyword")),
	}

	before, err := queryTime(r, "dueDateBefore")
	if err != nil {
		return model.TaskFilter{}, err
	}
	after, err := queryTime(r, "dueDateAfter")
	if err != nil {
		return model.TaskFilter{}, err
	}
	filter.DueDateBefore = before
	filter.DueDateAfter = after

	return filter, nil
}

func (h *TaskHandler) ListByClan(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.ListByClan(r.Context(), caller, chi.URLParam(r, "clanId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, tasks)
}

func (h *TaskHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.Overdue(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, tasks)
}

func (h *TaskHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	days, err := queryInt(r, "days", service.DefaultUpcomingDays)
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, err := h.service.Upcoming(r.Context(), caller, days)
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, task, nil)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var payload model.UpdateTaskRequest
	fields, ok := decodeBodyWithKeys(w, r, &payload)
	if !ok {
		return
	}
	payload.Fields = fields

	task, err := h.service.Update(r.Context(), caller, chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, task, nil)
}

func (h *TaskHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var payload model.UpdateProgressRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	task, err := h.service.UpdateProgress(r.Context(), caller, chi.URLParam(r, "id"), payload.Progress)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, task, nil)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.SuccessResponse{Success: true}, nil)
}
