package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clan-manager/internal/model"
	"clan-manager/internal/service"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var payload model.CreateUserRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	user, err := h.service.Create(r.Context(), caller, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, users)
}

func (h *UserHandler) ListByClan(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	users, err := h.service.ListByClan(r.Context(), caller, chi.URLParam(r, "clanId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var payload model.UpdateUserRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	user, err := h.service.Update(r.Context(), caller, chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *UserHandler) UpdatePower(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var payload model.UpdatePowerRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	user, err := h.service.UpdatePower(r.Context(), caller, chi.URLParam(r, "id"), payload.Power)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) UpdateKills(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var payload model.UpdateKillsRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	user, err := h.service.UpdateKills(r.Context(), caller, chi.URLParam(r, "id"), payload.Kills)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) ResetWeeklyKills(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetWeeklyKills(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "weekly kills reset"}, nil)
}
