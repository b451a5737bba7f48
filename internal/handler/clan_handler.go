package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clan-manager/internal/model"
	"clan-manager/internal/service"
)

type ClanHandler struct {
	service *service.ClanService
}

func NewClanHandler(service *service.ClanService) *ClanHandler {
	return &ClanHandler{service: service}
}

func (h *ClanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateClanRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	clan, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, clan, nil)
}

func (h *ClanHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	clans, err := h.service.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, clans)
}

func (h *ClanHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	clans, err := h.service.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, clans)
}

func (h *ClanHandler) Main(w http.ResponseWriter, r *http.Request) {
	clan, err := h.service.Main(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, clan, nil)
}

func (h *ClanHandler) Get(w http.ResponseWriter, r *http.Request) {
	clan, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, clan, nil)
}

func (h *ClanHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var payload model.UpdateClanRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	clan, err := h.service.Update(r.Context(), caller, chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, clan, nil)
}

func (h *ClanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.SuccessResponse{Success: true}, nil)
}

func (h *ClanHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var payload model.ActivateClanRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	clan, err := h.service.Activate(r.Context(), chi.URLParam(r, "id"), payload.ActivationCode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, clan, nil)
}

func (h *ClanHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	clan, err := h.service.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, clan, nil)
}

func (h *ClanHandler) RecalculatePower(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	clan, err := h.service.RecalculatePower(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, clan, nil)
}

func (h *ClanHandler) RecalculateKills(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	clan, err := h.service.RecalculateKills(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, clan, nil)
}

func (h *ClanHandler) ResetWeeklyKills(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetWeeklyKills(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "weekly kills reset"}, nil)
}

func (h *ClanHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	member, err := h.service.AddMember(r.Context(), caller, chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, member, nil)
}

func (h *ClanHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveMember(r.Context(), caller, chi.URLParam(r, "id"), chi.URLParam(r, "userId")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.SuccessResponse{Success: true}, nil)
}
