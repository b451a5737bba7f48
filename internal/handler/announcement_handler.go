package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clan-manager/internal/model"
	"clan-manager/internal/service"
	"clan-manager/pkg/apierror"
)

type AnnouncementHandler struct {
	service *service.AnnouncementService
}

func NewAnnouncementHandler(service *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: service}
}

func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var payload model.CreateAnnouncementRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	a, err := h.service.Create(r.Context(), caller, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, a, nil)
}

func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), r.URL.Query().Get("clanId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, items)
}

func (h *AnnouncementHandler) Pinned(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Pinned(r.Context(), r.URL.Query().Get("clanId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, items)
}

func (h *AnnouncementHandler) ByMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, apierror.Validation("year must be an integer", "year"))
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, apierror.Validation("month must be an integer", "month"))
		return
	}

	items, err := h.service.ByMonth(r.Context(), year, month, r.URL.Query().Get("clanId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, items)
}

func (h *AnnouncementHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	items, err := h.service.Search(r.Context(), query.Get("keyword"), query.Get("clanId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeList(w, items)
}

func (h *AnnouncementHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, a, nil)
}

func (h *AnnouncementHandler) View(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, a, nil)
}

func (h *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var payload model.UpdateAnnouncementRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	a, err := h.service.Update(r.Context(), caller, chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, a, nil)
}

func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
