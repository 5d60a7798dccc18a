package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/bookshelf/internal/http/dto"
	apierrors "github.com/pribylovaa/bookshelf/internal/http/errors"
)

func (h *Handlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var in dto.CreateGroupRequest
	if err := decodeBody(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	g, err := h.svc.CreateGroup(r.Context(), p, in.ToInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.GroupFromModel(g))
}

func (h *Handlers) MyGroups(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	gs, err := h.svc.MyGroups(r.Context(), p)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupsFromModel(gs))
}

func (h *Handlers) GetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.GroupByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupFromModel(g))
}

func (h *Handlers) JoinGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	g, err := h.svc.JoinGroup(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupFromModel(g))
}

func (h *Handlers) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	g, err := h.svc.LeaveGroup(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupFromModel(g))
}

func (h *Handlers) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteGroup(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Group deleted", Success: true})
}
