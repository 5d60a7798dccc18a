package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/bookshelf/internal/http/dto"
	apierrors "github.com/pribylovaa/bookshelf/internal/http/errors"
	"github.com/pribylovaa/bookshelf/internal/models"
)

func (h *Handlers) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var size int64
	if s := q.Get("pageSize"); s != "" {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			apierrors.WriteError(w, r, invalid("pageSize", "must be an integer"))
			return
		}
		size = v
	}

	page, err := h.svc.ListBooks(r.Context(), models.ListParams{
		PageSize:  int32(size),
		PageToken: q.Get("pageToken"),
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BookPageFromModel(page))
}

func (h *Handlers) GetBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.BookByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BookFromModel(b))
}

func (h *Handlers) CreateBook(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var in dto.CreateBookRequest
	if err := decodeBody(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	b, err := h.svc.CreateBook(r.Context(), p, in.ToInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.BookFromModel(b))
}

func (h *Handlers) UpdateBook(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var in dto.UpdateBookRequest
	if err := decodeBody(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	b, err := h.svc.UpdateBook(r.Context(), p, chi.URLParam(r, "id"), in.ToInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BookFromModel(b))
}

func (h *Handlers) DeleteBook(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteBook(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Book deleted", Success: true})
}

func (h *Handlers) SetCurrentBook(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var in dto.CurrentBookRequest
	if err := decodeBody(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	u, err := h.svc.SetCurrentBook(r.Context(), p, in.BookID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromModel(u))
}

func (h *Handlers) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var in dto.ProgressRequest
	if err := decodeBody(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if in.Progress == nil {
		apierrors.WriteError(w, r, invalid("progress", "is required"))
		return
	}

	b, err := h.svc.UpdateProgress(r.Context(), p, chi.URLParam(r, "id"), *in.Progress)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BookFromModel(b))
}

func (h *Handlers) AddReadingPartner(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var in dto.PartnerRequest
	if err := decodeBody(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	b, err := h.svc.AddReadingPartner(r.Context(), p, chi.URLParam(r, "id"), in.PartnerID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BookFromModel(b))
}
