package handlers

import (
	"net/http"

	"github.com/pribylovaa/bookshelf/internal/http/dto"
	apierrors "github.com/pribylovaa/bookshelf/internal/http/errors"
)

func (h *Handlers) AvatarPresign(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var in dto.AvatarPresignRequest
	if err := decodeBody(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	info, err := h.svc.AvatarUploadURL(r.Context(), p, in.ContentType, in.ContentLength)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AvatarPresignFromInfo(info))
}

func (h *Handlers) AvatarConfirm(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var in dto.AvatarConfirmRequest
	if err := decodeBody(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	u, err := h.svc.ConfirmAvatarUpload(r.Context(), p, in.AvatarKey)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromModel(u))
}
