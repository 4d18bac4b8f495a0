package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"airbnblite/internal/view"
)

// RefreshHandler - "Refrescar". A failed fetch keeps the old list.
func (h *Handler) RefreshHandler(w http.ResponseWriter, r *http.Request, v *visitor) {
	_ = v.ctrl.Browser().Refresh(r.Context())
	h.redirectHome(w, r, v)
}

// ListingDetailHandler - "Ver"
func (h *Handler) ListingDetailHandler(w http.ResponseWriter, r *http.Request, v *visitor) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || !v.ctrl.Browser().Select(id) {
		h.render(w, v, http.StatusNotFound)
		return
	}
	h.render(w, v, http.StatusOK)
}

// BookHandler - "Reservar"
func (h *Handler) BookHandler(w http.ResponseWriter, r *http.Request, v *visitor) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := v.ctrl.Book(r.Context(), id); errors.Is(err, view.ErrBusy) {
		h.Log.Debugw("booking already in flight", "visitor", v.id, "listing_id", id)
	}
	h.redirectHome(w, r, v)
}
