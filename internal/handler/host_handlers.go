package handler

import (
	"errors"
	"net/http"

	"airbnblite/internal/models"
	"airbnblite/internal/view"
)

// CreateListingHandler - "Crear" in the host panel
func (h *Handler) CreateListingHandler(w http.ResponseWriter, r *http.Request, v *visitor) {
	host := v.ctrl.Host()
	if host == nil {
		h.redirectHome(w, r, v)
		return
	}

	host.SetDraft(models.ListingDraft{
		Title:       r.FormValue("title"),
		City:        r.FormValue("city"),
		Price:       r.FormValue("price"),
		Type:        r.FormValue("type"),
		Image:       r.FormValue("image"),
		Description: r.FormValue("description"),
	})

	if err := v.ctrl.CreateListing(r.Context()); errors.Is(err, view.ErrBusy) {
		h.Log.Debugw("create already in flight", "visitor", v.id)
	}
	h.redirectHome(w, r, v)
}
