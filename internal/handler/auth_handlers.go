package handler

import (
	"errors"
	"net/http"

	"airbnblite/internal/models"
	"airbnblite/internal/view"
)

// AuthModeHandler - switch between "Ingresar" and "Crear cuenta"
func (h *Handler) AuthModeHandler(w http.ResponseWriter, r *http.Request, v *visitor) {
	if panel := v.ctrl.Auth(); panel != nil {
		panel.SetMode(view.AuthMode(r.FormValue("mode")))
	}
	h.redirectHome(w, r, v)
}

// AuthSubmitHandler - login or register, depending on the panel's mode
func (h *Handler) AuthSubmitHandler(w http.ResponseWriter, r *http.Request, v *visitor) {
	panel := v.ctrl.Auth()
	if panel == nil {
		h.redirectHome(w, r, v)
		return
	}

	panel.SetDraft(models.Credentials{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	})

	err := v.ctrl.SubmitAuth(r.Context())
	switch {
	case errors.Is(err, view.ErrBusy):
		h.Log.Debugw("auth already in flight", "visitor", v.id)
	case err != nil:
		h.Log.Warnw("auth submit failed", "visitor", v.id, "error", err)
	}
	if _, ok := v.ctrl.State().(view.Authenticated); ok {
		v = h.rotate(w, v)
	}
	h.redirectHome(w, r, v)
}

// LogoutHandler - "Salir", from the header or the host panel
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request, v *visitor) {
	if err := v.ctrl.Logout(); err != nil {
		h.Log.Errorw("logout failed", "visitor", v.id, "error", err)
	}
	v = h.rotate(w, v)
	h.redirectHome(w, r, v)
}
