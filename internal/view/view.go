// Package view holds the per-visitor UI state of the marketplace: which panel
// is showing, the listing cache, form drafts and status messages.
//
// Every visitor has one Controller. State changes are serialized on the
// controller's mutex, which plays the part of a UI event loop; API calls run
// outside it and re-acquire it to apply their result, so requests overlap the
// way a browser's fetches would.
package view

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"airbnblite/internal/models"
	"airbnblite/pkg/apiclient"
)

// API is the part of the remote marketplace the UI uses.
type API interface {
	Login(ctx context.Context, creds models.Credentials) (string, error)
	Register(ctx context.Context, creds models.Credentials) error
	Listings(ctx context.Context) ([]models.Listing, error)
	MyListings(ctx context.Context, token string) ([]models.Listing, error)
	CreateListing(ctx context.Context, token string, in models.NewListing) (int64, error)
	Book(ctx context.Context, token string, listingID int64) (int64, error)
}

var _ API = (*apiclient.Client)(nil)

// ErrBusy is returned when the same kind of request is already outstanding.
var ErrBusy = errors.New("view: request already in flight")

// User facing messages.
const (
	MsgGenericError    = "Error"
	MsgNetworkError    = "Error de red."
	MsgRegistered      = "Registro OK. Ahora logueate."
	MsgListingCreated  = "Listing creado."
	MsgMissingFields   = "Completá todos los campos."
	MsgPriceNotNumber  = "El precio debe ser un número."
	MsgBookingFallback = "no se pudo reservar"
	MsgBookingNetwork  = "Error de red al intentar reservar"
	MsgNoRecentActions = "Sin acciones recientes."
)

type action string

const (
	actionBook   action = "book"
	actionAuth   action = "auth"
	actionCreate action = "create"
)

// inflight tracks which actions have a request outstanding. Guarded by the
// owner's mutex.
type inflight map[action]bool

func (f inflight) begin(a action) bool {
	if f[a] {
		return false
	}
	f[a] = true
	return true
}

func (f inflight) end(a action) {
	delete(f, a)
}

// serverMessage returns the API's error text, or fallback when err is not an
// API error or carried none. network reports a transport failure.
func serverMessage(err error, fallback string) (msg string, network bool) {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return "", true
	}
	if apiErr.Message == "" {
		return fallback, false
	}
	return apiErr.Message, false
}

// loop is the mutex shared by a controller and its panels.
type loop struct {
	mu  sync.Mutex
	log *zap.SugaredLogger
}
