package view

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"airbnblite/internal/models"
)

// Browser is the always visible listing browser.
type Browser struct {
	loop  *loop
	api   API
	group singleflight.Group

	listings   []models.Listing
	query      string
	loading    bool
	selected   int64
	bookingMsg string
	busy       inflight
}

func newBrowser(l *loop, api API) *Browser {
	return &Browser{loop: l, api: api, busy: inflight{}}
}

// Filter keeps the listings whose title or city contains query, ignoring
// case. An empty query keeps everything.
func Filter(listings []models.Listing, query string) []models.Listing {
	q := strings.ToLower(query)
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if strings.Contains(strings.ToLower(l.Title), q) || strings.Contains(strings.ToLower(l.City), q) {
			out = append(out, l)
		}
	}
	return out
}

// Refresh refetches the whole collection. On failure the previous cache is
// kept and the error is only logged. Overlapping calls share one request.
func (b *Browser) Refresh(ctx context.Context) error {
	_, err, _ := b.group.Do("listings", func() (any, error) {
		b.loop.mu.Lock()
		b.loading = true
		b.loop.mu.Unlock()

		listings, err := b.api.Listings(ctx)

		b.loop.mu.Lock()
		defer b.loop.mu.Unlock()
		b.loading = false
		if err != nil {
			b.loop.log.Errorw("fetch listings failed", "error", err)
			return nil, err
		}
		b.listings = listings
		return nil, nil
	})
	return err
}

// SetQuery replaces the filter text.
func (b *Browser) SetQuery(q string) {
	b.loop.mu.Lock()
	b.query = q
	b.loop.mu.Unlock()
}

// Select marks a cached listing as the one shown in detail. It reports
// whether the id is in the cache; unknown ids clear the selection.
func (b *Browser) Select(id int64) bool {
	b.loop.mu.Lock()
	defer b.loop.mu.Unlock()
	for _, l := range b.listings {
		if l.ID == id {
			b.selected = id
			return true
		}
	}
	b.selected = 0
	return false
}

// Book reserves a listing, attaching token when it is not empty. The outcome
// lands in the booking status message; only ErrBusy is returned.
func (b *Browser) Book(ctx context.Context, token string, listingID int64) error {
	b.loop.mu.Lock()
	if !b.busy.begin(actionBook) {
		b.loop.mu.Unlock()
		return ErrBusy
	}
	b.bookingMsg = ""
	b.loop.mu.Unlock()

	bookingID, err := b.api.Book(ctx, token, listingID)

	b.loop.mu.Lock()
	defer b.loop.mu.Unlock()
	b.busy.end(actionBook)

	if err == nil {
		b.bookingMsg = fmt.Sprintf("Reserva confirmada: ID %d", bookingID)
		return nil
	}
	msg, network := serverMessage(err, MsgBookingFallback)
	if network {
		b.loop.log.Errorw("booking failed", "listing_id", listingID, "error", err)
		b.bookingMsg = MsgBookingNetwork
		return nil
	}
	b.bookingMsg = "Error: " + msg
	return nil
}

// BrowserView is a rendering snapshot of the browser.
type BrowserView struct {
	Query          string
	Listings       []models.Listing
	Total          int
	Loading        bool
	Selected       *models.Listing
	BookingMsg     string
	BookingPending bool
}

// view must be called with the loop mutex held.
func (b *Browser) view() BrowserView {
	v := BrowserView{
		Query:          b.query,
		Listings:       Filter(b.listings, b.query),
		Total:          len(b.listings),
		Loading:        b.loading,
		BookingMsg:     b.bookingMsg,
		BookingPending: b.busy[actionBook],
	}
	if v.BookingMsg == "" {
		v.BookingMsg = MsgNoRecentActions
	}
	for i := range b.listings {
		if b.listings[i].ID == b.selected {
			l := b.listings[i]
			v.Selected = &l
			break
		}
	}
	return v
}
