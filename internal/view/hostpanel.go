package view

import (
	"context"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"airbnblite/internal/auth"
	"airbnblite/internal/models"
)

// HostPanel lets an authenticated visitor publish listings and see their own.
type HostPanel struct {
	loop    *loop
	api     API
	session auth.Session
	group   singleflight.Group

	// life ends when the panel unmounts; requests still running are cancelled.
	life   context.Context
	cancel context.CancelFunc

	mine  []models.Listing
	draft models.ListingDraft
	msg   string
	busy  inflight
}

func newHostPanel(l *loop, api API, s auth.Session) *HostPanel {
	life, cancel := context.WithCancel(context.Background())
	return &HostPanel{
		loop:    l,
		api:     api,
		session: s,
		life:    life,
		cancel:  cancel,
		draft:   blankDraft(),
		busy:    inflight{},
	}
}

// unmount must be called with the loop mutex held.
func (p *HostPanel) unmount() {
	p.cancel()
}

func (p *HostPanel) mounted() bool {
	return p.life.Err() == nil
}

// bound derives a request context that also ends with the panel.
func (p *HostPanel) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func blankDraft() models.ListingDraft {
	return models.ListingDraft{Type: string(models.TypeApartment), Image: models.DefaultImage}
}

// Mount loads the visitor's own listings. A failure leaves the set as it was
// and is only logged. It returns ErrWrongState once the panel is unmounted.
func (p *HostPanel) Mount(ctx context.Context) error {
	_, err, _ := p.group.Do("mine", func() (any, error) {
		if !p.mounted() {
			return nil, ErrWrongState
		}
		ctx, done := p.bound(ctx)
		defer done()

		mine, err := p.api.MyListings(ctx, p.session.Token)

		p.loop.mu.Lock()
		defer p.loop.mu.Unlock()
		if !p.mounted() {
			return nil, ErrWrongState
		}
		if err != nil {
			p.loop.log.Warnw("fetch own listings failed", "error", err)
			return nil, err
		}
		p.mine = mine
		return nil, nil
	})
	return err
}

// SetDraft replaces the creation form contents.
func (p *HostPanel) SetDraft(d models.ListingDraft) {
	p.loop.mu.Lock()
	p.draft = d
	p.loop.mu.Unlock()
}

// Create publishes the draft. Price is sent as a number. On success the form
// is cleared and the visitor's listings are fetched again. After the panel is
// unmounted nothing is sent and a running request is abandoned; both return
// ErrWrongState.
func (p *HostPanel) Create(ctx context.Context) error {
	p.loop.mu.Lock()
	if !p.mounted() {
		p.loop.mu.Unlock()
		return ErrWrongState
	}
	if !p.busy.begin(actionCreate) {
		p.loop.mu.Unlock()
		return ErrBusy
	}
	p.msg = ""
	d := p.draft
	in, msg := toNewListing(d)
	if msg != "" {
		p.busy.end(actionCreate)
		p.msg = msg
		p.loop.mu.Unlock()
		return nil
	}
	p.loop.mu.Unlock()

	reqCtx, done := p.bound(ctx)
	_, err := p.api.CreateListing(reqCtx, p.session.Token, in)
	done()

	p.loop.mu.Lock()
	p.busy.end(actionCreate)
	if !p.mounted() {
		p.loop.mu.Unlock()
		return ErrWrongState
	}
	if err != nil {
		msg, network := serverMessage(err, MsgGenericError)
		if network {
			p.loop.log.Errorw("create listing failed", "error", err)
			msg = MsgNetworkError
		}
		p.msg = msg
		p.loop.mu.Unlock()
		return nil
	}
	p.msg = MsgListingCreated
	p.draft.Title, p.draft.City, p.draft.Price, p.draft.Description = "", "", "", ""
	p.loop.mu.Unlock()

	_ = p.Mount(ctx)
	return nil
}

func toNewListing(d models.ListingDraft) (models.NewListing, string) {
	d.Title = strings.TrimSpace(d.Title)
	d.City = strings.TrimSpace(d.City)
	d.Price = strings.TrimSpace(d.Price)
	if d.Type == "" {
		d.Type = string(models.TypeApartment)
	}
	if validate.Struct(d) != nil {
		return models.NewListing{}, MsgMissingFields
	}

	price, err := strconv.ParseFloat(d.Price, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return models.NewListing{}, MsgPriceNotNumber
	}

	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		desc = d.Title
	}
	img := strings.TrimSpace(d.Image)
	if img == "" {
		img = models.DefaultImage
	}
	return models.NewListing{
		Title:       d.Title,
		City:        d.City,
		Price:       price,
		Type:        models.ListingType(d.Type),
		Description: desc,
		Image:       img,
	}, ""
}

// HostView is a rendering snapshot of the host panel.
type HostView struct {
	Mine    []models.Listing
	Draft   models.ListingDraft
	Types   []models.ListingType
	Message string
	Pending bool
}

// view must be called with the loop mutex held.
func (p *HostPanel) view() HostView {
	v := HostView{
		Mine:    append([]models.Listing(nil), p.mine...),
		Draft:   p.draft,
		Types:   models.ListingTypes,
		Message: p.msg,
		Pending: p.busy[actionCreate],
	}
	return v
}
