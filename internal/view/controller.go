package view

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"airbnblite/internal/auth"
)

// ErrWrongState is returned for actions whose panel is not showing.
var ErrWrongState = errors.New("view: action not available in this state")

// State is either Anonymous or Authenticated.
type State interface {
	isState()
}

type Anonymous struct{}

type Authenticated struct {
	Session auth.Session
}

func (Anonymous) isState()     {}
func (Authenticated) isState() {}

// Controller owns a visitor's UI. The auth panel exists exactly when the
// state is Anonymous and the host panel exactly when it is Authenticated.
type Controller struct {
	loop     *loop
	api      API
	sessions *auth.Manager

	state     State
	browser   *Browser
	authPanel *AuthPanel
	hostPanel *HostPanel
}

// NewController builds a controller whose initial state is taken from the
// session store: a stored token means Authenticated, without checking it.
func NewController(api API, sessions *auth.Manager, log *zap.SugaredLogger) *Controller {
	l := &loop{log: log}
	c := &Controller{
		loop:     l,
		api:      api,
		sessions: sessions,
		browser:  newBrowser(l, api),
	}
	if s, ok := sessions.Current(); ok {
		c.enter(Authenticated{Session: s})
	} else {
		c.enter(Anonymous{})
	}
	return c
}

// enter must be called with the loop mutex held, or before the controller is shared.
func (c *Controller) enter(s State) {
	if c.hostPanel != nil {
		c.hostPanel.unmount()
	}
	c.state = s
	switch st := s.(type) {
	case Authenticated:
		c.authPanel = nil
		c.hostPanel = newHostPanel(c.loop, c.api, st.Session)
	default:
		c.hostPanel = nil
		c.authPanel = newAuthPanel(c.loop, c.api)
	}
}

// Start runs the mount effects: load listings and, when authenticated, the
// visitor's own listings. Failures are logged by the panels.
func (c *Controller) Start(ctx context.Context) {
	_ = c.browser.Refresh(ctx)
	if host := c.Host(); host != nil {
		_ = host.Mount(ctx)
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.loop.mu.Lock()
	defer c.loop.mu.Unlock()
	return c.state
}

// Browser returns the listing browser.
func (c *Controller) Browser() *Browser {
	return c.browser
}

// Auth returns the auth panel, or nil when authenticated.
func (c *Controller) Auth() *AuthPanel {
	c.loop.mu.Lock()
	defer c.loop.mu.Unlock()
	return c.authPanel
}

// Host returns the host panel, or nil when anonymous.
func (c *Controller) Host() *HostPanel {
	c.loop.mu.Lock()
	defer c.loop.mu.Unlock()
	return c.hostPanel
}

// Book reserves a listing, with the session token when there is one.
func (c *Controller) Book(ctx context.Context, listingID int64) error {
	var token string
	if st, ok := c.State().(Authenticated); ok {
		token = st.Session.Token
	}
	return c.browser.Book(ctx, token, listingID)
}

// SubmitAuth submits the auth form and moves to Authenticated after a
// successful login.
func (c *Controller) SubmitAuth(ctx context.Context) error {
	panel := c.Auth()
	if panel == nil {
		return ErrWrongState
	}

	token, err := panel.Submit(ctx)
	if err != nil || token == "" {
		return err
	}

	c.loop.mu.Lock()
	s, err := c.sessions.Begin(token)
	if err != nil {
		c.loop.log.Errorw("persist session failed", "error", err)
		panel.msg = MsgGenericError
		c.loop.mu.Unlock()
		return err
	}
	c.enter(Authenticated{Session: s})
	host := c.hostPanel
	c.loop.mu.Unlock()

	if s.Claims != nil {
		c.loop.log.Infow("visitor logged in", "user_id", s.Claims.UserID)
	}
	_ = host.Mount(ctx)
	return nil
}

// CreateListing submits the host form. A logout racing with it cancels the
// request and yields ErrWrongState.
func (c *Controller) CreateListing(ctx context.Context) error {
	host := c.Host()
	if host == nil {
		return ErrWrongState
	}
	return host.Create(ctx)
}

// Logout clears the stored token and returns to Anonymous, whatever the
// current state.
func (c *Controller) Logout() error {
	c.loop.mu.Lock()
	defer c.loop.mu.Unlock()
	err := c.sessions.End()
	if err != nil {
		c.loop.log.Errorw("clear session failed", "error", err)
	}
	c.enter(Anonymous{})
	return err
}

// SessionToken returns the token the controller acts with, or "" when
// Anonymous.
func (c *Controller) SessionToken() string {
	c.loop.mu.Lock()
	defer c.loop.mu.Unlock()
	if st, ok := c.state.(Authenticated); ok {
		return st.Session.Token
	}
	return ""
}

// Page is everything needed to render a visitor's screen.
type Page struct {
	Logged  bool
	UserID  int64
	Browser BrowserView
	Auth    *AuthView
	Host    *HostView
}

// Snapshot captures the current state for rendering.
func (c *Controller) Snapshot() Page {
	c.loop.mu.Lock()
	defer c.loop.mu.Unlock()

	p := Page{Browser: c.browser.view()}
	switch st := c.state.(type) {
	case Authenticated:
		p.Logged = true
		if st.Session.Claims != nil {
			p.UserID = st.Session.Claims.UserID
		}
		hv := c.hostPanel.view()
		p.Host = &hv
	default:
		av := c.authPanel.view()
		p.Auth = &av
	}
	return p
}
