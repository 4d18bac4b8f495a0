package handler

import (
	"context"
	"crypto/rand"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"airbnblite/internal/auth"
	"airbnblite/internal/view"
)

const visitorCookie = "visitor"

// visitor - one browser and its UI state
type visitor struct {
	id    string
	ctrl  *view.Controller
	store *auth.CookieStore
}

type registry struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	lastSeen map[string]time.Time
}

func newRegistry() *registry {
	return &registry{
		visitors: map[string]*visitor{},
		lastSeen: map[string]time.Time{},
	}
}

func (g *registry) get(id string, now time.Time) (*visitor, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.visitors[id]
	if ok {
		g.lastSeen[id] = now
	}
	return v, ok
}

func (g *registry) put(v *visitor, now time.Time) {
	g.mu.Lock()
	g.visitors[v.id] = v
	g.lastSeen[v.id] = now
	g.mu.Unlock()
}

// replace files v under a new id and forgets oldID.
func (g *registry) replace(oldID string, v *visitor, now time.Time) {
	g.mu.Lock()
	delete(g.visitors, oldID)
	delete(g.lastSeen, oldID)
	g.visitors[v.id] = v
	g.lastSeen[v.id] = now
	g.mu.Unlock()
}

// sweep drops visitors not seen since cutoff and reports how many went.
func (g *registry) sweep(cutoff time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for id, seen := range g.lastSeen {
		if seen.Before(cutoff) {
			delete(g.visitors, id)
			delete(g.lastSeen, id)
			n++
		}
	}
	return n
}

func (g *registry) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.visitors)
}

// newVisitorID returns a ULID whose random part comes from crypto/rand, so
// ids minted in the same millisecond share nothing beyond the timestamp.
func newVisitorID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// withVisitor loads the browser's UI state, creating it on first sight. The
// token the browser sends decides the state: a visitor whose controller acts
// with a different token (or with one the browser no longer holds) is not
// reused, and a fresh visitor is built from the request instead.
func (h *Handler) withVisitor(next func(http.ResponseWriter, *http.Request, *visitor)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		token := auth.GetTokenFromRequest(r)
		if c, err := r.Cookie(visitorCookie); err == nil {
			if v, ok := h.visitors.get(c.Value, now); ok {
				if v.ctrl.SessionToken() == token {
					next(w, r, v)
					return
				}
				h.Log.Infow("visitor token mismatch, starting over", "visitor", v.id)
			}
		}

		store := auth.NewCookieStore(r, h.Session.CookieSecure)
		v := &visitor{
			id:    newVisitorID(),
			store: store,
		}
		v.ctrl = view.NewController(h.API, auth.NewManager(store), h.Log.With("visitor", v.id))
		h.visitors.put(v, now)
		h.setVisitorCookie(w, v.id)

		h.Log.Debugw("new visitor", "visitor", v.id, "logged", token != "")
		v.ctrl.Start(r.Context())
		next(w, r, v)
	}
}

// rotate moves v's state to a new id, so an id seen before a login or a
// logout no longer reaches it.
func (h *Handler) rotate(w http.ResponseWriter, v *visitor) *visitor {
	nv := &visitor{id: newVisitorID(), ctrl: v.ctrl, store: v.store}
	h.visitors.replace(v.id, nv, time.Now())
	h.setVisitorCookie(w, nv.id)
	return nv
}

func (h *Handler) setVisitorCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SweepVisitors drops idle visitor state every interval until ctx is done.
// Their token cookie restores the session on the next request.
func (h *Handler) SweepVisitors(ctx context.Context, idle time.Duration) {
	interval := idle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := h.visitors.sweep(now.Add(-idle)); n > 0 {
				h.Log.Infow("swept idle visitors", "count", n, "remaining", h.visitors.len())
			}
		}
	}
}
