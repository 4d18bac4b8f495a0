package auth

import (
	"net/http"
	"sync"
)

// Store persists one session token.
type Store interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *MemoryStore) Save(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	return s.Save("")
}

// CookieStore keeps the token in memory and mirrors it into the browser's
// "token" cookie. Writes are buffered until Flush because a cookie can only
// be set while a response is being written.
type CookieStore struct {
	MemoryStore
	secure bool
	dirty  bool
}

// NewCookieStore seeds the store from the request's cookie.
func NewCookieStore(r *http.Request, secure bool) *CookieStore {
	s := &CookieStore{secure: secure}
	if c, err := r.Cookie(TokenKey); err == nil {
		s.token = c.Value
	}
	return s
}

func (s *CookieStore) Save(token string) error {
	s.mu.Lock()
	s.token = token
	s.dirty = true
	s.mu.Unlock()
	return nil
}

func (s *CookieStore) Clear() error {
	return s.Save("")
}

// Flush writes pending changes as a Set-Cookie header. It must run before the
// response body.
func (s *CookieStore) Flush(w http.ResponseWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return
	}
	s.dirty = false

	cookie := &http.Cookie{
		Name:     TokenKey,
		Value:    s.token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.token == "" {
		cookie.MaxAge = -1
	} else {
		// long lived, like localStorage; the API decides when a token is dead
		cookie.MaxAge = 365 * 24 * 60 * 60
	}
	http.SetCookie(w, cookie)
}
