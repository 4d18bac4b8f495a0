// Package apitest runs an in-process stand-in for the marketplace API with
// the same routes, payloads and error bodies, for tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"airbnblite/internal/models"
)

var secret = []byte("apitest-secret")

type user struct {
	id   int64
	hash []byte
}

// Server is a fake API. Knobs may be changed between requests.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]user
	listings []models.Listing
	bookings int64
	hits     map[string]int
	lastBody map[string][]byte
	lastAuth map[string]string

	fail map[string]failure
	raw  map[string]string
	hold map[string]chan struct{}
}

type failure struct {
	status int
	msg    string
}

// NewServer starts a fake seeded with three public listings.
func NewServer() *Server {
	s := &Server{
		users:    map[string]user{},
		hits:     map[string]int{},
		lastBody: map[string][]byte{},
		lastAuth: map[string]string{},
		fail:     map[string]failure{},
		raw:      map[string]string{},
		hold:     map[string]chan struct{}{},
		listings: []models.Listing{
			{ID: 1, Title: "Loft céntrico", City: "Asunción", Type: models.TypeApartment, Price: 40, Description: "Cómodo loft en el centro", Image: "https://picsum.photos/seed/1/400/300"},
			{ID: 2, Title: "Casa con jardín", City: "Encarnación", Type: models.TypeHouse, Price: 70, Description: "Casa amplia con jardín", Image: "https://picsum.photos/seed/2/400/300"},
			{ID: 3, Title: "Habitación privada", City: "Ciudad del Este", Type: models.TypeRoom, Price: 20, Description: "Habitación cómoda cerca de todo", Image: "https://picsum.photos/seed/3/400/300"},
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/api/listings", s.allListings).Methods(http.MethodGet)
	r.HandleFunc("/api/my_listings", s.requireToken(s.myListings)).Methods(http.MethodGet)
	r.HandleFunc("/api/create_listing", s.requireToken(s.createListing)).Methods(http.MethodPost)
	r.HandleFunc("/api/book", s.book).Methods(http.MethodPost)
	r.Use(s.knobs)

	s.Server = httptest.NewServer(r)
	return s
}

// FailPath makes path answer status with {"error": msg}, or with an empty
// body when msg is empty.
func (s *Server) FailPath(path string, status int, msg string) {
	s.mu.Lock()
	s.fail[path] = failure{status: status, msg: msg}
	s.mu.Unlock()
}

// RawPath makes path answer 200 with body verbatim.
func (s *Server) RawPath(path, body string) {
	s.mu.Lock()
	s.raw[path] = body
	s.mu.Unlock()
}

// HoldPath stalls requests to path until release is called.
func (s *Server) HoldPath(path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.hold[path] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.hold, path)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Reset clears every knob.
func (s *Server) Reset() {
	s.mu.Lock()
	s.fail = map[string]failure{}
	s.raw = map[string]string{}
	s.mu.Unlock()
}

// SetListings replaces the public collection.
func (s *Server) SetListings(ls []models.Listing) {
	s.mu.Lock()
	s.listings = append([]models.Listing(nil), ls...)
	s.mu.Unlock()
}

// Hits reports how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// LastBody is the raw JSON body of the last request to path.
func (s *Server) LastBody(path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBody[path]
}

// LastAuth is the Authorization header of the last request to path.
func (s *Server) LastAuth(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth[path]
}

// Token mints a valid token for an existing user.
func (s *Server) Token(email string) string {
	s.mu.Lock()
	u := s.users[email]
	s.mu.Unlock()
	return sign(u.id)
}

// AddUser registers an account directly.
func (s *Server) AddUser(email, password string) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.mu.Lock()
	s.users[email] = user{id: int64(len(s.users) + 1), hash: hash}
	s.mu.Unlock()
}

func sign(userID int64) string {
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(7 * 24 * time.Hour).Unix(),
	}).SignedString(secret)
	return tok
}

func (s *Server) knobs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		var body []byte
		if r.Body != nil {
			var raw json.RawMessage
			_ = json.NewDecoder(r.Body).Decode(&raw)
			body = raw
			r.Body = readCloser(body)
		}

		s.mu.Lock()
		s.hits[path]++
		s.lastBody[path] = body
		s.lastAuth[path] = r.Header.Get("Authorization")
		hold := s.hold[path]
		f, failing := s.fail[path]
		raw, isRaw := s.raw[path]
		s.mu.Unlock()

		if hold != nil {
			<-hold
		}
		if failing {
			if f.msg == "" {
				w.WriteHeader(f.status)
				return
			}
			writeJSON(w, f.status, map[string]string{"error": f.msg})
			return
		}
		if isRaw {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(raw))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next func(http.ResponseWriter, *http.Request, int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token requerido"})
			return
		}
		id, ok := parse(h[7:])
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token inválido"})
			return
		}
		next(w, r, id)
	}
}

func parse(token string) (int64, bool) {
	mc := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(token, mc, func(*jwt.Token) (interface{}, error) { return secret, nil })
	if err != nil || !tok.Valid {
		return 0, false
	}
	id, ok := mc["user_id"].(float64)
	return int64(id), ok
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var c models.Credentials
	_ = json.NewDecoder(r.Body).Decode(&c)
	if c.Email == "" || c.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email y password requeridos"})
		return
	}
	s.mu.Lock()
	_, exists := s.users[c.Email]
	s.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email ya registrado"})
		return
	}
	s.AddUser(c.Email, c.Password)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var c models.Credentials
	_ = json.NewDecoder(r.Body).Decode(&c)
	if c.Email == "" || c.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email y password requeridos"})
		return
	}
	s.mu.Lock()
	u, ok := s.users[c.Email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(c.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Credenciales inválidas"})
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{Token: sign(u.id)})
}

func (s *Server) allListings(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]models.Listing{}, s.listings...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) myListings(w http.ResponseWriter, _ *http.Request, userID int64) {
	s.mu.Lock()
	out := []models.Listing{}
	for _, l := range s.listings {
		if l.OwnerID != nil && *l.OwnerID == userID {
			out = append(out, l)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createListing(w http.ResponseWriter, r *http.Request, userID int64) {
	var in models.NewListing
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Title == "" || in.City == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title y city requeridos"})
		return
	}
	s.mu.Lock()
	owner := userID
	l := models.Listing{
		ID:          int64(len(s.listings) + 1),
		OwnerID:     &owner,
		Title:       in.Title,
		City:        in.City,
		Price:       in.Price,
		Type:        in.Type,
		Image:       in.Image,
		Description: in.Description,
	}
	s.listings = append(s.listings, l)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, models.CreateAck{ID: l.ID})
}

func (s *Server) book(w http.ResponseWriter, r *http.Request) {
	var in models.BookingRequest
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.ListingID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "listing_id requerido"})
		return
	}
	s.mu.Lock()
	s.bookings++
	id := s.bookings
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, models.BookingResponse{BookingID: id})
}

func readCloser(b []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
