// TiCS: disabled // Test helpers.

package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// APIServer is a minimal in-memory implementation of the pokemon REST API for
// tests. Sessions are real HS256 JWTs so the bearer-token handling of the
// client is exercised end to end.
type APIServer struct {
	Username string
	Password string
	Secret   []byte

	// TokenField is the login response field carrying the token.
	// Defaults to access_token.
	TokenField string

	// MaxPerPage, when set, clamps the page size the server honors,
	// regardless of what was requested.
	MaxPerPage int

	Pokemons   []map[string]any
	Attributes map[int]map[string]any
	Combats    []map[string]any

	// LoginCount tracks how many login requests were served.
	LoginCount int
}

// NewAPIServer returns an APIServer with default credentials and secret.
func NewAPIServer() *APIServer {
	return &APIServer{
		Username:   "ash",
		Password:   "pikachu",
		Secret:     []byte("test-secret"),
		TokenField: "access_token",
		Attributes: make(map[int]map[string]any),
	}
}

// Handler returns the http handler serving the API.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /pokemon", s.authenticated(s.handlePokemon))
	mux.HandleFunc("GET /pokemon/{id}", s.authenticated(s.handleAttributes))
	mux.HandleFunc("GET /combats", s.authenticated(s.handleCombats))
	return mux
}

func (s *APIServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.LoginCount++

	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if creds.Username != s.Username || creds.Password != s.Password {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": creds.Username,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		http.Error(w, "could not sign token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{s.TokenField: signed})
}

// authenticated rejects requests without a valid bearer token.
func (s *APIServer) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.Secret, nil
		})
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *APIServer) handlePokemon(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, "pokemons", s.Pokemons)
}

func (s *APIServer) handleCombats(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, "combats", s.Combats)
}

func (s *APIServer) handleAttributes(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	record, ok := s.Attributes[id]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, record)
}

// writePage serves one page of records under key with pagination metadata.
func (s *APIServer) writePage(w http.ResponseWriter, r *http.Request, key string, records []map[string]any) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = 50
	}
	if s.MaxPerPage > 0 && perPage > s.MaxPerPage {
		perPage = s.MaxPerPage
	}

	start := min((page-1)*perPage, len(records))
	end := min(start+perPage, len(records))
	slice := records[start:end]
	if slice == nil {
		slice = []map[string]any{}
	}

	writeJSON(w, map[string]any{
		key:        slice,
		"page":     page,
		"per_page": perPage,
		"total":    len(records),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
