// Package bitwardentest provides an in-process emulation of the Secrets
// Manager identity and API services for tests.
package bitwardentest

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jonwraymond/bwsproxy/bitwarden"
)

// ClientSecret is the client secret embedded in AccessToken.
const ClientSecret = "bitwardentest-client-secret"

// Secret is a plaintext secret served by a Server.
type Secret struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	ProjectID      *uuid.UUID
	Key            string
	Value          string
	Note           string
	CreationDate   time.Time
	RevisionDate   time.Time
}

type cannedResponse struct {
	status int
	body   string
}

// Server emulates both upstream services on one listener. Identity lives
// under /identity and the API under /api.
type Server struct {
	*httptest.Server

	// AccessToken is a valid machine-account token for OrganizationID.
	AccessToken string

	// OrganizationID is the organization the token belongs to.
	OrganizationID uuid.UUID

	token       *bitwarden.AccessToken
	orgKeyBytes []byte
	orgKey      *bitwarden.SymmetricKey
	signingKey  []byte

	mu        sync.Mutex
	secrets   map[uuid.UUID]Secret
	canned    map[uuid.UUID]cannedResponse
	login     *cannedResponse
	issued    map[string]bool
	logins    int
	fetches   int
	lastForm  url.Values
	lastHeads http.Header
}

// NewServer starts a Server that is closed when t finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()

	tokenKey := randomBytes(t, 16)
	tokenID := uuid.New()
	accessToken := "0." + tokenID.String() + "." + ClientSecret + ":" +
		base64.StdEncoding.EncodeToString(tokenKey)

	parsed, err := bitwarden.ParseAccessToken(accessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}

	orgKeyBytes := randomBytes(t, 64)
	orgKey, err := bitwarden.SymmetricKeyFromBytes(orgKeyBytes)
	if err != nil {
		t.Fatalf("SymmetricKeyFromBytes() error = %v", err)
	}

	s := &Server{
		AccessToken:    accessToken,
		OrganizationID: uuid.New(),
		token:          parsed,
		orgKeyBytes:    orgKeyBytes,
		orgKey:         orgKey,
		signingKey:     randomBytes(t, 32),
		secrets:        make(map[uuid.UUID]Secret),
		canned:         make(map[uuid.UUID]cannedResponse),
		issued:         make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /identity/connect/token", s.handleLogin)
	mux.HandleFunc("GET /api/secrets/{id}", s.handleSecret)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	return s
}

// Settings returns client settings pointing at s.
func (s *Server) Settings() bitwarden.Settings {
	return bitwarden.Settings{
		IdentityURL: s.URL + "/identity",
		APIURL:      s.URL + "/api",
		HTTPClient:  s.Client(),
	}
}

// AddSecret stores sec. A zero OrganizationID defaults to s.OrganizationID
// and zero dates default to now.
func (s *Server) AddSecret(sec Secret) Secret {
	if sec.ID == uuid.Nil {
		sec.ID = uuid.New()
	}
	if sec.OrganizationID == uuid.Nil {
		sec.OrganizationID = s.OrganizationID
	}
	now := time.Now().UTC().Truncate(time.Second)
	if sec.CreationDate.IsZero() {
		sec.CreationDate = now
	}
	if sec.RevisionDate.IsZero() {
		sec.RevisionDate = now
	}

	s.mu.Lock()
	s.secrets[sec.ID] = sec
	s.mu.Unlock()
	return sec
}

// SetSecretResponse makes GET /secrets/{id} answer with status and body.
func (s *Server) SetSecretResponse(id uuid.UUID, status int, body string) {
	s.mu.Lock()
	s.canned[id] = cannedResponse{status: status, body: body}
	s.mu.Unlock()
}

// SetLoginResponse makes every login answer with status and body.
func (s *Server) SetLoginResponse(status int, body string) {
	s.mu.Lock()
	s.login = &cannedResponse{status: status, body: body}
	s.mu.Unlock()
}

// Encrypt encrypts plain under the organization key.
func (s *Server) Encrypt(t testing.TB, plain string) string {
	t.Helper()
	enc, err := s.orgKey.Encrypt([]byte(plain))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	return enc
}

// Logins returns the number of login requests received.
func (s *Server) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// Fetches returns the number of secret requests received.
func (s *Server) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// LastLogin returns the form and headers of the most recent login request.
func (s *Server) LastLogin() (url.Values, http.Header) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastForm, s.lastHeads
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	s.mu.Lock()
	s.logins++
	s.lastForm = r.PostForm
	s.lastHeads = r.Header.Clone()
	canned := s.login
	s.mu.Unlock()

	if canned != nil {
		writeBody(w, canned.status, canned.body)
		return
	}

	form := r.PostForm
	if form.Get("grant_type") != "client_credentials" ||
		form.Get("scope") != "api.secrets" ||
		form.Get("client_id") != s.token.ID.String() ||
		form.Get("client_secret") != ClientSecret {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "invalid_client",
			"error_description": "invalid_client",
		})
		return
	}

	now := time.Now()
	bearer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":          s.token.ID.String(),
		"organization": s.OrganizationID.String(),
		"scope":        []string{"api.secrets"},
		"iat":          now.Unix(),
		"exp":          now.Add(time.Hour).Unix(),
	}).SignedString(s.signingKey)
	if err != nil {
		writeBody(w, http.StatusInternalServerError, err.Error())
		return
	}

	payload, _ := json.Marshal(map[string]string{
		"encryptionKey": base64.StdEncoding.EncodeToString(s.orgKeyBytes),
	})
	payloadKey, err := s.token.PayloadKey()
	if err != nil {
		writeBody(w, http.StatusInternalServerError, err.Error())
		return
	}
	encrypted, err := payloadKey.Encrypt(payload)
	if err != nil {
		writeBody(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	s.issued[bearer] = true
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":      bearer,
		"expires_in":        3600,
		"token_type":        "Bearer",
		"scope":             "api.secrets",
		"encrypted_payload": encrypted,
	})
}

func (s *Server) handleSecret(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.fetches++
	authorized := s.issued[bearerToken(r)]
	s.mu.Unlock()

	if !authorized {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "The request is invalid."})
		return
	}

	s.mu.Lock()
	canned, hasCanned := s.canned[id]
	sec, found := s.secrets[id]
	s.mu.Unlock()

	if hasCanned {
		writeBody(w, canned.status, canned.body)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Resource not found."})
		return
	}

	model := map[string]any{
		"object":         "secret",
		"id":             sec.ID,
		"organizationId": sec.OrganizationID,
		"projectId":      sec.ProjectID,
		"key":            s.seal(sec.Key),
		"value":          s.seal(sec.Value),
		"creationDate":   sec.CreationDate.Format(time.RFC3339Nano),
		"revisionDate":   sec.RevisionDate.Format(time.RFC3339Nano),
	}
	if sec.Note != "" {
		model["note"] = s.seal(sec.Note)
	}
	if sec.ProjectID != nil {
		model["projects"] = []map[string]any{{"id": sec.ProjectID, "name": "project"}}
	}
	writeJSON(w, http.StatusOK, model)
}

func (s *Server) seal(plain string) string {
	enc, err := s.orgKey.Encrypt([]byte(plain))
	if err != nil {
		panic(err)
	}
	return enc
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) {
		return ""
	}
	return h[len(prefix):]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func randomBytes(t testing.TB, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read() error = %v", err)
	}
	return b
}
