package dashboard

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	sessionCookieName = "riskscorer_session"
	sessionDuration   = 24 * time.Hour

	maxLoginFailures = 5
	failureWindow    = 10 * time.Minute
	lockoutDuration  = 15 * time.Minute
)

type session struct {
	token     string
	createdAt time.Time
}

type loginFailures struct {
	attempts    []time.Time
	lockedUntil time.Time
}

// Auth manages access-code authentication and session tokens for the dashboard.
type Auth struct {
	accessCode string
	sessions   map[string]session
	failures   map[string]*loginFailures
	now        func() time.Time
	mu         sync.RWMutex
}

// NewAuth generates a random 8-digit access code and returns a new Auth instance.
func NewAuth() *Auth {
	return &Auth{
		accessCode: generateAccessCode(),
		sessions:   make(map[string]session),
		failures:   make(map[string]*loginFailures),
		now:        time.Now,
	}
}

// AccessCode returns the code the user must enter to authenticate.
func (a *Auth) AccessCode() string {
	return a.accessCode
}

// ValidateCode reports whether code is the access code, in constant time.
func (a *Auth) ValidateCode(code string) bool {
	return subtle.ConstantTimeCompare([]byte(code), []byte(a.accessCode)) == 1
}

// CreateSession generates a session token and stores it.
func (a *Auth) CreateSession() string {
	token := generateSessionToken()
	a.mu.Lock()
	a.sessions[token] = session{token: token, createdAt: a.now()}
	a.mu.Unlock()
	return token
}

// ValidateSession checks if a session token is valid and not expired.
func (a *Auth) ValidateSession(token string) bool {
	a.mu.RLock()
	s, ok := a.sessions[token]
	a.mu.RUnlock()
	if !ok {
		return false
	}
	return a.now().Sub(s.createdAt) < sessionDuration
}

// InvalidateSession forgets a token.
func (a *Auth) InvalidateSession(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

// PruneExpired drops expired sessions and returns their tokens.
func (a *Auth) PruneExpired() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var expired []string
	now := a.now()
	for token, s := range a.sessions {
		if now.Sub(s.createdAt) >= sessionDuration {
			expired = append(expired, token)
			delete(a.sessions, token)
		}
	}
	return expired
}

// CheckRateLimit reports whether ip may attempt a login, and if not, how
// long until it may.
func (a *Auth) CheckRateLimit(ip string) (bool, time.Duration) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	f, ok := a.failures[ip]
	if !ok {
		return true, 0
	}
	if wait := f.lockedUntil.Sub(a.now()); wait > 0 {
		return false, wait
	}
	return true, 0
}

// RecordFailure counts a failed login and returns the lockout it triggered,
// or zero.
func (a *Auth) RecordFailure(ip string) time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	f, ok := a.failures[ip]
	if !ok {
		f = &loginFailures{}
		a.failures[ip] = f
	}

	cutoff := now.Add(-failureWindow)
	fresh := f.attempts[:0]
	for _, ts := range f.attempts {
		if ts.After(cutoff) {
			fresh = append(fresh, ts)
		}
	}
	f.attempts = append(fresh, now)

	if len(f.attempts) >= maxLoginFailures {
		f.attempts = nil
		f.lockedUntil = now.Add(lockoutDuration)
		return lockoutDuration
	}
	return 0
}

// RecordSuccess clears the failure history for ip.
func (a *Auth) RecordSuccess(ip string) {
	a.mu.Lock()
	delete(a.failures, ip)
	a.mu.Unlock()
}

// Middleware protects dashboard routes, redirecting unauthenticated requests to login.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dashboard/login" {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || !a.ValidateSession(cookie.Value) {
			http.Redirect(w, r, "/dashboard/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// generateAccessCode returns a random 8-digit numeric code.
func generateAccessCode() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(100_000_000))
	return fmt.Sprintf("%08d", n.Int64())
}

// generateSessionToken returns a cryptographically random hex string.
func generateSessionToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x", b)
}
