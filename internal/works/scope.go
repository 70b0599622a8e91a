package works

import (
	"context"
	"net/http"
	"sync"

	"github.com/starford/folio/internal/models"
)

// Scope caches works loaded while serving one request. It must not outlive
// or be shared between requests.
type Scope struct {
	mu    sync.Mutex
	works map[string]*models.Work
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{works: make(map[string]*models.Work)}
}

// Len returns the number of cached works.
func (s *Scope) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.works)
}

func (s *Scope) lookup(name string) (*models.Work, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.works[name]
	return w, ok
}

func (s *Scope) store(w *models.Work) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.works[w.Name] = w
	s.mu.Unlock()
}

type scopeKey struct{}

// WithScope returns a copy of ctx carrying a fresh Scope.
func WithScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, NewScope())
}

// ScopeFrom returns the Scope on ctx, or nil.
func ScopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// ScopeMiddleware attaches a fresh Scope to every request.
func ScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithScope(r.Context())))
	})
}
