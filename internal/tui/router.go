package tui

import (
	"sync"

	"github.com/jask/vaultwallet/internal/service"
)

const (
	RouteWallet = service.WalletRoute
	RouteRemove = "/settings/account/remove"
)

// Router holds the current route. Push may be called from command goroutines.
type Router struct {
	mu      sync.Mutex
	history []string
}

func NewRouter(start string) *Router {
	return &Router{history: []string{start}}
}

// Push navigates to path. A path already on the stack unwinds back to it.
func (r *Router) Push(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.history {
		if p == path {
			r.history = r.history[:i+1]
			return
		}
	}
	r.history = append(r.history, path)
}

// Back returns to the previous route; the first route is never popped.
func (r *Router) Back() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) > 1 {
		r.history = r.history[:len(r.history)-1]
	}
}

func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[len(r.history)-1]
}
