// Package gate enforces route authorization. Every navigation is checked
// before any handler runs: anonymous requests may only reach public routes,
// authenticated users may only reach paths their role's pattern allow-list
// matches, and everything else redirects to the public root.
package gate

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sync"

	"github.com/hversson/atrium/internal/session"
)

// RedirectParam carries the originally requested path through the login
// redirect so the browser can return after authenticating.
const RedirectParam = "redirectPath"

// Rules is a compiled, immutable authorization rule set.
type Rules struct {
	public  map[string]struct{}
	roles   map[string][]*regexp.Regexp
	landing string
}

// Compile builds a rule set from the raw configuration. Every role pattern
// must be a valid regular expression.
func Compile(publicRoutes []string, roles map[string][]string, landing string) (*Rules, error) {
	r := &Rules{
		public:  make(map[string]struct{}, len(publicRoutes)),
		roles:   make(map[string][]*regexp.Regexp, len(roles)),
		landing: landing,
	}
	for _, p := range publicRoutes {
		r.public[p] = struct{}{}
	}
	for role, patterns := range roles {
		compiled := make([]*regexp.Regexp, 0, len(patterns))
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("gate: role %q pattern %q: %w", role, p, err)
			}
			compiled = append(compiled, re)
		}
		r.roles[role] = compiled
	}
	return r, nil
}

// Gate evaluates navigation requests against a swappable rule set.
type Gate struct {
	mu    sync.RWMutex
	rules *Rules
}

// New creates a Gate with the initial rule set.
func New(rules *Rules) *Gate {
	return &Gate{rules: rules}
}

// Swap atomically replaces the rule set. Used by the config watcher.
func (g *Gate) Swap(rules *Rules) {
	g.mu.Lock()
	g.rules = rules
	g.mu.Unlock()
}

func (g *Gate) current() *Rules {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rules
}

// Middleware runs the authorization state machine. It relies on the session
// middleware having resolved identity into the request context already.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rules := g.current()
		path := r.URL.Path
		user, authed := session.UserFrom(r.Context())

		if !authed {
			if _, ok := rules.public[path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			// Carry the original destination for post-login redirect.
			target := "/?" + RedirectParam + "=" + url.QueryEscape(path)
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}

		if _, ok := rules.public[path]; ok {
			http.Redirect(w, r, rules.landing, http.StatusSeeOther)
			return
		}

		for _, re := range rules.roles[user.Role] {
			if re.MatchString(path) {
				next.ServeHTTP(w, r)
				return
			}
		}

		// Authorized for nothing here: back to the public root.
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}
