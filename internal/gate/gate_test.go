package gate

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hversson/atrium/internal/session"
	"github.com/hversson/atrium/internal/testutil"
)

func testGate(t *testing.T) *Gate {
	t.Helper()
	rules, err := Compile(
		[]string{"/"},
		map[string][]string{"admin": {"^/admin"}},
		"/admin/home",
	)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return New(rules)
}

// serve runs a request through session middleware + gate with an optional
// token cookie and returns the recorder.
func serve(t *testing.T, g *Gate, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	m := session.NewManager("accessToken", testutil.Secret)

	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h = m.Middleware(g.Middleware(h))

	r := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: token})
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestAnonymousPublicRouteAllowed(t *testing.T) {
	w := serve(t, testGate(t), "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestAnonymousRedirectCarriesPath(t *testing.T) {
	w := serve(t, testGate(t), "/admin/blog", "")
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Path != "/" {
		t.Errorf("redirect path = %q, want /", loc.Path)
	}
	if got := loc.Query().Get(RedirectParam); got != "/admin/blog" {
		t.Errorf("%s = %q, want /admin/blog", RedirectParam, got)
	}
}

func TestAuthenticatedRootRedirectsToLanding(t *testing.T) {
	token := testutil.MintToken(t, testutil.AdminUser())
	w := serve(t, testGate(t), "/", token)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/admin/home" {
		t.Errorf("location = %q, want /admin/home", loc)
	}
}

func TestAuthorizedPathAllowed(t *testing.T) {
	token := testutil.MintToken(t, testutil.AdminUser())
	w := serve(t, testGate(t), "/admin/skill", token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestRoleWithoutMatchingPatternRedirectsToRoot(t *testing.T) {
	user := testutil.AdminUser()
	user.Role = "viewer" // no registered patterns
	token := testutil.MintToken(t, user)

	w := serve(t, testGate(t), "/admin/skill", token)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("location = %q, want /", loc)
	}
}

func TestSwapReplacesRules(t *testing.T) {
	g := testGate(t)
	token := testutil.MintToken(t, testutil.AdminUser())

	if w := serve(t, g, "/admin/skill", token); w.Code != http.StatusOK {
		t.Fatalf("before swap: status = %d", w.Code)
	}

	// Narrow the admin allow-list to /admin/home only.
	rules, err := Compile([]string{"/"}, map[string][]string{"admin": {"^/admin/home$"}}, "/admin/home")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	g.Swap(rules)

	if w := serve(t, g, "/admin/skill", token); w.Code != http.StatusSeeOther {
		t.Errorf("after swap: status = %d, want 303", w.Code)
	}
}

func TestCompileRejectsBadPattern(t *testing.T) {
	if _, err := Compile([]string{"/"}, map[string][]string{"admin": {"["}}, "/admin/home"); err == nil {
		t.Fatal("want error for invalid pattern")
	}
}
