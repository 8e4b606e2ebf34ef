package auth

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func withClock(a *Auth) *clock {
	c := &clock{t: time.Date(2026, 3, 7, 21, 0, 0, 0, time.UTC)}
	a.now = c.now
	return c
}

func TestGeneratePassword_Format(t *testing.T) {
	pw := GeneratePassword()

	parts := strings.Split(pw, "-")
	if len(parts) != 3 {
		t.Fatalf("expected 3 words, got %q", pw)
	}
	for _, part := range parts {
		if !slices.Contains(passwordWords, part) {
			t.Errorf("word %q not in password word list", part)
		}
	}
}

func TestGeneratePassword_Randomness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		seen[GeneratePassword()] = true
	}
	if len(seen) < 3 {
		t.Errorf("expected more variety, got %d unique passwords", len(seen))
	}
}

func TestLogin(t *testing.T) {
	a := New("correct-password")

	if token, ok := a.Login("wrong-password"); ok || token != "" {
		t.Errorf("wrong password: token=%q ok=%v", token, ok)
	}
	if _, ok := a.Login(""); ok {
		t.Error("empty password must not log in")
	}

	token, ok := a.Login("correct-password")
	if !ok || len(token) != 64 {
		t.Fatalf("login: token=%q ok=%v", token, ok)
	}
	if !a.ValidateSession(token) {
		t.Error("expected session to be valid after login")
	}

	a.Logout(token)
	if a.ValidateSession(token) {
		t.Error("expected session to be invalid after logout")
	}
}

func TestValidateSession_Expiry(t *testing.T) {
	a := New("pw")
	c := withClock(a)
	token, _ := a.Login("pw")

	c.t = c.t.Add(SessionExpiry - time.Minute)
	if !a.ValidateSession(token) {
		t.Fatal("session should still be live")
	}

	c.t = c.t.Add(2 * time.Minute)
	if a.ValidateSession(token) {
		t.Error("expected expired session to be invalid")
	}
	if a.ActiveSessions() != 0 {
		t.Error("expected expired session to be removed")
	}
}

func TestPurgeExpired(t *testing.T) {
	a := New("pw")
	c := withClock(a)
	a.Login("pw")
	a.Login("pw")
	c.t = c.t.Add(time.Hour)
	fresh, _ := a.Login("pw")

	c.t = c.t.Add(SessionExpiry - 30*time.Minute)
	if removed := a.PurgeExpired(); removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if a.ActiveSessions() != 1 || !a.ValidateSession(fresh) {
		t.Error("fresh session should survive the purge")
	}
}

func TestGetSessionFromRequest(t *testing.T) {
	a := New("pw")
	token, _ := a.Login("pw")

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   bool
	}{
		{"valid", &http.Cookie{Name: CookieName, Value: token}, true},
		{"no cookie", nil, false},
		{"unknown token", &http.Cookie{Name: CookieName, Value: "nope"}, false},
		{"wrong cookie name", &http.Cookie{Name: "session", Value: token}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if got := a.GetSessionFromRequest(req); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequireAuthAPI(t *testing.T) {
	a := New("pw")
	token, _ := a.Login("pw")
	handler := a.RequireAuthAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/simulation/start", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Errorf("with session: status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/simulation/start", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("without session: status = %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" || !strings.Contains(rr.Body.String(), "UNAUTHORIZED") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestSessionCookies(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, "tok")
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "lottorank_session" || c.Value != "tok" || !c.HttpOnly || c.Path != "/" {
		t.Errorf("cookie = %+v", c)
	}

	rr = httptest.NewRecorder()
	ClearSessionCookie(rr)
	if c := rr.Result().Cookies()[0]; c.MaxAge != -1 {
		t.Errorf("MaxAge = %d, want -1", c.MaxAge)
	}
}

func TestConcurrentSessionAccess(t *testing.T) {
	a := New("pw")
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, _ := a.Login("pw")
			a.ValidateSession(token)
			a.PurgeExpired()
			a.Logout(token)
		}()
	}
	wg.Wait()
	if a.ActiveSessions() != 0 {
		t.Errorf("sessions left = %d", a.ActiveSessions())
	}
}
