// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flamego/csrf"
	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/humaidq/tally/db"
	"github.com/humaidq/tally/finance"
)

type testSession struct {
	id    string
	data  map[interface{}]interface{}
	flash interface{}
}

func newTestSession() *testSession {
	return &testSession{
		id:   "test-session",
		data: make(map[interface{}]interface{}),
	}
}

func (s *testSession) ID() string {
	return s.id
}

func (s *testSession) RegenerateID(http.ResponseWriter, *http.Request) error {
	return nil
}

func (s *testSession) Get(key interface{}) interface{} {
	return s.data[key]
}

func (s *testSession) Set(key, val interface{}) {
	s.data[key] = val
}

func (s *testSession) SetFlash(val interface{}) {
	s.flash = val
}

func (s *testSession) Delete(key interface{}) {
	delete(s.data, key)
}

func (s *testSession) Flush() {
	s.data = make(map[interface{}]interface{})
}

func (s *testSession) Encode() ([]byte, error) {
	return nil, nil
}

func (s *testSession) HasChanged() bool {
	return true
}

type testCSRF struct {
	token string
}

func (c testCSRF) Token() string {
	return c.token
}

func (c testCSRF) ValidToken(string) bool {
	return true
}

func (c testCSRF) Error(http.ResponseWriter) {}

func (c testCSRF) Validate(flamego.Context) {}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()

	tm, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}

	return tm
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("failed to parse decimal %q: %v", value, err)
	}

	return d
}

func TestSetFlashHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		set     func(session.Session, string)
		wantTyp FlashType
	}{
		{name: "error", set: SetErrorFlash, wantTyp: FlashError},
		{name: "success", set: SetSuccessFlash, wantTyp: FlashSuccess},
		{name: "warning", set: SetWarningFlash, wantTyp: FlashWarning},
		{name: "info", set: SetInfoFlash, wantTyp: FlashInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestSession()
			tt.set(s, "hello")

			msg, ok := s.flash.(FlashMessage)
			if !ok {
				t.Fatalf("flash has unexpected type: %T", s.flash)
			}

			if msg.Type != tt.wantTyp || msg.Message != "hello" {
				t.Fatalf("unexpected flash message: %#v", msg)
			}
		})
	}
}

func TestFlashInjector(t *testing.T) {
	t.Parallel()

	handler, ok := FlashInjector().(func(session.Flash, template.Data))
	if !ok {
		t.Fatalf("unexpected FlashInjector handler type")
	}

	data := template.Data{}
	handler(FlashMessage{Type: FlashSuccess, Message: "Saved"}, data)

	if got, ok := data["Flash"].(FlashMessage); !ok || got.Message != "Saved" {
		t.Fatalf("unexpected Flash value: %#v", data["Flash"])
	}

	empty := template.Data{}
	handler(nil, empty)

	if _, ok := empty["Flash"]; ok {
		t.Fatalf("expected no Flash for nil flash, got %#v", empty["Flash"])
	}
}

func TestCSRFInjector(t *testing.T) {
	t.Parallel()

	handler, ok := CSRFInjector().(func(csrf.CSRF, template.Data))
	if !ok {
		t.Fatalf("unexpected CSRFInjector handler type")
	}

	data := template.Data{}
	handler(testCSRF{token: "csrf-123"}, data)

	if got, ok := data["csrf_token"].(string); !ok || got != "csrf-123" {
		t.Fatalf("unexpected csrf_token value: %#v", data["csrf_token"])
	}
}

func TestNoCacheHeaders(t *testing.T) {
	t.Parallel()

	f := flamego.New()
	f.Use(NoCacheHeaders())
	f.Get("/", func(c flamego.Context) {
		c.ResponseWriter().WriteHeader(http.StatusNoContent)
	})
	f.Post("/", func(c flamego.Context) {
		c.ResponseWriter().WriteHeader(http.StatusNoContent)
	})

	getReq := httptest.NewRequest(http.MethodGet, "/", nil)
	getRec := httptest.NewRecorder()
	f.ServeHTTP(getRec, getReq)

	if got := getRec.Header().Get("Cache-Control"); got != "no-store, max-age=0" {
		t.Fatalf("unexpected Cache-Control for GET: %q", got)
	}

	if got := getRec.Header().Get("Pragma"); got != "no-cache" {
		t.Fatalf("unexpected Pragma for GET: %q", got)
	}

	if got := getRec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("unexpected X-Frame-Options for GET: %q", got)
	}

	postReq := httptest.NewRequest(http.MethodPost, "/", nil)
	postRec := httptest.NewRecorder()
	f.ServeHTTP(postRec, postReq)

	if got := postRec.Header().Get("Cache-Control"); got != "" {
		t.Fatalf("expected no Cache-Control for POST, got %q", got)
	}

	if got := postRec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("unexpected X-Content-Type-Options for POST: %q", got)
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{name: "forwarded for", forwarded: " 203.0.113.4, 198.51.100.2 ", remoteAddr: "10.0.0.1:1234", want: "203.0.113.4"},
		{name: "remote addr", remoteAddr: "192.0.2.10:8080", want: "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got string

			f := flamego.New()
			f.Get("/", func(c flamego.Context) {
				got = clientIP(c)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr

			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			f.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Fatalf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionAuthInfo(t *testing.T) {
	t.Parallel()

	s := newTestSession()
	if authenticated, userID := sessionAuthInfo(s); authenticated || userID != "" {
		t.Fatalf("expected unauthenticated session, got authenticated=%v userID=%q", authenticated, userID)
	}

	s.Set("authenticated", true)

	userID := uuid.NewString()
	s.Set("user_id", userID)

	if authenticated, gotUserID := sessionAuthInfo(s); !authenticated || gotUserID != userID {
		t.Fatalf("expected authenticated session with user id, got authenticated=%v userID=%q", authenticated, gotUserID)
	}
}

func TestSessionUser(t *testing.T) {
	t.Parallel()

	s := newTestSession()
	if _, err := sessionUser(s); !errors.Is(err, errSessionUserMissing) {
		t.Fatalf("expected errSessionUserMissing, got %v", err)
	}

	s.Set(sessionKeyUserID, "not-a-uuid")

	if _, err := sessionUser(s); !errors.Is(err, errSessionUserMissing) {
		t.Fatalf("expected errSessionUserMissing for malformed id, got %v", err)
	}

	user := &db.User{ID: uuid.New(), DisplayName: "Humaid", Currency: "AED"}
	storeSessionUser(s, user)

	got, err := sessionUser(s)
	if err != nil {
		t.Fatalf("sessionUser() error = %v", err)
	}

	if got.ID != user.ID || got.DisplayName != "Humaid" || got.Currency != "AED" {
		t.Fatalf("unexpected session user: %#v", got)
	}

	s.Delete(sessionKeyCurrency)

	got, err = sessionUser(s)
	if err != nil {
		t.Fatalf("sessionUser() error = %v", err)
	}

	if got.Currency != finance.DefaultCurrency {
		t.Fatalf("expected default currency, got %q", got.Currency)
	}

	s.Set(vaultUnlockSessionKey, time.Now().Unix())
	clearSessionUser(s)

	for _, key := range []string{sessionKeyAuthenticated, sessionKeyUserID, sessionKeyDisplayName, vaultUnlockSessionKey} {
		if s.Get(key) != nil {
			t.Fatalf("expected %q to be cleared", key)
		}
	}
}

func TestUserContextInjector(t *testing.T) {
	t.Parallel()

	handler, ok := UserContextInjector().(func(session.Session, template.Data))
	if !ok {
		t.Fatalf("unexpected UserContextInjector handler type")
	}

	anonymous := template.Data{}
	handler(newTestSession(), anonymous)

	if anonymous["IsAuthenticated"] != false || anonymous["Currency"] != finance.DefaultCurrency {
		t.Fatalf("unexpected anonymous data: %#v", anonymous)
	}

	s := newTestSession()
	storeSessionUser(s, &db.User{ID: uuid.New(), DisplayName: "Humaid", Currency: "USD"})

	data := template.Data{}
	handler(s, data)

	if data["IsAuthenticated"] != true || data["UserDisplayName"] != "Humaid" || data["Currency"] != "USD" {
		t.Fatalf("unexpected authenticated data: %#v", data)
	}
}

func TestVaultAccessHelpers(t *testing.T) {
	t.Parallel()

	now := mustParseTime(t, "2026-02-11T10:00:00Z")
	s := newTestSession()

	if HasVaultAccess(s, now) {
		t.Fatal("expected no vault access when timestamp is missing")
	}

	s.Set(vaultUnlockSessionKey, now.Add(-5*time.Minute).Unix())

	if !HasVaultAccess(s, now) {
		t.Fatal("expected vault access within window")
	}

	s.Set(vaultUnlockSessionKey, now.Add(-vaultUnlockWindow-time.Second).Unix())

	if HasVaultAccess(s, now) {
		t.Fatal("expected vault access to expire")
	}

	s.Set(vaultUnlockSessionKey, int(now.Unix()))

	if _, ok := getVaultUnlockTime(s); !ok {
		t.Fatal("expected int timestamp to be supported")
	}

	s.Set(vaultUnlockSessionKey, now)

	if got, ok := getVaultUnlockTime(s); !ok || !got.Equal(now) {
		t.Fatalf("expected time.Time timestamp, got %v ok=%v", got, ok)
	}

	s.Set(vaultUnlockSessionKey, struct{}{})

	if _, ok := getVaultUnlockTime(s); ok {
		t.Fatal("expected unknown type to be rejected")
	}
}

func TestSanitizeNextPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: "/passwords"},
		{raw: "not/absolute", want: "/passwords"},
		{raw: "//double", want: "/passwords"},
		{raw: "/passwords/new", want: "/passwords/new"},
		{raw: "/passwords?q=bank", want: "/passwords?q=bank"},
		{raw: "https://evil.example/passwords/new?x=1", want: "/passwords/new?x=1"},
		{raw: "https://evil.example", want: "/passwords"},
		{raw: "/passwords/unlock?next=/passwords", want: "/passwords"},
		{raw: "/safe\\npath", want: "/passwords"},
		{raw: "/back\\slash", want: "/passwords"},
	}

	for _, tt := range tests {
		raw := strings.ReplaceAll(tt.raw, "\\n", "\n")
		if got := sanitizeNextPath(raw); got != tt.want {
			t.Fatalf("sanitizeNextPath(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseFormDates(t *testing.T) {
	t.Parallel()

	now := mustParseTime(t, "2026-03-15T22:30:00+04:00")

	parsed, err := parseFormDate(" 2026-01-31 ")
	if err != nil || !parsed.Equal(time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("parseFormDate() = %v, %v", parsed, err)
	}

	if _, err := parseFormDate(""); !errors.Is(err, errMissingDate) {
		t.Fatalf("expected errMissingDate, got %v", err)
	}

	if _, err := parseFormDate("31/01/2026"); !errors.Is(err, errInvalidDate) {
		t.Fatalf("expected errInvalidDate, got %v", err)
	}

	fallback, err := parseFormDateOrToday("", now)
	if err != nil || !fallback.Equal(time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("parseFormDateOrToday() = %v, %v", fallback, err)
	}

	optional, err := parseOptionalFormDate("  ")
	if err != nil || optional != nil {
		t.Fatalf("parseOptionalFormDate(blank) = %v, %v", optional, err)
	}

	if _, err := parseOptionalFormDate("2026-13-01"); !errors.Is(err, errInvalidDate) {
		t.Fatalf("expected errInvalidDate, got %v", err)
	}
}

func TestParseOptionalAmount(t *testing.T) {
	t.Parallel()

	zero, err := parseOptionalAmount(" ")
	if err != nil || !zero.IsZero() {
		t.Fatalf("parseOptionalAmount(blank) = %v, %v", zero, err)
	}

	amount, err := parseOptionalAmount("12.50")
	if err != nil || !amount.Equal(mustDecimal(t, "12.5")) {
		t.Fatalf("parseOptionalAmount(12.50) = %v, %v", amount, err)
	}

	if _, err := parseOptionalAmount("twelve"); err == nil {
		t.Fatal("expected error for non-numeric amount")
	}
}

func TestNewMonthNav(t *testing.T) {
	t.Parallel()

	nav := newMonthNav(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))

	if nav.Label != "January 2026" || nav.Value != "2026-01" {
		t.Fatalf("unexpected label/value: %#v", nav)
	}

	if nav.Previous != "2025-12" || nav.Next != "2026-02" {
		t.Fatalf("unexpected previous/next: %#v", nav)
	}
}

func TestSelectedMonth(t *testing.T) {
	t.Parallel()

	now := mustParseTime(t, "2026-05-20T12:00:00Z")

	tests := []struct {
		query  string
		want   time.Time
		wantOK bool
	}{
		{query: "", want: time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC), wantOK: true},
		{query: "?month=2025-11", want: time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC), wantOK: true},
		{query: "?month=bogus", want: time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC), wantOK: false},
	}

	for _, tt := range tests {
		var (
			got   time.Time
			gotOK bool
		)

		f := flamego.New()
		f.Get("/", func(c flamego.Context) {
			got, gotOK = selectedMonth(c, now)
		})

		f.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))

		if !got.Equal(tt.want) || gotOK != tt.wantOK {
			t.Fatalf("selectedMonth(%q) = %v, %v; want %v, %v", tt.query, got, gotOK, tt.want, tt.wantOK)
		}
	}
}

func TestMutationErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
		ok   bool
	}{
		{err: db.ErrAccountNotFound, want: "Account not found", ok: true},
		{err: fmt.Errorf("wrapped: %w", finance.ErrInsufficientQuantity), want: "Cannot sell more than the quantity held", ok: true},
		{err: db.ErrTargetExists, want: "A target for this category and month already exists", ok: true},
		{err: errVaultUnavailable, want: "Password vault is not configured", ok: true},
		{err: errors.New("connection reset"), want: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := mutationErrorMessage(tt.err)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("mutationErrorMessage(%v) = %q, %v; want %q, %v", tt.err, got, ok, tt.want, tt.ok)
		}
	}

	s := newTestSession()
	setMutationErrorFlash(s, errors.New("connection reset"), "Failed to save")

	if msg, _ := s.flash.(FlashMessage); msg.Message != "Failed to save" {
		t.Fatalf("expected fallback flash, got %#v", s.flash)
	}
}

func TestGetOptionalString(t *testing.T) {
	t.Parallel()

	if got := getOptionalString("   "); got != nil {
		t.Fatalf("expected nil for blank value, got %q", *got)
	}

	if got := getOptionalString("  lunch "); got == nil || *got != "lunch" {
		t.Fatalf("expected trimmed value, got %v", got)
	}
}

func TestTitleCase(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":     "",
		"loan": "Loan",
		"debt": "Debt",
	}

	for in, want := range tests {
		if got := titleCase(in); got != want {
			t.Fatalf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
