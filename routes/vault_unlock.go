/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/tally/db"
)

const (
	vaultUnlockSessionKey = "vault_unlocked_at"
	vaultUnlockWindow     = 10 * time.Minute
	defaultNextPath       = "/passwords"
)

var verifyPasswordDBFn = db.VerifyPassword

// VaultUnlockForm asks for the login password before the password vault opens.
func VaultUnlockForm(c flamego.Context, t template.Template, data template.Data) {
	data["Next"] = sanitizeNextPath(c.Query("next"))
	data["IsPasswords"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Passwords", URL: "/passwords"},
		{Name: "Unlock", URL: "/passwords/unlock", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "vault_unlock")
}

// UnlockVault re-checks the login password and opens the vault for a while.
func UnlockVault(c flamego.Context, s session.Session, user CurrentUser) {
	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing unlock form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/passwords/unlock", http.StatusSeeOther)

		return
	}

	form := c.Request().Form
	next := sanitizeNextPath(form.Get("next"))
	retryURL := "/passwords/unlock?next=" + url.QueryEscape(next)

	if err := verifyPasswordDBFn(c.Request().Context(), user.ID, form.Get("password")); err != nil {
		if errors.Is(err, db.ErrInvalidCredentials) {
			logAccessDenied(c, s, "vault_unlock_failed", http.StatusSeeOther, retryURL)
			SetErrorFlash(s, "Incorrect password")
		} else {
			logger.Error("Error verifying password", "error", err)
			SetErrorFlash(s, "Failed to unlock")
		}

		c.Redirect(retryURL, http.StatusSeeOther)

		return
	}

	s.Set(vaultUnlockSessionKey, time.Now().Unix())
	c.Redirect(next, http.StatusSeeOther)
}

// LockVault closes the vault for this session.
func LockVault(s session.Session, c flamego.Context) {
	s.Delete(vaultUnlockSessionKey)
	SetInfoFlash(s, "Password vault locked")
	c.Redirect("/", http.StatusSeeOther)
}

// RequireVaultUnlock redirects to the unlock page unless the vault was
// unlocked recently.
func RequireVaultUnlock(s session.Session, c flamego.Context, data template.Data) {
	now := time.Now()
	if HasVaultAccess(s, now) {
		if unlockedAt, ok := getVaultUnlockTime(s); ok {
			data["VaultExpiresAt"] = unlockedAt.Add(vaultUnlockWindow).Unix()
		}

		c.Next()

		return
	}

	request := c.Request()

	next := request.URL.RequestURI()
	if request.Method != http.MethodGet && request.Method != http.MethodHead {
		next = request.Header.Get("Referer")
	}

	next = sanitizeNextPath(next)
	logAccessDenied(c, s, "vault_locked", http.StatusSeeOther, "/passwords/unlock", "next", next)
	c.Redirect("/passwords/unlock?next="+url.QueryEscape(next), http.StatusSeeOther)
}

// HasVaultAccess returns true if the session is within the unlock window.
func HasVaultAccess(s session.Session, now time.Time) bool {
	stamp, ok := getVaultUnlockTime(s)
	if !ok {
		return false
	}

	return now.Sub(stamp) <= vaultUnlockWindow
}

func getVaultUnlockTime(s session.Session) (time.Time, bool) {
	val := s.Get(vaultUnlockSessionKey)
	if val == nil {
		return time.Time{}, false
	}

	switch v := val.(type) {
	case int64:
		return time.Unix(v, 0), true
	case int:
		return time.Unix(int64(v), 0), true
	case time.Time:
		return v, true
	default:
		logger.Warn("Unexpected vault unlock timestamp type", "type", fmt.Sprintf("%T", val))
		return time.Time{}, false
	}
}

// sanitizeNextPath keeps redirects on this site, falling back to the vault.
func sanitizeNextPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, "\r\n\\") {
		return defaultNextPath
	}

	if strings.Contains(raw, "://") {
		parsed, err := url.Parse(raw)
		if err != nil {
			return defaultNextPath
		}

		raw = parsed.EscapedPath()
		if parsed.RawQuery != "" {
			raw += "?" + parsed.RawQuery
		}
	}

	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return defaultNextPath
	}

	if strings.HasPrefix(raw, "/passwords/unlock") {
		return defaultNextPath
	}

	return raw
}
