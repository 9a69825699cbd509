/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/tally/cache"
	"github.com/humaidq/tally/db"
	"github.com/humaidq/tally/events"
	"github.com/humaidq/tally/vault"
)

var (
	createPasswordEntryDBFn = db.CreatePasswordEntry
	getPasswordEntryDBFn    = db.GetPasswordEntry
)

// PasswordsList renders stored credentials without their secrets.
func PasswordsList(c flamego.Context, user CurrentUser, v *vault.Vault, t template.Template, data template.Data) {
	entries, err := db.ListPasswordEntries(c.Request().Context(), user.ID)
	if err != nil {
		logger.Error("Error fetching password entries", "error", err)
		data["Error"] = "Failed to load passwords"
		entries = []db.PasswordEntry{}
	}

	data["Entries"] = entries
	data["VaultEnabled"] = v != nil
	data["IsPasswords"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Passwords", URL: "/passwords", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "passwords")
}

// PasswordNewForm renders the add password page.
func PasswordNewForm(c flamego.Context, s session.Session, v *vault.Vault, t template.Template, data template.Data) {
	if v == nil {
		SetErrorFlash(s, "Password vault is not configured")
		c.Redirect("/passwords", http.StatusSeeOther)

		return
	}

	data["IsPasswords"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Passwords", URL: "/passwords"},
		{Name: "New", URL: "/passwords/new", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "password_new")
}

// CreatePasswordEntry seals the submitted secret and stores the entry.
func CreatePasswordEntry(c flamego.Context, s session.Session, user CurrentUser, v *vault.Vault, store cache.Cache, pub events.Publisher) {
	if v == nil {
		setMutationErrorFlash(s, errVaultUnavailable, "Failed to save password")
		c.Redirect("/passwords", http.StatusSeeOther)

		return
	}

	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing password form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/passwords/new", http.StatusSeeOther)

		return
	}

	form := c.Request().Form

	title := strings.TrimSpace(form.Get("title"))
	if title == "" {
		SetErrorFlash(s, "Title is required")
		c.Redirect("/passwords/new", http.StatusSeeOther)

		return
	}

	secret := form.Get("password")
	if secret == "" {
		SetErrorFlash(s, "Password is required")
		c.Redirect("/passwords/new", http.StatusSeeOther)

		return
	}

	sealed, err := v.Seal(user.ID, secret)
	if err != nil {
		logger.Error("Error sealing password", "error", err)
		SetErrorFlash(s, "Failed to save password")
		c.Redirect("/passwords/new", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	if _, err := createPasswordEntryDBFn(ctx, user.ID, db.PasswordEntryInput{
		Title:      title,
		Username:   getOptionalString(form.Get("username")),
		URL:        getOptionalString(form.Get("url")),
		Ciphertext: sealed,
		Note:       getOptionalString(form.Get("note")),
	}); err != nil {
		logger.Error("Error creating password entry", "error", err)
		setMutationErrorFlash(s, err, "Failed to save password")
		c.Redirect("/passwords/new", http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID)

	SetSuccessFlash(s, "Password saved")
	c.Redirect("/passwords", http.StatusSeeOther)
}

// RevealPassword decrypts a stored secret and shows it once.
func RevealPassword(c flamego.Context, s session.Session, user CurrentUser, v *vault.Vault, t template.Template, data template.Data) {
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid password entry ID")
		c.Redirect("/passwords", http.StatusSeeOther)

		return
	}

	if v == nil {
		setMutationErrorFlash(s, errVaultUnavailable, "Failed to reveal password")
		c.Redirect("/passwords", http.StatusSeeOther)

		return
	}

	entry, err := getPasswordEntryDBFn(c.Request().Context(), user.ID, entryID)
	if err != nil {
		logger.Error("Error fetching password entry", "error", err)
		setMutationErrorFlash(s, err, "Failed to reveal password")
		c.Redirect("/passwords", http.StatusSeeOther)

		return
	}

	plaintext, err := v.Open(user.ID, entry.Ciphertext)
	if err != nil {
		logger.Error("Error opening password entry", "entry_id", entry.ID, "error", err)
		SetErrorFlash(s, "Failed to decrypt password")
		c.Redirect("/passwords", http.StatusSeeOther)

		return
	}

	logSecretReveal(c, s, entry.ID.String())

	c.ResponseWriter().Header().Set("Cache-Control", "no-store, max-age=0")

	data["Entry"] = entry
	data["Secret"] = plaintext
	data["IsPasswords"] = true
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Passwords", URL: "/passwords"},
		{Name: entry.Title, URL: "/passwords", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "password_reveal")
}

// DeletePasswordEntry removes a stored credential.
func DeletePasswordEntry(c flamego.Context, s session.Session, user CurrentUser, store cache.Cache, pub events.Publisher) {
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		SetErrorFlash(s, "Invalid password entry ID")
		c.Redirect("/passwords", http.StatusSeeOther)

		return
	}

	ctx := c.Request().Context()

	if err := db.DeletePasswordEntry(ctx, user.ID, entryID); err != nil {
		logger.Error("Error deleting password entry", "error", err)
		setMutationErrorFlash(s, err, "Failed to delete password")
		c.Redirect("/passwords", http.StatusSeeOther)

		return
	}

	recordMutation(ctx, store, pub, user.ID)

	SetSuccessFlash(s, "Password deleted")
	c.Redirect("/passwords", http.StatusSeeOther)
}
