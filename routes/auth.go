/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/tally/db"
	"github.com/humaidq/tally/finance"
)

// AuthOptions controls who may create an account.
type AuthOptions struct {
	// AllowRegistration keeps /register open after the first user exists.
	AllowRegistration bool
}

var (
	authenticateUserDBFn = db.AuthenticateUser
	countUsersDBFn       = db.CountUsers
	createUserDBFn       = db.CreateUser
	changePasswordDBFn   = db.ChangePassword
)

// LoginForm renders the login page
func LoginForm(c flamego.Context, s session.Session, opts AuthOptions, t template.Template, data template.Data) {
	if authenticated, _ := s.Get(sessionKeyAuthenticated).(bool); authenticated {
		c.Redirect("/", http.StatusSeeOther)
		return
	}

	open, err := registrationOpen(c.Request().Context(), opts)
	if err != nil {
		logger.Error("Error checking registration state", "error", err)
	}

	data["HeaderOnly"] = true
	data["RegistrationOpen"] = open
	t.HTML(http.StatusOK, "login")
}

// Login verifies the submitted credentials and starts a session.
func Login(c flamego.Context, s session.Session) {
	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing login form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/login", http.StatusSeeOther)

		return
	}

	form := c.Request().Form
	username := strings.TrimSpace(form.Get("username"))
	password := form.Get("password")

	if username == "" || password == "" {
		SetErrorFlash(s, "Username and password are required")
		c.Redirect("/login", http.StatusSeeOther)

		return
	}

	user, err := authenticateUserDBFn(c.Request().Context(), username, password)
	if err != nil {
		if errors.Is(err, db.ErrInvalidCredentials) {
			logAccessDenied(c, s, "invalid_credentials", http.StatusSeeOther, "/login", "username", db.NormalizeUsername(username))
			SetErrorFlash(s, "Invalid username or password")
		} else {
			logger.Error("Error authenticating user", "error", err)
			SetErrorFlash(s, "Failed to sign in")
		}

		c.Redirect("/login", http.StatusSeeOther)

		return
	}

	startSession(c, s, user)
	logger.Info("User signed in", "user_id", user.ID)
	c.Redirect("/", http.StatusSeeOther)
}

// RegisterForm renders the registration page when registration is open.
func RegisterForm(c flamego.Context, s session.Session, opts AuthOptions, t template.Template, data template.Data) {
	open, err := registrationOpen(c.Request().Context(), opts)
	if err != nil {
		logger.Error("Error checking registration state", "error", err)
		SetErrorFlash(s, "Failed to load registration")
		c.Redirect("/login", http.StatusSeeOther)

		return
	}

	if !open {
		SetErrorFlash(s, "Registration is disabled")
		c.Redirect("/login", http.StatusSeeOther)

		return
	}

	data["HeaderOnly"] = true
	data["MinPasswordLength"] = db.MinPasswordLength
	data["DefaultCurrency"] = finance.DefaultCurrency
	t.HTML(http.StatusOK, "register")
}

// Register creates a user and signs them in.
func Register(c flamego.Context, s session.Session, opts AuthOptions) {
	ctx := c.Request().Context()

	open, err := registrationOpen(ctx, opts)
	if err != nil || !open {
		if err != nil {
			logger.Error("Error checking registration state", "error", err)
		}

		logAccessDenied(c, s, "registration_closed", http.StatusSeeOther, "/login")
		SetErrorFlash(s, "Registration is disabled")
		c.Redirect("/login", http.StatusSeeOther)

		return
	}

	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing registration form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/register", http.StatusSeeOther)

		return
	}

	form := c.Request().Form
	password := form.Get("password")

	if password != form.Get("password_confirm") {
		SetErrorFlash(s, "Passwords do not match")
		c.Redirect("/register", http.StatusSeeOther)

		return
	}

	user, err := createUserDBFn(ctx, db.CreateUserInput{
		Username:    form.Get("username"),
		DisplayName: form.Get("display_name"),
		Password:    password,
		Currency:    form.Get("currency"),
	})
	if err != nil {
		logger.Error("Error creating user", "error", err)
		setMutationErrorFlash(s, err, "Failed to create account")
		c.Redirect("/register", http.StatusSeeOther)

		return
	}

	startSession(c, s, user)
	logger.Info("User registered", "user_id", user.ID)
	SetSuccessFlash(s, "Welcome, "+user.DisplayName)
	c.Redirect("/", http.StatusSeeOther)
}

// Logout handles logout request
func Logout(s session.Session, c flamego.Context) {
	clearSessionUser(s)
	c.Redirect("/login", http.StatusSeeOther)
}

// RequireAuth is a middleware that checks if user is authenticated and maps
// the CurrentUser for the handlers that follow.
func RequireAuth(s session.Session, c flamego.Context) {
	authenticated, ok := s.Get(sessionKeyAuthenticated).(bool)
	if !ok || !authenticated {
		logAccessDenied(c, s, "unauthenticated", http.StatusFound, "/login")
		c.Redirect("/login")

		return
	}

	user, err := sessionUser(s)
	if err != nil {
		logAccessDenied(c, s, "session_user_missing", http.StatusFound, "/login", "error", err)
		clearSessionUser(s)
		c.Redirect("/login")

		return
	}

	c.Map(user)
	c.Next()
}

// SettingsView renders the account settings page.
func SettingsView(t template.Template, data template.Data) {
	data["IsSettings"] = true
	data["MinPasswordLength"] = db.MinPasswordLength
	data["Breadcrumbs"] = []BreadcrumbItem{
		{Name: "Settings", URL: "/settings", IsCurrent: true},
	}

	t.HTML(http.StatusOK, "settings")
}

// ChangePassword replaces the signed-in user's password.
func ChangePassword(c flamego.Context, s session.Session, user CurrentUser) {
	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing password form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/settings", http.StatusSeeOther)

		return
	}

	form := c.Request().Form
	next := form.Get("new_password")

	if next != form.Get("new_password_confirm") {
		SetErrorFlash(s, "Passwords do not match")
		c.Redirect("/settings", http.StatusSeeOther)

		return
	}

	if err := changePasswordDBFn(c.Request().Context(), user.ID, form.Get("current_password"), next); err != nil {
		if errors.Is(err, db.ErrInvalidCredentials) {
			SetErrorFlash(s, "Current password is incorrect")
		} else {
			logger.Error("Error changing password", "error", err)
			setMutationErrorFlash(s, err, "Failed to change password")
		}

		c.Redirect("/settings", http.StatusSeeOther)

		return
	}

	logger.Info("Password changed", "user_id", user.ID)
	SetSuccessFlash(s, "Password changed")
	c.Redirect("/settings", http.StatusSeeOther)
}

func startSession(c flamego.Context, s session.Session, user *db.User) {
	if err := s.RegenerateID(c.ResponseWriter(), c.Request().Request); err != nil {
		logger.Warn("Failed to regenerate session ID", "error", err)
	}

	storeSessionUser(s, user)
}

// registrationOpen reports whether a new user may register: always for the
// first user, afterwards only when enabled.
func registrationOpen(ctx context.Context, opts AuthOptions) (bool, error) {
	if opts.AllowRegistration {
		return true, nil
	}

	count, err := countUsersDBFn(ctx)
	if err != nil {
		return false, err
	}

	return count == 0, nil
}
