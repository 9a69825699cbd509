/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/google/uuid"

	"github.com/humaidq/tally/db"
	"github.com/humaidq/tally/finance"
)

const (
	sessionKeyAuthenticated = "authenticated"
	sessionKeyUserID        = "user_id"
	sessionKeyDisplayName   = "user_display_name"
	sessionKeyCurrency      = "user_currency"
)

// CurrentUser is the signed-in user, mapped into handlers by RequireAuth.
type CurrentUser struct {
	ID          uuid.UUID
	DisplayName string
	Currency    string
}

// UserContextInjector loads session user metadata into templates.
func UserContextInjector() flamego.Handler {
	return func(s session.Session, data template.Data) {
		authenticated, _ := s.Get(sessionKeyAuthenticated).(bool)
		data["IsAuthenticated"] = authenticated
		data["Currency"] = finance.DefaultCurrency

		if !authenticated {
			return
		}

		user, err := sessionUser(s)
		if err != nil {
			return
		}

		data["UserDisplayName"] = user.DisplayName
		data["Currency"] = user.Currency
	}
}

func storeSessionUser(s session.Session, user *db.User) {
	s.Set(sessionKeyAuthenticated, true)
	s.Set(sessionKeyUserID, user.ID.String())
	s.Set(sessionKeyDisplayName, user.DisplayName)
	s.Set(sessionKeyCurrency, user.Currency)
}

func clearSessionUser(s session.Session) {
	s.Delete(sessionKeyAuthenticated)
	s.Delete(sessionKeyUserID)
	s.Delete(sessionKeyDisplayName)
	s.Delete(sessionKeyCurrency)
	s.Delete(vaultUnlockSessionKey)
}

func getSessionUserID(s session.Session) (string, bool) {
	userID, ok := s.Get(sessionKeyUserID).(string)
	if !ok || userID == "" {
		return "", false
	}

	return userID, true
}

func sessionUser(s session.Session) (CurrentUser, error) {
	raw, ok := getSessionUserID(s)
	if !ok {
		return CurrentUser{}, errSessionUserMissing
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return CurrentUser{}, errSessionUserMissing
	}

	displayName, _ := s.Get(sessionKeyDisplayName).(string)

	currency, _ := s.Get(sessionKeyCurrency).(string)
	if currency == "" {
		currency = finance.DefaultCurrency
	}

	return CurrentUser{ID: id, DisplayName: displayName, Currency: currency}, nil
}
