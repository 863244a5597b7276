// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"aslipolitik/internal/models"
	"aslipolitik/internal/respond"
	"aslipolitik/internal/session"
)

type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
)

// LoadSession puts the request's session, if any, into the context. It
// does not enforce authentication.
func LoadSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				slog.Warn("load session", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if data != nil {
				r = r.WithContext(context.WithValue(r.Context(), SessionKey, data))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth answers 401 when no session is loaded.
// Must be applied after LoadSession.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			respond.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require2FA answers 403 until the second factor has been verified in
// this session. Must be applied after RequireAuth.
func Require2FA(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil || !sess.TwoFADone {
			respond.Error(w, http.StatusForbidden, "two-factor verification required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePostManager answers 403 unless the user's role may manage posts.
func RequirePostManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil || !(&models.User{Role: models.Role(sess.Role)}).CanManagePosts() {
			respond.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromCtx returns the session loaded by LoadSession, or nil.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// Locker hands out per-owner locks; see cache.MutationGuard.
type Locker interface {
	Acquire(ctx context.Context, owner string) (func(), error)
}

// OneMutationAtATime rejects a state-changing request with 409 while
// another one from the same session is still running. busy identifies the
// error the locker returns for a held lock.
func OneMutationAtATime(locker Locker, busy error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			owner, ok := session.ID(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			release, err := locker.Acquire(r.Context(), owner)
			if errors.Is(err, busy) {
				respond.Error(w, http.StatusConflict, "another change is still being saved")
				return
			}
			if err != nil {
				// The lock is a convenience; proceed without it.
				slog.Warn("mutation lock unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}
