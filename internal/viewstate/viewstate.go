// Package viewstate holds the per-browser display preferences of the public
// site: the dark-mode flag and whether the mobile menu is open. The theme
// persists for a year; the menu flag lives only as long as the browser
// session.
package viewstate

import (
	"errors"
	"net/http"
	"time"
)

const (
	ThemeCookie = "ap_theme"
	MenuCookie  = "ap_menu"

	themeMaxAge = 365 * 24 * time.Hour
)

// Action is a state transition triggered by the reader.
type Action string

const (
	ToggleDarkMode Action = "toggle-dark-mode"
	ToggleMenu     Action = "toggle-menu"
	CloseMenu      Action = "close-menu"
)

// ErrUnknownAction is returned by Apply for an action it does not know.
var ErrUnknownAction = errors.New("unknown preference action")

// State is the display state of one browser.
type State struct {
	DarkMode bool `json:"dark_mode"`
	MenuOpen bool `json:"menu_open"`
}

// Apply returns the state after a.
func (s State) Apply(a Action) (State, error) {
	switch a {
	case ToggleDarkMode:
		s.DarkMode = !s.DarkMode
	case ToggleMenu:
		s.MenuOpen = !s.MenuOpen
	case CloseMenu:
		s.MenuOpen = false
	default:
		return s, ErrUnknownAction
	}
	return s, nil
}

// FromRequest reads the state from the request cookies. Missing or
// unreadable cookies mean light theme and closed menu.
func FromRequest(r *http.Request) State {
	var s State
	if c, err := r.Cookie(ThemeCookie); err == nil {
		s.DarkMode = c.Value == "dark"
	}
	if c, err := r.Cookie(MenuCookie); err == nil {
		s.MenuOpen = c.Value == "open"
	}
	return s
}

// Write stores s in response cookies.
func (s State) Write(w http.ResponseWriter, secure bool) {
	theme := "light"
	if s.DarkMode {
		theme = "dark"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     ThemeCookie,
		Value:    theme,
		Path:     "/",
		MaxAge:   int(themeMaxAge.Seconds()),
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	menu := "closed"
	if s.MenuOpen {
		menu = "open"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     MenuCookie,
		Value:    menu,
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
