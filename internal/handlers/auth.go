package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"aslipolitik/internal/middleware"
	"aslipolitik/internal/respond"
	"aslipolitik/internal/session"
	"aslipolitik/internal/store"
)

// totpIssuer is shown by authenticator apps next to the account name.
const totpIssuer = "Asli Politik"

// Next steps reported after login.
const (
	nextSetup2FA  = "2fa_setup"
	nextVerify2FA = "2fa_verify"
	nextDone      = "done"
)

// Auth groups the admin authentication handlers: password login, TOTP
// enrolment and verification, logout.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{sessions: sessions, userStore: userStore}
}

type sessionBody struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	TwoFADone   bool   `json:"two_fa_done"`
	Next        string `json:"next"`
}

func newSessionBody(d *session.Data, next string) sessionBody {
	return sessionBody{
		Email:       d.Email,
		DisplayName: d.DisplayName,
		Role:        d.Role,
		TwoFADone:   d.TwoFADone,
		Next:        next,
	}
}

// Login checks email and password and opens a session whose second factor
// is still pending. The answer tells the client whether to enrol or verify.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := a.userStore.FindByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil || !a.userStore.CheckPassword(user, req.Password) {
		respond.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	data := &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TwoFADone:   false,
	}
	if _, err := a.sessions.Create(r.Context(), w, data); err != nil {
		slog.Error("session create failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	next := nextVerify2FA
	if user.Needs2FASetup() {
		next = nextSetup2FA
	}
	slog.Info("admin login", "user", user.Email, "next", next)
	respond.JSON(w, http.StatusOK, newSessionBody(data, next))
}

// Me returns the current session.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	next := nextDone
	if !sess.TwoFADone {
		next = nextVerify2FA
	}
	respond.JSON(w, http.StatusOK, newSessionBody(sess, next))
}

type totpSetupBody struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	QRCode     string `json:"qr_code"` // base64 PNG
}

// TwoFASetup creates a TOTP secret for a user who has not enrolled yet and
// returns it with a QR code. Calling it again replaces the pending secret.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	user, err := a.userStore.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa setup failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user.TOTPEnabled {
		respond.Error(w, http.StatusConflict, "two-factor authentication is already enabled")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err := a.userStore.SetTOTPSecret(r.Context(), user.ID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond.JSON(w, http.StatusOK, totpSetupBody{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCode:     base64.StdEncoding.EncodeToString(png),
	})
}

// TwoFAVerify checks a TOTP code. The first valid code after setup also
// enables TOTP for the account. A valid code completes the session.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := a.userStore.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user.TOTPSecret == nil {
		respond.JSON(w, http.StatusConflict, nextError{Error: "two-factor authentication is not set up", Next: nextSetup2FA})
		return
	}

	if !totp.Validate(strings.TrimSpace(req.Code), *user.TOTPSecret) {
		respond.Invalid(w, map[string]string{"code": "is invalid, please try again"})
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(r.Context(), user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			respond.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, newSessionBody(sess, nextDone))
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	respond.NoContent(w)
}

// nextError is an error body that also points the client at its next step.
type nextError struct {
	Error string `json:"error"`
	Next  string `json:"next"`
}
