package identitysvc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/apierr"
	"github.com/orqestra/campaign-platform/internal/models"
)

// Handlers wires Service onto HTTP. Cookie semantics follow spec §4.5:
// HttpOnly, SameSite=Lax, Path=/, Secure iff production, max-age equal
// to the token's TTL.
type Handlers struct {
	Service  *Service
	Log      zerolog.Logger
	Secure   bool
	AccessTTL time.Duration
	RefreshTTL time.Duration
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErr(w http.ResponseWriter, err error) {
	apierr.WriteJSON(w, apierr.As(err))
}

func (h *Handlers) setAuthCookies(w http.ResponseWriter, access string, accessExp time.Time, refresh string, refreshExp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name: "access_token", Value: access, Path: "/", HttpOnly: true,
		SameSite: http.SameSiteLaxMode, Secure: h.Secure,
		MaxAge: int(time.Until(accessExp).Seconds()),
	})
	if refresh != "" {
		http.SetCookie(w, &http.Cookie{
			Name: "refresh_token", Value: refresh, Path: "/", HttpOnly: true,
			SameSite: http.SameSiteLaxMode, Secure: h.Secure,
			MaxAge: int(time.Until(refreshExp).Seconds()),
		})
	}
}

func (h *Handlers) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"access_token", "refresh_token"} {
		http.SetCookie(w, &http.Cookie{
			Name: name, Value: "", Path: "/", HttpOnly: true,
			SameSite: http.SameSiteLaxMode, Secure: h.Secure, MaxAge: -1,
		})
	}
}

type registerRequest struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	FullName string          `json:"full_name"`
	Role     models.UserRole `json:"role"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apierr.New(apierr.ValidationErr, "invalid request body"))
		return
	}
	u, err := h.Service.Register(r.Context(), RegisterInput{
		Email: req.Email, Password: req.Password, FullName: req.FullName, Role: req.Role,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apierr.New(apierr.ValidationErr, "invalid request body"))
		return
	}
	result, err := h.Service.Login(r.Context(), LoginInput{
		Email: req.Email, Password: req.Password,
		IPAddress: clientIP(r), UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	h.setAuthCookies(w, result.AccessToken, result.AccessExpiresAt, result.RefreshToken, result.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"token_type":    "bearer",
		"user":          result.User,
	})
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refresh := refreshTokenFromRequest(r)
	if refresh == "" {
		writeErr(w, apierr.New(apierr.AuthMissing, "refresh token is required"))
		return
	}
	access, exp, err := h.Service.Refresh(r.Context(), refresh)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.setAuthCookies(w, access, exp, "", time.Time{})
	writeJSON(w, http.StatusOK, map[string]any{"access_token": access, "token_type": "bearer"})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	refresh := refreshTokenFromRequest(r)
	if refresh == "" {
		writeErr(w, apierr.New(apierr.AuthMissing, "refresh token is required"))
		return
	}
	if err := h.Service.Logout(r.Context(), userID, refresh); err != nil {
		writeErr(w, err)
		return
	}
	h.clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeErr(w, apierr.New(apierr.AuthMissing, "missing credentials"))
		return
	}
	u, err := h.Service.Me(r.Context(), userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// GetUserByEmail is the internal lookup the gateway's auth chain calls
// after verifying a token locally, so it can confirm the subject is
// still active and fetch the current role.
func (h *Handlers) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeErr(w, apierr.New(apierr.ValidationErr, "email query parameter is required"))
		return
	}
	u, err := h.Service.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func refreshTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie("refresh_token"); err == nil && c.Value != "" {
		return c.Value
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	return body.RefreshToken
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	return r.RemoteAddr
}
