package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/utafrali/IdentityGo/pkg/validator"

	"github.com/utafrali/IdentityGo/internal/domain"
	"github.com/utafrali/IdentityGo/internal/service"
)

// refreshCookieName is the cookie carrying the opaque refresh secret.
const refreshCookieName = "refresh_token"

// AuthHandler handles HTTP requests for the credential endpoints.
type AuthHandler struct {
	service       *service.IdentityService
	logger        *slog.Logger
	refreshMaxAge time.Duration
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.IdentityService, logger *slog.Logger, refreshMaxAge time.Duration) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger, refreshMaxAge: refreshMaxAge}
}

// --- Request DTOs ---

// AddressRequest is one address object in a registration payload. Every
// field is optional; clients send whatever shape they track and get a
// server-generated id back.
type AddressRequest struct {
	Label        string `json:"label" validate:"omitempty,max=50"`
	FirstName    string `json:"first_name" validate:"omitempty,max=100"`
	LastName     string `json:"last_name" validate:"omitempty,max=100"`
	AddressLine1 string `json:"address_line1" validate:"omitempty,max=500"`
	AddressLine2 string `json:"address_line2" validate:"omitempty,max=500"`
	City         string `json:"city" validate:"omitempty,max=100"`
	State        string `json:"state" validate:"omitempty,max=100"`
	PostalCode   string `json:"postal_code" validate:"omitempty,max=20"`
	CountryCode  string `json:"country_code" validate:"omitempty,len=2"`
	Phone        string `json:"phone" validate:"omitempty,max=32"`
	IsDefault    bool   `json:"is_default"`
}

// RegisterRequest is the JSON request body for user registration.
type RegisterRequest struct {
	Email           string           `json:"email" validate:"required,email"`
	Password        string           `json:"password" validate:"required,min=8,max=128"`
	FirstName       string           `json:"first_name" validate:"required,min=1,max=100"`
	LastName        string           `json:"last_name" validate:"required,min=1,max=100"`
	Phone           string           `json:"phone" validate:"omitempty,max=32"`
	Addresses       []AddressRequest `json:"addresses" validate:"omitempty,dive"`
	ProfileImageURL string           `json:"profile_image_url" validate:"omitempty,url,max=512"`
	Language        string           `json:"language" validate:"omitempty,len=2"`
	DefaultCurrency string           `json:"default_currency" validate:"omitempty,len=3"`
	IsMember        bool             `json:"is_member"`
}

// LoginRequest is the JSON request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the access token and the user's id. The refresh
// secret never appears in a response body; it travels in the cookie only.
type AuthResponse struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
}

// --- Handlers ---

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	// Validate the trimmed form so padded emails reach the same
	// normalization path as clean ones.
	req.Email = strings.TrimSpace(req.Email)

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	addresses := make([]domain.Address, len(req.Addresses))
	for i, a := range req.Addresses {
		addresses[i] = domain.Address{
			Label:        a.Label,
			FirstName:    a.FirstName,
			LastName:     a.LastName,
			AddressLine1: a.AddressLine1,
			AddressLine2: a.AddressLine2,
			City:         a.City,
			State:        a.State,
			PostalCode:   a.PostalCode,
			CountryCode:  a.CountryCode,
			Phone:        a.Phone,
			IsDefault:    a.IsDefault,
		}
	}

	input := service.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		Addresses:       addresses,
		ProfileImageURL: req.ProfileImageURL,
		Language:        req.Language,
		DefaultCurrency: req.DefaultCurrency,
		IsMember:        req.IsMember,
	}

	user, tokens, err := h.service.Register(r.Context(), input, clientInfo(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	h.setRefreshCookie(w, tokens.RefreshToken)
	writeJSON(w, http.StatusCreated, response{
		Data: AuthResponse{UserID: user.ID, AccessToken: tokens.AccessToken},
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, tokens, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, clientInfo(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	h.setRefreshCookie(w, tokens.RefreshToken)
	writeJSON(w, http.StatusOK, response{
		Data: AuthResponse{UserID: user.ID, AccessToken: tokens.AccessToken},
	})
}

// Refresh handles POST /api/v1/auth/refresh. The presented secret comes
// from the refresh_token cookie and is rotated on success.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	secret := h.refreshSecretFromRequest(r)

	tokens, err := h.service.Refresh(r.Context(), secret, clientInfo(r))
	if err != nil {
		h.clearRefreshCookie(w)
		writeAppError(w, r, err)
		return
	}

	h.setRefreshCookie(w, tokens.RefreshToken)
	writeJSON(w, http.StatusOK, response{
		Data: AuthResponse{AccessToken: tokens.AccessToken},
	})
}

// Logout handles POST /api/v1/auth/logout. Always succeeds; a missing or
// already-dead cookie changes nothing.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	secret := h.refreshSecretFromRequest(r)
	h.service.Logout(r.Context(), secret, clientInfo(r))

	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, response{
		Data: map[string]string{"status": "logged_out"},
	})
}

// --- Cookie transport ---

func (h *AuthHandler) refreshSecretFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, secret string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    secret,
		Path:     "/",
		MaxAge:   int(h.refreshMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
