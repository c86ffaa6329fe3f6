package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/telmaril/userapi/internal/user"
)

// Handler exposes the register / login / logout endpoints.
type Handler struct {
	svc    *user.Service
	codec  *Codec
	logger *zap.SugaredLogger
}

func NewHandler(svc *user.Service, codec *Codec, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, codec: codec, logger: logger}
}

// RegisterRequest request body for the register endpoint.
type RegisterRequest struct {
	Name     *string `json:"name"`
	Age      *int    `json:"age"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Name == nil || *req.Name == "" ||
		req.Email == nil || *req.Email == "" ||
		req.Age == nil ||
		req.Password == nil || *req.Password == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "name, age, email, and password are required"})
		return
	}
	id, err := h.svc.Register(r.Context(), user.Fields{
		Name:     *req.Name,
		Age:      *req.Age,
		Email:    *req.Email,
		Password: *req.Password,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Email already registered"})
			return
		}
		h.logger.Warnw("register failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully",
		"id":      id.Hex(),
	})
}

// LoginRequest login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid payload"})
		return
	}
	u, err := h.svc.AuthenticatePassword(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrBadCredentials) {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid email or password"})
			return
		}
		h.logger.Warnw("login failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	token, err := h.codec.Mint(u.ID.Hex(), u.TokenVersion)
	if err != nil {
		h.logger.Warnw("token mint failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Logout bumps the caller's tokenVersion, invalidating every token minted
// with the previous snapshot. Requires a bearer identity in the context.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ident, ok := FromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No token"})
		return
	}
	if _, err := h.svc.BumpTokenVersion(r.Context(), ident.ID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid or expired token"})
			return
		}
		h.logger.Warnw("logout failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
