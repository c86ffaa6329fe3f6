package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler exposes the CRUD endpoints over /users.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// userRequest is the request body for create and replace. Pointers
// distinguish a missing field from a zero value so presence and type checks
// match the documented contract.
type userRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Age      *int    `json:"age"`
	Password *string `json:"password"`
}

func (b userRequest) valid() bool {
	return b.Name != nil && *b.Name != "" &&
		b.Email != nil && *b.Email != "" &&
		b.Age != nil
}

func (b userRequest) fields() Fields {
	f := Fields{Name: *b.Name, Email: *b.Email, Age: *b.Age}
	if b.Password != nil {
		f.Password = *b.Password
	}
	return f
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		h.internalError(w, "list users", err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, "get user", err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.valid() {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "name, email, and age are required"})
		return
	}
	u, err := h.svc.Create(r.Context(), req.fields())
	if err != nil {
		h.storeError(w, "create user", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"message": "saved successfully", "data": u})
}

func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.valid() {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "name, email, and age are required"})
		return
	}
	u, err := h.svc.Replace(r.Context(), id, req.fields())
	if err != nil {
		h.storeError(w, "replace user", err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid payload"})
		return
	}
	u, err := h.svc.Patch(r.Context(), id, PatchFields{
		Name:     req.Name,
		Age:      req.Age,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.storeError(w, "patch user", err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.storeError(w, "delete user", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// pathID validates the {id} path segment before any store access.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid ID format"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) storeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
	case errors.Is(err, ErrEmailTaken):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Email already registered"})
	default:
		h.internalError(w, op, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Warnw(op+" failed", "err", err)
	h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
