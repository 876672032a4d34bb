package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/example/celulex-store/internal/api/middleware"
	"github.com/example/celulex-store/internal/auth"
	"github.com/example/celulex-store/internal/catalog"
	"github.com/example/celulex-store/internal/session"
)

// AdminHandlers handles the password-gated admin surface: login/logout,
// session check and product CRUD.
type AdminHandlers struct {
	catalog     *catalog.Service
	credentials *auth.AdminCredentials
	jwtService  *auth.JWTService
	sessions    session.Store
}

func NewAdminHandlers(
	catalogSvc *catalog.Service,
	credentials *auth.AdminCredentials,
	jwtService *auth.JWTService,
	sessions session.Store,
) *AdminHandlers {
	return &AdminHandlers{
		catalog:     catalogSvc,
		credentials: credentials,
		jwtService:  jwtService,
		sessions:    sessions,
	}
}

// LoginResponse carries the admin bearer token for API clients; browser
// clients rely on the session flag set alongside it.
type LoginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

func (h *AdminHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.credentials.Verify(req.Username, req.Password); err != nil {
		respondDomainError(w, err)
		return
	}

	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		respondJSONError(w, "no session", http.StatusInternalServerError)
		return
	}
	sess.IsAdmin = true
	if err := h.sessions.Put(r.Context(), sess); err != nil {
		respondJSONError(w, "failed to save session", http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateAdminToken(req.Username)
	if err != nil {
		respondJSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		Message:   "login successful",
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

func (h *AdminHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if ok && sess.IsAdmin {
		sess.IsAdmin = false
		if err := h.sessions.Put(r.Context(), sess); err != nil {
			respondJSONError(w, "failed to save session", http.StatusInternalServerError)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "logout successful"})
}

func (h *AdminHandlers) Session(w http.ResponseWriter, r *http.Request) {
	isAdmin := false
	if sess, ok := middleware.GetSession(r.Context()); ok {
		isAdmin = sess.IsAdmin
	}
	respondJSON(w, http.StatusOK, map[string]bool{"isAdmin": isAdmin})
}

// Product CRUD (admin only; gating happens in the router)

func (h *AdminHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.catalog.Create(r.Context(), p)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *AdminHandlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r.URL.Path, "/api/products/")
	if err != nil {
		respondJSONError(w, "invalid product id", http.StatusBadRequest)
		return
	}

	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.catalog.Update(r.Context(), id, p)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *AdminHandlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r.URL.Path, "/api/products/")
	if err != nil {
		respondJSONError(w, "invalid product id", http.StatusBadRequest)
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}
