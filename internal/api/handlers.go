package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/celulex-store/internal/api/middleware"
	"github.com/example/celulex-store/internal/cart"
	"github.com/example/celulex-store/internal/catalog"
	"github.com/example/celulex-store/internal/checkout"
	"github.com/example/celulex-store/internal/infrastructure/store"
	"github.com/example/celulex-store/internal/order"
	"github.com/example/celulex-store/internal/session"
)

type Handlers struct {
	catalog  *catalog.Service
	carts    *cart.Service
	checkout *checkout.Service
	orders   store.OrderStore
	sessions session.Store
}

func NewHandlers(
	catalogSvc *catalog.Service,
	cartSvc *cart.Service,
	checkoutSvc *checkout.Service,
	orders store.OrderStore,
	sessions session.Store,
) *Handlers {
	return &Handlers{
		catalog:  catalogSvc,
		carts:    cartSvc,
		checkout: checkoutSvc,
		orders:   orders,
		sessions: sessions,
	}
}

// Product Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		respondJSONError(w, "no session", http.StatusInternalServerError)
		return
	}

	summary, persisted, err := h.carts.Summary(r.Context(), sess.Cart)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.persistCart(w, r, sess, persisted, summary)
}

func (h *Handlers) AddCartItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		respondJSONError(w, "no session", http.StatusInternalServerError)
		return
	}

	var req struct {
		ProductID int `json:"productId"`
		Quantity  int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	summary, persisted, err := h.carts.AddItem(r.Context(), sess.Cart, req.ProductID, req.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.persistCart(w, r, sess, persisted, summary)
}

func (h *Handlers) ChangeCartItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		respondJSONError(w, "no session", http.StatusInternalServerError)
		return
	}

	productID, err := extractID(r.URL.Path, "/api/cart/items/")
	if err != nil {
		respondJSONError(w, "invalid product id", http.StatusBadRequest)
		return
	}

	var req struct {
		Change int `json:"change"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	summary, persisted, err := h.carts.ChangeItem(r.Context(), sess.Cart, productID, req.Change)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.persistCart(w, r, sess, persisted, summary)
}

func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		respondJSONError(w, "no session", http.StatusInternalServerError)
		return
	}

	productID, err := extractID(r.URL.Path, "/api/cart/items/")
	if err != nil {
		respondJSONError(w, "invalid product id", http.StatusBadRequest)
		return
	}

	summary, persisted, err := h.carts.RemoveItem(r.Context(), sess.Cart, productID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.persistCart(w, r, sess, persisted, summary)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		respondJSONError(w, "no session", http.StatusInternalServerError)
		return
	}

	summary, persisted, err := h.carts.Clear(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.persistCart(w, r, sess, persisted, summary)
}

// Checkout Handler

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		respondJSONError(w, "no session", http.StatusInternalServerError)
		return
	}

	var req struct {
		Customer order.Customer `json:"customer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	receipt, err := h.checkout.Checkout(r.Context(), sess, req.Customer)

	// The transaction self-heals the session cart even when it aborts, so
	// persist the session before reporting the outcome.
	if putErr := h.sessions.Put(r.Context(), sess); putErr != nil {
		respondJSONError(w, "failed to save session", http.StatusInternalServerError)
		return
	}
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, receipt)
}

// Order Handlers

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		respondJSONError(w, "no session", http.StatusInternalServerError)
		return
	}

	all, err := h.orders.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	byID := make(map[string]order.Order, len(all))
	for _, o := range all {
		byID[o.ID] = o
	}

	// The session's history is already newest first and capped.
	mine := make([]order.Order, 0, len(sess.RecentOrderIDs))
	for _, id := range sess.RecentOrderIDs {
		if o, ok := byID[id]; ok {
			mine = append(mine, o)
		}
	}
	respondJSON(w, http.StatusOK, mine)
}

// Helpers

// persistCart writes the reconciled entries back to the session and responds
// with the summary. The write-back is what makes stale carts self-heal for
// all subsequent reads.
func (h *Handlers) persistCart(w http.ResponseWriter, r *http.Request, sess *session.Session, persisted []cart.Entry, summary cart.Summary) {
	sess.Cart = persisted
	if err := h.sessions.Put(r.Context(), sess); err != nil {
		respondJSONError(w, "failed to save session", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func extractID(path, prefix string) (int, error) {
	return strconv.Atoi(strings.TrimPrefix(path, prefix))
}
