package api

import (
	"log"
	"net/http"

	"github.com/example/celulex-store/internal/api/middleware"
	"github.com/example/celulex-store/internal/auth"
	"github.com/example/celulex-store/internal/session"
)

type RouterConfig struct {
	Handlers      *Handlers
	AdminHandlers *AdminHandlers
	JWTService    *auth.JWTService
	Sessions      session.Store
	WebDir        string
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	handlers := cfg.Handlers
	admin := cfg.AdminHandlers
	adminOnly := middleware.RequireAdmin(cfg.JWTService)

	// Static files (web UI)
	if cfg.WebDir != "" {
		fs := http.FileServer(http.Dir(cfg.WebDir))
		mux.Handle("/", fs)
	}

	// Products
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetProducts(w, r)
		case http.MethodPost:
			adminOnly(http.HandlerFunc(admin.CreateProduct)).ServeHTTP(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/products/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			adminOnly(http.HandlerFunc(admin.UpdateProduct)).ServeHTTP(w, r)
		case http.MethodDelete:
			adminOnly(http.HandlerFunc(admin.DeleteProduct)).ServeHTTP(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Cart
	mux.HandleFunc("/api/cart", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetCart(w, r)
		case http.MethodDelete:
			handlers.ClearCart(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/cart/items", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			handlers.AddCartItem(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/cart/items/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			handlers.ChangeCartItem(w, r)
		case http.MethodDelete:
			handlers.RemoveCartItem(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Checkout and orders
	mux.HandleFunc("/api/checkout", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			handlers.Checkout(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetOrders(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Admin session
	mux.HandleFunc("/api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			admin.Login(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/admin/logout", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			admin.Logout(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/admin/session", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			admin.Session(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	withSession := middleware.SessionMiddleware(cfg.Sessions)
	return withLogging(withSession(mux))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
