package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mavon-shop/internal/config"
	"mavon-shop/internal/handler"
	"mavon-shop/internal/metrics"
	"mavon-shop/internal/middleware"
	"mavon-shop/internal/websocket"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	OAuth   *handler.OAuthHandler
	Product *handler.ProductHandler
	Catalog *handler.CatalogHandler
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
	Comment *handler.CommentHandler
	User    *handler.UserHandler
	Report  *handler.ReportHandler
}

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	m *metrics.Metrics,
	hub *websocket.Hub,
	h Handlers,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)
	r.Use(m.Middleware(func(req *http.Request) string {
		rctx := chi.RouteContext(req.Context())
		if rctx == nil {
			return ""
		}
		return rctx.RoutePattern()
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	// Websocket upgrades must not pass through http.TimeoutHandler, which
	// disallows hijacking, so the route sits outside /api/v1.
	r.With(authMiddleware.RequireAuth).Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWS(hub, w, req)
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/login", h.Auth.Login)
			auth.Post("/refresh", h.Auth.Refresh)
			auth.Post("/logout", h.Auth.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)

			auth.Get("/github", h.OAuth.GithubRedirect)
			auth.Get("/github/callback", h.OAuth.GithubCallback)
			auth.Post("/exchange", h.OAuth.Exchange)
		})

		api.Get("/brands", h.Catalog.ListBrands)
		api.Get("/colors", h.Catalog.ListColors)
		api.Get("/sizes", h.Catalog.ListSizes)
		api.Get("/products", h.Product.List)
		api.Get("/products/{id}", h.Product.Get)
		api.Get("/products/{id}/comments", h.Comment.ListByProduct)

		api.With(authMiddleware.RequireAuth).Post("/products/{id}/comments", h.Comment.Create)
		api.With(authMiddleware.RequireAuth).Delete("/comments/{commentID}", h.Comment.Delete)

		api.Route("/cart", func(cart chi.Router) {
			cart.Use(authMiddleware.RequireAuth)
			cart.Get("/", h.Cart.Get)
			cart.Post("/items", h.Cart.AddItem)
			cart.Put("/items", h.Cart.SetQuantity)
			cart.Delete("/items", h.Cart.RemoveItem)
			cart.Delete("/", h.Cart.Clear)
		})

		api.Route("/orders", func(orders chi.Router) {
			orders.Use(authMiddleware.RequireAuth)
			orders.Post("/", h.Order.Place)
			orders.Get("/", h.Order.ListMine)
			orders.Get("/{id}", h.Order.GetMine)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)

			editor := admin.With(authMiddleware.RequireRoles("editor", "admin"))
			editor.Post("/brands", h.Catalog.CreateBrand)
			editor.Put("/brands/{id}", h.Catalog.RenameBrand)
			editor.Delete("/brands/{id}", h.Catalog.DeleteBrand)
			editor.Post("/colors", h.Catalog.CreateColor)
			editor.Delete("/colors/{id}", h.Catalog.DeleteColor)
			editor.Post("/sizes", h.Catalog.CreateSize)
			editor.Delete("/sizes/{id}", h.Catalog.DeleteSize)
			editor.Post("/products", h.Product.Create)
			editor.Put("/products/{id}", h.Product.Update)
			editor.Delete("/products/{id}", h.Product.Delete)
			editor.Get("/orders", h.Order.ListAll)
			editor.Put("/orders/{id}/status", h.Order.Advance)

			admins := admin.With(authMiddleware.RequireRoles("admin"))
			admins.Get("/orders/export", h.Report.ExportOrders)
			admins.Get("/users", h.User.List)
			admins.Put("/users/{id}/role", h.User.ChangeRole)
			admins.Delete("/users/{id}", h.User.Delete)
		})
	})

	return r
}
