package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"bookstore-api/internal/auth"
	"bookstore-api/internal/books"
	"bookstore-api/internal/cart"
	"bookstore-api/internal/favorites"
	"bookstore-api/internal/metrics"
	"bookstore-api/internal/orders"
	"bookstore-api/internal/reviews"
	"bookstore-api/internal/users"
	"bookstore-api/middleware"
)

type Handler struct {
	validate  *validator.Validate
	a         *auth.Service
	u         *users.Conf
	b         *books.Conf
	ct        *cart.Service
	o         *orders.Service
	r         *reviews.Conf
	f         *favorites.Conf
	collector *metrics.Collector
}

func NewHandler(a *auth.Service, u *users.Conf, b *books.Conf, ct *cart.Service,
	o *orders.Service, r *reviews.Conf, f *favorites.Conf, collector *metrics.Collector) *Handler {
	return &Handler{
		validate:  validator.New(),
		a:         a,
		u:         u,
		b:         b,
		ct:        ct,
		o:         o,
		r:         r,
		f:         f,
		collector: collector,
	}
}

func API(h *Handler, ginMode string) *gin.Engine {
	if ginMode == gin.ReleaseMode {
		gin.SetMode(ginMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()

	m, err := middleware.NewMid(h.a)
	if err != nil {
		panic(err)
	}

	r.Use(middleware.Logger(), middleware.Metrics(h.collector), gin.Recovery())

	r.GET("/ping", healthCheck)
	r.GET("/metrics", h.GetMetrics)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.Use(m.Authentication())
		authGroup.POST("/logout", h.Logout)
	}

	usersGroup := r.Group("/users")
	{
		usersGroup.POST("/signup", h.Signup)
		usersGroup.Use(m.Authentication())
		usersGroup.GET("/me", h.GetMe)
		usersGroup.PUT("/me", h.UpdateMe)
		usersGroup.DELETE("/me", h.DeleteMe)
	}

	booksGroup := r.Group("/books")
	{
		booksGroup.GET("/list", h.ListBooks)
		booksGroup.GET("/view/:id", h.GetBook)
		booksGroup.GET("/reviews/:id", h.ListBookReviews)
		booksGroup.GET("/stats/:id", h.GetBookStats)

		booksGroup.Use(m.Authentication())
		booksGroup.POST("/create", m.Authorize(h.CreateBook, users.RoleAdmin))
		booksGroup.PUT("/update/:id", m.Authorize(h.UpdateBook, users.RoleAdmin))
		booksGroup.DELETE("/delete/:id", m.Authorize(h.DeleteBook, users.RoleAdmin))
	}

	cartGroup := r.Group("/cart")
	{
		cartGroup.Use(m.Authentication())
		cartGroup.GET("/items", m.Authorize(h.GetCart, users.RoleUser, users.RoleAdmin))
		cartGroup.POST("/add-item", m.Authorize(h.AddToCart, users.RoleUser, users.RoleAdmin))
		cartGroup.PUT("/items/:id", m.Authorize(h.SetCartItemQuantity, users.RoleUser, users.RoleAdmin))
		cartGroup.DELETE("/items/:id", m.Authorize(h.RemoveCartItem, users.RoleUser, users.RoleAdmin))
		cartGroup.DELETE("/clear", m.Authorize(h.ClearCart, users.RoleUser, users.RoleAdmin))
	}

	ordersGroup := r.Group("/orders")
	{
		ordersGroup.Use(m.Authentication())
		ordersGroup.POST("/checkout", h.Checkout)
		ordersGroup.GET("/list", h.ListMyOrders)
		ordersGroup.GET("/view/:id", h.GetOrderDetail)
		ordersGroup.POST("/cancel/:id", h.CancelOrder)
	}

	reviewsGroup := r.Group("/reviews")
	{
		reviewsGroup.Use(m.Authentication())
		reviewsGroup.POST("/create", h.CreateReview)
		reviewsGroup.PUT("/update/:id", h.UpdateReview)
		reviewsGroup.DELETE("/delete/:id", h.DeleteReview)
		reviewsGroup.GET("/mine", h.ListMyReviews)
	}

	favoritesGroup := r.Group("/favorites")
	{
		favoritesGroup.Use(m.Authentication())
		favoritesGroup.POST("/:bookId", h.AddFavorite)
		favoritesGroup.DELETE("/:bookId", h.RemoveFavorite)
		favoritesGroup.GET("/mine", h.ListMyFavorites)
	}

	adminGroup := r.Group("/admin")
	{
		adminGroup.Use(m.Authentication())
		adminGroup.GET("/orders/list", m.Authorize(h.AdminListOrders, users.RoleAdmin))
		adminGroup.PATCH("/orders/status/:id", m.Authorize(h.AdminSetOrderStatus, users.RoleAdmin))
		adminGroup.POST("/metrics/reset", m.Authorize(h.ResetMetrics, users.RoleAdmin))
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.collector.Snapshot())
}

func (h *Handler) ResetMetrics(c *gin.Context) {
	h.collector.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "metrics reset"})
}
