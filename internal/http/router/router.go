package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-orders/internal/config"
	"github.com/ignatzorin/freelance-orders/internal/http/handlers"
	"github.com/ignatzorin/freelance-orders/internal/http/middleware"
	"github.com/ignatzorin/freelance-orders/internal/storage"
)

// Handlers набор хэндлеров, которые обслуживает роутер.
type Handlers struct {
	Orders    *handlers.OrderHandler
	Disputes  *handlers.DisputeHandler
	Reviews   *handlers.ReviewHandler
	Proposals *handlers.ProposalHandler
	WS        *handlers.WSHandler
	Health    *handlers.HealthHandler
}

// Options инфраструктура, нужная роутеру помимо хэндлеров.
type Options struct {
	Tokens         middleware.TokenParser
	Observer       middleware.HTTPObserver
	MetricsHandler http.Handler
	// DeliveryRoot каталог с файлами сдачи. Пустой отключает раздачу.
	DeliveryRoot string
}

func SetupRouter(cfg *config.Config, h Handlers, opts Options) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	if opts.Observer != nil {
		r.Use(middleware.Metrics(opts.Observer))
	}
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.ErrorHandler())

	r.GET("/health", h.Health.Health)
	if opts.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}
	if opts.DeliveryRoot != "" {
		r.StaticFS(storage.PublicPrefix, http.Dir(opts.DeliveryRoot))
	}

	api := r.Group("/api")
	if h.WS != nil {
		api.GET("/ws", h.WS.Handle)
	}

	protected := api.Group("/")
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	protected.Use(middleware.AuthMiddleware(opts.Tokens))

	id := middleware.IDValidator("id")
	{
		protected.POST("/orders/", h.Orders.CreateOrder)
		protected.GET("/orders/:id", id, h.Orders.GetOrder)
		protected.GET("/orders/:id/history", id, h.Orders.GetHistory)
		protected.PATCH("/orders/:id/status", id, h.Orders.UpdateStatus)
		protected.POST("/orders/:id/deliver", id, h.Orders.Deliver)
		protected.GET("/orders/:id/deliveries", id, h.Orders.ListDeliveries)
		protected.POST("/orders/:id/deliveries/files", id, h.Orders.UploadDeliveryFile)
		protected.POST("/orders/:id/complete", id, h.Orders.Complete)
		protected.POST("/orders/:id/cancel", id, h.Orders.Cancel)
		protected.POST("/orders/:id/dispute", id, h.Disputes.Open)

		protected.GET("/disputes/:id", id, h.Disputes.Get)
		protected.GET("/disputes/:id/messages", id, h.Disputes.ListMessages)
		protected.POST("/disputes/:id/messages", id, h.Disputes.AddMessage)
		protected.POST("/disputes/:id/resolve", id, h.Disputes.Resolve)
		protected.POST("/disputes/:id/close", id, h.Disputes.Close)

		protected.POST("/reviews/", h.Reviews.Create)
		protected.PATCH("/reviews/:id", id, h.Reviews.Update)
		protected.DELETE("/reviews/:id", id, h.Reviews.Delete)
		protected.PATCH("/reviews/:id/visibility", id, h.Reviews.SetVisibility)
		protected.POST("/reviews/:id/reply", id, h.Reviews.CreateReply)
		protected.PATCH("/reviews/:id/reply", id, h.Reviews.UpdateReply)
		protected.DELETE("/reviews/:id/reply", id, h.Reviews.DeleteReply)

		protected.POST("/proposals/", h.Proposals.Create)
		protected.GET("/proposals/:id", id, h.Proposals.Get)
		protected.POST("/proposals/:id/accept", id, h.Proposals.Accept)
		protected.POST("/proposals/:id/reject", id, h.Proposals.Reject)
	}

	return r
}
