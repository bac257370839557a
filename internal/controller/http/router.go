package http

import (
	"vehicle-orders/internal/controller/http/handlers"

	"github.com/gin-gonic/gin"
)

type Router struct {
	order handlers.OrderHandler
}

func (r *Router) SetUp(engine *gin.Engine) {
	engine.POST("/webhooks/payments", r.order.Webhook)

	engine.POST("/orders", r.order.Create)
	engine.GET("/orders", r.order.Filter)
	engine.GET("/orders/:order_id", r.order.Get)
	engine.POST("/orders/:order_id/status", r.order.SetStatus)
}

func NewRouter(order handlers.OrderHandler) *Router {
	router := &Router{
		order: order,
	}
	return router
}
