package main

import (
	"net/http"

	"LinkChat/middleware"
	connhandler "LinkChat/module/connection"
	msghandler "LinkChat/module/message"
	userhandler "LinkChat/module/user"
	"LinkChat/service/relay"
	"LinkChat/tools/security"

	"github.com/gin-gonic/gin"
)

func buildRouter(
	origins []string,
	auth security.Options,
	users *userhandler.Handler,
	conns *connhandler.Handler,
	msgs *msghandler.Handler,
	rly *relay.Server,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(origins))

	authMW := middleware.Auth(auth)

	users.RegisterRoutes(r.Group("/api/auth"), authMW)
	conns.RegisterRoutes(r.Group("/api/connections"), authMW)
	msgs.RegisterRoutes(r.Group("/api/messages"), authMW)

	r.GET("/ws", rly.HandleWS)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
