package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpy/paths"
	"github.com/psds-microservice/support-chat/api"
	"github.com/psds-microservice/support-chat/internal/handler"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func New(chat *handler.ChatHandler, health *handler.HealthHandler) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = 8 << 20
	r.GET(paths.PathHealth, health.Health)
	r.GET(paths.PathReady, health.Ready)
	r.GET(paths.PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, paths.PathSwagger+"/") })
	r.GET(paths.PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = paths.PathSwagger + "/index.html"
			c.Request.RequestURI = paths.PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(paths.PathSwagger+"/openapi.json"))(c)
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/sessions", chat.CreateSession)
		v1.GET("/sessions/:id", chat.GetSession)
		v1.POST("/sessions/:id/messages", chat.SendMessage)
		v1.POST("/sessions/:id/products/:productId", chat.SelectProduct)
		v1.POST("/sessions/:id/reset", chat.Reset)
		v1.GET("/sessions/:id/tickets", chat.Tickets)
		v1.GET("/menu", chat.Menu)
		v1.GET("/orders/:orderNumber", chat.GetOrder)
		v1.GET("/agents", chat.Agents)
	}

	return r
}
