package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanzlah101/t3-clone/internal/infrastructure/auth"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/handlers/modelhandler"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/handlers/usagehandler"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/routes/v1/chat"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/routes/v1/share"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/routes/v1/threads"
)

type V1Route struct {
	chat      *chat.ChatRoute
	threads   *threads.ThreadRoute
	share     *share.ShareRoute
	models    *modelhandler.ModelHandler
	usage     *usagehandler.UsageHandler
	validator *auth.JWTValidator
}

func NewV1Route(
	chatRoute *chat.ChatRoute,
	threadRoute *threads.ThreadRoute,
	shareRoute *share.ShareRoute,
	models *modelhandler.ModelHandler,
	usage *usagehandler.UsageHandler,
	validator *auth.JWTValidator,
) *V1Route {
	return &V1Route{
		chat:      chatRoute,
		threads:   threadRoute,
		share:     shareRoute,
		models:    models,
		usage:     usage,
		validator: validator,
	}
}

// RegisterRouter registers the authenticated v1 API surface.
func (v1Route *V1Route) RegisterRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")

	v1Route.chat.RegisterRouter(v1Router)
	v1Route.threads.RegisterRouter(v1Router)
	v1Route.share.RegisterRouter(v1Router)
	v1Router.GET("/models", v1Route.models.ListModels)
	v1Router.GET("/usage", v1Route.usage.GetMyUsage)
}

// RegisterSharedRouter registers the share-token endpoints. They bypass
// thread ownership but still require a bearer identity.
func (v1Route *V1Route) RegisterSharedRouter(authed gin.IRouter) {
	v1Route.share.RegisterSharedRouter(authed.Group("/v1"))
}

// GetHealthz reports liveness.
func GetHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetReadyz reports readiness. The service is ready once the JWKS key set
// has been fetched, otherwise every request would fail auth anyway.
func (v1Route *V1Route) GetReadyz(c *gin.Context) {
	if !v1Route.validator.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
