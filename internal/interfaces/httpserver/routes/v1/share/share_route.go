package share

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanzlah101/t3-clone/internal/domain/thread"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/handlers/sharehandler"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/middlewares"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/requests/sharerequests"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/responses"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

type ShareRoute struct {
	handler *sharehandler.ShareHandler
}

func NewShareRoute(handler *sharehandler.ShareHandler) *ShareRoute {
	return &ShareRoute{handler: handler}
}

// RegisterRouter registers the owner-facing share management endpoints.
func (route *ShareRoute) RegisterRouter(router gin.IRouter) {
	threads := router.Group("/threads")
	threads.POST("/:thread_id/share", route.setShare)
	threads.DELETE("/:thread_id/share", route.clearShare)
}

// RegisterSharedRouter registers the share-token endpoints. Both require a
// caller identity; the token alone grants read access, not anonymity.
func (route *ShareRoute) RegisterSharedRouter(authed gin.IRouter) {
	authed.GET("/shared/:share_token", route.getSharedThread)
	authed.POST("/shared/:share_token/fork", route.forkFromShare)
}

func (route *ShareRoute) setShare(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "8c4f2a7d-e9b1-4356-a0d8-5e2c7f9b1a64")
		return
	}

	var req sharerequests.SetShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleErrorWithStatus(c, http.StatusUnprocessableEntity, err, "invalid request body")
		return
	}

	resp, err := route.handler.SetShare(c.Request.Context(), principal.UserID, c.Param("thread_id"), thread.ShareAccess(req.Access))
	if err != nil {
		responses.HandleError(c, err, "failed to share thread")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (route *ShareRoute) clearShare(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "1f7d3b9e-6c2a-4480-95f1-d8e0a4c7b253")
		return
	}

	if err := route.handler.ClearShare(c.Request.Context(), principal.UserID, c.Param("thread_id")); err != nil {
		responses.HandleError(c, err, "failed to revoke share")
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": true})
}

func (route *ShareRoute) getSharedThread(c *gin.Context) {
	if _, ok := middlewares.PrincipalFromContext(c); !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "b3d8f1a6-2e97-4c50-8b4d-7a1c9e5f2d38")
		return
	}

	resp, err := route.handler.GetSharedThread(c.Request.Context(), c.Param("share_token"))
	if err != nil {
		responses.HandleError(c, err, "shared thread not found")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (route *ShareRoute) forkFromShare(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "e9a5c1f3-7d8b-4624-b0a9-2c6e4f8d0b71")
		return
	}

	resp, err := route.handler.ForkFromShare(c.Request.Context(), c.Param("share_token"), principal.UserID)
	if err != nil {
		responses.HandleError(c, err, "failed to fork shared thread")
		return
	}
	c.JSON(http.StatusCreated, resp)
}
