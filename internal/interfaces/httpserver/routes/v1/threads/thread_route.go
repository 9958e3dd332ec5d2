package threads

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/handlers/threadhandler"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/middlewares"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/requests/threadrequests"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/responses"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

type ThreadRoute struct {
	handler *threadhandler.ThreadHandler
}

func NewThreadRoute(handler *threadhandler.ThreadHandler) *ThreadRoute {
	return &ThreadRoute{handler: handler}
}

func (route *ThreadRoute) RegisterRouter(router gin.IRouter) {
	threads := router.Group("/threads")
	threads.GET("", route.listThreads)
	threads.POST("", route.createThread)
	threads.GET("/:thread_id", route.getThread)
	threads.PATCH("/:thread_id", route.updateThread)
	threads.DELETE("/:thread_id", route.deleteThread)
	threads.GET("/:thread_id/messages", route.listMessages)
	threads.POST("/:thread_id/messages", route.createMessagePair)
	threads.POST("/:thread_id/branch", route.branchThread)
}

func (route *ThreadRoute) listThreads(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "53c1e8b7-2a9d-4f60-b4e5-7d8c3f2a1b90")
		return
	}

	resp, err := route.handler.ListThreads(c.Request.Context(), principal.UserID)
	if err != nil {
		responses.HandleError(c, err, "failed to list threads")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (route *ThreadRoute) createThread(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "0a4d7e2f-9b1c-4853-a6f0-e3b8c5d21a47")
		return
	}

	var req threadrequests.CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleErrorWithStatus(c, http.StatusUnprocessableEntity, err, "invalid request body")
		return
	}

	resp, err := route.handler.CreateThread(c.Request.Context(), principal.UserID, req)
	if err != nil {
		responses.HandleError(c, err, "failed to create thread")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (route *ThreadRoute) getThread(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "c89f3d1e-5a6b-4270-9d4c-1f7e8b0a2c63")
		return
	}

	resp, err := route.handler.GetThread(c.Request.Context(), principal.UserID, c.Param("thread_id"))
	if err != nil {
		responses.HandleError(c, err, "thread not found")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (route *ThreadRoute) updateThread(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "7e1b9f4a-d2c8-4065-8a3e-b5c0d9f2e817")
		return
	}

	var req threadrequests.UpdateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleErrorWithStatus(c, http.StatusUnprocessableEntity, err, "invalid request body")
		return
	}

	resp, err := route.handler.UpdateThread(c.Request.Context(), principal.UserID, c.Param("thread_id"), req)
	if err != nil {
		responses.HandleError(c, err, "failed to update thread")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (route *ThreadRoute) deleteThread(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "b3e5c7d9-1f2a-4486-90b8-6d4a2e8f0c35")
		return
	}

	if err := route.handler.DeleteThread(c.Request.Context(), principal.UserID, c.Param("thread_id")); err != nil {
		responses.HandleError(c, err, "failed to delete thread")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (route *ThreadRoute) listMessages(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "f06a2c8e-4b7d-4921-a5f3-8e1d9c0b7a52")
		return
	}

	resp, err := route.handler.ListMessages(c.Request.Context(), principal.UserID, c.Param("thread_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to list messages")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (route *ThreadRoute) createMessagePair(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "a1d8f3b5-7c2e-4690-b0d4-3f9e6a8c2b71")
		return
	}

	var req threadrequests.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleErrorWithStatus(c, http.StatusUnprocessableEntity, err, "invalid request body")
		return
	}

	resp, err := route.handler.CreateMessagePair(c.Request.Context(), principal.UserID, c.Param("thread_id"), req)
	if err != nil {
		responses.HandleError(c, err, "failed to append message")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (route *ThreadRoute) branchThread(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "d5b0e9f7-3a8c-4142-86d2-0c7f4e1b9a36")
		return
	}

	var req threadrequests.BranchThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleErrorWithStatus(c, http.StatusUnprocessableEntity, err, "invalid request body")
		return
	}

	resp, err := route.handler.BranchThread(c.Request.Context(), principal.UserID, c.Param("thread_id"), req)
	if err != nil {
		responses.HandleError(c, err, "failed to branch thread")
		return
	}
	c.JSON(http.StatusCreated, resp)
}
