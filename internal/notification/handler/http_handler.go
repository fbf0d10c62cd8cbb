// Package handler exposes the caller's in-app notification inbox.
package handler

import (
	"brokerage_backend/internal/notification/inapp"
	"brokerage_backend/platform/apperr"
	"brokerage_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type HTTPHandler struct {
	svc *inapp.Service
}

func NewHTTPHandler(svc *inapp.Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread-count", h.CountUnread)
	rg.PATCH("/:id/read", h.MarkRead)
	rg.POST("/read-all", h.MarkAllRead)
	rg.DELETE("/:id", h.Delete)
}

type listQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// List pages through the inbox newest first. Out-of-range paging values fall
// back to the service defaults.
func (h *HTTPHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("page and limit must be integers"))
		return
	}

	result, err := h.svc.List(c.Request.Context(), userID, q.Page, q.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, "", result)
}

func (h *HTTPHandler) CountUnread(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	count, err := h.svc.CountUnread(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, "", gin.H{"count": count})
}

func (h *HTTPHandler) MarkRead(c *gin.Context) {
	userID, id, ok := callerAndNotification(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.MarkRead(c.Request.Context(), userID, id)) {
		return
	}
	httpkit.OK(c, "notification marked read", nil)
}

func (h *HTTPHandler) MarkAllRead(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	updated, err := h.svc.MarkAllRead(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, "notifications marked read", gin.H{"updated": updated})
}

func (h *HTTPHandler) Delete(c *gin.Context) {
	userID, id, ok := callerAndNotification(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), userID, id)) {
		return
	}
	httpkit.OK(c, "notification deleted", nil)
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.Nil, false
	}
	return identity.UserID(), true
}

func callerAndNotification(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := callerID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid id: must be a UUID"))
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}
