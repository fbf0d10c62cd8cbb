package handler

import (
	"context"
	"net/http"

	"brokerage_backend/internal/leads/domain"
	"brokerage_backend/internal/leads/management"
	"brokerage_backend/internal/leads/transport"
	"brokerage_backend/platform/httpkit"
	"brokerage_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ActorResolver turns an authenticated identity into a lead actor.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID uuid.UUID, roles []string) (domain.Actor, error)
}

type Handler struct {
	svc    *management.Service
	actors ActorResolver
	val    *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *management.Service, actors ActorResolver, val *validator.Validator) *Handler {
	return &Handler{svc: svc, actors: actors, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/transferred", h.ListTransferred)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.PATCH("/:id/verification", h.UpdateVerification)
	rg.POST("/:id/transfers", h.Transfer)
	rg.DELETE("/:id/transfers/:fromBrokerId/:toBrokerId", h.RemoveTransfer)
}

func (h *Handler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req transport.CreateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, "lead created", lead)
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.List(c.Request.Context(), actor, q)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, "", result)
}

func (h *Handler) ListTransferred(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q transport.TransferredLeadsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.ListTransferred(c.Request.Context(), actor, q)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, "", result)
}

func (h *Handler) GetByID(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	lead, err := h.svc.GetByID(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, "", lead)
}

func (h *Handler) Update(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req transport.UpdateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.svc.Update(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, "lead updated", lead)
}

func (h *Handler) Delete(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), actor, id)) {
		return
	}
	httpkit.OK(c, "lead deleted", nil)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req transport.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.svc.UpdateStatus(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, "status updated", lead)
}

func (h *Handler) UpdateVerification(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req transport.UpdateVerificationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.svc.UpdateVerification(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, "verification updated", lead)
}

func (h *Handler) Transfer(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req transport.TransferRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Transfer(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, "lead transferred", result)
}

func (h *Handler) RemoveTransfer(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	from, err := domain.ParseID("fromBrokerId", c.Param("fromBrokerId"))
	if httpkit.HandleError(c, err) {
		return
	}
	to, err := domain.ParseID("toBrokerId", c.Param("toBrokerId"))
	if httpkit.HandleError(c, err) {
		return
	}

	lead, err := h.svc.RemoveTransfer(c.Request.Context(), actor, id, from, to)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, "transfer removed", lead)
}

func (h *Handler) actor(c *gin.Context) (domain.Actor, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return domain.Actor{}, false
	}
	actor, err := h.actors.ResolveActor(c.Request.Context(), identity.UserID(), identity.Roles())
	if httpkit.HandleError(c, err) {
		return domain.Actor{}, false
	}
	return actor, true
}

func (h *Handler) actorAndID(c *gin.Context) (domain.Actor, uuid.UUID, bool) {
	id, err := domain.ParseID("id", c.Param("id"))
	if httpkit.HandleError(c, err) {
		return domain.Actor{}, uuid.Nil, false
	}
	actor, ok := h.actor(c)
	return actor, id, ok
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}
