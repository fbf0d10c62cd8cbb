// Package http holds the contract between the router and the feature
// modules that mount routes on it.
package http

import (
	"brokerage_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module is a feature area with its own routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext hands modules the route groups they may mount on.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1 without authentication.
	V1 *gin.RouterGroup
	// Protected is V1 behind AuthMiddleware.
	Protected *gin.RouterGroup
	// Admin is Protected restricted to administrators.
	Admin          *gin.RouterGroup
	Config         config.JWTConfig
	AuthMiddleware gin.HandlerFunc
}
