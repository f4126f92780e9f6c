package http

import (
	"github.com/gin-gonic/gin"

	"github.com/lattice-saas/lattice/internal/domain/access"
	accesshandler "github.com/lattice-saas/lattice/internal/interfaces/http/handlers/access"
	"github.com/lattice-saas/lattice/internal/interfaces/http/handlers/tenantctx"
	"github.com/lattice-saas/lattice/internal/interfaces/http/middleware"
	"github.com/lattice-saas/lattice/internal/shared/logger"
)

type Router struct {
	engine        *gin.Engine
	accessHandler *accesshandler.Handler
	tenantHandler *tenantctx.Handler
	authMW        *middleware.AuthMiddleware
	permMW        *middleware.PermissionMiddleware
	logger        logger.Interface
}

func NewRouter(
	accessHandler *accesshandler.Handler,
	tenantHandler *tenantctx.Handler,
	authMW *middleware.AuthMiddleware,
	permMW *middleware.PermissionMiddleware,
	log logger.Interface,
) *Router {
	return &Router{
		engine:        gin.New(),
		accessHandler: accessHandler,
		tenantHandler: tenantHandler,
		authMW:        authMW,
		permMW:        permMW,
		logger:        log,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestLogger(r.logger))

	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.engine.Group("/api/v1")
	v1.Use(r.authMW.RequireAuth())
	{
		v1.POST("/access/check", r.accessHandler.Check)

		v1.GET("/tenant/context", r.tenantHandler.Current)
		v1.POST("/tenant/switch", r.tenantHandler.Switch)
		v1.POST("/tenant/clear", r.tenantHandler.Clear)

		admin := v1.Group("/admin")
		admin.Use(r.permMW.RequirePermission("access_cache", access.ActionManage))
		{
			admin.DELETE("/cache", r.accessHandler.InvalidateCache)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
