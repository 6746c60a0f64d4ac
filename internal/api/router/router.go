package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"gh-integration/internal/api/handler"
	"gh-integration/internal/api/middleware"
	"gh-integration/internal/core"
	"gh-integration/internal/pkg/auth"
	"gh-integration/internal/pkg/config"
)

// Setup 设置路由
func Setup(cfg *config.Config, engine *core.Engine) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger API 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authHandler := handler.NewAuthHandler(engine.Auth)
	userHandler := handler.NewUserHandler(engine.Users)
	credentialHandler := handler.NewCredentialHandler(engine.Credential)
	repositoryHandler := handler.NewRepositoryHandler(engine.Repositories, engine.Sync)

	manage := middleware.RequirePermission(auth.PermCredentialManage)

	v1 := r.Group("/api/v1")
	{
		// 认证相关(无需token)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware())
		{
			authed.GET("/auth/me", authHandler.GetMe)

			authed.GET("/users", middleware.RequirePermission(auth.PermUserView), userHandler.Search)
			authed.POST("/users", manage, userHandler.Create)
			authed.GET("/roles", userHandler.ListRoles)

			// 凭据: 写操作仅管理员, 读操作校验是否为可用凭据
			credentials := authed.Group("/credentials")
			{
				credentials.POST("", manage, credentialHandler.Create)
				credentials.GET("", manage, credentialHandler.List)
				credentials.GET("/available", credentialHandler.Available)
				credentials.GET("/:id", credentialHandler.GetByID)
				credentials.PUT("/:id", manage, credentialHandler.Update)
				credentials.POST("/:id/deactivate", manage, credentialHandler.Deactivate)
				credentials.POST("/:id/activate", manage, credentialHandler.Activate)
				credentials.PUT("/:id/authorized-users", manage, credentialHandler.SetAuthorizedUsers)
				credentials.POST("/:id/mint", credentialHandler.Mint)
				credentials.POST("/:id/validate", credentialHandler.Validate)
			}

			repositories := authed.Group("/repositories")
			{
				repositories.GET("", middleware.RequirePermission(auth.PermRepositoryView), repositoryHandler.List)
				repositories.GET("/sync-runs", middleware.RequirePermission(auth.PermRepositoryView), repositoryHandler.ListRuns)
				repositories.GET("/:id", middleware.RequirePermission(auth.PermRepositoryView), repositoryHandler.GetByID)
				repositories.POST("/sync", middleware.RequirePermission(auth.PermRepositorySync), repositoryHandler.Sync)
			}
		}
	}

	return r
}
