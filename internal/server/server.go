package server

import (
	"strings"
	"time"

	"anoa.com/p2pcomm/internal/config"
	"anoa.com/p2pcomm/internal/middleware"
	"anoa.com/p2pcomm/pkg/mailer"

	profileHttp "anoa.com/p2pcomm/internal/modules/profile/delivery/http"
	profileService "anoa.com/p2pcomm/internal/modules/profile/service"

	userHttp "anoa.com/p2pcomm/internal/modules/user/delivery/http"
	userRepo "anoa.com/p2pcomm/internal/modules/user/repository"
	userService "anoa.com/p2pcomm/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	repo := userRepo.NewUserRepository(db)
	mail := mailer.FromConfig(cfg)

	authSvc := userService.NewAuthService(cfg, repo, mail, redisClient)
	authHandler := userHttp.NewAuthHandler(authSvc)

	directorySvc := userService.NewDirectoryService(repo)
	userHandler := userHttp.NewUserHandler(directorySvc)

	profileSvc := profileService.NewProfileService(cfg, repo)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	router := gin.New()

	setupCORS(router, cfg)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(cfg, repo)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	api.GET("/profile/:username", profileHandler.GetPublicProfile)
	api.GET("/profile/:username/avatar", profileHandler.GetAvatar)

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/profile/me", profileHandler.GetCurrentProfile)
		protected.PATCH("/profile/me", profileHandler.UpdateProfile)

		protected.GET("/users", authMiddleware.RequireStaff(), userHandler.GetAllUsers)
		protected.GET("/users/:id", userHandler.GetUserByID)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, cfg *config.Config) {
	var origins []string
	if cfg.AllowedOrigins != "" {
		origins = strings.Split(cfg.AllowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
