package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rnkp755/chefcognito/config"
	"github.com/rnkp755/chefcognito/internal/api"
	"github.com/rnkp755/chefcognito/internal/middleware"
	"github.com/rnkp755/chefcognito/internal/service"
)

// Server wires the services into a gin engine.
type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

// New assembles every service and handler. The S3 client is optional:
// without it, photo archiving is skipped and detection still works.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, s3cfg *config.S3Config, logger *zap.Logger) *Server {
	llm := service.NewLLMClient(cfg, logger)
	auth := service.NewAuthService(cfg.JWT.Secret)
	preferences := service.NewPreferenceService(db)
	conversations := service.NewConversationService(db, redisClient, llm, logger)
	recipes := service.NewRecipeService(db, logger)
	tools := service.NewToolRouter(conversations, recipes, preferences, logger)
	workflow := service.NewChatWorkflow(llm, conversations, preferences, logger)

	var images *service.ImageService
	if s3cfg != nil {
		images = service.NewImageService(s3cfg, logger)
	}

	router := gin.Default()
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(auth))

	chatGroup := v1.Group("")
	generationGroup := v1.Group("")
	if redisClient != nil {
		chatGroup.Use(middleware.NewChatRateLimiter(redisClient).RateLimitMiddleware())
		generationGroup.Use(middleware.NewGenerationRateLimiter(redisClient).RateLimitMiddleware())
	}

	api.NewChatHandler(llm, workflow, tools, conversations, preferences, logger).RegisterRoutes(chatGroup)
	api.NewRecipeHandler(llm, recipes, preferences, logger).RegisterRoutes(generationGroup)
	api.NewIngredientHandler(llm, images, logger).RegisterRoutes(generationGroup)
	api.NewToolHandler(tools).RegisterRoutes(v1)
	api.NewPreferenceHandler(preferences).RegisterRoutes(v1)

	return &Server{router: router, logger: logger}
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start blocks serving HTTP until the listener fails or is shut down.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	s.logger.Info("server listening", zap.String("addr", addr))

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
