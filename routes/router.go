package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/postboard/config"
	"github.com/cppla/postboard/controllers"
	"github.com/cppla/postboard/middleware"
	"github.com/cppla/postboard/services"
	"github.com/cppla/postboard/utils"
	"github.com/cppla/postboard/views"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, db *gorm.DB, cache utils.Cache, logger *zap.Logger) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	// Access log goes to its own rolling file when GIN_PATH is set.
	accessLog := logger
	if cfg.GinPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err == nil {
			accessLog = gl
		} else {
			logger.Warn("access log file unavailable, using application logger", zap.Error(err))
		}
	}
	r.Use(middleware.RequestID())
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(logger, true))
	r.Use(middleware.Metrics())

	if len(cfg.AllowedOrigins) > 0 {
		corsCfg := cors.Config{
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}
		if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
			corsCfg.AllowAllOrigins = true
			corsCfg.AllowCredentials = false
		} else {
			corsCfg.AllowOrigins = cfg.AllowedOrigins
		}
		r.Use(cors.New(corsCfg))
	}

	r.SetHTMLTemplate(views.Templates())

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	authService := services.NewAuthService(db)
	userService := services.NewUserService(db)
	postService := services.NewPostService(db, cache, ttl, logger)

	store := utils.NewSessionStore(cfg.SecretKey, cfg.SessionCookieName,
		time.Duration(cfg.SessionMaxAgeHours)*time.Hour, cfg.SessionSecure)

	r.GET("/health", func(ctx *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx.Request.Context())
		}
		if err != nil {
			logger.Error("health check failed", zap.Error(err))
			utils.Fail(ctx, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authController := controllers.NewAuthController(authService)
	postController := controllers.NewPostController(postService)

	site := r.Group("")
	site.Use(middleware.Sessions(store), middleware.LoadCurrentUser(userService))

	limited := middleware.RateLimit(cfg.RateLimitPerMinute)
	site.GET("/", postController.Index)
	site.GET("/register", authController.RegisterForm)
	site.POST("/register", limited, authController.Register)
	site.GET("/login", authController.LoginForm)
	site.POST("/login", limited, authController.Login)
	site.GET("/logout", authController.Logout)
	site.GET("/post/:id", postController.View)
	site.GET("/post/:id/reply", postController.ReplyRedirect)

	protected := site.Group("")
	protected.Use(middleware.LoginRequired())
	protected.GET("/create", postController.CreateForm)
	protected.POST("/create", postController.Create)
	protected.POST("/post/:id/reply", postController.Reply)

	r.NoRoute(middleware.Sessions(store), middleware.LoadCurrentUser(userService), controllers.NotFound)

	return r
}
