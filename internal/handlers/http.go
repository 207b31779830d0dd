package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"realworld/internal/config"
	"realworld/internal/metrics"
	"realworld/internal/middlewares"
	"realworld/internal/services"
)

// Pinger 用于健康检查（通常为数据库 Ping）。
type Pinger func(ctx context.Context) error

// Handler 聚合所有依赖（配置、服务、限流器）并注册所有 HTTP 路由。
type Handler struct {
	cfg      config.Config
	users    *services.UserService
	profiles *services.ProfileService
	articles *services.ArticleService
	comments *services.CommentService
	tags     *services.TagService
	tokens   *services.TokenService
	ping     Pinger
	limiter  middlewares.Limiter
}

// Deps 为 Handler 的构造参数。
type Deps struct {
	Users    *services.UserService
	Profiles *services.ProfileService
	Articles *services.ArticleService
	Comments *services.CommentService
	Tags     *services.TagService
	Tokens   *services.TokenService
	Ping     Pinger
	// 为 nil 时不限流
	Limiter middlewares.Limiter
}

// New 构造 Handler，将各领域服务注入，用于后续路由注册与处理。
func New(cfg config.Config, d Deps) *Handler {
	return &Handler{
		cfg:      cfg,
		users:    d.Users,
		profiles: d.Profiles,
		articles: d.Articles,
		comments: d.Comments,
		tags:     d.Tags,
		tokens:   d.Tokens,
		ping:     d.Ping,
		limiter:  d.Limiter,
	}
}

// Router 构建完整的 Gin 引擎：恢复、请求 ID、访问日志、安全头、CORS、指标与全部路由。
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithField("request_id", middlewares.GetRequestID(c)).WithField("panic", recovered).Error("panic recovered")
		middlewares.AbortWithErrors(c, http.StatusInternalServerError, "Internal server error")
	}))
	router.Use(middlewares.RequestID())
	router.Use(middlewares.RequestLogger())
	router.Use(middlewares.SecurityHeaders(h.cfg.Security))
	router.Use(middlewares.CORS(h.cfg.CORS.AllowedOrigins))
	router.Use(metrics.Handler())
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes 在 Gin 路由上挂载 API（前缀可配置）与运维端点。
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	auth := middlewares.RequireAuth(h.tokens)
	optional := middlewares.OptionalAuth(h.tokens)
	window := h.cfg.Limits.Window
	if window <= 0 {
		window = time.Minute
	}

	api := r.Group(h.cfg.APIPrefix)

	// 用户与认证
	api.POST("/users", middlewares.RateLimit(h.limiter, "register", h.cfg.Limits.RegisterPerMinute, window, middlewares.ByClientIP), h.register)
	api.POST("/users/login", middlewares.RateLimit(h.limiter, "login", h.cfg.Limits.LoginPerMinute, window, middlewares.ByClientIP), h.login)
	api.GET("/user", auth, h.currentUser)
	api.PUT("/user", auth, h.updateUser)

	// 资料与关注
	api.GET("/profiles/:username", optional, h.getProfile)
	api.POST("/profiles/:username/follow", auth, h.follow)
	api.DELETE("/profiles/:username/follow", auth, h.unfollow)

	// 文章、收藏与评论
	api.GET("/articles", optional, h.listArticles)
	api.GET("/articles/feed", auth, h.feed)
	api.POST("/articles", auth, h.createArticle)
	api.GET("/articles/:slug", optional, h.getArticle)
	api.PUT("/articles/:slug", auth, h.updateArticle)
	api.DELETE("/articles/:slug", auth, h.deleteArticle)
	api.POST("/articles/:slug/favorite", auth, h.favorite)
	api.DELETE("/articles/:slug/favorite", auth, h.unfavorite)
	api.GET("/articles/:slug/comments", optional, h.listComments)
	api.POST("/articles/:slug/comments", auth, h.addComment)
	api.DELETE("/articles/:slug/comments/:id", auth, h.deleteComment)

	api.GET("/tags", h.listTags)

	// 运维端点
	r.GET("/healthz", h.healthz)
	r.GET("/metrics", metrics.Exposer())
	r.GET("/", h.root)
	r.NoRoute(h.notFound)
}

// healthz 健康检查：数据库不可达时返回 503。
// @Summary      健康检查
// @Tags         ops
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Router       /healthz [get]
func (h *Handler) healthz(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			log.WithError(err).WithField("request_id", middlewares.GetRequestID(c)).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// root 返回欢迎信息与 API 入口。
func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "RealWorld API",
		"message": "Welcome to the RealWorld API",
		"api":     h.cfg.APIPrefix,
	})
}

func (h *Handler) notFound(c *gin.Context) {
	writeErrors(c, http.StatusNotFound, "Not found")
}
