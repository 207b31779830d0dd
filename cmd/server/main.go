package main

// @title           RealWorld (Conduit) API
// @version         0.1.0
// @description     基于 Go(Gin) 的博客平台后端：用户、关注、文章、收藏、评论与标签。
// @schemes         http https
// @BasePath        /api
// @securityDefinitions.apikey TokenAuth
// @in header
// @name Authorization

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"realworld/internal/config"
	"realworld/internal/handlers"
	"realworld/internal/middlewares"
	"realworld/internal/services"
	"realworld/internal/storage"
)

// main 为服务入口：加载配置、初始化日志/存储/服务、注册路由并启动 HTTP 服务。
func main() {
	configPath := flag.String("config", "", "path to config file (default: ./config.yaml|config.yml|config.json)")
	flag.Parse()

	// 配置结构化日志格式
	log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("configuration error")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("configuration error")
	}
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithField("level", cfg.Log.Level).Warn("unknown log level, using info")
	}
	if cfg.Env == "prod" && cfg.Database.Driver == "mysql" && cfg.Database.MySQL.User == "root" {
		log.Warn("using MySQL root in prod is discouraged")
	}
	log.WithFields(log.Fields{
		"env":        cfg.Env,
		"http_addr":  cfg.HTTPAddr,
		"api_prefix": cfg.APIPrefix,
		"db_driver":  cfg.Database.Driver,
		"db_dsn":     cfg.Database.DSNMasked(),
		"redis":      cfg.Redis.Enable,
		"redis_addr": cfg.Redis.Addr,
	}).Info("configuration loaded")

	// 初始化存储
	db, err := storage.Open(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	defer storage.Close(db)

	// 限流后端：启用 Redis 时跨实例共享计数，否则使用进程内令牌桶
	var limiter middlewares.Limiter
	if cfg.Redis.Enable {
		rdb, err := storage.InitRedis(context.Background(), cfg.Redis)
		if err != nil {
			log.WithError(err).Fatal("failed to connect redis")
		}
		defer func() { _ = rdb.Close() }()
		limiter = middlewares.NewRedisLimiter(rdb)
	} else {
		limiter = middlewares.NewLocalLimiter()
	}

	// 初始化仓储与领域服务
	userRepo := storage.NewUserRepo(db)
	followRepo := storage.NewFollowRepo(db)
	favoriteRepo := storage.NewFavoriteRepo(db)
	tagRepo := storage.NewTagRepo(db)
	articleRepo := storage.NewArticleRepo(db)
	commentRepo := storage.NewCommentRepo(db)

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handlers.New(cfg, handlers.Deps{
		Users:    services.NewUserService(userRepo, followRepo),
		Profiles: services.NewProfileService(userRepo, followRepo),
		Articles: services.NewArticleService(articleRepo, userRepo, tagRepo, favoriteRepo, followRepo),
		Comments: services.NewCommentService(commentRepo, articleRepo, userRepo, followRepo),
		Tags:     services.NewTagService(tagRepo),
		Tokens:   services.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL),
		Ping:     func(ctx context.Context) error { return storage.Ping(ctx, db) },
		Limiter:  limiter,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	// 优雅退出
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown")
	} else {
		log.Info("server stopped")
	}
}
