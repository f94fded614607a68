package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/thereayou/taskflow/internal/access"
	"github.com/thereayou/taskflow/internal/config"
	"github.com/thereayou/taskflow/internal/database"
	"github.com/thereayou/taskflow/internal/directory"
	"github.com/thereayou/taskflow/internal/handlers"
	"github.com/thereayou/taskflow/internal/middleware"
	"github.com/thereayou/taskflow/internal/realtime"
	"github.com/thereayou/taskflow/internal/websocket"
	"github.com/thereayou/taskflow/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *websocket.Hub

	cfg  *config.Config
	log  *zap.Logger
	srv  *http.Server
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	users := directory.New(jwtMgr, directory.NewRedisRevocations(rdb), db, logger)

	hub := websocket.NewHub(logger)
	guard := access.NewGuard(db)
	notifier := realtime.NewNotifier(db, hub, logger)
	router := realtime.NewRouter(hub, guard, db, db, notifier, logger)
	connector := websocket.NewConnector(hub, users, db, websocket.ConnectorConfig{
		HandshakeTimeout:  cfg.HandshakeTimeout,
		MembershipRetries: cfg.MembershipRetries,
		RetryDelay:        cfg.MembershipRetryDelay,
	}, logger)

	h := Handlers{
		Auth:          handlers.NewAuthHandler(db, jwtMgr, users, logger),
		Users:         handlers.NewUserHandler(db, hub, logger),
		Projects:      handlers.NewProjectHandler(db, db, guard, notifier, hub, logger),
		Tasks:         handlers.NewTaskHandler(db, guard, router, logger),
		Comments:      handlers.NewCommentHandler(db, db, guard, router, logger),
		Notifications: handlers.NewNotificationHandler(db, router, logger),
		Realtime:      handlers.NewRealtimeHandler(connector, hub, logger),
		WebSocket:     handlers.NewWebSocketHandler(connector, router, cfg.AllowedOrigins, logger),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))
	APIEndpoints(engine, h, middleware.AuthMiddleware(users))

	return &Server{
		Router:     engine,
		DB:         db,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Hub:        hub,
		cfg:        cfg,
		log:        logger,
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем останавливает hub и закрывает соединения.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("port", s.cfg.Port))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.log.Info("server shutting down")
	err := s.srv.Shutdown(shutdownCtx)
	s.close()
	return err
}

func (s *Server) close() {
	s.Hub.Stop()
	if err := s.Redis.Close(); err != nil {
		s.log.Warn("redis close", zap.Error(err))
	}
	if err := s.DB.Close(); err != nil {
		s.log.Warn("postgres close", zap.Error(err))
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
