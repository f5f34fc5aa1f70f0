package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-room-service/internal/auth"
	"chat-room-service/internal/broadcast"
	"chat-room-service/internal/cache"
	"chat-room-service/internal/clients"
	"chat-room-service/internal/config"
	"chat-room-service/internal/db"
	"chat-room-service/internal/handlers"
	"chat-room-service/internal/logging"
	"chat-room-service/internal/middleware"
	"chat-room-service/internal/observability"
	"chat-room-service/internal/rabbitmq"
	"chat-room-service/internal/repositories"
	"chat-room-service/internal/services"
	"chat-room-service/internal/telemetry"
	"chat-room-service/internal/ws"
)

const serviceName = "chat-room-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.L().Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, ServiceName: serviceName})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		logging.L().Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logging.L().Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		logging.L().Fatal().Err(err).Msg("failed to connect to db")
	}
	defer database.Close()

	decoder, err := auth.NewJWTDecoder(cfg.JWTSecret)
	if err != nil {
		logging.L().Fatal().Err(err).Msg("failed to build token decoder")
	}
	memberClient := clients.NewMemberClient(cfg.MemberAPIBaseURL, cfg.MemberAPIToken)

	if cfg.AMQPURL != "" {
		eventsPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logging.L().Warn().Err(err).Msg("event publishing disabled")
		} else {
			observability.SetPublisher(eventsPublisher)
			defer eventsPublisher.Close()
		}
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	logging.L().Info().Str("mode", rabbitmq.PublisherMode(auditPublisher)).Msg("audit publisher ready")
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit_log.chat", serviceName, cfg.Environment)

	var recentCache services.RecentRoomsCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		recentCache = cache.NewRecentRooms(redisClient)
	}

	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	participantRepo := repositories.NewParticipantRepo(database)

	hub := ws.NewHub()
	chatService := services.NewChatService(roomRepo, messageRepo, participantRepo, recentCache)
	coordinator := broadcast.NewCoordinator(hub)

	chatHandler := handlers.NewChatHandler(chatService, coordinator, memberClient)
	streamHandler := ws.NewRoomStreamHandler(hub, roomRepo, decoder)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(decoder)

	router.GET("/", chatHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1", authMiddleware)
	v1.GET("/members/me", chatHandler.GetMe)
	v1.GET("/chats/rooms", chatHandler.ListRooms)
	v1.POST("/chats/rooms", chatHandler.CreateRoom)
	v1.GET("/chats/rooms/recent", chatHandler.RecentRooms)
	v1.POST("/chats/rooms/one-to-one", chatHandler.EnsureOneToOneRoom)
	v1.DELETE("/chats/rooms/:room_id", chatHandler.DeleteRoom)
	v1.GET("/chats/rooms/:room_id/messages", chatHandler.GetRoomMessages)
	v1.POST("/chats/rooms/:room_id/messages", chatHandler.SendMessage)
	v1.DELETE("/chats/rooms/:room_id/messages/:message_id", chatHandler.DeleteMessage)
	v1.PATCH("/chats/rooms/:room_id/messages/:message_id/status", chatHandler.UpdateMessageStatus)
	v1.GET("/chats/rooms/:room_id/participants", chatHandler.GetParticipants)

	router.GET("/ws/rooms/:room_id", streamHandler.Handle)

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logging.L().Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.L().Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logging.L().Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.L().Warn().Err(err).Msg("server shutdown failed")
	}

	// Drain after the listener stops so no write races a closing connection.
	hub.Drain()
}
