package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"discussion-service/internal/db"
	"discussion-service/internal/handlers"
	"discussion-service/internal/middleware"
	"discussion-service/internal/observability"
	"discussion-service/internal/rabbitmq"
	"discussion-service/internal/repositories"
	"discussion-service/internal/telemetry"
	"discussion-service/internal/tracing"
	"discussion-service/internal/ws"
)

func main() {
	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing, err := tracing.Setup(context.Background(), "discussion-service", getEnv("OTLP_GRPC_ENDPOINT", ""))
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	publisher := rabbitmq.NewPublisher(getEnv("AMQP_URL", ""), getEnv("AMQP_EXCHANGE", "platform.events"))
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))
	observability.SetPublisher(publisher)

	audit := telemetry.NewAuditEmitter(publisher, "audit.discussions", "discussion-service", getEnv("ENVIRONMENT", "dev"))

	sessionRepo := repositories.NewSessionRepo(database)
	userRepo := repositories.NewUserRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	videoMessageRepo := repositories.NewVideoMessageRepo(database)
	groupMessageRepo := repositories.NewGroupMessageRepo(database)

	registry := ws.NewRegistry()
	wsRouter := ws.NewRouter(registry, groupRepo, videoMessageRepo, groupMessageRepo)
	gateway := ws.NewGateway(registry, wsRouter, sessionRepo, userRepo)

	groupHandler := handlers.NewGroupHandler(groupRepo, groupMessageRepo, userRepo, wsRouter, audit)
	videoHandler := handlers.NewVideoHandler(videoMessageRepo, userRepo, wsRouter, audit)

	router := gin.New()

	// middlewares
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("discussion-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	sessionAuth := middleware.SessionAuth(sessionRepo)

	router.GET("/groups", sessionAuth, groupHandler.ListGroups)
	router.POST("/groups", sessionAuth, groupHandler.CreateGroup)
	router.POST("/groups/join", sessionAuth, groupHandler.JoinGroup)
	router.GET("/groups/:group_id", sessionAuth, groupHandler.GetGroup)
	router.GET("/groups/:group_id/messages", sessionAuth, groupHandler.GetGroupMessages)
	router.POST("/groups/:group_id/messages", sessionAuth, groupHandler.PostGroupMessage)

	router.GET("/videos/:video_id/messages", sessionAuth, videoHandler.GetVideoMessages)
	router.POST("/videos/:video_id/messages", sessionAuth, videoHandler.PostVideoMessage)

	router.GET("/ws", gateway.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, registry, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8086")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
