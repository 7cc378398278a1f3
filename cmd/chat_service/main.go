package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/app"
	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/repository"
	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/router"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/config"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/database"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/logger"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)

	ctx := context.Background()

	// mongo holds messages, rooms and notifications
	mongoURI := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.Mongo.User, cfg.Mongo.Password, cfg.Mongo.Host, cfg.Mongo.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    mongoURI,
			RetryCount:    cfg.Mongo.RetryCount,
			RetryInterval: time.Duration(cfg.Mongo.RetryInterval) * time.Second,
		},
		cfg.Mongo.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s]", mongoURI)),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)

	// redis carries the session store and the cross-node relay
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	// postgres is the source of truth for user profiles and block lists
	pgURI := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Database)
	pgPool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    pgURI,
		RetryCount:    cfg.Postgres.RetryCount,
		RetryInterval: time.Duration(cfg.Postgres.RetryInterval) * time.Second,
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect postgres err : %v", err))
	}
	defer pgPool.Close()

	// delivery audit stream, optional
	var events repository.EventStream
	if len(cfg.Kafka.Brokers) > 0 {
		writer, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			RetryCount:    cfg.Kafka.RetryCount,
			RetryInterval: time.Duration(cfg.Kafka.RetryInterval) * time.Second,
		})
		if err != nil {
			logger.Log.Warn("kafka unavailable, delivery audit disabled", zap.Error(err))
		} else {
			defer writer.Close()
			events = repository.NewKafkaEventStream(writer)
		}
	}

	// attachment blob store, optional
	var attachments repository.AttachmentStore
	if cfg.MinIO.Endpoint != "" {
		mc, err := database.NewMinIOConnection(database.MinIOConnection{
			Endpoint:      cfg.MinIO.Endpoint,
			User:          cfg.MinIO.User,
			Password:      cfg.MinIO.Password,
			BucketName:    cfg.MinIO.Bucket,
			UseSSL:        cfg.MinIO.UseSSL,
			RetryCount:    cfg.MinIO.RetryCount,
			RetryInterval: time.Duration(cfg.MinIO.RetryInterval) * time.Second,
		})
		if err != nil {
			logger.Log.Warn("minio unavailable, attachments disabled", zap.Error(err))
		} else {
			attachments = repository.NewMinIOAttachmentStore(mc)
		}
	}

	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	roomRepo := repository.NewMongoRoomRepository(mongo.Database)
	notifRepo := repository.NewMongoNotificationRepository(mongo.Database)
	userRepo := repository.NewUserRepository(pgPool)
	sessionStore := database.NewRedisRepository[domain.Session](redisClient)
	validator := repository.NewSessionValidator(sessionStore, cfg.SessionTTL)
	pubsub := repository.NewRedisPubSub(redisClient)

	presence := app.NewPresenceRegistry()
	notifUC := app.NewNotificationUseCase(notifRepo, cfg.OpTimeout)
	fanout := app.NewFanoutRouter(presence, roomRepo, notifUC, pubsub, events, cfg.NodeID, cfg.OpTimeout)
	messageUC := app.NewMessageUseCase(msgRepo, roomRepo, userRepo, attachments, fanout, cfg.OpTimeout)
	roomUC := app.NewRoomUseCase(roomRepo, cfg.OpTimeout)
	sessions := app.NewSessionManager(presence, userRepo, validator, pubsub, cfg.NodeID, cfg.OpTimeout)

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, app.NewChatWebsocketHandler(sessions, messageUC, roomUC, notifUC, fanout))

	port := ":" + cfg.Port
	log.Printf("Chat Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
