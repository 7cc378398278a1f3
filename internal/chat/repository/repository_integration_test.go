package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/database"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/logger"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/testtool"
)

// Container-backed repository tests, run with CHAT_INTEGRATION=1 and a
// local docker daemon.
func TestRepositoriesIntegration(t *testing.T) {
	if os.Getenv("CHAT_INTEGRATION") == "" {
		t.Skip("set CHAT_INTEGRATION=1 to run container tests")
	}
	logger.SetNewNop()
	ctx := context.Background()

	mongoC, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:latest",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	require.NoError(t, err)
	defer mongoC.Terminate(ctx)

	redisC, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:latest",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	require.NoError(t, err)
	defer redisC.Terminate(ctx)

	mongo, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", mongoHost, mongoPort),
		RetryCount:    5,
		RetryInterval: time.Second,
	}, "test_chat_db")
	require.NoError(t, err)
	defer mongo.Close(ctx)

	redisClient := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", redisHost, redisPort)})
	defer redisClient.Close()

	t.Run("message round trip and tombstone", func(t *testing.T) {
		repo := NewMongoMessageRepository(mongo.Database)

		msg, err := domain.NewDirectMessage("alice", "bob", "hello", domain.MessageTypeText, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, msg))

		got, err := repo.FindByID(ctx, msg.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "hello", got.Content)

		got.Tombstone(time.Now().Unix())
		require.NoError(t, repo.Update(ctx, got))

		again, err := repo.FindByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.True(t, again.IsDeleted)
		assert.Equal(t, domain.DeletedPlaceholder, again.Content)

		missing, err := repo.FindByID(ctx, "no-such-id")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("direct history pages chronologically", func(t *testing.T) {
		repo := NewMongoMessageRepository(mongo.Database)

		for i := 0; i < 3; i++ {
			msg, err := domain.NewDirectMessage("carol", "dave", fmt.Sprintf("m-%d", i), domain.MessageTypeText, nil)
			require.NoError(t, err)
			msg.CreatedAt = int64(1000 + i)
			require.NoError(t, repo.Create(ctx, msg))
		}

		page, err := repo.FindDirect(ctx, "dave", "carol", 1, 10)
		require.NoError(t, err)
		require.Len(t, page, 3)
		assert.Equal(t, "m-0", page[0].Content)
		assert.Equal(t, "m-2", page[2].Content)
	})

	t.Run("room membership transition persists atomically", func(t *testing.T) {
		repo := NewMongoRoomRepository(mongo.Database)

		room := domain.NewRoom("admin", "Go Club", "", []string{"m1"})
		require.NoError(t, repo.Create(ctx, room))

		room.RemoveMember("admin")
		require.NoError(t, repo.Update(ctx, room))

		got, err := repo.FindByID(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"m1"}, got.Admins)
		assert.Equal(t, domain.RoleAdmin, got.Members[0].Role)
	})

	t.Run("notification unread count and mark all", func(t *testing.T) {
		repo := NewMongoNotificationRepository(mongo.Database)

		for i := 0; i < 2; i++ {
			n := domain.NewNotification("erin", "frank", domain.NotificationMessage, fmt.Sprintf("msg-%d", i), "", "hi")
			require.NoError(t, repo.Create(ctx, n))
		}

		count, err := repo.CountUnread(ctx, "erin")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		require.NoError(t, repo.MarkAllRead(ctx, "erin", time.Now().Unix()))

		count, err = repo.CountUnread(ctx, "erin")
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("relay pub sub round trip", func(t *testing.T) {
		ps := NewRedisPubSub(redisClient)

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		received := make(chan domain.RelayEvent, 1)
		require.NoError(t, ps.Subscribe(subCtx, UserChannel("bob"), func(ev domain.RelayEvent) {
			received <- ev
		}))

		// subscriber goroutine needs a moment to attach
		time.Sleep(200 * time.Millisecond)

		ev := domain.RelayEvent{
			NodeID: "node-a",
			Resp:   domain.WSResponse{Action: "receive_message", Success: true},
		}
		require.NoError(t, ps.Publish(ctx, UserChannel("bob"), ev))

		select {
		case got := <-received:
			assert.Equal(t, "node-a", got.NodeID)
			assert.Equal(t, "receive_message", got.Resp.Action)
		case <-time.After(3 * time.Second):
			t.Fatal("relay event not received")
		}
	})
}
