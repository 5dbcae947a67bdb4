package notify

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	appnotify "github.com/Alex240101/oxapampa/internal/application/notify"
)

func TestNewRedisSink_DefaultChannel(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	assert.Equal(t, DefaultChannel, NewRedisSink(client, "").Channel())
	assert.Equal(t, "custom", NewRedisSink(client, "custom").Channel())
}

func TestRedisSink_PublishFailure(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	err := NewRedisSink(client, "").Notify(context.Background(), appnotify.Notification{Kind: appnotify.KindImportProgress})
	assert.ErrorContains(t, err, DefaultChannel)
}
