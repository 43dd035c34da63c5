package db

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client
var Ctx = context.Background()

const (
	// SubmitQueueKey holds ids of videos waiting for transcription submission.
	SubmitQueueKey = "clipsearch:queue:submit"
	// DeadLetterKey holds ids the submit worker could not process.
	DeadLetterKey = "clipsearch:queue:failed"
)

// ConnectRedis opens the shared client. Accepts either a redis:// URL or a
// bare host:port address.
func ConnectRedis(redisURL string) error {
	if redisURL == "" {
		return errors.New("redis URL is empty")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	Redis = redis.NewClient(opt)

	_, err = Redis.Ping(Ctx).Result()
	return err
}

func CloseRedis() {
	if Redis != nil {
		Redis.Close()
	}
}

func PushToQueue(queueKey string, data string) error {
	return Redis.LPush(Ctx, queueKey, data).Err()
}

func PopFromQueue(queueKey string, timeout time.Duration) (string, error) {
	result, err := Redis.BRPop(Ctx, timeout, queueKey).Result()
	if err != nil {
		return "", err
	}
	return result[1], nil
}

func QueueLength(queueKey string) (int64, error) {
	return Redis.LLen(Ctx, queueKey).Result()
}
