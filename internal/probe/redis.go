package probe

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Redis probes a Redis server with PING.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

func (p Redis) Ready(ctx context.Context) (bool, error) {
	client := redis.NewClient(&redis.Options{Addr: p.Addr, Password: p.Password, DB: p.DB})
	defer func() { _ = client.Close() }()
	if err := client.Ping(ctx).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p Redis) Describe() string { return "redis:" + p.Addr }
