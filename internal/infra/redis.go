// README: Redis client shared by the ledger, account, location and kill-switch stores.
package infra

import (
    "context"
    "fmt"

    "github.com/redis/go-redis/v9"
)

type RedisOptions struct {
    Addr     string
    Password string
    DB       int
}

func NewRedis(ctx context.Context, o RedisOptions) (*redis.Client, error) {
    client := redis.NewClient(&redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB})
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil, fmt.Errorf("ping redis %s: %w", o.Addr, err)
    }
    return client, nil
}
