package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"syncwatch/internal/core/domain"
	"syncwatch/internal/core/ports"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "syncwatch:room:"

// RedisRegistry advertises room-code to instance-address mappings with a
// TTL so a fronting proxy can route all participants of one room to the
// process that owns it. Entries expire on their own if an instance dies;
// RunHeartbeat keeps live rooms announced.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// Config for the redis-backed room registry.
type Config struct {
	Address     string
	Password    string
	DB          int
	AnnounceTTL time.Duration
}

func NewRedisRegistry(cfg Config, logger *zap.SugaredLogger) (*RedisRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisRegistry{
		client: client,
		ttl:    cfg.AnnounceTTL,
		logger: logger,
	}, nil
}

var _ ports.RoomRegistry = (*RedisRegistry)(nil)

func (r *RedisRegistry) Announce(ctx context.Context, roomID domain.RoomID, instanceAddr string) error {
	if err := r.client.Set(ctx, keyPrefix+string(roomID), instanceAddr, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to announce room %s: %w", roomID, err)
	}
	return nil
}

func (r *RedisRegistry) Withdraw(ctx context.Context, roomID domain.RoomID) error {
	if err := r.client.Del(ctx, keyPrefix+string(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to withdraw room %s: %w", roomID, err)
	}
	return nil
}

func (r *RedisRegistry) Resolve(ctx context.Context, roomID domain.RoomID) (string, error) {
	addr, err := r.client.Get(ctx, keyPrefix+string(roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrRoomNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve room %s: %w", roomID, err)
	}
	return addr, nil
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

// RunHeartbeat refreshes announcements for the rooms reported by list
// until ctx is cancelled, at half the TTL so entries never lapse while
// the instance is healthy.
func (r *RedisRegistry) RunHeartbeat(ctx context.Context, instanceAddr string, list func() []domain.RoomID) {
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range list() {
				if err := r.Announce(ctx, id, instanceAddr); err != nil {
					r.logger.Warnw("room heartbeat failed", "room_id", id, "error", err)
				}
			}
		}
	}
}
