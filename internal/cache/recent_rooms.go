package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"chat-room-service/internal/logging"
	"chat-room-service/internal/models"
)

const (
	recentRoomsKeyPrefix = "chat:recent_rooms:"
	recentRoomsTTL       = 5 * time.Minute
)

// RecentRooms is a redis-backed cache for a member's recent room list.
// Cache failures degrade to the database; they are never surfaced.
type RecentRooms struct {
	client *redis.Client
}

// NewRecentRooms builds the cache over an existing redis client.
func NewRecentRooms(client *redis.Client) *RecentRooms {
	return &RecentRooms{client: client}
}

// Get returns the cached list and whether it was present.
func (c *RecentRooms) Get(ctx context.Context, memberID string) ([]models.ChatRoom, bool) {
	raw, err := c.client.Get(ctx, recentRoomsKeyPrefix+memberID).Bytes()
	if err != nil {
		if err != redis.Nil {
			logging.L().Warn().Err(err).Msg("recent rooms cache read failed")
		}
		return nil, false
	}

	var rooms []models.ChatRoom
	if err := json.Unmarshal(raw, &rooms); err != nil {
		logging.L().Warn().Err(err).Msg("recent rooms cache entry corrupt")
		return nil, false
	}
	return rooms, true
}

// Set stores the list with a short TTL.
func (c *RecentRooms) Set(ctx context.Context, memberID string, rooms []models.ChatRoom) {
	raw, err := json.Marshal(rooms)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, recentRoomsKeyPrefix+memberID, raw, recentRoomsTTL).Err(); err != nil {
		logging.L().Warn().Err(err).Msg("recent rooms cache write failed")
	}
}

// Invalidate drops the cached lists for the given members.
func (c *RecentRooms) Invalidate(ctx context.Context, memberIDs ...string) {
	if len(memberIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		keys = append(keys, recentRoomsKeyPrefix+id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logging.L().Warn().Err(err).Msg("recent rooms cache invalidation failed")
	}
}
