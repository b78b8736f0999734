package mq

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ListingCreated       = "listing.created"
	ListingUpdated       = "listing.updated"
	ListingClaimed       = "listing.claimed"
	ListingsExpired      = "listings.expired"
	PickupAdvanced       = "pickup.advanced"
	RedistributionLogged = "redistribution.logged"
)

// Event is a lifecycle notification. Consumers are outside this service.
type Event struct {
	Name     string    `json:"name"`
	EntityID string    `json:"entity_id"`
	ActorID  string    `json:"actor_id,omitempty"`
	Payload  any       `json:"payload,omitempty"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// redisPublishClient is the slice of *redis.Client the publisher needs.
type redisPublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher sends events as JSON over Redis pub/sub.
type RedisPublisher struct {
	conn    redisPublishClient
	channel string
}

func NewRedisPublisher(conn redisPublishClient, channel string) *RedisPublisher {
	return &RedisPublisher{conn: conn, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.conn.Publish(ctx, p.channel, data).Err()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Emit publishes evt and only logs a failure; the write it describes has
// already committed.
func Emit(ctx context.Context, pub Publisher, evt Event) {
	if pub == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	if err := pub.Publish(ctx, evt); err != nil {
		log.Printf("[Emit] failed to publish %s for %s: %v", evt.Name, evt.EntityID, err)
	}
}
