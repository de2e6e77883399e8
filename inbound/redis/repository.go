package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcelsud/sms-inbox/inbound"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of inbound.ConversationRepository and
 * inbound.AuditRepository
 * Uses Redis Hashes for per-number conversation state
 * Uses Redis Streams as the append-only audit trail, one stream per UTC day
 */

const (
	conversationPrefix = "conversation" // Hash naming: conversation:{phone_number}
	auditPrefix        = "audit"        // Stream naming: audit:{YYYY-MM-DD}

	// DefaultTimeout bounds a single Redis round trip
	DefaultTimeout = 5 * time.Second
)

type Repository struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Repository{
		client:  client,
		timeout: DefaultTimeout,
	}, nil
}

// Upsert creates or updates the conversation keyed by phone number.
// created_at is written once with HSetNX and the message counter is
// incremented atomically, so replaying the same call only bumps the counter.
func (r *Repository) Upsert(ctx context.Context, update inbound.ConversationUpdate) (inbound.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	hashKey := fmt.Sprintf("%s:%s", conversationPrefix, update.PhoneNumber)
	now := time.Now().UTC()

	pipe := r.client.TxPipeline()
	pipe.HSetNX(ctx, hashKey, "created_at", now.Unix())
	pipe.HSet(ctx, hashKey, map[string]interface{}{
		"phone_number":    update.PhoneNumber,
		"last_message":    update.LastMessage,
		"last_message_id": update.LastMessageID,
		"state":           update.State.String(),
		"updated_at":      now.Unix(),
	})
	count := pipe.HIncrBy(ctx, hashKey, "message_count", 1)

	if _, err := pipe.Exec(ctx); err != nil {
		return inbound.Conversation{}, fmt.Errorf("upserting conversation: %w", err)
	}

	createdAt, err := r.client.HGet(ctx, hashKey, "created_at").Result()
	if err != nil {
		return inbound.Conversation{}, fmt.Errorf("reading conversation created_at: %w", err)
	}

	return inbound.Conversation{
		PhoneNumber:   update.PhoneNumber,
		LastMessage:   update.LastMessage,
		LastMessageID: update.LastMessageID,
		State:         update.State,
		MessageCount:  count.Val(),
		CreatedAt:     time.Unix(parseInt64(createdAt), 0).UTC(),
		UpdatedAt:     now,
	}, nil
}

// Get retrieves a conversation by phone number from Redis hash
func (r *Repository) Get(ctx context.Context, phoneNumber string) (inbound.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	hashKey := fmt.Sprintf("%s:%s", conversationPrefix, phoneNumber)

	data, err := r.client.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return inbound.Conversation{}, fmt.Errorf("getting conversation: %w", err)
	}
	if len(data) == 0 {
		return inbound.Conversation{}, fmt.Errorf("conversation not found: %s", phoneNumber)
	}

	return inbound.Conversation{
		PhoneNumber:   data["phone_number"],
		LastMessage:   data["last_message"],
		LastMessageID: data["last_message_id"],
		State:         inbound.NewConversationState(data["state"]),
		MessageCount:  parseInt64(data["message_count"]),
		CreatedAt:     time.Unix(parseInt64(data["created_at"]), 0).UTC(),
		UpdatedAt:     time.Unix(parseInt64(data["updated_at"]), 0).UTC(),
	}, nil
}

// Append adds an audit record to the stream for the record's UTC day
func (r *Repository) Append(ctx context.Context, record inbound.AuditRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	headersJSON, err := json.Marshal(record.Headers)
	if err != nil {
		return fmt.Errorf("marshaling headers: %w", err)
	}

	errorsJSON, err := json.Marshal(record.Errors)
	if err != nil {
		return fmt.Errorf("marshaling errors: %w", err)
	}

	streamKey := fmt.Sprintf("%s:%s", auditPrefix, record.Date)

	_, err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{
			"id":              record.ID,
			"metric_type":     record.MetricType.String(),
			"timestamp":       record.Timestamp.Unix(),
			"source_ip":       record.SourceIP,
			"headers":         string(headersJSON),
			"body":            string(record.Body),
			"phone_number":    record.PhoneNumber,
			"message_id":      record.MessageID,
			"message_length":  record.MessageLength,
			"outcome":         record.Outcome,
			"errors":          string(errorsJSON),
			"requires_review": record.RequiresReview,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("appending audit record: %w", err)
	}

	return nil
}

// Close closes the Redis connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations
func (r *Repository) GetClient() *redis.Client {
	return r.client
}

func parseInt64(s string) int64 {
	var result int64
	fmt.Sscanf(s, "%d", &result)
	return result
}
