package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcelsud/sms-inbox/inbound"
	"github.com/marcelsud/sms-inbox/telnyx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

/* Consumer drains webhook requests that an upstream relay parked on a Redis
 * Stream instead of delivering over HTTP. Each entry carries the raw body and
 * headers, so the pipeline applies the exact same verification as the front
 * door. Entries are acknowledged whether or not they verify - a request that
 * fails verification is rejected and audited, not retried
 */

const (
	consumerGroup = "telnyx-workers"
	consumerName  = "worker"
)

// Handler processes one queued webhook request
type Handler interface {
	Handle(ctx context.Context, req telnyx.Request) inbound.Result
}

type Consumer struct {
	client  *redis.Client
	stream  string
	handler Handler
	logger  zerolog.Logger
}

// NewConsumer creates a stream consumer bound to an existing Redis connection
func NewConsumer(client *redis.Client, stream string, handler Handler, logger zerolog.Logger) *Consumer {
	return &Consumer{
		client:  client,
		stream:  stream,
		handler: handler,
		logger:  logger,
	}
}

// Run consumes the stream until ctx is canceled
func (c *Consumer) Run(ctx context.Context) error {
	// Create consumer group if it doesn't exist
	if err := c.client.XGroupCreateMkStream(ctx, c.stream, consumerGroup, "0").Err(); err != nil && !isBusyGroup(err) {
		return fmt.Errorf("creating consumer group: %w", err)
	}

	c.logger.Info().
		Str("stream", c.stream).
		Str("group", consumerGroup).
		Msg("stream consumer started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    consumerGroup,
			Consumer: consumerName,
			Streams:  []string{c.stream, ">"},
			Count:    10,
			Block:    1 * time.Second,
		}).Result()
		if err == redis.Nil {
			// No messages available
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error().Err(err).Msg("reading from stream")
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				c.process(ctx, msg)
			}
		}
	}
}

// process runs one queued entry through the handler and acknowledges it.
// Malformed entries are acknowledged too; leaving them pending would make the
// group re-deliver them forever.
func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	req, err := requestFromMessage(msg)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("message_id", msg.ID).
			Msg("discarding malformed stream entry")
	} else {
		result := c.handler.Handle(ctx, req)
		c.logger.Info().
			Str("message_id", msg.ID).
			Int("status", result.StatusCode).
			Str("action", result.Action).
			Msg("queued webhook processed")
	}

	if err := c.client.XAck(ctx, c.stream, consumerGroup, msg.ID).Err(); err != nil {
		c.logger.Error().
			Err(err).
			Str("message_id", msg.ID).
			Msg("acknowledging stream entry")
	}
}

func requestFromMessage(msg redis.XMessage) (telnyx.Request, error) {
	body, ok := msg.Values["body"].(string)
	if !ok {
		return telnyx.Request{}, fmt.Errorf("stream entry %s has no body", msg.ID)
	}

	headers := make(map[string]string)
	if headersStr, ok := msg.Values["headers"].(string); ok && headersStr != "" {
		if err := json.Unmarshal([]byte(headersStr), &headers); err != nil {
			return telnyx.Request{}, fmt.Errorf("unmarshaling headers: %w", err)
		}
	}

	sourceIP, _ := msg.Values["source_ip"].(string)

	return telnyx.Request{
		Body:       []byte(body),
		Headers:    headers,
		SourceIP:   sourceIP,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

func isBusyGroup(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}
