package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// approxMaxLen bounds the stream; acknowledged history beyond it is trimmed.
const approxMaxLen = 10000

type Publisher struct {
	client *redis.Client
	stream string
}

func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

func (p *Publisher) Publish(ctx context.Context, task Task) (string, error) {
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: approxMaxLen,
		Approx: true,
		Values: task.Values(),
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return id, nil
}

func (p *Publisher) EnqueueGeocode(ctx context.Context, user, reportID string) error {
	_, err := p.Publish(ctx, Task{Type: TaskGeocode, User: user, ReportID: reportID})
	return err
}

func (p *Publisher) EnqueueSweep(ctx context.Context) error {
	_, err := p.Publish(ctx, Task{Type: TaskSweep})
	return err
}
