package visibility

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/domain"
	"github.com/poi-cluster-service/internal/domain/repository"
)

// StreamTransport - клиентская сторона воркера видимости через Redis Streams.
// Запросы публикуются в stream:visibility:request, ответы читаются
// из stream:visibility:response собственной consumer group.
type StreamTransport struct {
	streams  repository.StreamRepository
	group    string
	consumer string
	logger   *zap.Logger

	responses chan domain.VisibilityResponse
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	once      sync.Once
}

// NewStreamTransport создаёт транспорт. group должна быть уникальной для
// каждого потребителя, иначе ответы распределятся между клиентами.
func NewStreamTransport(streams repository.StreamRepository, group, consumer string, logger *zap.Logger) *StreamTransport {
	return &StreamTransport{
		streams:   streams,
		group:     group,
		consumer:  consumer,
		logger:    logger,
		responses: make(chan domain.VisibilityResponse, queueSize),
	}
}

// Start подписывается на поток ответов
func (t *StreamTransport) Start(ctx context.Context) error {
	if err := t.streams.CreateConsumerGroup(ctx, domain.StreamVisibilityResponse, t.group); err != nil {
		return fmt.Errorf("failed to create response consumer group: %w", err)
	}

	ctx, t.cancel = context.WithCancel(ctx)
	msgs, err := t.streams.ConsumeStream(ctx, domain.StreamVisibilityResponse, t.group, t.consumer)
	if err != nil {
		t.cancel()
		return fmt.Errorf("failed to consume response stream: %w", err)
	}

	t.wg.Add(1)
	go t.forward(ctx, msgs)

	t.logger.Info("Visibility stream transport started",
		zap.String("group", t.group),
		zap.String("consumer", t.consumer))
	return nil
}

func (t *StreamTransport) forward(ctx context.Context, msgs <-chan domain.StreamMessage) {
	defer t.wg.Done()
	defer close(t.responses)

	for msg := range msgs {
		var resp domain.VisibilityResponse
		if err := json.Unmarshal([]byte(msg.Data), &resp); err != nil {
			t.logger.Warn("Skipping malformed visibility response",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		} else {
			select {
			case t.responses <- resp:
			case <-ctx.Done():
				return
			}
		}

		if err := t.streams.AckMessage(ctx, domain.StreamVisibilityResponse, t.group, msg.ID); err != nil {
			t.logger.Warn("Failed to ack visibility response",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}
}

// Submit публикует запрос в поток запросов
func (t *StreamTransport) Submit(ctx context.Context, req *domain.VisibilityRequest) error {
	if err := t.streams.PublishToStream(ctx, domain.StreamVisibilityRequest, req); err != nil {
		return fmt.Errorf("failed to publish visibility request: %w", err)
	}
	return nil
}

// Responses возвращает канал ответов; закрывается после Close
func (t *StreamTransport) Responses() <-chan domain.VisibilityResponse {
	return t.responses
}

// Close останавливает чтение потока ответов
func (t *StreamTransport) Close() {
	t.once.Do(func() {
		if t.cancel != nil {
			t.cancel()
			t.wg.Wait()
		} else {
			close(t.responses)
		}
	})
}
