package visibility

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/clustering"
	"github.com/poi-cluster-service/internal/domain"
	"github.com/poi-cluster-service/internal/domain/repository"
	vis "github.com/poi-cluster-service/internal/visibility"
	"github.com/poi-cluster-service/internal/worker"
)

const (
	defaultBatchSize = 10
	emptyQueueSleep  = 100 * time.Millisecond // пауза если очередь пуста
	errorSleep       = time.Second
)

// Worker вычисляет скрытые имена для запросов из stream:visibility:request
// и публикует ответы в stream:visibility:response. Ответ уходит на каждый
// запрос, включая некорректные.
type Worker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	opts         clustering.Options
	consumerName string
	batchSize    int
	poolSize     int
}

// NewWorker создает новый Worker
func NewWorker(
	streamRepo repository.StreamRepository,
	opts clustering.Options,
	consumerGroup string,
	batchSize int,
	poolSize int,
	logger *zap.Logger,
) *Worker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if poolSize <= 0 {
		poolSize = 1
	}

	return &Worker{
		BaseWorker:   worker.NewBaseWorker("visibility", consumerGroup, logger),
		streamRepo:   streamRepo,
		opts:         opts,
		consumerName: consumerName,
		batchSize:    batchSize,
		poolSize:     poolSize,
	}
}

// Start запускает воркер
func (w *Worker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting visibility worker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("batch_size", w.batchSize),
		zap.Int("pool_size", w.poolSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamVisibilityRequest, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := w.processBatch(ctx)
			if err != nil {
				logger.Error("Failed to process batch", zap.Error(err))
				w.pause(ctx, errorSleep)
				continue
			}

			if processed == 0 {
				w.pause(ctx, emptyQueueSleep)
			}
		}
	}
}

func (w *Worker) pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	case <-w.StopChan():
	}
}

// processBatch читает и обрабатывает batch запросов.
// Возвращает количество прочитанных сообщений.
func (w *Worker) processBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	// 1. Читаем пачку запросов (неблокирующий режим)
	messages, err := w.streamRepo.ConsumeBatch(
		ctx,
		domain.StreamVisibilityRequest,
		w.ConsumerGroup(),
		w.consumerName,
		w.batchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}

	if len(messages) == 0 {
		return 0, nil
	}

	logger.Debug("Processing batch", zap.Int("message_count", len(messages)))

	// 2. Отбрасываем сообщения без данных: ответить на них некому
	valid := make([]domain.StreamMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Data == "" {
			logger.Warn("Message without data, skipping", zap.String("message_id", msg.ID))
			w.RecordMalformed()
			if err := w.streamRepo.AckMessage(ctx, domain.StreamVisibilityRequest, w.ConsumerGroup(), msg.ID); err != nil {
				logger.Error("Failed to ack message", zap.String("message_id", msg.ID), zap.Error(err))
			}
			continue
		}
		valid = append(valid, msg)
	}

	// 3. Считаем параллельно, каждый запрос независим
	responses := w.computeAll(valid)

	// 4. Публикуем ответы в порядке сообщений
	ackIDs := make([]string, 0, len(valid))
	for i, resp := range responses {
		if resp.Failed() {
			w.RecordFailed()
			logger.Warn("Visibility request rejected",
				zap.String("message_id", valid[i].ID),
				zap.String("task_id", resp.TaskID),
				zap.String("error", resp.Error))
		} else {
			w.RecordProcessed()
		}

		if err := w.streamRepo.PublishToStream(ctx, domain.StreamVisibilityResponse, resp); err != nil {
			logger.Error("Failed to publish visibility response",
				zap.String("task_id", resp.TaskID),
				zap.Error(err))
			// без ACK сообщение останется в pending и будет переобработано
			continue
		}
		ackIDs = append(ackIDs, valid[i].ID)
	}

	// 5. ACK всех отвеченных сообщений
	if len(ackIDs) > 0 {
		if err := w.streamRepo.AckMessages(ctx, domain.StreamVisibilityRequest, w.ConsumerGroup(), ackIDs); err != nil {
			logger.Error("Failed to ack messages", zap.Error(err))
		}
	}

	return len(messages), nil
}

func (w *Worker) computeAll(messages []domain.StreamMessage) []domain.VisibilityResponse {
	responses := make([]domain.VisibilityResponse, len(messages))
	sem := make(chan struct{}, w.poolSize)

	var wg sync.WaitGroup
	for i, msg := range messages {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, data string) {
			defer wg.Done()
			defer func() { <-sem }()
			responses[i] = vis.Handle([]byte(data), w.opts)
		}(i, msg.Data)
	}
	wg.Wait()

	return responses
}
