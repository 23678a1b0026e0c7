package worker

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Stats - счётчики обработанных воркером сообщений
type Stats struct {
	Name      string `json:"name"`
	Processed int64  `json:"processed"`
	Failed    int64  `json:"failed"`
	Malformed int64  `json:"malformed"`
}

// BaseWorker содержит общую логику для всех воркеров
type BaseWorker struct {
	name          string
	logger        *zap.Logger
	stopChan      chan struct{}
	stopped       bool
	mu            sync.Mutex
	consumerGroup string

	processed atomic.Int64
	failed    atomic.Int64
	malformed atomic.Int64
}

// NewBaseWorker создает новый BaseWorker
func NewBaseWorker(name, consumerGroup string, logger *zap.Logger) *BaseWorker {
	return &BaseWorker{
		name:          name,
		logger:        logger.With(zap.String("worker", name)),
		stopChan:      make(chan struct{}),
		consumerGroup: consumerGroup,
	}
}

// Name возвращает имя воркера
func (w *BaseWorker) Name() string {
	return w.name
}

// Stop останавливает воркер; повторный вызов безопасен
func (w *BaseWorker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}

	w.logger.Info("Stopping worker")
	close(w.stopChan)
	w.stopped = true

	return nil
}

// IsStopped проверяет, остановлен ли воркер
func (w *BaseWorker) IsStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

// StopChan возвращает канал остановки
func (w *BaseWorker) StopChan() <-chan struct{} {
	return w.stopChan
}

// ConsumerGroup возвращает имя consumer group
func (w *BaseWorker) ConsumerGroup() string {
	return w.consumerGroup
}

// Logger возвращает логгер с именем воркера
func (w *BaseWorker) Logger() *zap.Logger {
	return w.logger
}

// RecordProcessed учитывает успешно обработанное сообщение
func (w *BaseWorker) RecordProcessed() { w.processed.Add(1) }

// RecordFailed учитывает сообщение, на которое ушёл ответ с ошибкой
func (w *BaseWorker) RecordFailed() { w.failed.Add(1) }

// RecordMalformed учитывает сообщение без поля data
func (w *BaseWorker) RecordMalformed() { w.malformed.Add(1) }

// Stats возвращает снимок счётчиков
func (w *BaseWorker) Stats() Stats {
	return Stats{
		Name:      w.name,
		Processed: w.processed.Load(),
		Failed:    w.failed.Load(),
		Malformed: w.malformed.Load(),
	}
}
