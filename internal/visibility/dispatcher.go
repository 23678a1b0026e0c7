package visibility

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/clustering"
	"github.com/poi-cluster-service/internal/domain"
)

// ErrDispatcherClosed возвращается при отправке в остановленный Dispatcher
var ErrDispatcherClosed = errors.New("visibility dispatcher is closed")

const queueSize = 16

// Dispatcher - пул горутин, вычисляющих скрытые имена.
// Каждый воркер получает сырое сообщение и не разделяет состояние с другими.
type Dispatcher struct {
	workers int
	opts    clustering.Options
	logger  *zap.Logger

	requests  chan []byte
	responses chan domain.VisibilityResponse

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewDispatcher создаёт пул из workers горутин (минимум одна)
func NewDispatcher(workers int, opts clustering.Options, logger *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		workers:   workers,
		opts:      opts,
		logger:    logger,
		requests:  make(chan []byte, queueSize),
		responses: make(chan domain.VisibilityResponse, queueSize),
		done:      make(chan struct{}),
	}
}

// Start запускает воркеры; повторный вызов ничего не делает
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run(ctx, i)
	}

	d.logger.Info("Visibility dispatcher started", zap.Int("workers", d.workers))
}

func (d *Dispatcher) run(ctx context.Context, id int) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-d.requests:
			resp := Handle(raw, d.opts)
			if resp.Failed() {
				d.logger.Error("Visibility task failed",
					zap.Int("worker", id),
					zap.String("task_id", resp.TaskID),
					zap.String("error", resp.Error))
			} else {
				d.logger.Debug("Visibility task completed",
					zap.Int("worker", id),
					zap.String("task_id", resp.TaskID),
					zap.Int("hidden", len(resp.Result)))
			}

			select {
			case d.responses <- resp:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Submit сериализует запрос и ставит его в очередь
func (d *Dispatcher) Submit(ctx context.Context, req *domain.VisibilityRequest) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal visibility request: %w", err)
	}
	return d.SubmitRaw(ctx, raw)
}

// SubmitRaw ставит в очередь сообщение как есть (для внешних клиентов)
func (d *Dispatcher) SubmitRaw(ctx context.Context, raw []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.requests <- raw:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return ErrDispatcherClosed
	}
}

// Responses возвращает канал ответов; закрывается после Close
func (d *Dispatcher) Responses() <-chan domain.VisibilityResponse {
	return d.responses
}

// Close останавливает воркеры и закрывает канал ответов.
// Необработанные запросы из очереди отбрасываются.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.done)

		d.mu.Lock()
		d.closed = true
		cancel := d.cancel
		d.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		d.wg.Wait()
		close(d.responses)

		d.logger.Info("Visibility dispatcher stopped")
	})
}
