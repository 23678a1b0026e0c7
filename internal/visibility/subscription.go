package visibility

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/domain"
)

// Update - применённый результат (или ошибка) последнего запроса
type Update struct {
	TaskID string
	Zoom   float64
	Hidden domain.HiddenSet
	Err    error
}

// Subscription - единственный владелец запросов видимости одной карты.
// Новый запрос вытесняет предыдущие: ответы с устаревшим taskId отбрасываются,
// поэтому отмена на стороне воркера не нужна.
type Subscription struct {
	transport Transport
	logger    *zap.Logger

	mu          sync.Mutex
	latestTask  string
	latestZoom  float64
	pending     bool
	applied     domain.HiddenSet
	appliedZoom float64
	hasApplied  bool
	lastErr     error

	updates chan Update
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

// NewSubscription создаёт подписку поверх транспорта
func NewSubscription(transport Transport, logger *zap.Logger) *Subscription {
	return &Subscription{
		transport: transport,
		logger:    logger,
		applied:   make(domain.HiddenSet),
		updates:   make(chan Update, 1),
	}
}

// Start начинает приём ответов транспорта
func (s *Subscription) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx)
}

func (s *Subscription) loop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.updates)

	responses := s.transport.Responses()
	for {
		select {
		case <-ctx.Done():
			return
		case resp, ok := <-responses:
			if !ok {
				s.logger.Debug("Visibility transport closed")
				return
			}
			s.apply(resp)
		}
	}
}

func (s *Subscription) apply(resp domain.VisibilityResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if resp.TaskID == "" || resp.TaskID != s.latestTask {
		s.logger.Debug("Dropping stale visibility response",
			zap.String("task_id", resp.TaskID),
			zap.String("latest_task_id", s.latestTask))
		return
	}
	s.pending = false

	update := Update{TaskID: resp.TaskID, Zoom: s.latestZoom}
	if resp.Failed() {
		// предыдущее применённое множество остаётся в силе
		s.lastErr = fmt.Errorf("visibility task %s failed: %s", resp.TaskID, resp.Error)
		update.Err = s.lastErr
		s.logger.Warn("Visibility task failed",
			zap.String("task_id", resp.TaskID),
			zap.String("error", resp.Error))
	} else {
		s.applied = resp.HiddenSet()
		s.appliedZoom = s.latestZoom
		s.hasApplied = true
		s.lastErr = nil
		update.Hidden = cloneSet(s.applied)
	}

	// хранится только самое свежее уведомление
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- update:
	default:
	}
}

// Request отправляет новую задачу и делает её единственной актуальной
func (s *Subscription) Request(ctx context.Context, points []domain.Point, zoom float64) (string, error) {
	taskID := uuid.NewString()
	req, err := domain.NewVisibilityRequest(taskID, points, zoom)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.latestTask = taskID
	s.latestZoom = zoom
	s.pending = true
	s.mu.Unlock()

	if err := s.transport.Submit(ctx, req); err != nil {
		s.mu.Lock()
		if s.latestTask == taskID {
			s.pending = false
			s.lastErr = err
		}
		s.mu.Unlock()
		return "", fmt.Errorf("submit visibility request: %w", err)
	}

	s.logger.Debug("Visibility request submitted",
		zap.String("task_id", taskID),
		zap.Float64("zoom", zoom),
		zap.Int("points", len(points)))
	return taskID, nil
}

// Hidden возвращает копию применённого множества и зум, для которого оно посчитано.
// ok = false, пока не пришёл ни один успешный ответ.
func (s *Subscription) Hidden() (hidden domain.HiddenSet, zoom float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSet(s.applied), s.appliedZoom, s.hasApplied
}

// Pending сообщает, ждёт ли подписка ответа на последний запрос
func (s *Subscription) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Err возвращает ошибку последнего запроса
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Updates - уведомления о применённых ответах; закрывается после Close
func (s *Subscription) Updates() <-chan Update {
	return s.updates
}

// Close останавливает приём ответов
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.cancel == nil {
			close(s.updates)
			return
		}
		s.cancel()
		s.wg.Wait()
	})
}

func cloneSet(set domain.HiddenSet) domain.HiddenSet {
	out := make(domain.HiddenSet, len(set))
	for k := range set {
		out[k] = struct{}{}
	}
	return out
}
