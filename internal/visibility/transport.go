package visibility

import (
	"context"

	"github.com/poi-cluster-service/internal/domain"
)

// Transport - граница между потребителем и вычислителем видимости.
// Запросы и ответы передаются только сообщениями.
type Transport interface {
	// Submit отправляет запрос; ответ придёт в Responses
	Submit(ctx context.Context, req *domain.VisibilityRequest) error

	// Responses - поток ответов в порядке завершения, не в порядке запросов
	Responses() <-chan domain.VisibilityResponse
}
