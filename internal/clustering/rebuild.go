package clustering

import (
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/domain"
)

// Rebuild возвращает prev без изменений, если точки и параметры совпадают
// с входными данными предыдущего поколения, иначе строит новое поколение.
// Второй результат сообщает, был ли построен новый индекс.
func Rebuild(prev *Index, points []domain.Point, opts Options, logger *zap.Logger) (*Index, bool, error) {
	normalized, err := opts.normalize()
	if err != nil {
		return nil, false, err
	}

	if prev != nil && prev.opts == normalized && samePoints(prev.points, points) {
		return prev, false, nil
	}

	idx, err := Build(points, opts, logger)
	if err != nil {
		return nil, false, err
	}
	return idx, true, nil
}

func samePoints(a, b []domain.Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
