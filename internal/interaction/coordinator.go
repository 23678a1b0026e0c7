package interaction

import (
	"sync"

	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/domain"
)

// Coordinator хранит состояние наведения и открытой карточки одной карты.
// Наведение перезаписывается каждым событием, карточка живёт до Dismiss
// или удаления показанного объекта.
type Coordinator struct {
	mu     sync.RWMutex
	hover  *Tooltip
	popup  *Popup
	logger *zap.Logger
}

func NewCoordinator(logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{logger: logger}
}

// OnHover заменяет текущую подсказку; nil или неизвестный объект её сбрасывает
func (c *Coordinator) OnHover(f domain.Feature) *Tooltip {
	tooltip := TooltipFor(f)

	c.mu.Lock()
	c.hover = tooltip
	c.mu.Unlock()

	return copyTooltip(tooltip)
}

// OnClick открывает карточку объекта. Клик мимо объектов карточку не закрывает.
func (c *Coordinator) OnClick(f domain.Feature) *Popup {
	popup := PopupFor(f)
	if popup == nil {
		return nil
	}

	c.mu.Lock()
	c.popup = popup
	c.mu.Unlock()

	c.logger.Debug("Popup opened", zap.String("feature_id", popup.FeatureID))
	return copyPopup(popup)
}

// Dismiss закрывает карточку
func (c *Coordinator) Dismiss() {
	c.mu.Lock()
	c.popup = nil
	c.mu.Unlock()
}

// OnFeatureDeleted закрывает карточку и подсказку удалённого объекта.
// Возвращает true, если карточка была закрыта.
func (c *Coordinator) OnFeatureDeleted(featureID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hover != nil && c.hover.FeatureID == featureID {
		c.hover = nil
	}
	if c.popup == nil || c.popup.FeatureID != featureID {
		return false
	}

	c.popup = nil
	c.logger.Debug("Popup closed: feature deleted", zap.String("feature_id", featureID))
	return true
}

// Hover returns the current tooltip or nil
func (c *Coordinator) Hover() *Tooltip {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyTooltip(c.hover)
}

// Popup returns the open popup or nil
func (c *Coordinator) Popup() *Popup {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyPopup(c.popup)
}

func copyTooltip(t *Tooltip) *Tooltip {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func copyPopup(p *Popup) *Popup {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Fields = append([]Field(nil), p.Fields...)
	return &cp
}
