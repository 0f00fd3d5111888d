// Package notifier delivers change notifications outside the command bus.
package notifier

import (
	"context"

	"github.com/aleister1102/pagewatch/internal/models"
)

// Notifier is told about every detected link change.
type Notifier interface {
	NotifyChange(ctx context.Context, change models.LinkChange) error
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// NotifyChange does nothing.
func (NopNotifier) NotifyChange(context.Context, models.LinkChange) error { return nil }
