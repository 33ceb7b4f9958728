package providers

import (
	"context"

	"github.com/amaplayer/search-service/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to search
// events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.SearchEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SearchEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event streams
const (
	// EventChannelSearchEvents is the channel carrying every search event
	EventChannelSearchEvents = "search:events"

	// EventChannelSearchPrefix is the prefix for per-type channels
	EventChannelSearchPrefix = "search:"
)

// GetSearchTypeChannel returns the channel name for one search type
func GetSearchTypeChannel(searchType entities.SearchType) string {
	return EventChannelSearchPrefix + string(searchType)
}
