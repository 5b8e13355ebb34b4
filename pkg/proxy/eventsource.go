package proxy

import (
	"fmt"
	"log/slog"

	"github.com/asaskevich/EventBus"
)

const eventSourceLogPrefix = "proxy:eventsource"

// Bus topics used by EventSource.
const (
	topicEvent    = "proxy:event"
	topicDisposed = "proxy:disposed"
)

// EventSource provides the Emitter and DisposeNotifier capabilities over an
// in-process event bus. Proxies embed it and call Emit / NotifyDisposed;
// publication is synchronous, so subscribers observe events in emission
// order.
type EventSource struct {
	bus EventBus.Bus
}

// NewEventSource creates an EventSource with its own bus.
func NewEventSource() *EventSource {
	return &EventSource{bus: EventBus.New()}
}

// OnEvent subscribes fn to every event the proxy emits.
func (s *EventSource) OnEvent(fn func(event string, args []any)) {
	if err := s.bus.Subscribe(topicEvent, fn); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to subscribe event handler: %v", eventSourceLogPrefix, err))
	}
}

// OnDisposed subscribes fn to the proxy's disposal notification.
func (s *EventSource) OnDisposed(fn func()) {
	if err := s.bus.Subscribe(topicDisposed, fn); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to subscribe dispose handler: %v", eventSourceLogPrefix, err))
	}
}

// Emit publishes an event to all subscribers, in order, on the caller's
// goroutine.
func (s *EventSource) Emit(event string, args ...any) {
	s.bus.Publish(topicEvent, event, args)
}

// NotifyDisposed publishes the disposal notification.
func (s *EventSource) NotifyDisposed() {
	s.bus.Publish(topicDisposed)
}
