package engine

import (
	"sync"

	"flowradar/internal/domain/flow"
	"flowradar/pkg/logger"
)

// SubscribeAll matches every alert type
const SubscribeAll flow.AlertType = "*"

// Subscriber receives raised alerts synchronously on the processing
// path; keep handlers fast
type Subscriber func(alert *flow.Alert)

type subscriptions struct {
	mu     sync.RWMutex
	nextID int
	subs   map[flow.AlertType]map[int]Subscriber
	log    *logger.Logger
}

func newSubscriptions() *subscriptions {
	return &subscriptions{
		subs: make(map[flow.AlertType]map[int]Subscriber),
		log:  logger.Get().With("component", "subscriptions"),
	}
}

// add registers a subscriber and returns its removal func
func (s *subscriptions) add(alertType flow.AlertType, fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	if s.subs[alertType] == nil {
		s.subs[alertType] = make(map[int]Subscriber)
	}
	s.subs[alertType][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[alertType], id)
	}
}

// notify invokes type-matched and wildcard subscribers. A panicking
// subscriber is logged and skipped.
func (s *subscriptions) notify(alert *flow.Alert) {
	s.mu.RLock()
	handlers := make([]Subscriber, 0, len(s.subs[alert.Type])+len(s.subs[SubscribeAll]))
	for _, fn := range s.subs[alert.Type] {
		handlers = append(handlers, fn)
	}
	for _, fn := range s.subs[SubscribeAll] {
		handlers = append(handlers, fn)
	}
	s.mu.RUnlock()

	for _, fn := range handlers {
		s.invoke(fn, alert)
	}
}

func (s *subscriptions) invoke(fn Subscriber, alert *flow.Alert) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("subscriber panic", "alert_id", alert.ID, "panic", r)
		}
	}()
	fn(alert)
}
