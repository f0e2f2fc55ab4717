package bus

import (
	"strings"
	"sync"

	"github.com/reedfield/strata/internal/task"
)

const (
	defaultSubscriberCapacity = 100
	defaultBacklogLimit       = 50
	defaultDedupeWindow       = 1024
)

// RouterOption customizes Router construction.
type RouterOption func(*Router)

// Router delivers delegation events to per-task subscribers with buffering,
// deduplication, and bounded channel semantics. Events routed before any
// subscriber exists are held in a bounded backlog so a late subscriber
// still sees the early lifecycle of its task.
type Router struct {
	mu           sync.RWMutex
	subscribers  map[string]map[*subscriber]struct{}
	backlog      map[string][]Event
	recentIDs    map[string]struct{}
	recentOrder  []string
	channelSize  int
	backlogLimit int
	dedupeWindow int
	logger       Logger
}

// Subscription represents an active event subscription.
type Subscription struct {
	Events <-chan Event
	cancel func()
}

// Close terminates the subscription.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// NewRouter constructs a router with sane defaults.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		subscribers:  map[string]map[*subscriber]struct{}{},
		backlog:      map[string][]Event{},
		recentIDs:    map[string]struct{}{},
		recentOrder:  make([]string, 0, defaultDedupeWindow),
		channelSize:  defaultSubscriberCapacity,
		backlogLimit: defaultBacklogLimit,
		dedupeWindow: defaultDedupeWindow,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// RouterWithLogger injects a logger for drop/diagnostic messages.
func RouterWithLogger(logger Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// RouterWithSubscriberCapacity overrides the buffered channel size per subscriber.
func RouterWithSubscriberCapacity(cap int) RouterOption {
	return func(r *Router) {
		if cap > 0 {
			r.channelSize = cap
		}
	}
}

// RouterWithBacklogLimit overrides the backlog size for pre-subscription buffering.
func RouterWithBacklogLimit(limit int) RouterOption {
	return func(r *Router) {
		if limit > 0 {
			r.backlogLimit = limit
		}
	}
}

// RouterWithDedupeWindow controls how many recent event IDs are retained.
func RouterWithDedupeWindow(size int) RouterOption {
	return func(r *Router) {
		if size > 0 {
			r.dedupeWindow = size
		}
	}
}

// Subscribe registers for events keyed by task ID. Pass TopicAll to
// receive every task's events.
func (r *Router) Subscribe(taskID string) Subscription {
	topic := normalizeTopic(taskID)
	sub := newSubscriber(r.channelSize, r.logger)
	var backlog []Event
	r.mu.Lock()
	if r.subscribers[topic] == nil {
		r.subscribers[topic] = map[*subscriber]struct{}{}
	}
	r.subscribers[topic][sub] = struct{}{}
	if existing := r.backlog[topic]; len(existing) > 0 {
		backlog = append(backlog, existing...)
		delete(r.backlog, topic)
	}
	r.mu.Unlock()
	for _, event := range backlog {
		sub.deliver(event)
	}
	return Subscription{
		Events: sub.channel(),
		cancel: func() {
			r.removeSubscriber(topic, sub)
		},
	}
}

// Observer adapts the router into a task lifecycle observer so a session
// tree publishes here directly.
func (r *Router) Observer() task.Observer {
	return func(u task.Update) {
		r.Route(FromUpdate(u))
	}
}

// Route delivers the event to the task's subscribers and to wildcard
// subscribers, or buffers it when the task has no subscriber yet.
func (r *Router) Route(event Event) {
	event.Normalize()
	if r.isDuplicate(event.EventID) {
		return
	}
	topic := normalizeTopic(event.TaskID)
	if topic == "" {
		return
	}
	r.mu.RLock()
	subs := r.snapshotSubscribers(topic)
	wildcard := r.snapshotSubscribers(TopicAll)
	r.mu.RUnlock()
	if len(subs) == 0 {
		r.bufferEvent(topic, event)
	} else {
		for _, sub := range subs {
			sub.deliver(event)
		}
	}
	for _, sub := range wildcard {
		sub.deliver(event)
	}
}

func (r *Router) snapshotSubscribers(topic string) []*subscriber {
	live := r.subscribers[topic]
	if len(live) == 0 {
		return nil
	}
	items := make([]*subscriber, 0, len(live))
	for sub := range live {
		items = append(items, sub)
	}
	return items
}

func (r *Router) removeSubscriber(topic string, sub *subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if subs := r.subscribers[topic]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(r.subscribers, topic)
		}
	}
	sub.close()
}

func (r *Router) bufferEvent(topic string, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	queue := r.backlog[topic]
	if len(queue) >= r.backlogLimit {
		queue = queue[1:]
		if r.logger != nil {
			r.logger.Printf("bus: backlog drop for %s (limit %d)", topic, r.backlogLimit)
		}
	}
	queue = append(queue, event)
	r.backlog[topic] = queue
}

func (r *Router) isDuplicate(eventID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recentIDs[eventID]; ok {
		return true
	}
	r.recentIDs[eventID] = struct{}{}
	r.recentOrder = append(r.recentOrder, eventID)
	if len(r.recentOrder) > r.dedupeWindow {
		oldest := r.recentOrder[0]
		r.recentOrder = r.recentOrder[1:]
		delete(r.recentIDs, oldest)
	}
	return false
}

func normalizeTopic(taskID string) string {
	return strings.TrimSpace(taskID)
}

type subscriber struct {
	ch      chan Event
	logger  Logger
	closed  bool
	closeMu sync.Mutex
}

func newSubscriber(capacity int, logger Logger) *subscriber {
	if capacity <= 0 {
		capacity = defaultSubscriberCapacity
	}
	return &subscriber{
		ch:     make(chan Event, capacity),
		logger: logger,
	}
}

func (s *subscriber) channel() <-chan Event {
	return s.ch
}

// deliver enqueues the event, evicting from a full queue. Terminal status
// events survive eviction over progress chatter.
func (s *subscriber) deliver(event Event) {
	if s.isClosed() {
		return
	}
	select {
	case s.ch <- event:
		return
	default:
		oldest := <-s.ch
		if oldest.Terminal() && !event.Terminal() {
			s.ch <- oldest
			s.logDrop(event, "queue overflow:incoming")
			return
		}
		s.logDrop(oldest, "queue overflow")
		s.ch <- event
	}
}

func (s *subscriber) logDrop(event Event, reason string) {
	if s.logger == nil {
		return
	}
	s.logger.Printf("bus: dropped %s/%s (%s)", event.TaskID, event.Status, reason)
}

func (s *subscriber) close() {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.closeMu.Unlock()
}

func (s *subscriber) isClosed() bool {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.closed
}
