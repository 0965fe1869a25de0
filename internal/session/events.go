package session

// EventType identifies a lifecycle event emitted by the engine
type EventType string

const (
	// EventSample carries one new measurement plus session progress.
	EventSample EventType = "sample"
	// EventCompleted carries the finished session.
	EventCompleted EventType = "completed"
	// EventError carries a transient sample failure or a persistence
	// failure; the session keeps running for the former.
	EventError EventType = "error"
)

// Event is one engine lifecycle occurrence delivered to subscribers.
// Fields are populated per type: sample events carry Measurement and
// progress, completed events carry Session, error events carry Err.
type Event struct {
	Type            EventType    `json:"type"`
	Measurement     *Measurement `json:"measurement,omitempty"`
	ProgressPercent float64      `json:"progress_percent,omitempty"`
	ElapsedSeconds  float64      `json:"elapsed_seconds,omitempty"`
	DurationSeconds float64      `json:"duration_seconds,omitempty"`
	Session         *Session     `json:"session,omitempty"`
	Err             error        `json:"-"`
}

// Subscribe attaches an observer to the engine's event stream and
// returns the channel plus a cancel function. Subscriber channels are
// closed when the session reaches a terminal state, binding listener
// lifetime to session lifetime. Delivery is at-most-once per event:
// a subscriber that falls behind its buffer drops events.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSubID
	e.nextSubID++
	ch := make(chan Event, subscriberBuffer)
	e.subs[id] = ch

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if c, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// publishLocked fans an event out to all subscribers. Caller must hold
// e.mu. Sends never block; a full subscriber buffer drops the event.
func (e *Engine) publishLocked(ev Event) {
	for id, ch := range e.subs {
		select {
		case ch <- ev:
		default:
			e.logger.Warn("session.event.dropped", "Subscriber buffer full, event dropped", map[string]interface{}{
				"subscriber": id,
				"event":      string(ev.Type),
			})
		}
	}
}

// closeSubscribersLocked tears down all subscriber channels on terminal
// transition. Caller must hold e.mu.
func (e *Engine) closeSubscribersLocked() {
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
}
