package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
)

// SchedulingEvent is a booking confirmation relayed from the embedded scheduling widget.
type SchedulingEvent struct {
	Name       string    `json:"name"`
	EventURI   string    `json:"eventUri"`
	InviteeURI string    `json:"inviteeUri"`
	StartTime  time.Time `json:"startTime"`
}

type widgetMessage struct {
	Event   string `json:"event"`
	Payload struct {
		Event struct {
			URI       string `json:"uri"`
			StartTime string `json:"start_time"`
		} `json:"event"`
		Invitee struct {
			URI string `json:"uri"`
		} `json:"invitee"`
	} `json:"payload"`
}

// ParseWidgetMessage decodes a raw widget postMessage. Only event_scheduled
// messages are reported.
func ParseWidgetMessage(raw []byte) (SchedulingEvent, bool) {
	var msg widgetMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return SchedulingEvent{}, false
	}
	if !strings.HasSuffix(msg.Event, "event_scheduled") {
		return SchedulingEvent{}, false
	}

	ev := SchedulingEvent{
		Name:       msg.Event,
		EventURI:   msg.Payload.Event.URI,
		InviteeURI: msg.Payload.Invitee.URI,
	}
	if msg.Payload.Event.StartTime != "" {
		if t, err := time.Parse(time.RFC3339, msg.Payload.Event.StartTime); err == nil {
			ev.StartTime = t.UTC()
		}
	}
	return ev, true
}

// ScheduleListener reacts to a scheduling event for one session.
type ScheduleListener func(ctx context.Context, ev SchedulingEvent) error

// ScheduleHub routes scheduling events to the sessions that asked for them.
type ScheduleHub struct {
	mu        sync.RWMutex
	seq       int
	listeners map[string]map[int]ScheduleListener
}

func NewScheduleHub() *ScheduleHub {
	return &ScheduleHub{listeners: make(map[string]map[int]ScheduleListener)}
}

func hubKey(wizardID, userRef string) string {
	return wizardID + "/" + userRef
}

// Subscribe registers l for the session. The returned func removes it.
func (h *ScheduleHub) Subscribe(wizardID, userRef string, l ScheduleListener) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := hubKey(wizardID, userRef)
	if h.listeners[key] == nil {
		h.listeners[key] = make(map[int]ScheduleListener)
	}
	h.seq++
	id := h.seq
	h.listeners[key][id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.listeners[key], id)
			if len(h.listeners[key]) == 0 {
				delete(h.listeners, key)
			}
		})
	}
}

// Publish calls every listener of the session and reports how many ran.
func (h *ScheduleHub) Publish(ctx context.Context, wizardID, userRef string, ev SchedulingEvent) (int, error) {
	h.mu.RLock()
	registered := h.listeners[hubKey(wizardID, userRef)]
	listeners := make([]ScheduleListener, 0, len(registered))
	for _, l := range registered {
		listeners = append(listeners, l)
	}
	h.mu.RUnlock()

	var errs []error
	for _, l := range listeners {
		if err := l(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return len(listeners), errors.Join(errs...)
}

// Subscribers reports how many listeners a session has.
func (h *ScheduleHub) Subscribers(wizardID, userRef string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[hubKey(wizardID, userRef)])
}

// SchedulingPatch is the draft update a scheduling event produces.
func SchedulingPatch(ev SchedulingEvent) map[string]interface{} {
	patch := map[string]interface{}{
		"calendlyEventUrl":   ev.EventURI,
		"calendlyInviteeUrl": ev.InviteeURI,
	}
	if !ev.StartTime.IsZero() {
		patch["appointmentDate"] = ev.StartTime.Format(time.RFC3339)
		patch["appointmentTime"] = ev.StartTime.Format("15:04")
	}
	return patch
}
