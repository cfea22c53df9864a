package player

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/castor-cli/castor/log"
)

// EventKind discriminates engine notifications.
type EventKind int

const (
	// EventPosition carries the current playback position in Seconds.
	EventPosition EventKind = iota + 1
	// EventDuration carries the media duration in Seconds, once known.
	EventDuration
	// EventPause carries the engine suspension state in Flag.
	EventPause
	// EventSeeking carries the buffering/seeking state in Flag.
	EventSeeking
	// EventFileLoaded signals that a media item became ready for playback.
	EventFileLoaded
	// EventEndReached signals natural end-of-media.
	EventEndReached
	// EventEndError signals a mid-playback decode or transport failure; Reason holds the engine's description.
	EventEndError
)

// Event is a single typed engine notification.
type Event struct {
	Kind    EventKind
	Seconds float64
	Flag    bool
	Reason  string
}

// eventListener bridges mpv's observe_property notifications into the typed event channel.
type eventListener struct {
	socketPath string
	conn       net.Conn
	events     chan<- Event
	stopCh     chan struct{}
	mu         sync.Mutex
	listening  bool
}

func newEventListener(socketPath string, events chan<- Event) *eventListener {
	return &eventListener{
		socketPath: socketPath,
		events:     events,
		stopCh:     make(chan struct{}),
	}
}

// start subscribes to the observed engine properties and launches the read loop.
func (el *eventListener) start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	// observe_property <id> <property> makes mpv notify on every change
	properties := []struct {
		id   int
		name string
	}{
		{1, "time-pos"},
		{2, "pause"},
		{3, "seeking"},
		{4, "eof-reached"},
		{5, "duration"},
	}

	for _, prop := range properties {
		if _, err := doSendCommand(el.socketPath, []interface{}{"observe_property", prop.id, prop.name}); err != nil {
			return fmt.Errorf("observe %s: %w", prop.name, err)
		}
	}

	// Open a persistent connection for the event read loop
	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}
	el.conn = conn
	el.listening = true

	go el.readLoop()

	log.Infof("engine event listener started on %s", el.socketPath)
	return nil
}

// stop terminates the event listener.
func (el *eventListener) stop() {
	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.listening {
		return
	}

	close(el.stopCh)
	if el.conn != nil {
		_ = el.conn.Close()
	}
	el.listening = false
}

// readLoop continuously reads newline-delimited JSON events from the persistent engine connection.
func (el *eventListener) readLoop() {
	defer func() {
		el.mu.Lock()
		el.listening = false
		el.mu.Unlock()
	}()

	buf := make([]byte, 4096)
	var remainder []byte

	for {
		select {
		case <-el.stopCh:
			return
		default:
		}

		// Bound the read so a silent engine never wedges the loop
		if err := el.conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}

		n, err := el.conn.Read(buf)
		if err != nil {
			if strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline") {
				continue
			}
			log.Warnf("event listener read error: %v", err)
			return
		}

		data := append(remainder, buf[:n]...)
		remainder = nil

		lines := strings.Split(string(data), "\n")
		for i, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			// Last incomplete line goes to remainder for next read
			if i == len(lines)-1 && !strings.HasSuffix(string(data), "\n") {
				remainder = []byte(line)
				continue
			}

			el.processLine(line)
		}
	}
}

// processLine parses a single engine event line and emits the matching typed Event.
func (el *eventListener) processLine(line string) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return // skip unparseable lines
	}

	eventType, ok := raw["event"].(string)
	if !ok {
		return
	}

	switch eventType {
	case "property-change":
		name, _ := raw["name"].(string)
		el.emitProperty(name, raw["data"])
	case "file-loaded", "playback-restart":
		el.emit(Event{Kind: EventFileLoaded}, false)
	case "end-file":
		reason, _ := raw["reason"].(string)
		if reason == "error" {
			detail, _ := raw["file_error"].(string)
			el.emit(Event{Kind: EventEndError, Reason: detail}, false)
		}
		// eof and stop are covered by the eof-reached property and explicit
		// unload respectively; no event is synthesized for them here.
	}
}

// emitProperty maps an observed property change onto a typed Event.
func (el *eventListener) emitProperty(name string, data interface{}) {
	switch name {
	case "time-pos":
		if seconds, ok := data.(float64); ok {
			el.emit(Event{Kind: EventPosition, Seconds: seconds}, true)
		}
	case "duration":
		if seconds, ok := data.(float64); ok {
			el.emit(Event{Kind: EventDuration, Seconds: seconds}, true)
		}
	case "pause":
		if paused, ok := data.(bool); ok {
			el.emit(Event{Kind: EventPause, Flag: paused}, false)
		}
	case "seeking":
		if seeking, ok := data.(bool); ok {
			el.emit(Event{Kind: EventSeeking, Flag: seeking}, false)
		}
	case "eof-reached":
		if reached, ok := data.(bool); ok && reached {
			el.emit(Event{Kind: EventEndReached}, false)
		}
	}
}

// emit delivers an event to the consumer. Positional ticks are droppable when
// the consumer lags; lifecycle events are not and block until delivered or
// the listener stops.
func (el *eventListener) emit(event Event, droppable bool) {
	if droppable {
		select {
		case el.events <- event:
		default:
		}
		return
	}

	select {
	case el.events <- event:
	case <-el.stopCh:
	}
}
