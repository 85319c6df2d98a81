// A collection of event names and common methods used to handle the events, typically
// redirecting the handling to an observer (console summary, metrics) via the `Handler` interface.
package event

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/hbomb79/camcheck/pkg/logger"
)

var log = logger.Get("Event")

// Events emitted by a session as it progresses. Observers register for the events
// they care about; dispatch is synchronous, as sessions run strictly one after another.
type (
	Event         string
	Payload       any
	HandlerMethod func(Event, Payload)

	EventDispatcher interface {
		Dispatch(Event, Payload)
	}

	EventHandler interface {
		RegisterHandlerFunction(Event, HandlerMethod)
	}

	EventCoordinator interface {
		EventDispatcher
		EventHandler
	}

	eventHandler struct {
		fnHandlers map[Event][]HandlerMethod
	}

	// SessionInfo identifies the session an event belongs to
	SessionInfo struct {
		RunID     uuid.UUID
		Device    string
		Timestamp string
	}

	// CheckOutcome is the verdict of a single validation check
	CheckOutcome struct {
		SessionInfo
		Check  string
		Passed bool
	}

	// SessionSummary is dispatched once a session has run to completion
	SessionSummary struct {
		SessionInfo
		ImageCaptured bool
		Passed        int
		Failed        int
		Elapsed       time.Duration
	}
)

const (
	SESSION_START    Event = "session:start"
	SESSION_CHECK    Event = "session:check"
	SESSION_COMPLETE Event = "session:complete"
)

func New() EventCoordinator {
	return &eventHandler{
		fnHandlers: make(map[Event][]HandlerMethod),
	}
}

// RegisterHandlerFunction takes an event type and a handler method which will be stored
// and called with the payload for the event whenever it is provided to the 'Dispatch' method.
// The handle provided should be guaranteed to return quickly, as the session dispatching
// the event is blocked until every handler returns.
func (handler *eventHandler) RegisterHandlerFunction(event Event, handle HandlerMethod) {
	handler.fnHandlers[event] = append(handler.fnHandlers[event], handle)
}

// Dispatch takes an event type and a payload and dispatches the payload to the handlers
// registered for the event type provided.
func (handler *eventHandler) Dispatch(event Event, payload Payload) {
	if err := handler.validatePayload(event, payload); err != nil {
		log.Emit(logger.FATAL, "Dispatch for event %v FAILED validation: %v\n", event, err)
		return
	}

	for _, handle := range handler.fnHandlers[event] {
		handle(event, payload)
	}
}

// validatePayload ensures that the payload provided is valid for the event specified. An error
// will be returned if the payload is not valid, and the event should not be sent to the registered
// handlers in this case.
func (handler *eventHandler) validatePayload(event Event, payload Payload) error {
	var payloadTypeName string
	if t := reflect.TypeOf(payload); t != nil {
		payloadTypeName = t.Name()
	} else {
		payloadTypeName = "Nil"
	}

	switch event {
	case SESSION_START:
		if _, ok := payload.(SessionInfo); !ok {
			return fmt.Errorf("illegal payload (type %s) for %s event. Expected SessionInfo payload", payloadTypeName, event)
		}

		return nil
	case SESSION_CHECK:
		if _, ok := payload.(CheckOutcome); !ok {
			return fmt.Errorf("illegal payload (type %s) for %s event. Expected CheckOutcome payload", payloadTypeName, event)
		}

		return nil
	case SESSION_COMPLETE:
		if _, ok := payload.(SessionSummary); !ok {
			return fmt.Errorf("illegal payload (type %s) for %s event. Expected SessionSummary payload", payloadTypeName, event)
		}

		return nil
	}

	return errors.New("event type not recognized for validation")
}
