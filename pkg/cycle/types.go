package cycle

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Message is an item posted to the loop for processing in the next cycle.
// Messages are produced outside the cycle (e.g. by the serial receiver) and
// consumed exactly once inside it.
type Message interface{}

// Controller defines one unit of per-cycle work.
type Controller interface {
	Control(ControlContext) error
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// ControlContext provides the context of the current cycle.
type ControlContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// Stage gets the stage currently executing.
	Stage() Stage
	// Messages retrieves all messages collected when this cycle starts.
	Messages() MessageStore

	LoopControl
}

// Stage identifies a phase within one cycle. Stages run in order, each
// exactly once per cycle, so dispatch work is always complete before the
// safety stage runs and the report stage always observes the final state.
type Stage int

// Cycle stages.
const (
	StageSense Stage = iota
	StageDispatch
	StageSafety
	StageReport

	stageCount
)

// LoopControl exposes access to the controlling loop.
type LoopControl interface {
	// PostMessage enqueues the message for the next cycle.
	PostMessage(Message)
	// TriggerNext schedules the next cycle to be executed immediately
	// after the current one.
	TriggerNext()
}

// MessageStore provides read/write access to a list of messages.
type MessageStore interface {
	// ProcessMessages uses a processor to process all messages.
	ProcessMessages(MessageProcessor)

	MessageAppender
}

// MessageAppender appends messages to the store.
type MessageAppender interface {
	// AddMessages appends messages to the store for the next cycle.
	AddMessages(msgs ...Message)
}

// MessageProcessor is used by MessageStore to process messages.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext provides context for the current message.
type MessageProcessingContext interface {
	// CurrentMessage gets the current message being processed.
	CurrentMessage() Message
	// MessageTaken indicates the message has been processed and
	// should be removed from the store.
	MessageTaken()
	// StopProcessing indicates no need to examine further messages.
	StopProcessing()

	MessageAppender
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}
