package live

// Event is a session notification surfaced to the UI host.
type Event interface {
	eventType() string
}

// TranscriptEvent carries one recognized-speech fragment and the transcript
// accumulated so far this turn.
type TranscriptEvent struct {
	Fragment   string
	Transcript string
}

func (e TranscriptEvent) eventType() string { return "transcript" }

// TurnCompleteEvent marks the end of one conversational turn.
type TurnCompleteEvent struct{}

func (e TurnCompleteEvent) eventType() string { return "turn_complete" }

// InterruptedEvent signals that the user spoke over the assistant and
// playback was cancelled.
type InterruptedEvent struct{}

func (e InterruptedEvent) eventType() string { return "interrupted" }

// ToolInvokedEvent reports one remote tool invocation after it was routed to
// the host and acknowledged.
type ToolInvokedEvent struct {
	ID   string
	Name string
	Args map[string]any
}

func (e ToolInvokedEvent) eventType() string { return "tool_invoked" }
