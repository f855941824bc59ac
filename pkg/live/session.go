package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/foliokit/voicelive/pkg/audio"
	"github.com/foliokit/voicelive/pkg/core"
	"github.com/foliokit/voicelive/pkg/live/protocol"
)

// State is the session lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateActive
	StateClosing
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateActive:
		return "ACTIVE"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// Session is one realtime voice conversation: microphone frames stream out
// over a websocket, model audio streams back for gapless playback, and tool
// calls are routed to the host.
//
// A Session is single-use. Open transitions Idle → Connecting → Active;
// Close (or any fatal failure) tears everything down and returns to Idle.
// Reactivating voice mode means creating a new Session.
type Session struct {
	cfg    SessionConfig
	logger *slog.Logger

	input     audio.InputDevice
	output    audio.OutputDevice
	onCommand CommandHandler

	capture    *audio.Capture
	scheduler  *audio.Scheduler
	dispatcher *Dispatcher
	conn       *websocket.Conn

	state   atomic.Int32
	writeMu sync.Mutex

	events       chan Event
	eventsMu     sync.Mutex
	eventsClosed bool

	done    chan struct{}
	closeMu sync.Mutex
	closed  bool

	transcript TranscriptBuffer

	errMu sync.Mutex
	err   error
}

// NewSession creates a session for the given configuration.
func NewSession(cfg SessionConfig, opts ...SessionOption) *Session {
	s := &Session{
		cfg:    cfg.normalized(),
		logger: slog.Default(),
		input:  audio.NewMalgoInput(audio.CaptureConfig()),
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dispatcher = NewDispatcher(s.onCommand, s.logger)
	return s
}

// Open establishes the session: acquires the microphone, opens the speaker,
// dials the remote channel, sends the session setup, and on acceptance
// starts streaming capture frames. Any failure tears down all partial state
// and returns a typed error with the session back at Idle.
func (s *Session) Open(ctx context.Context) error {
	s.closeMu.Lock()
	closed := s.closed
	s.closeMu.Unlock()
	if closed {
		return core.NewConnectionError("session is closed", nil)
	}
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateConnecting)) {
		return core.NewConnectionError(fmt.Sprintf("session is %s, not idle", s.State()), nil)
	}

	// Microphone first: a denied device must fail before any connection
	// state exists. Frames are dropped until the session goes Active.
	s.capture = audio.NewCapture(s.input)
	if err := s.capture.Start(s.sendFrame); err != nil {
		s.abortOpen()
		return err
	}

	out := s.output
	if out == nil {
		var err error
		out, err = audio.NewOtoOutput(audio.PlaybackConfig())
		if err != nil {
			s.abortOpen()
			return core.NewPermissionError("could not open audio output", err)
		}
	}
	s.scheduler = audio.NewScheduler(out)

	target, err := s.cfg.connectURL()
	if err != nil {
		s.abortOpen()
		return err
	}

	dialCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		dialCtx, cancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer cancel()
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, target, nil)
	if err != nil {
		s.abortOpen()
		if resp != nil {
			return core.NewConnectionError(fmt.Sprintf("websocket dial failed (status %d)", resp.StatusCode), err)
		}
		return core.NewConnectionError("websocket dial failed", err)
	}
	s.conn = conn

	if err := s.writeJSON(s.cfg.setup()); err != nil {
		s.abortOpen()
		return core.NewConnectionError("send session setup", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(defaultConnectTimeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		s.abortOpen()
		return core.NewConnectionError("read setup ack", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	msg, err := protocol.DecodeServerMessage(payload)
	if err != nil || msg.SetupComplete == nil {
		s.abortOpen()
		return core.NewConnectionError("remote rejected session setup", err)
	}

	// A Close racing Open may have torn down while the dial was in flight;
	// the session must never surface as Active afterwards.
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		s.abortOpen()
		return core.NewConnectionError("session closed during open", nil)
	}
	s.state.Store(int32(StateActive))
	s.closeMu.Unlock()

	s.logger.Debug("voice session active", "model", s.cfg.Model)
	go s.readLoop()
	return nil
}

// Close tears the session down: stops capture, stops all scheduled playback,
// closes the connection, and clears the transcript. Idempotent.
func (s *Session) Close() error {
	s.shutdown(nil)
	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Transcript returns the speech recognized so far this turn.
func (s *Session) Transcript() string {
	return s.transcript.String()
}

// Events yields session notifications for the UI host. The channel closes on
// teardown; slow consumers drop events rather than stall the session.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done closes when the session has fully torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the terminal session error, if any. Blocks until teardown.
func (s *Session) Err() error {
	<-s.done
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Session) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *Session) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// sendFrame is the capture sink: encode one fixed-size frame and transmit it
// as a realtime-input message. Runs on the device callback path, so a send
// failure shuts the session down asynchronously.
func (s *Session) sendFrame(frame audio.Frame) {
	if s.State() != StateActive {
		return
	}
	if err := s.writeJSON(protocol.AudioFrame(frame.Encoded())); err != nil {
		s.logger.Error("send audio frame", "error", err)
		go s.shutdown(core.NewConnectionError("send audio frame", err))
	}
}

// readLoop is the single consumer of server messages. Sequential handling is
// what guarantees arrival-order transcript application, arrival-order audio
// scheduling, and interruption priority over queued fragments.
func (s *Session) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || s.State() != StateActive {
				s.shutdown(nil)
			} else {
				s.shutdown(core.NewConnectionError("read server message", err))
			}
			return
		}
		msg, err := protocol.DecodeServerMessage(data)
		if err != nil {
			s.logger.Warn("dropping undecodable server frame", "error", err)
			continue
		}
		s.handleMessage(msg)
	}
}

func (s *Session) handleMessage(msg *protocol.ServerMessage) {
	if msg.ToolCall != nil {
		s.handleToolCall(msg.ToolCall)
	}

	content := msg.ServerContent
	if content == nil {
		return
	}

	if content.Interrupted {
		s.scheduler.Interrupt()
		s.emitEvent(InterruptedEvent{})
	}

	if tr := content.InputTranscription; tr != nil && tr.Text != "" {
		s.transcript.Append(tr.Text)
		s.emitEvent(TranscriptEvent{Fragment: tr.Text, Transcript: s.transcript.String()})
	}

	for _, blob := range content.AudioParts() {
		pcm, err := audio.Decode(blob.Data)
		if err != nil {
			// Payload-level failure: drop the fragment, stay active.
			s.logger.Warn("dropping malformed audio fragment", "error", err)
			continue
		}
		if _, err := s.scheduler.Schedule(pcm); err != nil {
			s.logger.Warn("schedule audio fragment", "error", err)
		}
	}

	if content.TurnComplete {
		s.transcript.Reset()
		s.emitEvent(TurnCompleteEvent{})
	}
}

// handleToolCall acknowledges every invocation with a correlated ok result,
// in arrival order. Host dispatch is fire-and-forget and never delays or
// withholds the ack, even when the command is unknown.
func (s *Session) handleToolCall(call *protocol.ToolCall) {
	for _, fn := range call.FunctionCalls {
		fn := fn
		go func() {
			if err := s.dispatcher.Dispatch(fn.Name, fn.Args); err != nil {
				s.logger.Warn("tool dispatch dropped", "command", fn.Name, "error", err)
			}
		}()

		ack := protocol.ClientToolResponse{
			ToolResponse: protocol.ToolResponse{
				FunctionResponses: []protocol.FunctionResponse{{
					ID:       fn.ID,
					Name:     fn.Name,
					Response: map[string]any{"result": "ok"},
				}},
			},
		}
		if err := s.writeJSON(ack); err != nil {
			s.logger.Error("send tool response", "error", err)
			go s.shutdown(core.NewConnectionError("send tool response", err))
			return
		}
		s.emitEvent(ToolInvokedEvent{ID: fn.ID, Name: fn.Name, Args: fn.Args})
	}
}

func (s *Session) emitEvent(ev Event) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	if s.eventsClosed {
		return
	}
	select {
	case s.events <- ev:
	default:
		// Never stall the read loop on a slow consumer.
	}
}

// shutdown performs the full teardown exactly once: capture stopped and
// playback flushed before it returns, connection closed, transcript cleared,
// state back to Idle. Once shut down, the session is spent; Open refuses.
func (s *Session) shutdown(err error) {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	s.closeMu.Unlock()

	s.state.Store(int32(StateClosing))
	s.setErr(err)

	if s.capture != nil {
		s.capture.Stop()
	}
	if s.scheduler != nil {
		s.scheduler.Teardown()
	}
	if s.conn != nil {
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(2*time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	}
	s.transcript.Reset()

	s.state.Store(int32(StateIdle))

	s.eventsMu.Lock()
	s.eventsClosed = true
	close(s.events)
	s.eventsMu.Unlock()
	close(s.done)
}

// abortOpen unwinds a failed or overtaken Open. A concurrent Close can run
// the shutdown before the devices or the dial existed; whatever it could not
// see is released here. Every release is idempotent.
func (s *Session) abortOpen() {
	s.shutdown(nil)
	s.capture.Stop()
	s.scheduler.Teardown()
	if s.conn != nil {
		_ = s.conn.Close()
	}
}
