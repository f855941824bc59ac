// Package live implements the client side of a realtime voice-assistant
// conversation.
//
// A Session owns one bidirectional streaming connection plus the audio
// devices around it: microphone capture frames (16 kHz mono s16le, 4096
// samples each) stream out base64-encoded; model audio (24 kHz mono s16le)
// streams back and is scheduled for gapless playback; recognized user speech
// accumulates in a per-turn transcript; and tool calls from the assistant
// are routed to host callbacks (navigate, toggle theme, open admin) with a
// correlated acknowledgement per invocation.
//
// # State machine
//
// The session progresses through these states:
//
//	IDLE → CONNECTING → ACTIVE → CLOSING → IDLE
//
// Any state returns to IDLE through Close or a fatal error. Payload-level
// failures (a malformed audio fragment, an unknown tool name) drop the
// offending item and leave the session ACTIVE.
//
// # Usage
//
//	session := live.NewSession(live.SessionConfig{
//	    APIKey:            os.Getenv("VOICELIVE_API_KEY"),
//	    SystemInstruction: "You are the site's voice guide.",
//	    TranscribeInput:   true,
//	}, live.WithCommandHandler(func(name string, args map[string]any) {
//	    // navigate, toggle theme, open admin
//	}))
//
//	if err := session.Open(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	for event := range session.Events() {
//	    switch e := event.(type) {
//	    case live.TranscriptEvent:
//	        fmt.Println("heard:", e.Transcript)
//	    case live.InterruptedEvent:
//	        // playback was cancelled
//	    }
//	}
package live
