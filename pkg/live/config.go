package live

import (
	"net/url"
	"strings"
	"time"

	"github.com/foliokit/voicelive/pkg/core"
	"github.com/foliokit/voicelive/pkg/live/protocol"
)

const (
	defaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateContent"
	defaultModel    = "models/gemini-2.0-flash-exp"
	defaultVoice    = "Puck"

	defaultConnectTimeout = 15 * time.Second
)

// SessionConfig configures one realtime voice session.
type SessionConfig struct {
	// Endpoint is the websocket URL of the realtime channel.
	Endpoint string

	// APIKey authenticates the connection. Sent as a query parameter.
	APIKey string

	// Model selects the remote assistant model.
	Model string

	// Voice selects the prebuilt voice identity for audio responses.
	Voice string

	// SystemInstruction steers the assistant's behavior.
	SystemInstruction string

	// TranscribeInput enables streaming transcription of the user's speech.
	TranscribeInput bool
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Endpoint:        defaultEndpoint,
		Model:           defaultModel,
		Voice:           defaultVoice,
		TranscribeInput: true,
	}
}

func (c SessionConfig) normalized() SessionConfig {
	if strings.TrimSpace(c.Endpoint) == "" {
		c.Endpoint = defaultEndpoint
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = defaultModel
	}
	if strings.TrimSpace(c.Voice) == "" {
		c.Voice = defaultVoice
	}
	return c
}

// connectURL builds the dial target, carrying the API key when set.
func (c SessionConfig) connectURL() (string, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return "", core.NewConnectionError("invalid endpoint URL", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", core.NewConnectionError("endpoint must use ws(s) or http(s)", nil)
	}
	if c.APIKey != "" {
		q := u.Query()
		q.Set("key", c.APIKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// setup builds the session configuration sent at connect time: audio response
// mode, voice identity, the host tool declarations, behavior instructions,
// and the input-transcription flag.
func (c SessionConfig) setup() protocol.ClientSetup {
	setup := protocol.Setup{
		Model: c.Model,
		GenerationConfig: &protocol.GenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &protocol.SpeechConfig{
				VoiceConfig: &protocol.VoiceConfig{
					PrebuiltVoiceConfig: &protocol.PrebuiltVoiceConfig{VoiceName: c.Voice},
				},
			},
		},
		Tools: []protocol.Tool{{FunctionDeclarations: hostToolDeclarations()}},
	}
	if c.SystemInstruction != "" {
		setup.SystemInstruction = &protocol.Content{
			Parts: []protocol.Part{{Text: c.SystemInstruction}},
		}
	}
	if c.TranscribeInput {
		setup.InputAudioTranscription = &protocol.TranscriptionConfig{}
	}
	return protocol.ClientSetup{Setup: setup}
}

func hostToolDeclarations() []protocol.FunctionDeclaration {
	return []protocol.FunctionDeclaration{
		{
			Name:        CommandNavigateTo,
			Description: "Navigate the page to a named section.",
			Parameters: &protocol.Schema{
				Type: "object",
				Properties: map[string]*protocol.Schema{
					"section": {
						Type: "string",
						Enum: []string{SectionHome, SectionWork, SectionSkills},
					},
				},
				Required: []string{"section"},
			},
		},
		{
			Name:        CommandToggleTheme,
			Description: "Toggle the page between light and dark theme.",
		},
		{
			Name:        CommandOpenAdmin,
			Description: "Open the content administration panel.",
		},
	}
}
