package live

import (
	"log/slog"

	"github.com/foliokit/voicelive/pkg/audio"
)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger used for session diagnostics.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithInputDevice overrides the microphone device. The default is the system
// microphone through malgo.
func WithInputDevice(dev audio.InputDevice) SessionOption {
	return func(s *Session) {
		if dev != nil {
			s.input = dev
		}
	}
}

// WithOutputDevice overrides the speaker device. The default speaker is
// opened through oto when the session opens. The session takes ownership and
// closes the device on teardown.
func WithOutputDevice(dev audio.OutputDevice) SessionOption {
	return func(s *Session) {
		if dev != nil {
			s.output = dev
		}
	}
}

// WithCommandHandler sets the host callback receiving validated tool
// commands (navigate, theme toggle, admin open).
func WithCommandHandler(fn CommandHandler) SessionOption {
	return func(s *Session) {
		s.onCommand = fn
	}
}
