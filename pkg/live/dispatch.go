package live

import (
	"fmt"
	"log/slog"

	"github.com/foliokit/voicelive/pkg/core"
)

// Command names the remote assistant may invoke on the host application.
const (
	CommandNavigateTo  = "navigateTo"
	CommandToggleTheme = "toggleTheme"
	CommandOpenAdmin   = "openAdmin"
)

// Sections the host can navigate to.
const (
	SectionHome   = "home"
	SectionWork   = "work"
	SectionSkills = "skills"
)

var validSections = map[string]struct{}{
	SectionHome:   {},
	SectionWork:   {},
	SectionSkills: {},
}

// CommandHandler receives validated host commands. The host performs the
// actual navigation, theme toggle, or admin-panel open.
type CommandHandler func(name string, args map[string]any)

// Dispatcher maps remote tool invocations to host-application actions.
type Dispatcher struct {
	onCommand CommandHandler
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher over the given host callback.
func NewDispatcher(onCommand CommandHandler, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{onCommand: onCommand, logger: logger}
}

// Dispatch routes one invocation to the host. Unknown commands and invalid
// arguments are dropped with a dispatch error; the caller logs and still
// acknowledges the invocation.
func (d *Dispatcher) Dispatch(name string, args map[string]any) error {
	if d == nil {
		return core.NewDispatchError("dispatcher is not initialized")
	}

	switch name {
	case CommandNavigateTo:
		section, _ := args["section"].(string)
		if _, ok := validSections[section]; !ok {
			return core.NewDispatchError(fmt.Sprintf("navigateTo: unknown section %q", section))
		}
		d.emit(name, args)
	case CommandToggleTheme, CommandOpenAdmin:
		d.emit(name, args)
	default:
		return core.NewDispatchError(fmt.Sprintf("unknown command %q", name))
	}
	return nil
}

func (d *Dispatcher) emit(name string, args map[string]any) {
	if d.onCommand == nil {
		d.logger.Debug("no command handler registered", "command", name)
		return
	}
	d.onCommand(name, args)
}
