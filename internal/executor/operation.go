package executor

import (
	"fmt"
	"strings"

	"github.com/aryankumar/vmpower/internal/util"
)

// Action is a power action applied to a virtual machine
type Action string

const (
	// ActionPowerOn powers a VM on
	ActionPowerOn Action = "power_on"
	// ActionPowerOff hard-stops a VM
	ActionPowerOff Action = "power_off"
	// ActionShutdown asks the guest OS to shut down cleanly
	ActionShutdown Action = "shutdown"
	// ActionRestart resets a running VM
	ActionRestart Action = "restart"
	// ActionSuspend suspends a running VM
	ActionSuspend Action = "suspend"
)

// Actions returns every recognized action in presentation order
func Actions() []Action {
	return []Action{ActionPowerOn, ActionPowerOff, ActionShutdown, ActionRestart, ActionSuspend}
}

// String returns the canonical spelling of the action
func (a Action) String() string {
	return string(a)
}

// actionAliases maps normalized input spellings to actions. Inventory CSVs
// in the wild use several spellings for the same action, so the parser is
// deliberately permissive.
var actionAliases = map[string]Action{
	"power_on":          ActionPowerOn,
	"poweron":           ActionPowerOn,
	"on":                ActionPowerOn,
	"start":             ActionPowerOn,
	"power_off":         ActionPowerOff,
	"poweroff":          ActionPowerOff,
	"off":               ActionPowerOff,
	"stop":              ActionPowerOff,
	"shutdown":          ActionShutdown,
	"graceful_shutdown": ActionShutdown,
	"guest_shutdown":    ActionShutdown,
	"restart":           ActionRestart,
	"reset":             ActionRestart,
	"reboot":            ActionRestart,
	"suspend":           ActionSuspend,
}

// ParseAction maps a raw action string to an Action, case-insensitively.
// Hyphens and spaces are treated as underscores.
func ParseAction(s string) (Action, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	if action, ok := actionAliases[normalized]; ok {
		return action, nil
	}

	return "", fmt.Errorf("%w: unknown action %q", util.ErrValidation, s)
}

// Operation is one unit of work: a single power action against a single VM.
// Operations are immutable once created; duplicates are permitted and each
// is executed independently.
type Operation struct {
	// Target is the VM name or inventory path
	Target string

	// Action is the power action to apply
	Action Action
}

// NewOperation validates a raw (target, action) pair read from an input
// source and builds an Operation from it
func NewOperation(target, action string) (Operation, error) {
	name := strings.TrimSpace(target)
	if name == "" {
		return Operation{}, fmt.Errorf("%w: empty target name", util.ErrValidation)
	}

	parsed, err := ParseAction(action)
	if err != nil {
		return Operation{}, fmt.Errorf("target %q: %w", name, err)
	}

	return Operation{Target: name, Action: parsed}, nil
}

// String returns a human-readable representation of the operation
func (o Operation) String() string {
	return fmt.Sprintf("%s(%s)", o.Action, o.Target)
}
