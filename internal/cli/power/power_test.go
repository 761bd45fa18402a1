package power

import (
	"testing"

	"github.com/aryankumar/vmpower/internal/executor"
)

func TestNewPowerCmd_Subcommands(t *testing.T) {
	cmd := NewPowerCmd()

	want := map[string]bool{
		"on":       false,
		"off":      false,
		"shutdown": false,
		"restart":  false,
		"suspend":  false,
	}

	for _, sub := range cmd.Commands() {
		want[sub.Name()] = true
	}

	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestNewActionCmd_RequiresArgs(t *testing.T) {
	cmd := newActionCmd("on", "Power on VMs", executor.ActionPowerOn)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error when no VM names are given")
	}
}

func TestNewActionCmd_Flags(t *testing.T) {
	cmd := newActionCmd("off", "Power off VMs", executor.ActionPowerOff)

	if cmd.Flags().Lookup("workers") == nil {
		t.Error("missing flag --workers")
	}
	if cmd.Flags().Lookup("no-wait") == nil {
		t.Error("missing flag --no-wait")
	}
}
