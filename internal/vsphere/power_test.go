package vsphere

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vmware/govmomi/vim25/types"

	"github.com/aryankumar/vmpower/internal/executor"
	"github.com/aryankumar/vmpower/internal/util"
)

func TestPlanAction(t *testing.T) {
	on := types.VirtualMachinePowerStatePoweredOn
	off := types.VirtualMachinePowerStatePoweredOff
	suspended := types.VirtualMachinePowerStateSuspended

	tests := []struct {
		name       string
		action     executor.Action
		state      types.VirtualMachinePowerState
		wantSkip   bool
		wantTarget types.VirtualMachinePowerState
		wantErr    error
	}{
		{name: "power on from off", action: executor.ActionPowerOn, state: off, wantTarget: on},
		{name: "power on resumes suspended", action: executor.ActionPowerOn, state: suspended, wantTarget: on},
		{name: "power on already on", action: executor.ActionPowerOn, state: on, wantSkip: true},

		{name: "power off from on", action: executor.ActionPowerOff, state: on, wantTarget: off},
		{name: "power off from suspended", action: executor.ActionPowerOff, state: suspended, wantTarget: off},
		{name: "power off already off", action: executor.ActionPowerOff, state: off, wantSkip: true},

		{name: "shutdown from on", action: executor.ActionShutdown, state: on, wantTarget: off},
		{name: "shutdown already off", action: executor.ActionShutdown, state: off, wantSkip: true},
		{name: "shutdown from suspended", action: executor.ActionShutdown, state: suspended, wantErr: util.ErrIllegalTransition},

		{name: "restart from on", action: executor.ActionRestart, state: on},
		{name: "restart from off", action: executor.ActionRestart, state: off, wantErr: util.ErrIllegalTransition},
		{name: "restart from suspended", action: executor.ActionRestart, state: suspended, wantErr: util.ErrIllegalTransition},

		{name: "suspend from on", action: executor.ActionSuspend, state: on, wantTarget: suspended},
		{name: "suspend already suspended", action: executor.ActionSuspend, state: suspended, wantSkip: true},
		{name: "suspend from off", action: executor.ActionSuspend, state: off, wantErr: util.ErrIllegalTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planAction(tt.action, tt.state)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("planAction() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("planAction() unexpected error: %v", err)
			}

			if plan.skip != tt.wantSkip {
				t.Errorf("skip = %v, want %v", plan.skip, tt.wantSkip)
			}
			if plan.target != tt.wantTarget {
				t.Errorf("target = %q, want %q", plan.target, tt.wantTarget)
			}
		})
	}
}

func TestPlanAction_SkipMessages(t *testing.T) {
	plan, err := planAction(executor.ActionPowerOn, types.VirtualMachinePowerStatePoweredOn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.message != "already powered on" {
		t.Errorf("message = %q, want %q", plan.message, "already powered on")
	}

	plan, err = planAction(executor.ActionShutdown, types.VirtualMachinePowerStatePoweredOff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.message != "already powered off" {
		t.Errorf("message = %q, want %q", plan.message, "already powered off")
	}
}

func TestDescribeState(t *testing.T) {
	tests := []struct {
		state types.VirtualMachinePowerState
		want  string
	}{
		{types.VirtualMachinePowerStatePoweredOn, "powered on"},
		{types.VirtualMachinePowerStatePoweredOff, "powered off"},
		{types.VirtualMachinePowerStateSuspended, "suspended"},
		{types.VirtualMachinePowerState("weird"), "weird"},
	}

	for _, tt := range tests {
		if got := describeState(tt.state); got != tt.want {
			t.Errorf("describeState(%q) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "complete",
			cfg:  Config{Host: "vc.example.com", Username: "admin", Password: "pw"},
		},
		{name: "missing host", cfg: Config{Username: "admin", Password: "pw"}, wantErr: true},
		{name: "missing username", cfg: Config{Host: "vc", Password: "pw"}, wantErr: true},
		{name: "missing password", cfg: Config{Host: "vc", Username: "admin"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.cfg, nil)

			if tt.wantErr {
				if !errors.Is(err, util.ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c == nil {
				t.Fatal("expected client, got nil")
			}
		})
	}
}

func TestClient_Execute_NotConnected(t *testing.T) {
	c, err := NewClient(Config{Host: "vc.example.com", Username: "admin", Password: "pw"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.Execute(context.Background(), "vm-001", executor.ActionPowerOn, true)
	if !errors.Is(err, util.ErrConnection) {
		t.Errorf("expected ErrConnection, got %v", err)
	}
}

func TestClient_HealthCheck_NotConnected(t *testing.T) {
	c, err := NewClient(Config{Host: "vc.example.com", Username: "admin", Password: "pw"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if err := c.HealthCheck(context.Background()); !errors.Is(err, util.ErrConnection) {
		t.Errorf("expected ErrConnection, got %v", err)
	}
}

func TestClient_Close_Idempotent(t *testing.T) {
	c, err := NewClient(Config{Host: "vc.example.com", Username: "admin", Password: "pw"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if err := c.Close(context.Background()); err != nil {
		t.Errorf("Close on unconnected client: %v", err)
	}
	if err := c.Close(context.Background()); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestClient_String(t *testing.T) {
	c, err := NewClient(Config{Host: "vc.example.com", Username: "admin", Password: "pw"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	s := c.String()
	if !strings.Contains(s, "vc.example.com") {
		t.Errorf("String() = %q, expected it to contain the host", s)
	}
	if !strings.Contains(s, "false") {
		t.Errorf("String() = %q, expected Connected: false", s)
	}
}

func TestClassify(t *testing.T) {
	c := &Client{}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: util.ErrTimeout},
		{name: "cancelled", err: context.Canceled, want: util.ErrCancelled},
		{name: "transport", err: errors.New("connection refused"), want: util.ErrConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.classify("vm-001", tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(got.Error(), "vm-001") {
				t.Errorf("classify() = %v, expected target name in message", got)
			}
		})
	}
}
