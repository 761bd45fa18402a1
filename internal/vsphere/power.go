package vsphere

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/object"
	gtask "github.com/vmware/govmomi/task"
	"github.com/vmware/govmomi/vim25/soap"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/aryankumar/vmpower/internal/executor"
	"github.com/aryankumar/vmpower/internal/util"
)

// targetStates maps each action to the power state that signals its
// completion. Restart has no entry: the VM ends powered on but the task
// completing is the signal.
var targetStates = map[executor.Action]types.VirtualMachinePowerState{
	executor.ActionPowerOn:  types.VirtualMachinePowerStatePoweredOn,
	executor.ActionPowerOff: types.VirtualMachinePowerStatePoweredOff,
	executor.ActionShutdown: types.VirtualMachinePowerStatePoweredOff,
	executor.ActionSuspend:  types.VirtualMachinePowerStateSuspended,
}

// actionPlan is the decision for one action against one observed state
type actionPlan struct {
	// skip reports that the VM is already in the target state
	skip bool

	// message explains the skip
	message string

	// target is the power state to wait for, empty when none applies
	target types.VirtualMachinePowerState
}

// planAction decides whether an action is a no-op, an illegal transition,
// or a real state change for the given current power state.
//
// PowerOn and PowerOff are accepted from any state (powering on a
// suspended VM resumes it). Shutdown, Restart and Suspend need a running
// guest.
func planAction(action executor.Action, state types.VirtualMachinePowerState) (actionPlan, error) {
	target := targetStates[action]

	if target != "" && state == target {
		return actionPlan{
			skip:    true,
			message: fmt.Sprintf("already %s", describeState(state)),
		}, nil
	}

	switch action {
	case executor.ActionShutdown, executor.ActionRestart, executor.ActionSuspend:
		if state != types.VirtualMachinePowerStatePoweredOn {
			return actionPlan{}, fmt.Errorf("%w: cannot %s a VM that is %s",
				util.ErrIllegalTransition, action, describeState(state))
		}
	}

	return actionPlan{target: target}, nil
}

// describeState renders a power state for messages
func describeState(state types.VirtualMachinePowerState) string {
	switch state {
	case types.VirtualMachinePowerStatePoweredOn:
		return "powered on"
	case types.VirtualMachinePowerStatePoweredOff:
		return "powered off"
	case types.VirtualMachinePowerStateSuspended:
		return "suspended"
	default:
		return string(state)
	}
}

// Execute applies one power action to one VM. It implements
// executor.ActionExecutor.
func (c *Client) Execute(ctx context.Context, target string, action executor.Action, wait bool) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("%w: not connected", util.ErrConnection)
	}

	vm, err := c.finder.VirtualMachine(ctx, target)
	if err != nil {
		var notFound *find.NotFoundError
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: %s", util.ErrVMNotFound, target)
		}
		return "", c.classify(target, fmt.Errorf("lookup: %w", err))
	}

	state, err := vm.PowerState(ctx)
	if err != nil {
		return "", c.classify(target, fmt.Errorf("reading power state: %w", err))
	}

	plan, err := planAction(action, state)
	if err != nil {
		return "", err
	}
	if plan.skip {
		return plan.message, nil
	}

	task, err := c.invoke(ctx, vm, action)
	if err != nil {
		return "", c.classify(target, err)
	}

	if !wait {
		return fmt.Sprintf("action %s started", action), nil
	}

	if task != nil {
		if err := task.Wait(ctx); err != nil {
			return "", c.classify(target, err)
		}
	}
	if plan.target != "" {
		if err := vm.WaitForPowerState(ctx, plan.target); err != nil {
			return "", c.classify(target, fmt.Errorf("waiting for %s: %w", describeState(plan.target), err))
		}
	}

	return fmt.Sprintf("action %s completed", action), nil
}

// invoke starts the vSphere operation for the action. ShutdownGuest is
// not task-based; the caller observes its completion via power state.
func (c *Client) invoke(ctx context.Context, vm *object.VirtualMachine, action executor.Action) (*object.Task, error) {
	switch action {
	case executor.ActionPowerOn:
		return vm.PowerOn(ctx)
	case executor.ActionPowerOff:
		return vm.PowerOff(ctx)
	case executor.ActionRestart:
		return vm.Reset(ctx)
	case executor.ActionSuspend:
		return vm.Suspend(ctx)
	case executor.ActionShutdown:
		return nil, vm.ShutdownGuest(ctx)
	default:
		return nil, fmt.Errorf("%w: unsupported action %q", util.ErrValidation, action)
	}
}

// classify maps transport, task, and fault errors onto the error
// taxonomy so the result message tells the operator what actually went
// wrong
func (c *Client) classify(target string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return util.WrapTargetError(target, fmt.Errorf("%w: %v", util.ErrTimeout, err))
	case errors.Is(err, context.Canceled):
		return util.WrapTargetError(target, fmt.Errorf("%w: %v", util.ErrCancelled, err))
	}

	if fault := extractFault(err); fault != nil {
		switch fault.(type) {
		case *types.InvalidPowerState, types.InvalidPowerState,
			*types.InvalidState, types.InvalidState:
			return util.WrapTargetError(target, fmt.Errorf("%w: %v", util.ErrIllegalTransition, err))
		case *types.ToolsUnavailable, types.ToolsUnavailable:
			return util.WrapTargetError(target, fmt.Errorf("%w: guest shutdown requires VMware Tools", util.ErrIllegalTransition))
		}
		// Other vim faults are operation failures, not transport problems
		return util.WrapTargetError(target, err)
	}

	if soap.IsSoapFault(err) {
		return util.WrapTargetError(target, err)
	}

	// Anything left is transport-level
	return util.WrapTargetError(target, fmt.Errorf("%w: %v", util.ErrConnection, err))
}

// extractFault pulls the vim fault out of a task or SOAP error, if any
func extractFault(err error) types.AnyType {
	var taskErr gtask.Error
	if errors.As(err, &taskErr) && taskErr.Fault() != nil {
		return taskErr.Fault()
	}

	if soap.IsSoapFault(err) {
		return soap.ToSoapFault(err).VimFault()
	}

	if soap.IsVimFault(err) {
		return soap.ToVimFault(err)
	}

	return nil
}
