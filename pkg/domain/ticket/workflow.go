package ticket

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Move events, one per target status. Kept untyped for statekit.EventType compatibility.
const (
	EventToNew        = "to:new"
	EventToSpec       = "to:spec"
	EventToPlanning   = "to:planning"
	EventToInProgress = "to:in-progress"
	EventToReview     = "to:review"
	EventToDone       = "to:done"
	EventToBlocked    = "to:blocked"
)

// MoveEvent is the event that moves a ticket into the given status.
func MoveEvent(to Status) string {
	return "to:" + string(to)
}

// WorkflowContext carries the ticket id through the machine.
type WorkflowContext struct {
	TicketID string
}

// Workflow is the status machine for a single ticket. The graph is complete:
// every status may move to every other one.
type Workflow struct {
	interpreter *statekit.Interpreter[WorkflowContext]
}

func sid(s Status) statekit.StateID { return statekit.StateID(s) }

// NewWorkflow starts a machine at the ticket's current status.
func NewWorkflow(ticketID string, current Status) (*Workflow, error) {
	if !current.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, current)
	}

	builder := statekit.NewMachine[WorkflowContext]("ticket-workflow").
		WithInitial(sid(current)).
		WithContext(WorkflowContext{TicketID: ticketID})

	builder.State(sid(StatusNew)).
		On(EventToSpec).Target(sid(StatusSpec)).
		On(EventToPlanning).Target(sid(StatusPlanning)).
		On(EventToInProgress).Target(sid(StatusInProgress)).
		On(EventToReview).Target(sid(StatusReview)).
		On(EventToDone).Target(sid(StatusDone)).
		On(EventToBlocked).Target(sid(StatusBlocked)).
		Done()

	builder.State(sid(StatusSpec)).
		On(EventToNew).Target(sid(StatusNew)).
		On(EventToPlanning).Target(sid(StatusPlanning)).
		On(EventToInProgress).Target(sid(StatusInProgress)).
		On(EventToReview).Target(sid(StatusReview)).
		On(EventToDone).Target(sid(StatusDone)).
		On(EventToBlocked).Target(sid(StatusBlocked)).
		Done()

	builder.State(sid(StatusPlanning)).
		On(EventToNew).Target(sid(StatusNew)).
		On(EventToSpec).Target(sid(StatusSpec)).
		On(EventToInProgress).Target(sid(StatusInProgress)).
		On(EventToReview).Target(sid(StatusReview)).
		On(EventToDone).Target(sid(StatusDone)).
		On(EventToBlocked).Target(sid(StatusBlocked)).
		Done()

	builder.State(sid(StatusInProgress)).
		On(EventToNew).Target(sid(StatusNew)).
		On(EventToSpec).Target(sid(StatusSpec)).
		On(EventToPlanning).Target(sid(StatusPlanning)).
		On(EventToReview).Target(sid(StatusReview)).
		On(EventToDone).Target(sid(StatusDone)).
		On(EventToBlocked).Target(sid(StatusBlocked)).
		Done()

	builder.State(sid(StatusReview)).
		On(EventToNew).Target(sid(StatusNew)).
		On(EventToSpec).Target(sid(StatusSpec)).
		On(EventToPlanning).Target(sid(StatusPlanning)).
		On(EventToInProgress).Target(sid(StatusInProgress)).
		On(EventToDone).Target(sid(StatusDone)).
		On(EventToBlocked).Target(sid(StatusBlocked)).
		Done()

	builder.State(sid(StatusDone)).
		On(EventToNew).Target(sid(StatusNew)).
		On(EventToSpec).Target(sid(StatusSpec)).
		On(EventToPlanning).Target(sid(StatusPlanning)).
		On(EventToInProgress).Target(sid(StatusInProgress)).
		On(EventToReview).Target(sid(StatusReview)).
		On(EventToBlocked).Target(sid(StatusBlocked)).
		Done()

	builder.State(sid(StatusBlocked)).
		On(EventToNew).Target(sid(StatusNew)).
		On(EventToSpec).Target(sid(StatusSpec)).
		On(EventToPlanning).Target(sid(StatusPlanning)).
		On(EventToInProgress).Target(sid(StatusInProgress)).
		On(EventToReview).Target(sid(StatusReview)).
		On(EventToDone).Target(sid(StatusDone)).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build ticket workflow: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return &Workflow{interpreter: interpreter}, nil
}

// Current returns the status the machine is in.
func (w *Workflow) Current() Status {
	return Status(w.interpreter.State().Value)
}

// MoveTo transitions the machine. Moving to the current status is a no-op.
func (w *Workflow) MoveTo(to Status) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	before := w.Current()
	if before == to {
		return nil
	}
	w.interpreter.Send(statekit.Event{Type: statekit.EventType(MoveEvent(to))})
	if w.Current() != to {
		return fmt.Errorf("cannot move ticket from %s to %s", before, to)
	}
	return nil
}

// DescribeTransition renders the default status message for a change.
func DescribeTransition(from, to Status) string {
	return fmt.Sprintf("Status: %s → %s", from, to)
}
