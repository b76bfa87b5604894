package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/store-auditor/backend/audit"
)

// Status is the presentation state of an audit session
type Status string

// Status values double as statekit state IDs
const (
	StatusIdle      Status = "idle"
	StatusAnalyzing Status = "analyzing"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
)

const (
	eventSubmit      = "submit"
	eventSucceed     = "succeed"
	eventFail        = "fail"
	eventAcknowledge = "acknowledge"
	eventReset       = "reset"
)

var (
	// ErrBusy is returned when an audit is already running for the session
	ErrBusy = errors.New("an audit is already in progress")
	// ErrNotIdle is returned when a new audit is submitted before the
	// displayed result or error has been dismissed
	ErrNotIdle = errors.New("session is not idle")
)

type machineContext struct {
	SessionID string
}

// Session tracks one client's audit lifecycle and its current result.
// The result slot is replaced wholesale, never mutated.
type Session struct {
	id string

	mu          sync.Mutex
	interpreter *statekit.Interpreter[machineContext]
	result      *audit.AuditResult
	recordID    string
	notice      string
	lastSeen    time.Time
	now         func() time.Time
}

// View is a point-in-time copy of a session
type View struct {
	ID       string             `json:"-"`
	Status   Status             `json:"status"`
	Result   *audit.AuditResult `json:"result,omitempty"`
	RecordID string             `json:"id,omitempty"`
	Notice   string             `json:"notice,omitempty"`
}

// New creates a session in the idle state
func New(id string) (*Session, error) {
	builder := statekit.NewMachine[machineContext]("audit-session").
		WithInitial(statekit.StateID(StatusIdle)).
		WithContext(machineContext{SessionID: id})

	builder.State(statekit.StateID(StatusIdle)).
		On(eventSubmit).Target(statekit.StateID(StatusAnalyzing)).
		Done()

	builder.State(statekit.StateID(StatusAnalyzing)).
		On(eventSucceed).Target(statekit.StateID(StatusComplete)).
		On(eventFail).Target(statekit.StateID(StatusError)).
		Done()

	builder.State(statekit.StateID(StatusComplete)).
		On(eventReset).Target(statekit.StateID(StatusIdle)).
		Done()

	builder.State(statekit.StateID(StatusError)).
		On(eventAcknowledge).Target(statekit.StateID(StatusIdle)).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build session state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &Session{
		id:          id,
		interpreter: interpreter,
		lastSeen:    time.Now(),
		now:         time.Now,
	}, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

func (s *Session) current() Status {
	return Status(s.interpreter.State().Value)
}

// transition sends event and reports whether the state changed.
// Caller holds s.mu.
func (s *Session) transition(event string) error {
	before := s.current()
	s.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if s.current() != before {
		return nil
	}
	return fmt.Errorf("action %q is not allowed while the session is %s", event, before)
}

func (s *Session) touch() {
	s.lastSeen = s.now()
}

// Submit moves an idle session to analyzing
func (s *Session) Submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	switch s.current() {
	case StatusAnalyzing:
		return ErrBusy
	case StatusComplete, StatusError:
		return ErrNotIdle
	}

	if err := s.transition(eventSubmit); err != nil {
		return err
	}
	s.notice = ""
	return nil
}

// Succeed stores the finished result and moves to complete
func (s *Session) Succeed(result audit.AuditResult, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.transition(eventSucceed); err != nil {
		return err
	}
	s.result = &result
	s.recordID = recordID
	return nil
}

// Fail records the user-facing notice and moves to error
func (s *Session) Fail(notice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.transition(eventFail); err != nil {
		return err
	}
	s.notice = notice
	return nil
}

// Acknowledge dismisses an error and returns to idle. The notice stays
// visible until the next submit or reset.
func (s *Session) Acknowledge() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	return s.transition(eventAcknowledge)
}

// Reset clears the displayed result and returns to idle. Resetting an
// idle session only clears the notice.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	switch s.current() {
	case StatusIdle:
		s.notice = ""
		return nil
	case StatusAnalyzing:
		return ErrBusy
	case StatusError:
		if err := s.transition(eventAcknowledge); err != nil {
			return err
		}
	default:
		if err := s.transition(eventReset); err != nil {
			return err
		}
	}

	s.result = nil
	s.recordID = ""
	s.notice = ""
	return nil
}

// View returns a copy of the session state
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	v := View{
		ID:       s.id,
		Status:   s.current(),
		RecordID: s.recordID,
		Notice:   s.notice,
	}
	if s.result != nil {
		result := *s.result
		v.Result = &result
	}
	return v
}

// idleSince reports whether the session can be swept
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current() != StatusAnalyzing && s.lastSeen.Before(cutoff)
}
