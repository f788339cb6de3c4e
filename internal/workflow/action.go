package workflow

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrPending is returned by Begin while the same action is still running.
var ErrPending = errors.New("action already in progress")

// ErrUndismissed is returned by Begin while the last result is still shown.
var ErrUndismissed = fmt.Errorf("%w: previous result not dismissed", ErrPending)

type ActionState int

const (
	Idle ActionState = iota
	Pending
	Succeeded
	Failed
)

func (s ActionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Action is the idle -> pending -> succeeded|failed lifecycle of one user
// action. Terminal states stay until Dismiss.
type Action struct {
	mu     sync.Mutex
	state  ActionState
	result Notification
}

// Begin moves an idle action to pending.
func (a *Action) Begin() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.state {
	case Pending:
		return ErrPending
	case Succeeded, Failed:
		return ErrUndismissed
	}
	a.state = Pending
	a.result = nil
	return nil
}

func (a *Action) Finish(n Notification) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Pending {
		return
	}
	switch n.(type) {
	case Success:
		a.state = Succeeded
	case Failure:
		a.state = Failed
	default:
		a.state = Idle
		a.result = nil
		return
	}
	a.result = n
}

func (a *Action) Dismiss() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Succeeded || a.state == Failed {
		a.state = Idle
		a.result = nil
	}
}

func (a *Action) State() ActionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Notification is the loading notice while pending, else the last result.
func (a *Action) Notification() Notification {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Pending {
		return Loading{Message: "Working on it..."}
	}
	return a.result
}

// Tracker hands out one Action per session and action name, so a pending
// upload never blocks a status change or a page load.
type Tracker struct {
	mu      sync.Mutex
	actions map[string]*Action
}

func NewTracker() *Tracker {
	return &Tracker{actions: map[string]*Action{}}
}

func (t *Tracker) Get(sessionID, name string) *Action {
	key := sessionID + "\x00" + name
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.actions[key]
	if !ok {
		a = &Action{}
		t.actions[key] = a
	}
	return a
}

// Forget drops every action of a session, on logout.
func (t *Tracker) Forget(sessionID string) {
	prefix := sessionID + "\x00"
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.actions {
		if strings.HasPrefix(key, prefix) {
			delete(t.actions, key)
		}
	}
}

// Run executes fn guarded by a: a second caller gets ErrPending, otherwise
// the notification fn returns becomes the action's result.
func (a *Action) Run(fn func() Notification) (Notification, error) {
	if err := a.Begin(); err != nil {
		return nil, err
	}
	n := fn()
	a.Finish(n)
	return n, nil
}
