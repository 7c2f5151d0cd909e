// Package export converts self-contained HTML into PDF bytes by driving a
// headless browser session.
package export

import (
	"fmt"
	"time"
)

// Phase names a step of one export session
type Phase string

const (
	PhaseQueue   Phase = "queue"
	PhaseLaunch  Phase = "launch"
	PhasePrepare Phase = "prepare"
	PhaseLoad    Phase = "load"
	PhaseFonts   Phase = "fonts"
	PhaseSettle  Phase = "settle"
	PhasePrint   Phase = "print"
)

// InvalidInputError is returned before any browser is launched when the
// request carries no usable HTML
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid export input: %s", e.Message)
}

// RenderTimeoutError is returned when a phase exceeds its time budget.
// The browser session has been torn down by the time the caller sees it.
type RenderTimeoutError struct {
	Phase   Phase
	Timeout time.Duration
	Cause   error
}

func (e *RenderTimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("render timeout: %s phase exceeded %s", e.Phase, e.Timeout)
	}
	return fmt.Sprintf("render timeout: %s phase exceeded its deadline", e.Phase)
}

func (e *RenderTimeoutError) Unwrap() error {
	return e.Cause
}

// RenderFailureError is returned for any other failure inside the browser session
type RenderFailureError struct {
	Phase   Phase
	Message string
	Cause   error
}

func (e *RenderFailureError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "browser session failed"
	}
	if e.Cause != nil {
		return fmt.Sprintf("render failure: %s: %s: %v", e.Phase, msg, e.Cause)
	}
	return fmt.Sprintf("render failure: %s: %s", e.Phase, msg)
}

func (e *RenderFailureError) Unwrap() error {
	return e.Cause
}
