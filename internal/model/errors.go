package model

import "fmt"

// Failure taxonomy. Every one of these is expected and non-fatal: the
// caller logs, keeps its current state and retries on the next tick.

// SensorReadError marks a failed moisture read; the cycle is skipped.
type SensorReadError struct {
	Err error
}

func (e *SensorReadError) Error() string { return fmt.Sprintf("sensor read: %v", e.Err) }
func (e *SensorReadError) Unwrap() error { return e.Err }

// NetworkConnectError marks a failed network-link reconnect.
type NetworkConnectError struct {
	Err error
}

func (e *NetworkConnectError) Error() string { return fmt.Sprintf("network connect: %v", e.Err) }
func (e *NetworkConnectError) Unwrap() error { return e.Err }

// BusConnectError marks a failed bus-session reconnect after the whole
// strategy ladder was tried.
type BusConnectError struct {
	Err error
}

func (e *BusConnectError) Error() string { return fmt.Sprintf("bus connect: %v", e.Err) }
func (e *BusConnectError) Unwrap() error { return e.Err }

// ThresholdParseError marks a rejected threshold payload; prior
// threshold state is retained.
type ThresholdParseError struct {
	Payload string
	Err     error
}

func (e *ThresholdParseError) Error() string {
	return fmt.Sprintf("threshold payload %q: %v", e.Payload, e.Err)
}
func (e *ThresholdParseError) Unwrap() error { return e.Err }

// PayloadDecodeError marks a malformed message; it is dropped with no
// retry.
type PayloadDecodeError struct {
	Topic string
	Err   error
}

func (e *PayloadDecodeError) Error() string {
	return fmt.Sprintf("decode payload on %s: %v", e.Topic, e.Err)
}
func (e *PayloadDecodeError) Unwrap() error { return e.Err }

// PersistenceWriteError marks a failed record insert; the message is
// considered lost.
type PersistenceWriteError struct {
	Err error
}

func (e *PersistenceWriteError) Error() string { return fmt.Sprintf("persistence write: %v", e.Err) }
func (e *PersistenceWriteError) Unwrap() error { return e.Err }
