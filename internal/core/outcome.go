package core

import "fmt"

// Status is the discriminant of a per-source Outcome.
type Status string

const (
	StatusOK   Status = "ok"
	StatusSkip Status = "skip"
	StatusFail Status = "fail"
)

// Outcome is the result of reading and mapping a single source: exactly one
// of a table (ok), a skip reason, or an error.
type Outcome struct {
	Source string
	Status Status
	Table  Table
	Reason string
	Err    error
}

// Ok wraps a successfully mapped table.
func Ok(source string, t Table) Outcome {
	return Outcome{Source: source, Status: StatusOK, Table: t}
}

// Skipped records a source that was deliberately left out.
func Skipped(source, reason string) Outcome {
	return Outcome{Source: source, Status: StatusSkip, Reason: reason}
}

// Failed records a source whose read or mapping faulted.
func Failed(source string, err error) Outcome {
	return Outcome{Source: source, Status: StatusFail, Err: err}
}

// Message is a human readable explanation for skip and fail outcomes.
func (o Outcome) Message() string {
	switch o.Status {
	case StatusSkip:
		return o.Reason
	case StatusFail:
		if o.Err == nil {
			return "unknown error"
		}
		return o.Err.Error()
	default:
		return fmt.Sprintf("%d rows", o.Table.Len())
	}
}
