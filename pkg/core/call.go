package core

import "time"

// CallRecord is one dispatched tool call.
type CallRecord struct {
	ID        uint
	Tool      string
	RequestID string
	OK        bool
	ErrorKind string
	Batch     bool
	Duration  time.Duration
	Time      time.Time
}
