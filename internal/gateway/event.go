// Package gateway is a client for the Jenkins SSE gateway. It holds one
// server-sent-event stream open per client and fans the decoded events out
// to callbacks registered per channel (topic).
package gateway

import "time"

// ChannelJob is the gateway channel carrying job run lifecycle events.
const ChannelJob = "job"

// Event kinds published on the job channel.
const (
	KindJobRunQueueLeft = "job_run_queue_left"
	KindJobRunStarted   = "job_run_started"
	KindJobRunEnded     = "job_run_ended"
)

// Event is a decoded gateway notification. Fields the payload did not carry
// are left empty; consumers treat empty fields as non-matching.
type Event struct {
	Channel      string
	Kind         string
	PipelineName string
	ObjectID     string
	ObjectName   string
	RunStatus    string // job_run_status on job_run_ended, e.g. "SUCCESS"
	Organization string

	// ID is the SSE event id, if the gateway sent one.
	ID        string
	Timestamp time.Time

	// Raw holds the full decoded payload.
	Raw map[string]any
}

// Callback receives events for a subscribed channel. Callbacks run on the
// client's single reader goroutine, one at a time and in arrival order.
// They must return quickly and must not call Subscribe or Unsubscribe.
type Callback func(Event)

// Handle identifies one registration made with Subscribe. The zero Handle
// is never issued.
type Handle uint64
