package domain

import "time"

// JobAction tells the queue consumer what to do with a claimed payload.
type JobAction string

const (
	// JobActionAck removes a successfully processed job.
	JobActionAck JobAction = "ack"
	// JobActionDrop removes a job that can never succeed.
	JobActionDrop JobAction = "drop"
	// JobActionRequeue pushes a (possibly rewritten) payload back onto the queue.
	JobActionRequeue JobAction = "requeue"
)

// JobProcessResult is the handler's verdict for one claimed payload.
// Payload and Delay are only meaningful for JobActionRequeue.
type JobProcessResult struct {
	Action  JobAction
	Payload string
	Delay   time.Duration
}

// Ack builds an ack result.
func Ack() JobProcessResult {
	return JobProcessResult{Action: JobActionAck}
}

// Drop builds a drop result.
func Drop() JobProcessResult {
	return JobProcessResult{Action: JobActionDrop}
}

// Requeue builds a requeue result carrying the payload to push back.
func Requeue(payload string, delay time.Duration) JobProcessResult {
	return JobProcessResult{Action: JobActionRequeue, Payload: payload, Delay: delay}
}
