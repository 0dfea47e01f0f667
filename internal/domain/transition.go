package domain

// Transition names an event that moves a prompt job between statuses.
type Transition string

const (
	// TransitionStart is applied by the executor when a job is dequeued.
	TransitionStart Transition = "start"
	// TransitionComplete and TransitionFail finalize an execution.
	TransitionComplete Transition = "complete"
	TransitionFail     Transition = "fail"
	// TransitionRetry is the explicit user retry of a failed job.
	TransitionRetry Transition = "retry"
	// TransitionRecover resets a stuck job so it can be dispatched again.
	TransitionRecover Transition = "recover"
	// TransitionManualComplete is the operator override for a job stuck reporting.
	TransitionManualComplete Transition = "mark completed"
)

var transitions = map[Transition]map[JobStatus]JobStatus{
	TransitionStart:          {JobStatusPending: JobStatusProcessing},
	TransitionComplete:       {JobStatusProcessing: JobStatusCompleted},
	TransitionFail:           {JobStatusProcessing: JobStatusFailed},
	TransitionRetry:          {JobStatusFailed: JobStatusPending},
	TransitionRecover:        {JobStatusProcessing: JobStatusPending, JobStatusPending: JobStatusPending},
	TransitionManualComplete: {JobStatusProcessing: JobStatusCompleted},
}

// NextStatus returns the status reached by applying t to a job in status from.
// Every caller that mutates a job status goes through here.
func NextStatus(from JobStatus, t Transition) (JobStatus, error) {
	if to, ok := transitions[t][from]; ok {
		return to, nil
	}
	return "", &TransitionError{From: from, Transition: t}
}
