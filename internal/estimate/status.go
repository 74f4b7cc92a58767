package estimate

// Status is the workflow state of an estimate. Pricing never looks at it.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusQuestionsPending Status = "questions_pending"
	StatusWorking          Status = "working"
	StatusDraftReady       Status = "draft_ready"
	StatusApproved         Status = "approved"
	StatusViewOnly         Status = "view_only"
)

// IsValid checks if the status is a known workflow state
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusQuestionsPending, StatusWorking, StatusDraftReady, StatusApproved, StatusViewOnly:
		return true
	}
	return false
}

// Locked reports whether the estimate rejects edits in this state.
// Approved estimates are reopened by moving them back to working.
func (s Status) Locked() bool {
	return s == StatusApproved || s == StatusViewOnly
}

// view_only is absent here: it is only entered when the parent bid closes.
var transitions = map[Status][]Status{
	StatusDraft:            {StatusQuestionsPending, StatusWorking},
	StatusQuestionsPending: {StatusWorking},
	StatusWorking:          {StatusDraftReady},
	StatusDraftReady:       {StatusWorking, StatusApproved},
	StatusApproved:         {StatusWorking},
}

// CanTransition reports whether a user or import step may move an estimate from one status to another
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from s through CanTransition
func NextStatuses(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// Severity grades an assumption
type Severity string

const (
	SeverityInfo Severity = "info"
	SeverityWarn Severity = "warn"
	SeverityFlag Severity = "flag"
)

// IsValid checks if the severity is known
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarn, SeverityFlag:
		return true
	}
	return false
}
