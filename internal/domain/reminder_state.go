package domain

// ReminderState is the lifecycle of an invoice's reminders as presented to callers
type ReminderState string

const (
	ReminderStateNotStarted ReminderState = "NOT_STARTED"
	ReminderStateInProgress ReminderState = "IN_PROGRESS"
	ReminderStateCompleted  ReminderState = "COMPLETED"
	ReminderStateStopped    ReminderState = "STOPPED"
)

type reminderStateRule struct {
	state ReminderState
	when  func(invoice *Invoice, followUps []*FollowUp) bool
}

// reminderStateRules is evaluated top to bottom; the first matching rule wins.
var reminderStateRules = []reminderStateRule{
	{
		state: ReminderStateStopped,
		when: func(invoice *Invoice, _ []*FollowUp) bool {
			return invoice.Status == InvoiceStatusPaid
		},
	},
	{
		state: ReminderStateCompleted,
		when: func(invoice *Invoice, _ []*FollowUp) bool {
			return invoice.RemindersCompleted
		},
	},
	{
		state: ReminderStateNotStarted,
		when: func(invoice *Invoice, followUps []*FollowUp) bool {
			return CountFollowUps(followUps, FollowUpStatusSent) == 0 && invoice.LastReminderSentAt == nil
		},
	},
	{
		state: ReminderStateInProgress,
		when: func(*Invoice, []*FollowUp) bool {
			return true
		},
	},
}

// ClassifyReminderState maps an invoice and its already-loaded follow-ups to a
// reminder state. It never touches storage.
func ClassifyReminderState(invoice *Invoice, followUps []*FollowUp) ReminderState {
	for _, rule := range reminderStateRules {
		if rule.when(invoice, followUps) {
			return rule.state
		}
	}
	return ReminderStateInProgress
}

// CountFollowUps counts follow-ups in the given status
func CountFollowUps(followUps []*FollowUp, status string) int {
	count := 0
	for _, f := range followUps {
		if f.Status == status {
			count++
		}
	}
	return count
}
