package model

import "time"

// Appointment statuses. Completed is the only status that triggers
// BASE_GENERATION loyalty accrual.
const (
	AppointmentScheduled       = "scheduled"
	AppointmentCompleted       = "completed"
	AppointmentNoShow          = "no_show"
	AppointmentCancelledByUser = "cancelled_by_user"
	AppointmentCancelled       = "cancelled"
	AppointmentRescheduled     = "rescheduled"
)

// Appointment is a booked studio service for an account.
type Appointment struct {
	ID          int64     `db:"id" json:"id"`
	AccountID   int64     `db:"account_id" json:"account_id"`
	ServiceName string    `db:"service_name" json:"service_name"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// validAppointmentTransitions is the explicit transition table. Statuses not
// listed as keys are terminal. Rescheduled loops back to scheduled so the
// booking can run through the lifecycle again.
var validAppointmentTransitions = map[string][]string{
	AppointmentScheduled: {
		AppointmentCompleted,
		AppointmentNoShow,
		AppointmentCancelledByUser,
		AppointmentCancelled,
		AppointmentRescheduled,
	},
	AppointmentRescheduled: {
		AppointmentScheduled,
	},
}

// CanTransition reports whether an appointment may move from one status to
// another. Any write that is not in the table is rejected, including
// overwriting a status with itself.
func CanTransition(from, to string) bool {
	allowed, ok := validAppointmentTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsAppointmentStatus reports whether s is one of the known statuses.
func IsAppointmentStatus(s string) bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentNoShow,
		AppointmentCancelledByUser, AppointmentCancelled, AppointmentRescheduled:
		return true
	}
	return false
}
