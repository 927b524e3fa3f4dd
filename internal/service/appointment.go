package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prive-club/internal/model"
	"prive-club/internal/repository"
)

// Common errors for appointment operations.
var (
	ErrInvalidStatus     = errors.New("unknown appointment status")
	ErrInvalidTransition = errors.New("appointment status transition not allowed")
	ErrPastAppointment   = errors.New("appointment time is in the past")
)

// TransitionResult is the appointment after a status change plus the accrual
// paid out when the change was a completion. Accrual is nil for every other
// transition and for completions the grant pipeline declined.
type TransitionResult struct {
	Appointment *model.Appointment
	Accrual     *GrantResult
}

// AppointmentService books visits and walks them through the status state
// machine. Completing a visit is the club's base point generation event.
type AppointmentService struct {
	appointmentRepo *repository.AppointmentRepository
	accountRepo     *repository.AccountRepository
	loyaltySvc      *LoyaltyService
}

// NewAppointmentService creates a new AppointmentService instance.
func NewAppointmentService(
	appointmentRepo *repository.AppointmentRepository,
	accountRepo *repository.AccountRepository,
	loyaltySvc *LoyaltyService,
) *AppointmentService {
	return &AppointmentService{
		appointmentRepo: appointmentRepo,
		accountRepo:     accountRepo,
		loyaltySvc:      loyaltySvc,
	}
}

// Book schedules a new appointment for an account.
func (s *AppointmentService) Book(ctx context.Context, accountID int64, serviceName string, amountCents int64, scheduledAt time.Time) (*model.Appointment, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, ErrAccountInactive
	}
	if scheduledAt.Before(time.Now()) {
		return nil, ErrPastAppointment
	}

	return s.appointmentRepo.Create(ctx, &model.Appointment{
		AccountID:   accountID,
		ServiceName: serviceName,
		AmountCents: amountCents,
		ScheduledAt: scheduledAt,
	})
}

// Get retrieves an appointment by ID.
func (s *AppointmentService) Get(ctx context.Context, appointmentID int64) (*model.Appointment, error) {
	return s.appointmentRepo.GetByID(ctx, appointmentID)
}

// ListByAccount returns an account's appointments, newest first.
func (s *AppointmentService) ListByAccount(ctx context.Context, accountID int64) ([]model.Appointment, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.appointmentRepo.ListByAccount(ctx, accountID)
}

// Transition moves an appointment to a new status. The write is conditional
// on the status the appointment had when loaded, so a concurrent transition
// surfaces as repository.ErrStatusConflict instead of a silent overwrite.
// Completion triggers the base generation grant against the service value.
func (s *AppointmentService) Transition(ctx context.Context, appointmentID int64, to string) (*TransitionResult, error) {
	if !model.IsAppointmentStatus(to) {
		return nil, ErrInvalidStatus
	}

	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(appointment.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, appointment.Status, to)
	}

	updated, err := s.appointmentRepo.UpdateStatus(ctx, appointmentID, appointment.Status, to)
	if err != nil {
		return nil, err
	}

	result := &TransitionResult{Appointment: updated}
	if to == model.AppointmentCompleted {
		desc := fmt.Sprintf("appointment completed: %s", updated.ServiceName)
		grant, err := s.loyaltySvc.Grant(ctx, updated.AccountID, model.SourceBaseGeneration, updated.AmountCents, &desc)
		if err == nil {
			result.Accrual = grant
		}
		// The visit stays completed even when the grant pipeline declines,
		// for example with the base generation rule switched off.
	}
	return result, nil
}
