package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"prive-club/internal/model"
)

const appointmentColumns = `id, account_id, service_name, amount_cents, scheduled_at, status, created_at, updated_at`

// AppointmentRepository handles appointment persistence.
type AppointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository creates a new AppointmentRepository instance.
func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID,
		&a.AccountID,
		&a.ServiceName,
		&a.AmountCents,
		&a.ScheduledAt,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create books a new appointment in the scheduled status.
func (r *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) (*model.Appointment, error) {
	const query = `
		INSERT INTO appointments (account_id, service_name, amount_cents, scheduled_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + appointmentColumns

	saved, err := scanAppointment(r.pool.QueryRow(ctx, query,
		appointment.AccountID, appointment.ServiceName, appointment.AmountCents,
		appointment.ScheduledAt, model.AppointmentScheduled))
	if err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return saved, nil
}

// GetByID retrieves an appointment by ID.
func (r *AppointmentRepository) GetByID(ctx context.Context, appointmentID int64) (*model.Appointment, error) {
	const query = `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	appointment, err := scanAppointment(r.pool.QueryRow(ctx, query, appointmentID))
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appointment, nil
}

// ListByAccount returns an account's appointments, newest first.
func (r *AppointmentRepository) ListByAccount(ctx context.Context, accountID int64) ([]model.Appointment, error) {
	const query = `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE account_id = $1
		ORDER BY scheduled_at DESC
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []model.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, *appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}
	return appointments, nil
}

// UpdateStatus moves an appointment from one status to another. The update
// is conditional on the expected current status so concurrent transitions
// cannot silently overwrite each other; a lost race surfaces as
// ErrStatusConflict.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, appointmentID int64, from, to string) (*model.Appointment, error) {
	const query = `
		UPDATE appointments
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + appointmentColumns

	appointment, err := scanAppointment(r.pool.QueryRow(ctx, query, appointmentID, from, to))
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Either the appointment is gone or its status moved under us.
			exists, checkErr := r.exists(ctx, appointmentID)
			if checkErr == nil && exists {
				return nil, ErrStatusConflict
			}
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}
	return appointment, nil
}

func (r *AppointmentRepository) exists(ctx context.Context, appointmentID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM appointments WHERE id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, appointmentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check appointment existence: %w", err)
	}
	return exists, nil
}
