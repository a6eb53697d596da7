package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/property-engine/internal/domain"
)

const bookingColumns = `id, property_id, user_id, start_date, end_date, status, created_at, updated_at`

type bookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
	`

	var booking domain.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, translateError(err)
	}

	return &booking, nil
}

func (r *bookingRepository) ListByProperty(ctx context.Context, propertyID string, status domain.BookingStatus) ([]*domain.Booking, error) {
	return r.list(ctx, domain.BookingFilter{PropertyID: propertyID, Status: status}, "start_date ASC, created_at ASC")
}

func (r *bookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	return r.list(ctx, filter, "start_date DESC, created_at DESC")
}

func (r *bookingRepository) list(ctx context.Context, filter domain.BookingFilter, orderBy string) ([]*domain.Booking, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.PropertyID != "" {
		args = append(args, filter.PropertyID)
		conditions = append(conditions, fmt.Sprintf("property_id = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY ` + orderBy

	bookings := []*domain.Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *bookingRepository) CreateExclusive(ctx context.Context, booking *domain.Booking, check ConflictCheck) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	confirmed, err := lockConfirmed(ctx, tx, booking.PropertyID)
	if err != nil {
		return err
	}
	if err := check(confirmed); err != nil {
		return err
	}

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = tx.ExecContext(ctx, query,
		booking.ID,
		booking.PropertyID,
		booking.UserID,
		booking.StartDate,
		booking.EndDate,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}

	return translateError(tx.Commit())
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (*domain.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + bookingColumns

	var booking domain.Booking
	if err := r.db.GetContext(ctx, &booking, query, id, status, time.Now().UTC()); err != nil {
		return nil, translateError(err)
	}

	return &booking, nil
}

func (r *bookingRepository) RescheduleExclusive(ctx context.Context, id uuid.UUID, dates domain.DateRange, check ConflictCheck) (*domain.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var propertyID string
	if err := tx.GetContext(ctx, &propertyID, `SELECT property_id FROM bookings WHERE id = $1`, id); err != nil {
		return nil, translateError(err)
	}

	confirmed, err := lockConfirmed(ctx, tx, propertyID)
	if err != nil {
		return nil, err
	}
	if err := check(confirmed); err != nil {
		return nil, err
	}

	query := `
		UPDATE bookings
		SET start_date = $2, end_date = $3, updated_at = $4
		WHERE id = $1
		RETURNING ` + bookingColumns

	var booking domain.Booking
	if err := tx.GetContext(ctx, &booking, query, id, dates.Start, dates.End, time.Now().UTC()); err != nil {
		return nil, translateError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, translateError(err)
	}

	return &booking, nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *bookingRepository) ListEndedBetween(ctx context.Context, from, to domain.Date) ([]*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1 AND end_date BETWEEN $2 AND $3
		ORDER BY end_date, created_at
	`

	bookings := []*domain.Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, domain.BookingStatusConfirmed, from, to); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *bookingRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// lockConfirmed takes the property's transaction-scoped advisory lock and
// reads its confirmed bookings. Every writer of the property goes through
// here, so the check and the write that follow are serialized.
func lockConfirmed(ctx context.Context, tx *sqlx.Tx, propertyID string) ([]*domain.Booking, error) {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, propertyID); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE property_id = $1 AND status = $2
		ORDER BY start_date
	`

	confirmed := []*domain.Booking{}
	if err := tx.SelectContext(ctx, &confirmed, query, propertyID, domain.BookingStatusConfirmed); err != nil {
		return nil, err
	}

	return confirmed, nil
}

// translateError maps driver errors onto the store errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "exclusion_violation":
			return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
		case "unique_violation":
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		case "foreign_key_violation":
			return fmt.Errorf("%w: %s", ErrNotFound, pqErr.Constraint)
		}
	}

	return err
}
