package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/property-engine/internal/domain"
)

const reviewColumns = `id, booking_id, property_id, user_id, rating, comment, created_at`

type reviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		review.ID,
		review.BookingID,
		review.PropertyID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
	)

	return translateError(err)
}

func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	return r.get(ctx, `id = $1`, id)
}

func (r *reviewRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Review, error) {
	return r.get(ctx, `booking_id = $1`, bookingID)
}

func (r *reviewRepository) get(ctx context.Context, condition string, arg interface{}) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE ` + condition

	var review domain.Review
	if err := r.db.GetContext(ctx, &review, query, arg); err != nil {
		return nil, translateError(err)
	}

	return &review, nil
}

func (r *reviewRepository) ListByProperty(ctx context.Context, propertyID string) ([]*domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE property_id = $1
		ORDER BY created_at DESC
	`

	reviews := []*domain.Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, propertyID); err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *reviewRepository) List(ctx context.Context) ([]*domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		ORDER BY created_at DESC
	`

	reviews := []*domain.Review{}
	if err := r.db.SelectContext(ctx, &reviews, query); err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
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
