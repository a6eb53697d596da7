package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a guest's rating of a finished stay. One per booking.
type Review struct {
	ID         uuid.UUID `json:"id" db:"id"`
	BookingID  uuid.UUID `json:"booking_id" db:"booking_id"`
	PropertyID string    `json:"property_id" db:"property_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    string    `json:"comment" db:"comment"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type CreateReviewRequest struct {
	BookingID uuid.UUID `json:"booking_id" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment" validate:"required"`
}

type PropertyReviewsResponse struct {
	PropertyID    string          `json:"property_id"`
	Count         int             `json:"count"`
	AverageRating decimal.Decimal `json:"average_rating"`
	Reviews       []*Review       `json:"reviews"`
}

// AverageRating is the mean rating rounded to two places, zero for no reviews.
func AverageRating(reviews []*Review) decimal.Decimal {
	if len(reviews) == 0 {
		return decimal.Zero
	}
	var sum int64
	for _, r := range reviews {
		sum += int64(r.Rating)
	}
	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(reviews)))).Round(2)
}
