package dal

import (
	"context"
	"errors"
	"fmt"

	"palm-rag/internal/apperr"
	"palm-rag/internal/models"

	"gorm.io/gorm"
)

// BookingDAL provides data access methods for interview bookings.
type BookingDAL struct {
	db *gorm.DB
}

// NewBookingDAL creates a new BookingDAL.
func NewBookingDAL(db *gorm.DB) *BookingDAL {
	return &BookingDAL{db: db}
}

// Create inserts a booking.
func (dal *BookingDAL) Create(ctx context.Context, b *models.Booking) error {
	if err := dal.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// Get returns the booking with the given id.
func (dal *BookingDAL) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	var b models.Booking
	err := dal.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("booking %s: %w", bookingID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	return &b, nil
}

// List returns all bookings, or only those of email when it is not empty,
// newest first.
func (dal *BookingDAL) List(ctx context.Context, email string) ([]*models.Booking, error) {
	q := dal.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if email != "" {
		q = q.Where("email = ?", email)
	}
	var bookings []*models.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// Delete removes the booking.
func (dal *BookingDAL) Delete(ctx context.Context, bookingID string) error {
	result := dal.db.WithContext(ctx).Where("booking_id = ?", bookingID).Delete(&models.Booking{})
	if result.Error != nil {
		return fmt.Errorf("delete booking %s: %w", bookingID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("booking %s: %w", bookingID, apperr.ErrNotFound)
	}
	return nil
}
