package service

import (
	"context"
	"fmt"
	"strings"

	"palm-rag/internal/apperr"
	"palm-rag/internal/models"
	"palm-rag/internal/rag_service/rag/dal"
	"palm-rag/pkg/logger"

	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

// BookingRequest is the input of an interview booking.
type BookingRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=255"`
	Email string `json:"email" binding:"required,email,max=255"`
	Date  string `json:"date" binding:"required,datetime=2006-01-02"`
	Time  string `json:"time" binding:"required,datetime=15:04"`
}

// BookingService manages interview bookings.
type BookingService struct {
	bookings *dal.BookingDAL
	log      *logger.Logger
}

// NewBookingService creates a BookingService.
func NewBookingService(bookings *dal.BookingDAL, log *logger.Logger) *BookingService {
	return &BookingService{bookings: bookings, log: log}
}

// Validate checks req with the same rules the HTTP binding applies.
func (r BookingRequest) Validate() error {
	if err := binding.Validator.ValidateStruct(&r); err != nil {
		return fmt.Errorf("%v: %w", err, apperr.ErrValidation)
	}
	return nil
}

// Create stores a confirmed booking.
func (s *BookingService) Create(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b := &models.Booking{
		BookingID: uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Date:      req.Date,
		Time:      req.Time,
		Status:    models.BookingConfirmed,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	s.log.WithPayload(map[string]interface{}{"booking_id": b.BookingID, "date": b.Date, "time": b.Time}).
		Info("booking created")
	return b, nil
}

// Get returns one booking.
func (s *BookingService) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	return s.bookings.Get(ctx, bookingID)
}

// List returns all bookings, or only those of email when it is set.
func (s *BookingService) List(ctx context.Context, email string) ([]*models.Booking, error) {
	return s.bookings.List(ctx, strings.TrimSpace(email))
}

// Delete removes a booking.
func (s *BookingService) Delete(ctx context.Context, bookingID string) error {
	return s.bookings.Delete(ctx, bookingID)
}
