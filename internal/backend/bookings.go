package backend

import (
	"context"

	"github.com/diagnosis/festa-decor/internal/domain"
)

type BookingQuery struct {
	Status string `url:"status,omitempty"`
}

type BookingService struct {
	c *Client
}

func (s *BookingService) Create(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	var res envelope[domain.Booking]
	if err := s.c.post(ctx, "/bookings", req, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

// Mine lists bookings owned by the bearer of the current token.
func (s *BookingService) Mine(ctx context.Context) ([]domain.Booking, error) {
	var res envelope[[]domain.Booking]
	if err := s.c.get(ctx, "/bookings/user", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *BookingService) List(ctx context.Context, q BookingQuery) ([]domain.Booking, error) {
	var res envelope[[]domain.Booking]
	if err := s.c.get(ctx, "/bookings", q, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*domain.Booking, error) {
	var res envelope[domain.Booking]
	if err := s.c.get(ctx, resource("/bookings", id), nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *BookingService) RecordPayment(ctx context.Context, id string, rec domain.PaymentRecord) error {
	return s.c.post(ctx, resource("/bookings", id)+"/payment", rec, nil)
}
