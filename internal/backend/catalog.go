package backend

import (
	"context"

	"github.com/diagnosis/festa-decor/internal/domain"
)

type EventQuery struct {
	Occasion string `url:"occasion,omitempty"`
	Featured bool   `url:"featured,omitempty"`
	Search   string `url:"search,omitempty"`
	Limit    int    `url:"limit,omitempty"`
}

type EventService struct {
	c *Client
}

func (s *EventService) List(ctx context.Context, q EventQuery) ([]domain.Event, error) {
	var res envelope[[]domain.Event]
	if err := s.c.get(ctx, "/events", q, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*domain.Event, error) {
	var res envelope[domain.Event]
	if err := s.c.get(ctx, resource("/events", id), nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *EventService) Create(ctx context.Context, e domain.Event) (*domain.Event, error) {
	var res envelope[domain.Event]
	if err := s.c.post(ctx, "/events", e, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *EventService) Update(ctx context.Context, id string, e domain.Event) (*domain.Event, error) {
	var res envelope[domain.Event]
	if err := s.c.put(ctx, resource("/events", id), e, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, resource("/events", id))
}

type OccasionService struct {
	c *Client
}

func (s *OccasionService) List(ctx context.Context) ([]domain.Occasion, error) {
	var res envelope[[]domain.Occasion]
	if err := s.c.get(ctx, "/occasions", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *OccasionService) Create(ctx context.Context, o domain.Occasion) (*domain.Occasion, error) {
	var res envelope[domain.Occasion]
	if err := s.c.post(ctx, "/occasions", o, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *OccasionService) Update(ctx context.Context, id string, o domain.Occasion) (*domain.Occasion, error) {
	var res envelope[domain.Occasion]
	if err := s.c.put(ctx, resource("/occasions", id), o, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *OccasionService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, resource("/occasions", id))
}
