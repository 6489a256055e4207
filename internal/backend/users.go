package backend

import (
	"context"

	"github.com/diagnosis/festa-decor/internal/domain"
)

type UserService struct {
	c *Client
}

func (s *UserService) Profile(ctx context.Context) (*domain.User, error) {
	var res envelope[domain.User]
	if err := s.c.get(ctx, "/users/profile", nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	var res envelope[[]domain.User]
	if err := s.c.get(ctx, "/users", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	var res envelope[domain.User]
	if err := s.c.get(ctx, resource("/users", id), nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *UserService) Update(ctx context.Context, id string, u domain.UserUpdate) (*domain.User, error) {
	var res envelope[domain.User]
	if err := s.c.put(ctx, resource("/users", id), u, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, resource("/users", id))
}

type ContactService struct {
	c *Client
}

func (s *ContactService) Submit(ctx context.Context, in domain.Inquiry) error {
	return s.c.post(ctx, "/contacts", in, nil)
}

func (s *ContactService) List(ctx context.Context) ([]domain.Inquiry, error) {
	var res envelope[[]domain.Inquiry]
	if err := s.c.get(ctx, "/contacts", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}
