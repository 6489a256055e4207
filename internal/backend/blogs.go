package backend

import (
	"context"

	"github.com/diagnosis/festa-decor/internal/domain"
)

type BlogQuery struct {
	Category string `url:"category,omitempty"`
	Limit    int    `url:"limit,omitempty"`
}

type BlogService struct {
	c *Client
}

func (s *BlogService) List(ctx context.Context, q BlogQuery) ([]domain.BlogPost, error) {
	var res envelope[[]domain.BlogPost]
	if err := s.c.get(ctx, "/blogs", q, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *BlogService) GetBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	var res envelope[domain.BlogPost]
	if err := s.c.get(ctx, resource("/blogs", slug), nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *BlogService) Create(ctx context.Context, p domain.BlogPost) (*domain.BlogPost, error) {
	var res envelope[domain.BlogPost]
	if err := s.c.post(ctx, "/blogs", p, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *BlogService) Update(ctx context.Context, id string, p domain.BlogPost) (*domain.BlogPost, error) {
	var res envelope[domain.BlogPost]
	if err := s.c.put(ctx, resource("/blogs", id), p, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (s *BlogService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, resource("/blogs", id))
}
