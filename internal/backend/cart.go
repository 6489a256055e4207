package backend

import (
	"context"
	"net/http"

	"github.com/diagnosis/festa-decor/internal/domain"
)

type cartQuery struct {
	SessionID string `url:"sessionId"`
}

type CartService struct {
	c *Client
}

func (s *CartService) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	var res envelope[domain.Cart]
	if err := s.c.get(ctx, "/cart", cartQuery{SessionID: sessionID}, &res); err != nil {
		return nil, err
	}
	if res.Data.SessionID == "" {
		res.Data.SessionID = sessionID
	}
	return &res.Data, nil
}

func (s *CartService) Add(ctx context.Context, req domain.CartAdd) error {
	req.Quantity = domain.ClampQuantity(req.Quantity)
	return s.c.post(ctx, "/cart", req, nil)
}

func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) error {
	body := map[string]int{"quantity": domain.ClampQuantity(quantity)}
	return s.c.Do(ctx, http.MethodPut, resource("/cart", itemID), cartQuery{SessionID: sessionID}, body, nil)
}

func (s *CartService) Remove(ctx context.Context, sessionID, itemID string) error {
	return s.c.Do(ctx, http.MethodDelete, resource("/cart", itemID), cartQuery{SessionID: sessionID}, nil, nil)
}
