package backend

import (
	"context"

	"github.com/diagnosis/festa-decor/internal/domain"
)

type AuthService struct {
	c *Client
}

// Login exchanges email and password for a token. The same endpoint verifies
// OTP logins; the payload shape tells them apart.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	var res domain.AuthResult
	if err := s.c.post(ctx, "/verify-user", creds, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *AuthService) LoginWithOTP(ctx context.Context, req domain.OTPLogin) (*domain.AuthResult, error) {
	var res domain.AuthResult
	if err := s.c.post(ctx, "/verify-user", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *AuthService) SendOTP(ctx context.Context, mobile string) error {
	body := map[string]string{"mobile": mobile}
	return s.c.post(ctx, "/send-otp", body, nil)
}

func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	var res domain.AuthResult
	if err := s.c.post(ctx, "/user-register", reg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
