package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID        string     `json:"id,omitempty"`
	Role      string     `json:"role"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Mobile    string     `json:"mobile,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DisplayName falls back to the email when the backend has no name on file.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type OTPLogin struct {
	Mobile string `json:"mobile"`
	OTP    string `json:"otp"`
}

type Registration struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

// AuthResult is the backend's answer to a login, OTP verification or
// registration. Token is empty when registration does not log the user in.
type AuthResult struct {
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

type UserUpdate struct {
	FullName string `json:"fullName,omitempty"`
	Mobile   string `json:"mobile,omitempty"`
	Role     string `json:"role,omitempty"`
}
