package response

import (
	"time"

	"digital-store/internal/usecase/commands"
)

type UserResponse struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username,omitempty"`
	ReferralCode string    `json:"referral_code"`
	IsBanned     bool      `json:"is_banned"`
	Created      bool      `json:"created"`
	CreatedAt    time.Time `json:"created_at"`
}

func FromRegisterResult(r *commands.RegisterResult) UserResponse {
	return UserResponse{
		ID:           r.User.ID,
		Username:     r.User.Username,
		ReferralCode: r.User.ReferralCode,
		IsBanned:     r.User.IsBanned,
		Created:      r.Created,
		CreatedAt:    r.User.CreatedAt,
	}
}
