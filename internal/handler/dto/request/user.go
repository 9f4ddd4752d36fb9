package request

type RegisterUserRequest struct {
	UserID     int64  `json:"user_id" binding:"required,gt=0"`
	Username   string `json:"username" binding:"max=64"`
	ReferrerID *int64 `json:"referrer_id" binding:"omitempty,gt=0"`
}

type SetBannedRequest struct {
	Banned *bool `json:"banned" binding:"required"`
}
