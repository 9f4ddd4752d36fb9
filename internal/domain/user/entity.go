package user

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"
)

var (
	ErrInvalidUserID   = errors.New("user: id must be positive")
	ErrUsernameTooLong = errors.New("user: username too long")
)

const (
	MaxUsernameLength  = 64
	ReferralCodeLength = 8
	referralAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// User is a storefront buyer identified by the chat platform's numeric id.
type User struct {
	ID           int64
	Username     string
	ReferralCode string
	IsBanned     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func New(id int64, username string, now time.Time) (*User, error) {
	if id <= 0 {
		return nil, ErrInvalidUserID
	}
	username = strings.TrimSpace(username)
	if len(username) > MaxUsernameLength {
		return nil, ErrUsernameTooLong
	}
	code, err := NewReferralCode()
	if err != nil {
		return nil, err
	}
	return &User{
		ID:           id,
		Username:     username,
		ReferralCode: code,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func NewReferralCode() (string, error) {
	limit := big.NewInt(int64(len(referralAlphabet)))
	buf := make([]byte, ReferralCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = referralAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func (u *User) CanPurchase() bool {
	return !u.IsBanned
}

func (u *User) EarnsRewards() bool {
	return !u.IsBanned
}
