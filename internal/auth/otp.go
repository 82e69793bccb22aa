package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/quizlearner/backend/internal/id"
)

const (
	otpLength      = 6
	otpTTL         = 10 * time.Minute
	maxOTPAttempts = 3
	// resendWindow and resendLimit bound how often codes can be requested
	// for one address.
	resendWindow = 10 * time.Minute
	resendLimit  = 3
)

var (
	ErrOTPNotFound    = errors.New("no pending code for this email")
	ErrOTPExpired     = errors.New("code has expired, request a new one")
	ErrOTPInvalid     = errors.New("invalid code")
	ErrOTPMaxAttempts = errors.New("too many failed attempts, request a new code")
	ErrOTPRateLimited = errors.New("too many code requests, wait before requesting again")
)

// OTP is one pending login code. Only a bcrypt hash of the code is stored.
type OTP struct {
	ID        string
	Email     string
	CodeHash  string
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// OTPStore persists pending codes.
type OTPStore interface {
	// SaveOTP inserts a new pending code.
	SaveOTP(ctx context.Context, otp *OTP) error
	// LatestOTP returns the most recently created pending code for an
	// email, or store.ErrNotFound.
	LatestOTP(ctx context.Context, email string) (*OTP, error)
	// DeleteOTPs removes all pending codes for an email.
	DeleteOTPs(ctx context.Context, email string) error
	// IncrementOTPAttempts bumps the failed-attempt counter.
	IncrementOTPAttempts(ctx context.Context, id string) error
	// CountOTPsSince counts codes created for an email since the given time.
	CountOTPsSince(ctx context.Context, email string, since time.Time) (int, error)
}

// OTPService issues and verifies one-time login codes.
type OTPService struct {
	store OTPStore
	now   func() time.Time
}

func NewOTPService(store OTPStore) *OTPService {
	return &OTPService{store: store, now: time.Now}
}

// Issue creates a fresh code for the email, replacing any pending ones, and
// returns the plain code for delivery. The code itself is never persisted.
func (s *OTPService) Issue(ctx context.Context, email string) (string, error) {
	if err := s.store.DeleteOTPs(ctx, email); err != nil {
		return "", fmt.Errorf("clearing pending codes: %w", err)
	}
	return s.create(ctx, email)
}

// Reissue creates an additional code without invalidating pending ones,
// subject to the rate limit of 3 codes per 10 minutes.
func (s *OTPService) Reissue(ctx context.Context, email string) (string, error) {
	count, err := s.store.CountOTPsSince(ctx, email, s.now().Add(-resendWindow))
	if err != nil {
		return "", fmt.Errorf("checking code rate limit: %w", err)
	}
	if count >= resendLimit {
		return "", ErrOTPRateLimited
	}
	return s.create(ctx, email)
}

func (s *OTPService) create(ctx context.Context, email string) (string, error) {
	code := id.GenerateNumericCode(otpLength)
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing code: %w", err)
	}
	now := s.now()
	otp := &OTP{
		ID:        id.GenerateID(),
		Email:     email,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(otpTTL),
		CreatedAt: now,
	}
	if err := s.store.SaveOTP(ctx, otp); err != nil {
		return "", fmt.Errorf("saving code: %w", err)
	}
	return code, nil
}

// Verify checks a submitted code against the latest pending one. A correct
// code consumes all pending codes for the email. Expiry and the 3-attempt
// limit also consume them, so a fresh code must be requested.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	otp, err := s.store.LatestOTP(ctx, email)
	if err != nil {
		return ErrOTPNotFound
	}

	if s.now().After(otp.ExpiresAt) {
		_ = s.store.DeleteOTPs(ctx, email)
		return ErrOTPExpired
	}
	if otp.Attempts >= maxOTPAttempts {
		_ = s.store.DeleteOTPs(ctx, email)
		return ErrOTPMaxAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
		if err := s.store.IncrementOTPAttempts(ctx, otp.ID); err != nil {
			return fmt.Errorf("recording failed attempt: %w", err)
		}
		if otp.Attempts+1 >= maxOTPAttempts {
			_ = s.store.DeleteOTPs(ctx, email)
			return ErrOTPMaxAttempts
		}
		return ErrOTPInvalid
	}

	if err := s.store.DeleteOTPs(ctx, email); err != nil {
		return fmt.Errorf("consuming code: %w", err)
	}
	return nil
}
