package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quizlearner/backend/internal/auth"
	"github.com/quizlearner/backend/internal/store"
)

// memOTPStore is an in-memory OTPStore for tests.
type memOTPStore struct {
	otps []*auth.OTP
}

func (m *memOTPStore) SaveOTP(ctx context.Context, otp *auth.OTP) error {
	cp := *otp
	m.otps = append(m.otps, &cp)
	return nil
}

func (m *memOTPStore) LatestOTP(ctx context.Context, email string) (*auth.OTP, error) {
	for i := len(m.otps) - 1; i >= 0; i-- {
		if m.otps[i].Email == email {
			cp := *m.otps[i]
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memOTPStore) DeleteOTPs(ctx context.Context, email string) error {
	var kept []*auth.OTP
	for _, o := range m.otps {
		if o.Email != email {
			kept = append(kept, o)
		}
	}
	m.otps = kept
	return nil
}

func (m *memOTPStore) IncrementOTPAttempts(ctx context.Context, id string) error {
	for _, o := range m.otps {
		if o.ID == id {
			o.Attempts++
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memOTPStore) CountOTPsSince(ctx context.Context, email string, since time.Time) (int, error) {
	count := 0
	for _, o := range m.otps {
		if o.Email == email && !o.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func TestOTP_IssueAndVerify(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewOTPService(&memOTPStore{})

	code, err := svc.Issue(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	if err := svc.Verify(ctx, "ada@example.com", code); err != nil {
		t.Fatalf("verification failed: %v", err)
	}

	// The code is consumed.
	if err := svc.Verify(ctx, "ada@example.com", code); !errors.Is(err, auth.ErrOTPNotFound) {
		t.Errorf("expected ErrOTPNotFound after consumption, got %v", err)
	}
}

func TestOTP_WrongCode(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewOTPService(&memOTPStore{})

	code, err := svc.Issue(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := svc.Verify(ctx, "ada@example.com", wrong); !errors.Is(err, auth.ErrOTPInvalid) {
		t.Errorf("expected ErrOTPInvalid, got %v", err)
	}

	// The right code still works after one failure.
	if err := svc.Verify(ctx, "ada@example.com", code); err != nil {
		t.Errorf("verification should still succeed: %v", err)
	}
}

func TestOTP_MaxAttempts(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewOTPService(&memOTPStore{})

	code, err := svc.Issue(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	if err := svc.Verify(ctx, "ada@example.com", wrong); !errors.Is(err, auth.ErrOTPInvalid) {
		t.Fatalf("attempt 1: expected ErrOTPInvalid, got %v", err)
	}
	if err := svc.Verify(ctx, "ada@example.com", wrong); !errors.Is(err, auth.ErrOTPInvalid) {
		t.Fatalf("attempt 2: expected ErrOTPInvalid, got %v", err)
	}
	if err := svc.Verify(ctx, "ada@example.com", wrong); !errors.Is(err, auth.ErrOTPMaxAttempts) {
		t.Fatalf("attempt 3: expected ErrOTPMaxAttempts, got %v", err)
	}

	// Even the right code is rejected now.
	if err := svc.Verify(ctx, "ada@example.com", code); !errors.Is(err, auth.ErrOTPNotFound) {
		t.Errorf("expected ErrOTPNotFound after lockout, got %v", err)
	}
}

func TestOTP_IssueReplacesPending(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewOTPService(&memOTPStore{})

	first, err := svc.Issue(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Issue(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		if err := svc.Verify(ctx, "ada@example.com", first); err == nil {
			t.Error("first code should be invalid after reissue")
		}
	}
	if err := svc.Verify(ctx, "ada@example.com", second); err != nil {
		t.Errorf("second code should verify: %v", err)
	}
}

func TestOTP_ReissueRateLimited(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewOTPService(&memOTPStore{})

	if _, err := svc.Issue(ctx, "ada@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Reissue(ctx, "ada@example.com"); err != nil {
		t.Fatalf("first resend should pass: %v", err)
	}
	if _, err := svc.Reissue(ctx, "ada@example.com"); err != nil {
		t.Fatalf("second resend should pass: %v", err)
	}
	if _, err := svc.Reissue(ctx, "ada@example.com"); !errors.Is(err, auth.ErrOTPRateLimited) {
		t.Errorf("expected ErrOTPRateLimited, got %v", err)
	}
}
