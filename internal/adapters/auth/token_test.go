package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"household/internal/domain/account"
)

var testSecret = []byte(strings.Repeat("k", MinSecretLen))

func TestNewSigner_RejectsShortSecret(t *testing.T) {
	if _, err := NewSigner([]byte("short"), 0, nil); !errors.Is(err, ErrWeakSecret) {
		t.Errorf("err = %v, want ErrWeakSecret", err)
	}
}

func TestSigner_IssueVerify(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	signer, err := NewSigner(testSecret, time.Hour, clock)
	if err != nil {
		t.Fatal(err)
	}

	token, err := signer.Issue("acct-1", account.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "acct-1" || claims.Role != account.RoleAdmin || claims.Issuer != Issuer {
		t.Errorf("claims = %+v", claims)
	}

	clock.Advance(2 * time.Hour)
	if _, err := signer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token err = %v", err)
	}
}

func TestSigner_RejectsForeignTokens(t *testing.T) {
	signer, _ := NewSigner(testSecret, 0, nil)
	other, _ := NewSigner([]byte(strings.Repeat("x", MinSecretLen)), 0, nil)
	foreign, err := other.Issue("acct-1", account.RoleGuardian)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", foreign},
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"alg none", "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJ4Iiwicm9sZSI6ImFkbWluIn0."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := signer.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestSigner_IssueValidatesInput(t *testing.T) {
	signer, _ := NewSigner(testSecret, 0, nil)
	if _, err := signer.Issue("", account.RoleAdmin); err == nil {
		t.Error("empty subject accepted")
	}
	if _, err := signer.Issue("acct-1", "superuser"); err == nil {
		t.Error("unknown role accepted")
	}
}
