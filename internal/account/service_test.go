package account_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/guardline/guardline/internal/account"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "already e164", raw: "+31612345678", want: "+31612345678"},
		{name: "separators", raw: "+31 6 12-34.56(78)", want: "+31612345678"},
		{name: "double zero prefix", raw: "0031612345678", want: "+31612345678"},
		{name: "missing prefix", raw: "0612345678", wantErr: true},
		{name: "letters", raw: "+31abc345678", wantErr: true},
		{name: "too short", raw: "+3161", wantErr: true},
		{name: "too long", raw: "+3161234567890123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := account.NormalizePhone(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, account.ErrInvalidPhone) {
					t.Fatalf("expected ErrInvalidPhone, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestService_FindOrCreateByEmail(t *testing.T) {
	repo := account.NewInMemoryRepository()
	service := account.NewService(repo)
	ctx := context.Background()

	created, err := service.FindOrCreateByEmail(ctx, " Anna@Example.COM ")
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	if created.Email != "anna@example.com" {
		t.Errorf("expected normalized email, got %q", created.Email)
	}

	found, err := service.FindOrCreateByEmail(ctx, "anna@example.com")
	if err != nil {
		t.Fatalf("failed to find account: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("expected same account, got %q and %q", created.ID, found.ID)
	}
}

func TestService_ClaimPhone(t *testing.T) {
	repo := account.NewInMemoryRepository()
	service := account.NewService(repo)
	ctx := context.Background()

	a, _ := service.FindOrCreateByEmail(ctx, "a@example.com")
	b, _ := service.FindOrCreateByEmail(ctx, "b@example.com")

	phone, err := service.ClaimPhone(ctx, a.ID, "+31 6 1234 5678")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if phone != "+31612345678" {
		t.Errorf("expected normalized phone, got %q", phone)
	}

	// Claiming the same number again from the same account is a no-op.
	if _, err := service.ClaimPhone(ctx, a.ID, "+31612345678"); err != nil {
		t.Errorf("re-claim by owner should succeed, got %v", err)
	}

	// Numbers are immutable once claimed.
	if _, err := service.ClaimPhone(ctx, a.ID, "+31687654321"); !errors.Is(err, account.ErrPhoneImmutable) {
		t.Errorf("expected ErrPhoneImmutable, got %v", err)
	}

	// Another account cannot take the same number.
	if _, err := service.ClaimPhone(ctx, b.ID, "+31612345678"); !errors.Is(err, account.ErrPhoneTaken) {
		t.Errorf("expected ErrPhoneTaken, got %v", err)
	}

	// The claim is queryable via the phone index.
	id, err := service.LookupByPhone(ctx, "+31612345678")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if id != a.ID {
		t.Errorf("expected %q, got %q", a.ID, id)
	}
}

func TestService_ClaimPhone_Race(t *testing.T) {
	repo := account.NewInMemoryRepository()
	service := account.NewService(repo)
	ctx := context.Background()

	a, _ := service.FindOrCreateByEmail(ctx, "a@example.com")
	b, _ := service.FindOrCreateByEmail(ctx, "b@example.com")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, id := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, results[i] = service.ClaimPhone(ctx, id, "+31612345678")
		}(i, id)
	}
	wg.Wait()

	var succeeded, taken int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, account.ErrPhoneTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != 1 || taken != 1 {
		t.Errorf("expected exactly one winner, got %d successes and %d conflicts", succeeded, taken)
	}
}

func TestService_LookupByEmail_NotFound(t *testing.T) {
	service := account.NewService(account.NewInMemoryRepository())

	_, err := service.LookupByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, account.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}
