package device_test

import (
	"context"
	"errors"
	"testing"

	"github.com/guardline/guardline/internal/device"
)

func TestService_Register_MergesSameDevice(t *testing.T) {
	repo := device.NewInMemoryRepository()
	service := device.NewService(repo)
	ctx := context.Background()

	d, created, err := service.Register(ctx, "usr_a", "dev_1", device.KindExpoPush, "ExponentPushToken[aaa]")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !created {
		t.Error("expected first registration to create")
	}
	if d.ExpoToken == nil || *d.ExpoToken != "ExponentPushToken[aaa]" {
		t.Errorf("expo token not stored: %+v", d)
	}

	// Registering the web-push token for the same device merges into the
	// same record, keeping the expo token.
	d, created, err = service.Register(ctx, "usr_a", "dev_1", device.KindWebPush, "fcm-token-bbb")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if created {
		t.Error("expected merge, not create")
	}
	if d.ExpoToken == nil || *d.ExpoToken != "ExponentPushToken[aaa]" {
		t.Errorf("expo token lost on merge: %+v", d)
	}
	if d.WebPushToken == nil || *d.WebPushToken != "fcm-token-bbb" {
		t.Errorf("web push token not stored: %+v", d)
	}

	devices, err := service.List(ctx, "usr_a")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected one merged record, got %d", len(devices))
	}
}

func TestService_Register_ReplacesToken(t *testing.T) {
	service := device.NewService(device.NewInMemoryRepository())
	ctx := context.Background()

	if _, _, err := service.Register(ctx, "usr_a", "dev_1", device.KindExpoPush, "ExponentPushToken[old]"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	d, _, err := service.Register(ctx, "usr_a", "dev_1", device.KindExpoPush, "ExponentPushToken[new]")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if *d.ExpoToken != "ExponentPushToken[new]" {
		t.Errorf("expected token replaced, got %q", *d.ExpoToken)
	}
}

func TestService_Register_InvalidKind(t *testing.T) {
	service := device.NewService(device.NewInMemoryRepository())

	_, _, err := service.Register(context.Background(), "usr_a", "dev_1", device.TransportKind("apns"), "tok")
	if !errors.Is(err, device.ErrInvalidKind) {
		t.Errorf("expected ErrInvalidKind, got %v", err)
	}
}

func TestRepository_RemoveTokens(t *testing.T) {
	repo := device.NewInMemoryRepository()
	service := device.NewService(repo)
	ctx := context.Background()

	// Two devices on different accounts holding the identical token.
	if _, _, err := service.Register(ctx, "usr_a", "dev_1", device.KindExpoPush, "ExponentPushToken[dup]"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := service.Register(ctx, "usr_b", "dev_2", device.KindExpoPush, "ExponentPushToken[dup]"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := service.Register(ctx, "usr_b", "dev_3", device.KindExpoPush, "ExponentPushToken[keep]"); err != nil {
		t.Fatal(err)
	}

	touched, err := repo.RemoveTokens(ctx, device.KindExpoPush, []string{"ExponentPushToken[dup]"})
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if touched != 2 {
		t.Errorf("expected 2 records touched, got %d", touched)
	}

	all, _ := repo.ListByAccounts(ctx, []string{"usr_a", "usr_b"})
	for _, d := range all {
		if d.ExpoToken != nil && *d.ExpoToken == "ExponentPushToken[dup]" {
			t.Errorf("invalid token still present on %s/%s", d.AccountID, d.ID)
		}
	}

	// Sweep drops the now-empty records, the healthy one stays.
	removed, err := repo.DeleteEmpty(ctx)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 empty records removed, got %d", removed)
	}
	remaining, _ := repo.ListByAccount(ctx, "usr_b")
	if len(remaining) != 1 || *remaining[0].ExpoToken != "ExponentPushToken[keep]" {
		t.Errorf("unexpected remaining devices: %+v", remaining)
	}
}

func TestTokenLast4(t *testing.T) {
	if got := device.TokenLast4("abcdef"); got != "cdef" {
		t.Errorf("expected cdef, got %q", got)
	}
	if got := device.TokenLast4("ab"); got != "ab" {
		t.Errorf("expected ab, got %q", got)
	}
}
