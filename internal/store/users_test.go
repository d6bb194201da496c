package store

import (
	"context"
	"testing"

	"github.com/musicnerd/musicnerd/internal/domain"
)

func TestDB_Users(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &domain.User{Wallet: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"}
	if err := db.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Wallet != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" {
		t.Errorf("Expected checksummed wallet, got %s", user.Wallet)
	}

	byWallet, err := db.GetUserByWallet(ctx, "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED")
	if err != nil || byWallet == nil || byWallet.ID != user.ID {
		t.Errorf("GetUserByWallet = %v, %v", byWallet, err)
	}
	missing, err := db.GetUserByID(ctx, "nobody")
	if err != nil || missing != nil {
		t.Errorf("GetUserByID(nobody) = %v, %v", missing, err)
	}

	if err := db.UpdateUserProfile(ctx, user.ID, strPtr("neo"), nil); err != nil {
		t.Fatalf("UpdateUserProfile failed: %v", err)
	}
	if err := db.UpdateUserProfile(ctx, user.ID, nil, strPtr("neo@example.com")); err != nil {
		t.Fatalf("UpdateUserProfile failed: %v", err)
	}
	fetched, _ := db.GetUserByID(ctx, user.ID)
	if fetched.Username == nil || *fetched.Username != "neo" {
		t.Errorf("Expected username to survive a partial update, got %v", fetched.Username)
	}
	if fetched.Email == nil || *fetched.Email != "neo@example.com" {
		t.Errorf("Email = %v", fetched.Email)
	}
}

func TestDB_EnsureUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first, err := db.EnsureUser(ctx, &domain.User{Wallet: "0xde0b295669a9fd93d5f28d9ec85e40f4cb697bae"})
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	second, err := db.EnsureUser(ctx, &domain.User{Wallet: "0xDE0B295669A9FD93D5F28D9EC85E40F4CB697BAE"})
	if err != nil {
		t.Fatalf("EnsureUser (again) failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("Expected same user for same wallet, got %s and %s", first.ID, second.ID)
	}
}

func TestDB_Whitelist(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := &domain.User{Wallet: "0x0000000000000000000000000000000000000001"}
	b := &domain.User{Wallet: "0x0000000000000000000000000000000000000002"}
	for _, u := range []*domain.User{a, b} {
		if err := db.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	if err := db.SetWhitelisted(ctx, b.ID, true); err != nil {
		t.Fatalf("SetWhitelisted failed: %v", err)
	}
	listed, err := db.ListWhitelistedUsers(ctx)
	if err != nil {
		t.Fatalf("ListWhitelistedUsers failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != b.ID || !listed[0].IsWhiteListed {
		t.Errorf("ListWhitelistedUsers = %+v", listed)
	}

	if err := db.SetWhitelisted(ctx, b.ID, false); err != nil {
		t.Fatalf("SetWhitelisted(false) failed: %v", err)
	}
	listed, _ = db.ListWhitelistedUsers(ctx)
	if len(listed) != 0 {
		t.Errorf("Expected empty whitelist, got %d", len(listed))
	}
}
