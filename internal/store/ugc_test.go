package store

import (
	"context"
	"testing"

	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/domain"
)

func seedArtistAndUser(t *testing.T, db *DB) (*domain.Artist, *domain.User) {
	t.Helper()
	ctx := context.Background()

	user := &domain.User{Wallet: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"}
	if err := db.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	artist := &domain.Artist{Name: "Alvvays", AddedBy: &user.ID}
	if err := db.CreateArtist(ctx, artist); err != nil {
		t.Fatalf("CreateArtist failed: %v", err)
	}
	return artist, user
}

func TestDB_UGCLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	artist, user := seedArtistAndUser(t, db)

	row := &domain.UGCResearch{
		ArtistID:     &artist.ID,
		UserID:       user.ID,
		SiteName:     "soundcloud",
		URL:          "https://soundcloud.com/alvvays",
		SiteUsername: "alvvays",
	}
	if err := db.CreateUGC(ctx, row); err != nil {
		t.Fatalf("CreateUGC failed: %v", err)
	}

	fetched, err := db.GetUGC(ctx, row.ID)
	if err != nil || fetched == nil {
		t.Fatalf("GetUGC = %v, %v", fetched, err)
	}
	if fetched.Status() != domain.UGCStatusPending {
		t.Errorf("Expected pending, got %s", fetched.Status())
	}

	open, err := db.FindOpenUGC(ctx, artist.ID, "soundcloud", "https://soundcloud.com/alvvays")
	if err != nil || open == nil || open.ID != row.ID {
		t.Errorf("FindOpenUGC = %v, %v", open, err)
	}

	changed, err := db.MarkUGCAccepted(ctx, row.ID)
	if err != nil || !changed {
		t.Fatalf("MarkUGCAccepted = %v, %v", changed, err)
	}
	fetched, _ = db.GetUGC(ctx, row.ID)
	if fetched.Status() != domain.UGCStatusAccepted || fetched.DateProcessed == nil {
		t.Errorf("Expected accepted with date_processed, got %+v", fetched)
	}

	// Processed rows are terminal.
	changed, err = db.MarkUGCAccepted(ctx, row.ID)
	if err != nil || changed {
		t.Errorf("second MarkUGCAccepted = %v, %v", changed, err)
	}
	changed, err = db.MarkUGCRejected(ctx, row.ID)
	if err != nil || changed {
		t.Errorf("MarkUGCRejected after accept = %v, %v", changed, err)
	}

	open, err = db.FindOpenUGC(ctx, artist.ID, "soundcloud", "https://soundcloud.com/alvvays")
	if err != nil || open != nil {
		t.Errorf("Expected no open row after accept, got %v, %v", open, err)
	}
}

func TestDB_UGCReject(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	artist, user := seedArtistAndUser(t, db)

	row := &domain.UGCResearch{ArtistID: &artist.ID, UserID: user.ID, SiteName: "x", URL: "https://x.com/alvvays"}
	if err := db.CreateUGC(ctx, row); err != nil {
		t.Fatalf("CreateUGC failed: %v", err)
	}
	changed, err := db.MarkUGCRejected(ctx, row.ID)
	if err != nil || !changed {
		t.Fatalf("MarkUGCRejected = %v, %v", changed, err)
	}
	fetched, _ := db.GetUGC(ctx, row.ID)
	if fetched.Status() != domain.UGCStatusRejected {
		t.Errorf("Expected rejected, got %s", fetched.Status())
	}
}

func TestDB_UGCListingsSkipSentinel(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	artist, user := seedArtistAndUser(t, db)

	rows := []*domain.UGCResearch{
		{ArtistID: &artist.ID, UserID: user.ID, SiteName: "instagram", URL: "https://instagram.com/alvvays"},
		{ArtistID: &artist.ID, UserID: user.ID, SiteName: "tiktok", URL: "https://tiktok.com/@alvvays"},
		{UserID: user.ID, SiteName: constants.LegacyPingSiteName, URL: "ping"},
	}
	for _, r := range rows {
		if err := db.CreateUGC(ctx, r); err != nil {
			t.Fatalf("CreateUGC failed: %v", err)
		}
	}

	pending, err := db.ListPendingUGC(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingUGC failed: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("Expected 2 pending rows, got %d", len(pending))
	}

	mine, err := db.ListUGCByUser(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("ListUGCByUser failed: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("Expected 2 rows for user, got %d", len(mine))
	}
	for _, r := range mine {
		if r.SiteName == constants.LegacyPingSiteName {
			t.Error("Sentinel row leaked into user listing")
		}
	}

	limited, _ := db.ListPendingUGC(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("Expected limit to apply, got %d", len(limited))
	}
}
