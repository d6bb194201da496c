package domain

import (
	"strings"
	"time"
)

// Artist is a musician and the handles we know for them on external platforms.
// Platform columns are nil until someone links them.
type Artist struct { //nolint:govet // field ordering follows the table layout
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	LCName     string    `json:"lcname" db:"lcname"`
	Spotify    *string   `json:"spotify,omitempty" db:"spotify"`
	Instagram  *string   `json:"instagram,omitempty" db:"instagram"`
	X          *string   `json:"x,omitempty" db:"x"`
	YouTube    *string   `json:"youtube,omitempty" db:"youtube"`
	SoundCloud *string   `json:"soundcloud,omitempty" db:"soundcloud"`
	TikTok     *string   `json:"tiktok,omitempty" db:"tiktok"`
	Facebook   *string   `json:"facebook,omitempty" db:"facebook"`
	Bandcamp   *string   `json:"bandcamp,omitempty" db:"bandcamp"`
	Audius     *string   `json:"audius,omitempty" db:"audius"`
	Zora       *string   `json:"zora,omitempty" db:"zora"`
	Catalog    *string   `json:"catalog,omitempty" db:"catalog"`
	SoundXYZ   *string   `json:"soundxyz,omitempty" db:"soundxyz"`
	Lens       *string   `json:"lens,omitempty" db:"lens"`
	Farcaster  *string   `json:"farcaster,omitempty" db:"farcaster"`
	ENS        *string   `json:"ens,omitempty" db:"ens"`
	Wallet     *string   `json:"wallet,omitempty" db:"wallet"`
	Bio        *string   `json:"bio,omitempty" db:"bio"`
	AddedBy    *string   `json:"addedBy,omitempty" db:"added_by"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// Normalize keeps the search key in sync with the display name.
func (a *Artist) Normalize() {
	a.Name = strings.TrimSpace(a.Name)
	a.LCName = strings.ToLower(a.Name)
}

// User is an account identified by its wallet.
type User struct {
	ID            string    `json:"id" db:"id"`
	Wallet        string    `json:"wallet" db:"wallet"`
	Email         *string   `json:"email,omitempty" db:"email"`
	Username      *string   `json:"username,omitempty" db:"username"`
	IsAdmin       bool      `json:"isAdmin" db:"is_admin"`
	IsWhiteListed bool      `json:"isWhiteListed" db:"is_white_listed"`
	LegacyID      *string   `json:"legacyId,omitempty" db:"legacy_id"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Actor returns the identity the services authorize against.
func (u *User) Actor() *Actor {
	if u == nil {
		return nil
	}
	return &Actor{ID: u.ID, IsAdmin: u.IsAdmin, IsWhiteListed: u.IsWhiteListed}
}

// Actor is the caller of a service operation. A nil *Actor is an anonymous visitor.
type Actor struct {
	ID            string `json:"id"`
	IsAdmin       bool   `json:"isAdmin"`
	IsWhiteListed bool   `json:"isWhiteListed"`
	Guest         bool   `json:"guest,omitempty"`
}

// CanModerate reports whether the actor may write artist data or review submissions.
func (a *Actor) CanModerate() bool {
	return a != nil && (a.IsAdmin || a.IsWhiteListed)
}

// CanAdmin reports whether the actor may run admin tools.
func (a *Actor) CanAdmin() bool {
	return a != nil && a.IsAdmin
}

type UGCStatus string

const (
	UGCStatusPending  UGCStatus = "pending"
	UGCStatusAccepted UGCStatus = "accepted"
	UGCStatusRejected UGCStatus = "rejected"
)

// UGCResearch is one crowd-sourced artist link submission.
type UGCResearch struct {
	ID            string     `json:"id" db:"id"`
	ArtistID      *string    `json:"artistId,omitempty" db:"artist_id"`
	UserID        string     `json:"userId" db:"user_id"`
	SiteName      string     `json:"siteName" db:"site_name"`
	URL           string     `json:"ugcUrl" db:"ugc_url"`
	SiteUsername  string     `json:"siteUsername" db:"site_username"`
	Accepted      bool       `json:"accepted" db:"accepted"`
	DateProcessed *time.Time `json:"dateProcessed,omitempty" db:"date_processed"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// Status derives the moderation state from accepted and date_processed.
func (u *UGCResearch) Status() UGCStatus {
	switch {
	case u.Accepted:
		return UGCStatusAccepted
	case u.DateProcessed != nil:
		return UGCStatusRejected
	default:
		return UGCStatusPending
	}
}

// IsProcessed reports whether the row already left the pending state.
func (u *UGCResearch) IsProcessed() bool {
	return u.Accepted || u.DateProcessed != nil
}

// LeaderboardEntry is one user's contribution counts.
type LeaderboardEntry struct {
	UserID       string  `json:"userId" db:"user_id"`
	Wallet       string  `json:"wallet" db:"wallet"`
	Username     *string `json:"username,omitempty" db:"username"`
	ArtistsCount int     `json:"artistsCount" db:"artists_count"`
	UGCCount     int     `json:"ugcCount" db:"ugc_count"`
}

// CoveragePercentages holds the nested metrics of a coverage report.
type CoveragePercentages struct {
	Lines      float64 `json:"lines"`
	Statements float64 `json:"statements"`
	Functions  float64 `json:"functions"`
	Branches   float64 `json:"branches"`
}

// CoverageReport is one append-only CI coverage snapshot.
type CoverageReport struct {
	ID         string       `json:"id" db:"id"`
	Repository string       `json:"repository" db:"repository"`
	Branch     string       `json:"branch" db:"branch"`
	CommitSHA  string       `json:"commitSha" db:"commit_sha"`
	Coverage   CoverageJSON `json:"coverage" db:"coverage"`
	CreatedAt  time.Time    `json:"createdAt" db:"created_at"`
}
