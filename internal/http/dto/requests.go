package dto

import (
	"github.com/musicnerd/musicnerd/internal/app"
	"github.com/musicnerd/musicnerd/internal/domain"
)

type ValidateLinkRequest struct {
	URL          string `json:"url"`
	PlatformHint string `json:"platformHint"`
}

func (r *ValidateLinkRequest) Validate() []ValidationError {
	return validateURL("url", r.URL)
}

type SubmitUGCRequest struct {
	ArtistID string `json:"artistId"`
	URL      string `json:"url"`
	SiteName string `json:"siteName"`
}

func (r *SubmitUGCRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRequired("artistId", r.ArtistID)...)
	errs = append(errs, validateURL("url", r.URL)...)
	return errs
}

func (r *SubmitUGCRequest) ToSubmit() app.SubmitRequest {
	return app.SubmitRequest{ArtistID: r.ArtistID, URL: r.URL, SiteName: r.SiteName}
}

type ApproveRequest struct {
	UGCIDs []string `json:"ugcIds"`
}

func (r *ApproveRequest) Validate() []ValidationError {
	if len(r.UGCIDs) == 0 {
		return []ValidationError{{Field: "ugcIds", Message: "must contain at least one id"}}
	}
	var errs []ValidationError
	for _, id := range r.UGCIDs {
		if id == "" {
			errs = append(errs, ValidationError{Field: "ugcIds", Message: "ids cannot be empty"})
			break
		}
	}
	return errs
}

type AddArtistRequest struct {
	SpotifyID string `json:"spotifyId"`
}

func (r *AddArtistRequest) Validate() []ValidationError {
	return validateRequired("spotifyId", r.SpotifyID)
}

type AddLinkRequest struct {
	URL string `json:"url"`
}

func (r *AddLinkRequest) Validate() []ValidationError {
	return validateURL("url", r.URL)
}

type SIWERequest struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

func (r *SIWERequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRequired("message", r.Message)...)
	errs = append(errs, validateRequired("signature", r.Signature)...)
	return errs
}

type WhitelistRequest struct {
	Wallet string `json:"wallet"`
}

func (r *WhitelistRequest) Validate() []ValidationError {
	return validateWallet("wallet", r.Wallet)
}

type ProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

func (r *ProfileRequest) Validate() []ValidationError {
	if r.Username == nil && r.Email == nil {
		return []ValidationError{{Field: "body", Message: "username or email is required"}}
	}
	return nil
}

func (r *ProfileRequest) ToUpdate() app.ProfileUpdate {
	return app.ProfileUpdate{Username: r.Username, Email: r.Email}
}

type CoverageRequest struct {
	Repository string                     `json:"repository"`
	Branch     string                     `json:"branch"`
	CommitSHA  string                     `json:"commitSha"`
	Coverage   domain.CoveragePercentages `json:"coverage"`
}

func (r *CoverageRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRequired("repository", r.Repository)...)
	errs = append(errs, validateRequired("branch", r.Branch)...)
	errs = append(errs, validateCommitSHA("commitSha", r.CommitSHA)...)
	errs = append(errs, validatePercentage("coverage.lines", r.Coverage.Lines)...)
	errs = append(errs, validatePercentage("coverage.statements", r.Coverage.Statements)...)
	errs = append(errs, validatePercentage("coverage.functions", r.Coverage.Functions)...)
	errs = append(errs, validatePercentage("coverage.branches", r.Coverage.Branches)...)
	return errs
}

func (r *CoverageRequest) ToReport() *domain.CoverageReport {
	return &domain.CoverageReport{
		Repository: r.Repository,
		Branch:     r.Branch,
		CommitSHA:  r.CommitSHA,
		Coverage:   domain.CoverageJSON(r.Coverage),
	}
}
