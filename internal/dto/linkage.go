package dto

import "time"

// LinkListingRequest attaches a consent to a listing.
type LinkListingRequest struct {
	ConsentID string `json:"consentId" validate:"required"`
}

// LinkListingResponse echoes the created link.
type LinkListingResponse struct {
	ListingID string    `json:"listingId"`
	ConsentID string    `json:"consentId"`
	LinkedAt  time.Time `json:"linkedAt"`
}

// EligibilityResponse answers the publication gate for a listing.
type EligibilityResponse struct {
	ListingID string    `json:"listingId"`
	Eligible  bool      `json:"eligible"`
	CheckedAt time.Time `json:"checkedAt"`
}

// SweepRequest optionally overrides the reference clock for a manual sweep.
type SweepRequest struct {
	Now *time.Time `json:"now"`
}
