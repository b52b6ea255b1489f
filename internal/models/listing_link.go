package models

import "time"

// ListingLink records that a listing relies on a consent artifact for its
// publication eligibility. Links to since-expired consents are kept for
// historical accuracy.
type ListingLink struct {
	ListingID string    `db:"listing_id" json:"listingId"`
	ConsentID string    `db:"consent_id" json:"consentId"`
	LinkedAt  time.Time `db:"linked_at" json:"linkedAt"`
	LinkedBy  *string   `db:"linked_by" json:"linkedBy,omitempty"`
}

// ConsentUsage summarises how many listings rely on a consent.
type ConsentUsage struct {
	ConsentID string `json:"consentId"`
	Listings  int    `json:"listings"`
}

// ListingEligibility is the publication-gate answer for a listing.
type ListingEligibility struct {
	ListingID string    `json:"listingId"`
	Eligible  bool      `json:"eligible"`
	CheckedAt time.Time `json:"checkedAt"`
}
