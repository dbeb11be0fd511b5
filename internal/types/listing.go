package types

import "encoding/json"

// Candidate is a lightweight listing summary returned by the search call.
// Raw keeps the complete JSON object so output can reproduce it verbatim.
type Candidate struct {
	MLSNumber     string
	DetailURLPath string
	Raw           json.RawMessage
}

// ListingDetail holds the per-listing fields the filters look at.
// We keep only what the checks need; add more as needed.
type ListingDetail struct {
	ID                 string
	Zoning             []string
	PropertySubclass   string
	LotSizeDescription string // free text, empty when the listing has none

	// Raw API values, parsed lazily by the checks that need them.
	Latitude  string
	Longitude string

	HighSchoolDistrict []string
	PublicRemarks      string

	SourceURL string
}

// SearchOptions are the server-side constraints sent with the search request.
// Empty strings mean "no constraint".
type SearchOptions struct {
	City     string
	ZipCodes []string
	Beds     string
	Baths    string
	MaxPrice string
	LotSize  string
}
