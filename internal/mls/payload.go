package mls

import (
	"encoding/json"
	"strings"

	"mlsscout/internal/types"
)

// Wire format of the search request. Unused query fields are still sent as
// empty strings; the API rejects payloads that omit them.

type searchRequest struct {
	Display    display     `json:"display"`
	ResultHash string      `json:"generatePropertySearchResultsHash"`
	Query      searchQuery `json:"query"`
}

type display struct {
	ItemsPerPage int `json:"itemsPerPage"`
	PageNumber   int `json:"pageNumber"`
}

type bound struct {
	MinMaxSelection string `json:"minMaxSelection"`
	Value           string `json:"value"`
}

type searchQuery struct {
	Address       string   `json:"address"`
	Baths         bound    `json:"baths"`
	Beds          bound    `json:"beds"`
	CityName      string   `json:"cityName"`
	CountyName    string   `json:"countyName"`
	ListSalePrice bound    `json:"listSalePrice"`
	ListingStatus string   `json:"listingStatus"`
	LotSize       bound    `json:"lotSize"`
	MLSNumber     string   `json:"mlsNumber"`
	OpenHouse     string   `json:"openHouse"`
	Parking       string   `json:"parking"`
	SearchType    string   `json:"searchType"`
	SortBy        string   `json:"sortBy"`
	Sqft          bound    `json:"sqft"`
	SubClass      string   `json:"subClass"`
	Type          string   `json:"type"`
	YearBuiltMax  string   `json:"yearBuiltMax"`
	YearBuiltMin  string   `json:"yearBuiltMin"`
	ZipCode       string   `json:"zipCode"`
	ZipCodeList   []string `json:"zipCodeList"`
}

func buildSearchRequest(opts types.SearchOptions) searchRequest {
	zips := opts.ZipCodes
	if zips == nil {
		zips = []string{}
	}
	return searchRequest{
		Display:    display{ItemsPerPage: itemsPerPage, PageNumber: 1},
		ResultHash: "true",
		Query: searchQuery{
			Baths:         bound{MinMaxSelection: "Min", Value: opts.Baths},
			Beds:          bound{MinMaxSelection: "Min", Value: opts.Beds},
			CityName:      opts.City,
			ListSalePrice: bound{MinMaxSelection: "Max", Value: opts.MaxPrice},
			ListingStatus: "1,2",
			LotSize:       bound{MinMaxSelection: "Min", Value: opts.LotSize},
			SearchType:    "property",
			SortBy:        "PriceAscending",
			Sqft:          bound{MinMaxSelection: "Min"},
			Type:          "1,2,7",
			ZipCodeList:   zips,
		},
	}
}

type searchResponse struct {
	PagingInfo *struct {
		TotalPagesCount int `json:"totalPagesCount"`
	} `json:"pagingInfo"`
	Results []json.RawMessage `json:"propertySearchResults"`
}

type summary struct {
	MLSNumber            string `json:"MLSNumber"`
	SiteMapDetailURLPath string `json:"siteMapDetailUrlPath"`
}

// item1 mirrors the API's tuple encoding: lists arrive wrapped in m_Item1.
type item1 struct {
	Values []string `json:"m_Item1"`
}

type detailResponse struct {
	Features struct {
		Zoning             item1 `json:"Zoning"`
		HighSchoolDistrict item1 `json:"High School District"`
	} `json:"features"`
	PropertyInfo struct {
		SubClass      string    `json:"subClass"`
		LotSizeArea   *string   `json:"lotSizeArea"`
		Latitude      rawScalar `json:"latitude"`
		Longitude     rawScalar `json:"longitude"`
		PublicRemarks string    `json:"publicRemarks"`
	} `json:"propertyInfo"`
}

func (d detailResponse) toDetail(mlsNumber string) types.ListingDetail {
	lot := ""
	if d.PropertyInfo.LotSizeArea != nil {
		lot = *d.PropertyInfo.LotSizeArea
	}
	return types.ListingDetail{
		ID:                 mlsNumber,
		Zoning:             d.Features.Zoning.Values,
		PropertySubclass:   d.PropertyInfo.SubClass,
		LotSizeDescription: lot,
		Latitude:           string(d.PropertyInfo.Latitude),
		Longitude:          string(d.PropertyInfo.Longitude),
		HighSchoolDistrict: d.Features.HighSchoolDistrict.Values,
		PublicRemarks:      d.PropertyInfo.PublicRemarks,
	}
}

// rawScalar keeps a JSON string or number as text so coordinate parsing can
// happen (and fail softly) in the filters. null becomes "".
type rawScalar string

func (r *rawScalar) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*r = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*r = rawScalar(str)
		return nil
	}
	*r = rawScalar(s)
	return nil
}
