package mls

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlsscout/internal/types"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", nil, 5*time.Second)
}

func TestSearch_Payload(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, searchPath, r.URL.Path)
		assert.Equal(t, "application/json;charset=UTF-8", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = io.WriteString(w, `{"pagingInfo": {"totalPagesCount": 1}, "propertySearchResults": []}`)
	})

	_, err := c.Search(context.Background(), types.SearchOptions{
		City:     "Sunnyvale",
		ZipCodes: []string{"94085", "94086"},
		Beds:     "3",
		MaxPrice: "1500000",
	})
	require.NoError(t, err)

	assert.Equal(t, "true", got["generatePropertySearchResultsHash"])
	disp := got["display"].(map[string]any)
	assert.EqualValues(t, 200, disp["itemsPerPage"])
	assert.EqualValues(t, 1, disp["pageNumber"])

	q := got["query"].(map[string]any)
	assert.Equal(t, "Sunnyvale", q["cityName"])
	assert.Equal(t, "1,2", q["listingStatus"])
	assert.Equal(t, "1,2,7", q["type"])
	assert.Equal(t, "PriceAscending", q["sortBy"])
	assert.Equal(t, []any{"94085", "94086"}, q["zipCodeList"])
	assert.Equal(t, map[string]any{"minMaxSelection": "Min", "value": "3"}, q["beds"])
	assert.Equal(t, map[string]any{"minMaxSelection": "Min", "value": ""}, q["baths"])
	assert.Equal(t, map[string]any{"minMaxSelection": "Max", "value": "1500000"}, q["listSalePrice"])
	assert.Equal(t, "", q["yearBuiltMin"])
}

func TestSearch_EmptyZipListIsArray(t *testing.T) {
	req := buildSearchRequest(types.SearchOptions{City: "Cupertino"})
	b, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"zipCodeList":[]`)
}

func TestSearch_Results(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"pagingInfo": {"totalPagesCount": 3},
			"propertySearchResults": [
				{"MLSNumber": "ML1", "siteMapDetailUrlPath": "/property/ml1", "listPrice": 100},
				{"MLSNumber": "ML2", "siteMapDetailUrlPath": "/property/ml2"}
			]
		}`)
	})

	page, err := c.Search(context.Background(), types.SearchOptions{City: "Cupertino"})
	require.NoError(t, err)

	assert.False(t, page.NoResults())
	assert.True(t, page.MorePages())
	require.Len(t, page.Candidates, 2)
	assert.Equal(t, "ML1", page.Candidates[0].MLSNumber)
	assert.Equal(t, "/property/ml1", page.Candidates[0].DetailURLPath)
	assert.JSONEq(t, `{"MLSNumber": "ML1", "siteMapDetailUrlPath": "/property/ml1", "listPrice": 100}`, string(page.Candidates[0].Raw))
}

func TestSearch_SkipsUndecodableResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"pagingInfo": {"totalPagesCount": 1},
			"propertySearchResults": [
				{"MLSNumber": "ML1", "siteMapDetailUrlPath": "/property/ml1"},
				{"MLSNumber": 81234567, "siteMapDetailUrlPath": "/property/bad"},
				{"MLSNumber": "ML3", "siteMapDetailUrlPath": "/property/ml3"}
			]
		}`)
	})

	page, err := c.Search(context.Background(), types.SearchOptions{City: "Cupertino"})
	require.NoError(t, err)

	require.Len(t, page.Candidates, 2)
	assert.Equal(t, "ML1", page.Candidates[0].MLSNumber)
	assert.Equal(t, "ML3", page.Candidates[1].MLSNumber)
	require.Len(t, page.Skipped, 1)
	assert.Contains(t, page.Skipped[0].Error(), "search result 1")
	assert.Contains(t, page.Skipped[0].Error(), "/property/bad")
}

func TestSearch_NoResults(t *testing.T) {
	for _, body := range []string{
		`{"pagingInfo": null, "propertySearchResults": null}`,
		`{"propertySearchResults": []}`,
		`{"pagingInfo": {"totalPagesCount": 0}}`,
	} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		})
		page, err := c.Search(context.Background(), types.SearchOptions{City: "Nowhere"})
		require.NoError(t, err, body)
		assert.True(t, page.NoResults(), body)
		assert.Empty(t, page.Candidates)
	}
}

func TestSearch_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})

	_, err := c.Search(context.Background(), types.SearchOptions{City: "Cupertino"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "maintenance", se.Body)
}

func TestFetchDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, detailPath+"ML81900001", r.URL.Path)
		_, _ = io.WriteString(w, `{
			"features": {
				"Zoning": {"m_Item1": ["R1", "PD"]},
				"High School District": {"m_Item1": ["Fremont Union High"]}
			},
			"propertyInfo": {
				"subClass": "Single Family Home",
				"lotSizeArea": "7200 sqft",
				"latitude": 37.3401,
				"longitude": "-122.0301",
				"publicRemarks": "Walk to Homestead High"
			}
		}`)
	})

	d, err := c.FetchDetail(context.Background(), "ML81900001")
	require.NoError(t, err)

	assert.Equal(t, types.ListingDetail{
		ID:                 "ML81900001",
		Zoning:             []string{"R1", "PD"},
		PropertySubclass:   "Single Family Home",
		LotSizeDescription: "7200 sqft",
		Latitude:           "37.3401",
		Longitude:          "-122.0301",
		HighSchoolDistrict: []string{"Fremont Union High"},
		PublicRemarks:      "Walk to Homestead High",
	}, d)
}

func TestFetchDetail_NullFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"features": {}, "propertyInfo": {"lotSizeArea": null, "latitude": null, "longitude": ""}}`)
	})

	d, err := c.FetchDetail(context.Background(), "ML2")
	require.NoError(t, err)
	assert.Empty(t, d.LotSizeDescription)
	assert.Empty(t, d.Latitude)
	assert.Empty(t, d.Longitude)
	assert.Empty(t, d.Zoning)
}

func TestFetchDetail_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.FetchDetail(context.Background(), "ML404")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Contains(t, se.Error(), "detail ML404")
}
