// Package filter decides whether a fetched listing matches the caller's
// criteria. Each check either passes, rejects, or passes with a diagnostic
// when the listing data is too poor to judge.
package filter

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"mlsscout/internal/boundary"
	"mlsscout/internal/geo"
	"mlsscout/internal/types"
)

// Check names a single predicate; it is reported when the predicate rejects.
type Check string

const (
	CheckZone         Check = "zone"
	CheckPropertyType Check = "property_type"
	CheckLotSize      Check = "lot_size"
	CheckDistance     Check = "distance"
	CheckSchool       Check = "school"
	CheckBoundary     Check = "boundary"
)

// recognizedDistricts are the only high school districts whose remarks
// reliably name the assigned school.
var recognizedDistricts = []string{
	"Fremont Union High",
	"Los Gatos-Saratoga Joint Union High",
}

// leading integer, optionally with thousands separators ("6,000 sq ft").
var leadingInt = regexp.MustCompile(`^[0-9]{1,3}(?:,[0-9]{3})+|^[0-9]+`)

var errNoOracle = errors.New("no boundary oracle configured")

// Result is the outcome of one evaluation.
type Result struct {
	Accepted    bool
	RejectedBy  Check // empty when accepted
	Diagnostics []string
}

// Engine evaluates listings. It holds no per-listing state and is safe for
// concurrent use if the oracle is.
type Engine struct {
	oracle boundary.Oracle
}

// NewEngine returns an engine that consults oracle for boundary checks. oracle
// may be nil when no criteria will name a boundary.
func NewEngine(oracle boundary.Oracle) *Engine {
	return &Engine{oracle: oracle}
}

type evaluation struct {
	ctx    context.Context
	detail types.ListingDetail
	c      Criteria
	diags  []string
}

func (ev *evaluation) logf(format string, args ...any) {
	ev.diags = append(ev.diags, fmt.Sprintf(format, args...))
}

// Evaluate runs every enabled check in order and stops at the first rejection.
func (e *Engine) Evaluate(ctx context.Context, detail types.ListingDetail, c Criteria) Result {
	ev := &evaluation{ctx: ctx, detail: detail, c: c}

	checks := []struct {
		name    Check
		enabled bool
		run     func(*evaluation) bool
	}{
		{CheckZone, len(c.Zones) > 0, zoneCheck},
		{CheckPropertyType, len(c.PropertyTypes) > 0, propertyTypeCheck},
		{CheckLotSize, c.MinLotSize != nil, lotSizeCheck},
		{CheckDistance, c.Location != nil, distanceCheck},
		{CheckSchool, len(c.SchoolNames) > 0, schoolCheck},
		{CheckBoundary, c.BoundaryName != "", e.boundaryCheck},
	}

	for _, chk := range checks {
		if !chk.enabled {
			continue
		}
		if !chk.run(ev) {
			return Result{Accepted: false, RejectedBy: chk.name, Diagnostics: ev.diags}
		}
	}
	return Result{Accepted: true, Diagnostics: ev.diags}
}

func zoneCheck(ev *evaluation) bool {
	zoning := ev.detail.Zoning
	if len(zoning) == 0 {
		// Nothing to match; a blacklist has nothing to object to either.
		return ev.c.ExcludeZones
	}
	for _, z := range zoning {
		if slices.Contains(ev.c.Zones, z) != ev.c.ExcludeZones {
			return true
		}
	}
	return false
}

func propertyTypeCheck(ev *evaluation) bool {
	listed := slices.Contains(ev.c.PropertyTypes, ev.detail.PropertySubclass)
	if listed {
		return !ev.c.ExcludeTypes
	}
	return ev.c.ExcludeTypes
}

func lotSizeCheck(ev *evaluation) bool {
	size, ok := ParseLotSize(ev.detail.LotSizeDescription)
	if !ok {
		ev.logf("missing lot size (%q): %s", ev.detail.LotSizeDescription, ev.detail.SourceURL)
		return true
	}
	return size >= *ev.c.MinLotSize
}

func distanceCheck(ev *evaluation) bool {
	lat, lon, ok := geo.ParseLatLon(ev.detail.Latitude, ev.detail.Longitude)
	if !ok {
		ev.logf("failed to get distance: latitude %q longitude %q", ev.detail.Latitude, ev.detail.Longitude)
		return true
	}
	dist := geo.DistanceMiles(lat, lon, ev.c.Location.Lat, ev.c.Location.Lon)
	if dist > ev.c.MaxDistanceMiles {
		return false
	}
	return true
}

func schoolCheck(ev *evaluation) bool {
	districts := ev.detail.HighSchoolDistrict
	if len(districts) == 0 || !slices.Contains(recognizedDistricts, districts[0]) {
		return false
	}
	for _, school := range ev.c.SchoolNames {
		if strings.Contains(ev.detail.PublicRemarks, school) {
			return true
		}
	}
	return false
}

// boundaryCheck fails closed: an oracle error counts as "outside".
func (e *Engine) boundaryCheck(ev *evaluation) bool {
	lat, lon, ok := geo.ParseLatLon(ev.detail.Latitude, ev.detail.Longitude)
	if !ok {
		ev.logf("failed to get boundary position: latitude %q longitude %q", ev.detail.Latitude, ev.detail.Longitude)
		return true
	}
	if e.oracle == nil {
		ev.logf("boundary %s: %v", ev.c.BoundaryName, errNoOracle)
		return false
	}
	inside, err := e.oracle.Contains(ev.ctx, lat, lon, ev.c.BoundaryName)
	if err != nil {
		ev.logf("boundary %s: %v", ev.c.BoundaryName, err)
		return false
	}
	return inside
}

// ParseLotSize extracts the leading square-footage integer from a free-text
// lot size such as "7200 sqft" or "6,000 sq ft".
func ParseLotSize(desc string) (int, bool) {
	m := leadingInt.FindString(desc)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}
