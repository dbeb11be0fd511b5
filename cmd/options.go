package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"mlsscout/internal/filter"
	"mlsscout/internal/geo"
	"mlsscout/internal/types"
)

const usageLine = "usage: mlsscout [options] <city>"

// errUsage marks command-line mistakes; they exit with status 2.
var errUsage = errors.New("usage error")

// options mirrors the command line. It is parsed once and turned into the
// immutable criteria and search options.
type options struct {
	city string

	zipcodes string
	lotSize  string
	beds     string
	baths    string
	price    string

	zones        string
	excludeZones bool
	types        string
	excludeTypes bool

	location string
	distance float64
	schools  string

	homestead bool
	wilcox    bool
	boundary  string

	filename   string
	configPath string
	saveDB     bool
	browse     bool
}

func parseOptions(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := pflag.NewFlagSet("mlsscout", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usageLine)
		fmt.Fprintln(stderr, "\nScrapes mlslistings and uncovers matches based on specified criteria.\n\nOptions:")
		fs.PrintDefaults()
	}

	fs.StringVarP(&o.zipcodes, "zipcodes", "c", "", "Comma-separated list of zipcodes.")
	fs.StringVarP(&o.lotSize, "lotSize", "s", "", "Minimum lot size.")
	fs.StringVarP(&o.beds, "beds", "b", "", "Minimum number of beds.")
	fs.StringVarP(&o.baths, "baths", "a", "", "Minimum number of baths.")
	fs.StringVarP(&o.price, "price", "p", "", "Maximum price.")
	fs.StringVarP(&o.zones, "zones", "z", "", "Comma-separated list of zones.")
	fs.BoolVarP(&o.excludeZones, "excludeZones", "x", false, "Treat the list of zones as a blacklist.")
	fs.StringVarP(&o.types, "types", "t", "", "Comma-separated list of property types (e.g. Condominium, Townhouse).")
	fs.BoolVarP(&o.excludeTypes, "excludeTypes", "e", false, "Treat the list of types as a blacklist.")
	fs.StringVarP(&o.location, "location", "l", "", "Approximate location where you want the house, as latitude,longitude.")
	fs.Float64VarP(&o.distance, "distance", "d", filter.DefaultMaxDistanceMiles, "Distance from location where you want the house (in miles).")
	fs.StringVarP(&o.schools, "schools", "g", "", "Comma-separated list of schools, in the Fremont Union High or Los Gatos-Saratoga Joint Union High districts.")
	fs.BoolVarP(&o.homestead, "Homestead", "H", false, "House should be within Homestead High boundaries.")
	fs.BoolVarP(&o.wilcox, "Wilcox", "W", false, "House should be within Wilcox High boundaries.")
	fs.StringVar(&o.boundary, "boundary", "", "House should be within the named boundary from the config file.")
	fs.StringVarP(&o.filename, "jsonFilename", "f", "", "Write json results to provided file name.")
	fs.StringVar(&o.configPath, "config", "", "YAML config file (defaults to $MLSSCOUT_CONFIG).")
	fs.BoolVar(&o.saveDB, "db", false, "Also save accepted listings to the Oracle database (DB_* env vars).")
	fs.BoolVar(&o.browse, "browse", false, "Browse accepted listings interactively when on a terminal.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("%w: need exactly one city", errUsage)
	}
	o.city = fs.Arg(0)
	return o, nil
}

// boundaryName resolves which boundary to test. An explicit --boundary wins,
// then Homestead, then Wilcox.
func (o *options) boundaryName() string {
	switch {
	case o.boundary != "":
		return o.boundary
	case o.homestead:
		return "homestead"
	case o.wilcox:
		return "wilcox"
	}
	return ""
}

// boundaryConflict reports whether more than one boundary was requested.
func (o *options) boundaryConflict() bool {
	n := 0
	for _, set := range []bool{o.boundary != "", o.homestead, o.wilcox} {
		if set {
			n++
		}
	}
	return n > 1
}

func (o *options) criteria() (filter.Criteria, error) {
	var opts []filter.Option

	if zones := splitList(o.zones); len(zones) > 0 {
		opts = append(opts, filter.WithZones(zones, o.excludeZones))
	}
	if kinds := splitList(o.types); len(kinds) > 0 {
		opts = append(opts, filter.WithPropertyTypes(kinds, o.excludeTypes))
	}
	if o.lotSize != "" {
		n, err := strconv.Atoi(strings.TrimSpace(o.lotSize))
		if err != nil {
			return filter.Criteria{}, fmt.Errorf("%w: lot size %q is not an integer", errUsage, o.lotSize)
		}
		opts = append(opts, filter.WithMinLotSize(n))
	}
	if o.location != "" {
		p, ok := geo.ParsePoint(o.location)
		if !ok {
			return filter.Criteria{}, fmt.Errorf("%w: location %q is not latitude,longitude", errUsage, o.location)
		}
		if o.distance <= 0 {
			return filter.Criteria{}, fmt.Errorf("%w: distance must be positive", errUsage)
		}
		opts = append(opts, filter.WithLocation(p, o.distance))
	}
	if schools := splitList(o.schools); len(schools) > 0 {
		opts = append(opts, filter.WithSchools(schools))
	}
	if name := o.boundaryName(); name != "" {
		opts = append(opts, filter.WithBoundary(name))
	}
	return filter.NewCriteria(opts...), nil
}

func (o *options) searchOptions() (types.SearchOptions, error) {
	for name, v := range map[string]string{"beds": o.beds, "baths": o.baths, "price": o.price} {
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return types.SearchOptions{}, fmt.Errorf("%w: %s %q is not a number", errUsage, name, v)
		}
	}
	return types.SearchOptions{
		City:     o.city,
		ZipCodes: splitList(o.zipcodes),
		Beds:     strings.TrimSpace(o.beds),
		Baths:    strings.TrimSpace(o.baths),
		MaxPrice: strings.TrimSpace(o.price),
		LotSize:  strings.TrimSpace(o.lotSize),
	}, nil
}

// splitList splits a comma-separated option, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
