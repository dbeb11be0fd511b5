package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"mlsscout/internal/boundary"
	"mlsscout/internal/config"
	"mlsscout/internal/database"
	"mlsscout/internal/filter"
	"mlsscout/internal/mls"
	"mlsscout/internal/output"
	"mlsscout/internal/session"
	"mlsscout/internal/types"
	"mlsscout/pkg/logger"
)

// Exit codes.
const (
	exitOK           = 0
	exitFailure      = 1
	exitUsage        = 2
	exitSearchFailed = 234
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process globals, so tests can drive it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	criteria, err := opts.criteria()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	search, err := opts.searchOptions()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	runID := uuid.NewString()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Out: stderr}).
		With().Str("run_id", runID).Logger()

	if opts.boundaryConflict() {
		log.Warn().Str("boundary", criteria.BoundaryName).Msg("several boundaries requested, using one")
	}

	var oracle boundary.Oracle
	if criteria.BoundaryName != "" {
		reg, err := boundary.FromConfig(cfg.Boundaries, criteria.BoundaryName)
		if err != nil {
			log.Error().Err(err).Msg("cannot set up boundary check")
			return exitFailure
		}
		oracle = reg
	}

	client := mls.NewClient(cfg.APIBaseURL, nil, cfg.HTTPTimeout)
	sess := session.New(client, client, filter.NewEngine(oracle), log)

	report, err := sess.Run(ctx, search, criteria)
	if err != nil {
		if errors.Is(err, session.ErrInterrupted) || ctx.Err() != nil {
			log.Warn().Err(err).Msg("interrupted, nothing written")
			return exitFailure
		}
		var se *mls.StatusError
		if errors.As(err, &se) {
			log.Error().Int("status", se.StatusCode).Str("body", se.Body).Msg("search failed")
			return exitSearchFailed
		}
		log.Error().Err(err).Msg("search failed")
		return exitFailure
	}
	if report.NoResults {
		return exitOK
	}

	if err := writeResults(stdout, opts.filename, cfg.SiteBaseURL, report.Accepted); err != nil {
		log.Error().Err(err).Msg("cannot write results")
		return exitFailure
	}

	if opts.saveDB {
		dbRun := database.Run{ID: runID, At: time.Now().UTC(), City: search.City}
		target, err := saveToDatabase(ctx, cfg.Database, dbRun, report.Accepted)
		if err != nil {
			log.Error().Err(err).Msg("cannot save accepted listings")
			return exitFailure
		}
		log.Info().Str("db", target).Int("rows", len(report.Accepted)).Msg("accepted listings saved")
	}

	if opts.browse {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			browse(report.Accepted, cfg.SiteBaseURL)
		} else {
			log.Warn().Msg("--browse needs an interactive terminal")
		}
	}
	return exitOK
}

func writeResults(stdout io.Writer, filename, siteBaseURL string, accepted []types.Candidate) error {
	if filename != "" {
		return output.WriteJSONFile(filename, accepted)
	}
	return output.WriteURLs(stdout, siteBaseURL, accepted)
}

// saveToDatabase stores the accepted listings and returns the database it
// wrote to.
func saveToDatabase(ctx context.Context, c config.DatabaseConfig, run database.Run, accepted []types.Candidate) (string, error) {
	db, err := database.NewDatabase(ctx, database.DBConfig{
		Host:           c.Host,
		Port:           c.Port,
		Service:        c.Service,
		Username:       c.Username,
		Password:       c.Password,
		WalletLocation: c.WalletLocation,
	})
	if err != nil {
		return "", err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return "", err
	}
	if err := db.SaveAccepted(ctx, run, accepted); err != nil {
		return "", err
	}
	return db.Target(), nil
}
