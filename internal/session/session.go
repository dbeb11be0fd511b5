// Package session runs one search: it asks the API for candidates, fetches
// each candidate's detail record and keeps the ones the filter engine accepts.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"mlsscout/internal/filter"
	"mlsscout/internal/mls"
	"mlsscout/internal/types"
)

// Searcher issues the listing search.
type Searcher interface {
	Search(ctx context.Context, opts types.SearchOptions) (*mls.SearchPage, error)
}

// DetailFetcher loads the detail record for a candidate.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, mlsNumber string) (types.ListingDetail, error)
}

// Evaluator decides whether a detail record matches.
type Evaluator interface {
	Evaluate(ctx context.Context, detail types.ListingDetail, c filter.Criteria) filter.Result
}

// Report summarizes one run.
type Report struct {
	Accepted      []types.Candidate
	Evaluated     int
	Rejected      int
	Skipped       int
	FetchFailures int
	NoResults     bool
	MorePages     bool
}

// Session wires the collaborators of a run.
type Session struct {
	searcher Searcher
	fetcher  DetailFetcher
	engine   Evaluator
	log      zerolog.Logger
}

// New creates a session.
func New(searcher Searcher, fetcher DetailFetcher, engine Evaluator, log zerolog.Logger) *Session {
	return &Session{
		searcher: searcher,
		fetcher:  fetcher,
		engine:   engine,
		log:      log.With().Str("component", "session").Logger(),
	}
}

// ErrInterrupted is returned when the run's context ends before every
// candidate was decided. The partial result is discarded.
var ErrInterrupted = errors.New("run interrupted")

// Run searches, then fetches and evaluates candidates one at a time in the
// order the API returned them. A failed search or a cancelled context is an
// error; a failed detail fetch keeps the candidate.
func (s *Session) Run(ctx context.Context, opts types.SearchOptions, c filter.Criteria) (*Report, error) {
	page, err := s.searcher.Search(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", opts.City, err)
	}

	report := &Report{NoResults: page.NoResults(), MorePages: page.MorePages(), Skipped: len(page.Skipped)}
	for _, err := range page.Skipped {
		s.log.Warn().Err(err).Msg("skipping unreadable search result")
	}
	if report.NoResults {
		s.log.Warn().Str("city", opts.City).Msg("no results")
		return report, nil
	}
	if report.MorePages {
		s.log.Warn().
			Int("pages", page.TotalPages).
			Int("fetched", len(page.Candidates)).
			Msg("too many results, only the first page is filtered")
	}

	for i, cand := range page.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w after %d of %d candidates: %w", ErrInterrupted, i, len(page.Candidates), err)
		}
		keep, err := s.keep(ctx, cand, c, report)
		if err != nil {
			return nil, fmt.Errorf("%w after %d of %d candidates: %w", ErrInterrupted, i, len(page.Candidates), err)
		}
		if keep {
			report.Accepted = append(report.Accepted, cand)
		} else {
			report.Rejected++
		}
	}

	s.log.Info().
		Int("candidates", len(page.Candidates)).
		Int("accepted", len(report.Accepted)).
		Int("rejected", report.Rejected).
		Int("skipped", report.Skipped).
		Int("fetch_failures", report.FetchFailures).
		Msg("filtering complete")
	return report, nil
}

func (s *Session) keep(ctx context.Context, cand types.Candidate, c filter.Criteria, report *Report) (bool, error) {
	log := s.log.With().Str("mls", cand.MLSNumber).Str("url", cand.DetailURLPath).Logger()

	detail, err := s.fetcher.FetchDetail(ctx, cand.MLSNumber)
	if err != nil {
		// A fetch cut short by cancellation says nothing about the listing.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		report.FetchFailures++
		log.Error().Err(err).RawJSON("candidate", rawOrNull(cand.Raw)).Msg("error getting listing detail, keeping candidate")
		return true, nil
	}
	detail.SourceURL = cand.DetailURLPath

	res := s.engine.Evaluate(ctx, detail, c)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	report.Evaluated++
	for _, d := range res.Diagnostics {
		log.Warn().Msg(d)
	}
	if !res.Accepted {
		log.Debug().Str("check", string(res.RejectedBy)).Msg("rejected")
	}
	return res.Accepted, nil
}

func rawOrNull(b []byte) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	return b
}
