package service

import (
	"context"
	"fmt"
)

const debugSampleSize = 5

// DebugReport describes a fresh scrape and the cache, for diagnosing page
// changes.
type DebugReport struct {
	SidesType        string       `json:"sides_type"`
	SidesValue       []string     `json:"sides_value"`
	NYTSolutionType  string       `json:"nyt_solution_type"`
	NYTSolutionValue []string     `json:"nyt_solution_value"`
	DictionaryType   string       `json:"dictionary_type"`
	DictionaryLength int          `json:"dictionary_length"`
	SampleWords      []string     `json:"sample_words"`
	CacheStatus      string       `json:"cache_status"`
	CachedData       *CachedDebug `json:"cached_data,omitempty"`
}

// CachedDebug summarises the cached solution.
type CachedDebug struct {
	LottaSolution       []string `json:"lotta_solution"`
	LottaSolutionType   string   `json:"lotta_solution_type"`
	LottaSolutionLength int      `json:"lotta_solution_length"`
}

// Debug scrapes the page without solving or caching and reports what came
// back alongside the cache state.
func (s *Service) Debug(ctx context.Context) (DebugReport, error) {
	raw, err := s.fetch(ctx)
	if err != nil {
		return DebugReport{}, err
	}

	rep := DebugReport{
		SidesType:        fmt.Sprintf("%T", raw.Sides),
		SidesValue:       raw.Sides,
		NYTSolutionType:  fmt.Sprintf("%T", raw.Solution),
		NYTSolutionValue: raw.Solution,
		DictionaryType:   fmt.Sprintf("%T", raw.Dictionary),
		DictionaryLength: len(raw.Dictionary),
		SampleWords:      []string{},
		CacheStatus:      "invalid or missing",
	}
	if len(raw.Dictionary) >= debugSampleSize {
		rep.SampleWords = raw.Dictionary[:debugSampleSize]
	}

	if e, ok := s.cached(ctx); ok {
		rep.CacheStatus = "valid"
		rep.CachedData = &CachedDebug{
			LottaSolution:       e.Data.LottaSolution,
			LottaSolutionType:   fmt.Sprintf("%T", e.Data.LottaSolution),
			LottaSolutionLength: len(e.Data.LottaSolution),
		}
	}
	return rep, nil
}
