package models

import (
	"fmt"

	"github.com/RishiKendai/plagcheck/internal/textsim"
)

const DefaultMinSimilarity = 0.7

// CheckOptions selects the strategies of a check and tunes the local matcher.
type CheckOptions struct {
	CheckLocal       bool    `json:"checkLocalDatabase"`
	CheckRemote      bool    `json:"checkRapidApi"`
	MinSimilarity    float64 `json:"minSimilarityScore"`
	ShingleSize      int     `json:"shingleSize"`
	IncludeCitations bool    `json:"includeCitations"`
	ScrapeSources    bool    `json:"scrapeSources"`
}

func DefaultCheckOptions() CheckOptions {
	return CheckOptions{
		CheckLocal:    true,
		CheckRemote:   false,
		MinSimilarity: DefaultMinSimilarity,
		ShingleSize:   textsim.DefaultShingleSize,
	}
}

func (o CheckOptions) Validate() error {
	if o.ShingleSize < textsim.MinShingleSize || o.ShingleSize > textsim.MaxShingleSize {
		return fmt.Errorf("%w: shingle size must be between %d and %d, got %d",
			ErrInvalidOptions, textsim.MinShingleSize, textsim.MaxShingleSize, o.ShingleSize)
	}
	if o.MinSimilarity < 0 || o.MinSimilarity > 1 {
		return fmt.Errorf("%w: minimum similarity must be between 0 and 1, got %v", ErrInvalidOptions, o.MinSimilarity)
	}
	return nil
}
