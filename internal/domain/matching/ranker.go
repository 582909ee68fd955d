// Package matching ranks open jobs against a candidate profile.
// Scores are always recomputed at call time and never persisted; a
// stale score must never be trusted.
package matching

import (
	"sort"

	"github.com/okian/intake/internal/domain/model"
	"github.com/okian/intake/internal/domain/scoring"
	"github.com/okian/intake/pkg/metrics"
)

// Default ranking configuration constants.
const (
	defaultMinScore = 50
	defaultLimit    = 10
)

// Match pairs a job with its computed qualification score.
type Match struct {
	Job       model.RequirementSet `json:"job"`
	Score     int                  `json:"score"`
	Qualified bool                 `json:"qualified"`
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithMinScore sets the exclusive score floor for ranked results.
func WithMinScore(min int) Option {
	return func(r *Ranker) {
		if min >= 0 && min < 100 {
			r.minScore = min
		}
	}
}

// WithLimit caps the number of ranked results.
func WithLimit(limit int) Option {
	return func(r *Ranker) {
		if limit > 0 {
			r.limit = limit
		}
	}
}

// Ranker batch-scores jobs for discovery.
type Ranker struct {
	scorer   *scoring.Scorer
	minScore int
	limit    int
}

// New creates a Ranker using the given scorer.
func New(scorer *scoring.Scorer, opts ...Option) *Ranker {
	r := &Ranker{
		scorer:   scorer,
		minScore: defaultMinScore,
		limit:    defaultLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RankJobs scores every job with the job-ranking weight profile, keeps
// those scoring strictly above the floor, sorts descending by score
// (ties keep input order), and truncates to the limit.
func (r *Ranker) RankJobs(candidate model.Candidate, jobs []model.RequirementSet) []Match {
	metrics.RecordJobsRanked(len(jobs))

	matches := make([]Match, 0, len(jobs))
	for _, job := range jobs {
		res := r.scorer.Evaluate(candidate, job, scoring.JobRanking)
		if res.Score <= r.minScore {
			continue
		}
		matches = append(matches, Match{Job: job, Score: res.Score, Qualified: res.Qualified})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > r.limit {
		matches = matches[:r.limit]
	}
	return matches
}
