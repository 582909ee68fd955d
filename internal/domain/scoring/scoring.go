// Package scoring computes qualification scores between a candidate and
// a requirement set. Scoring is pure: it never reads or writes the store
// and never mutates its inputs.
package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/intake/internal/domain/model"
	"github.com/okian/intake/pkg/metrics"
)

// Category names reported in results.
const (
	CategoryEducation    = "education"
	CategorySkills       = "skills"
	CategoryExperience   = "experience"
	CategoryAcademic     = "academic"
	CategoryCertificates = "certificates"
)

// Default qualification threshold for the job-ranking path.
const defaultQualifyThreshold = 60

// educationRank orders education levels. Higher rank satisfies lower
// requirements, never the other way around.
var educationRank = map[string]int{
	"high-school": 1,
	"diploma":     2,
	"bachelors":   3,
	"masters":     4,
	"phd":         5,
}

// experienceYears maps required experience labels to minimum years.
var experienceYears = map[string]float64{
	"internship":  0.5,
	"entry-level": 1,
	"mid-level":   3,
	"senior":      5,
}

// WeightProfile names a weight split over scoring categories.
// Weights of present categories are normalized, so only categories whose
// requirement exists contribute to the final score.
type WeightProfile struct {
	Name         string
	Education    float64
	Skills       float64
	Experience   float64
	Academic     float64
	Certificates float64
}

// CourseApplication is the weight split used when gating course applications.
var CourseApplication = WeightProfile{
	Name:       "course-application",
	Academic:   40,
	Skills:     30,
	Experience: 30,
}

// JobRanking is the weight split used when ranking jobs for discovery.
var JobRanking = WeightProfile{
	Name:         "job-ranking",
	Education:    20,
	Skills:       25,
	Experience:   20,
	Academic:     25,
	Certificates: 10,
}

// CategoryMatch reports how one category scored.
type CategoryMatch struct {
	Category     string  `json:"category"`
	Matched      bool    `json:"matched"`
	MatchPercent float64 `json:"matchPercentage"`
}

// Result is the outcome of scoring a candidate against a requirement set.
// It is derived, never persisted; callers always recompute from current data.
type Result struct {
	Score      int             `json:"score"`
	Categories []CategoryMatch `json:"matchedCategories"`
	Qualified  bool            `json:"qualified"`
	Missing    []string        `json:"missingRequirements,omitempty"`
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithQualifyThreshold sets the job-ranking qualification threshold.
func WithQualifyThreshold(threshold int) Option {
	return func(s *Scorer) {
		if threshold > 0 && threshold <= 100 {
			s.qualifyThreshold = threshold
		}
	}
}

// Scorer evaluates candidates against requirement sets.
type Scorer struct {
	qualifyThreshold int
}

// New creates a Scorer with configuration options.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		qualifyThreshold: defaultQualifyThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// categoryScore is one category's contribution before weighting.
type categoryScore struct {
	category string
	present  bool
	score    float64 // 0..1
	matched  bool    // fully satisfied
	missing  string  // human-readable requirement when unmatched
}

// Evaluate computes the weighted 0-100 score for the given profile.
// Qualified is true when the score meets the qualification threshold;
// this is the job-ranking semantics.
func (s *Scorer) Evaluate(candidate model.Candidate, req model.RequirementSet, profile WeightProfile) Result {
	start := time.Now()
	defer func() {
		metrics.RecordScoringDuration(float64(time.Since(start).Microseconds()) / 1000.0)
	}()
	metrics.RecordScoringRun(profile.Name)

	cats := evaluateCategories(candidate, req)
	score := weightedScore(cats, profile)

	res := Result{
		Score:     score,
		Qualified: score >= s.qualifyThreshold,
	}
	for _, c := range cats {
		if !c.present {
			continue
		}
		res.Categories = append(res.Categories, CategoryMatch{
			Category:     c.category,
			Matched:      c.matched,
			MatchPercent: math.Round(c.score * 100),
		})
		if !c.matched {
			res.Missing = append(res.Missing, c.missing)
		}
	}
	// An empty requirement set blocks nobody.
	if len(res.Categories) == 0 {
		res.Qualified = true
	}
	return res
}

// CheckCourse evaluates the stricter course-application semantics:
// qualified is the AND of every present sub-check rather than a score
// threshold. An absent education requirement short-circuits to qualified,
// matching the course-side rule. The score is still computed with the
// course weight split for display.
func (s *Scorer) CheckCourse(candidate model.Candidate, req model.RequirementSet) Result {
	metrics.RecordScoringRun(CourseApplication.Name)

	cats := evaluateCategories(candidate, req)
	score := weightedScore(cats, CourseApplication)

	res := Result{Score: score}
	for _, c := range cats {
		if !c.present {
			continue
		}
		res.Categories = append(res.Categories, CategoryMatch{
			Category:     c.category,
			Matched:      c.matched,
			MatchPercent: math.Round(c.score * 100),
		})
	}

	if req.Education == "" {
		res.Qualified = true
		return res
	}

	res.Qualified = true
	for _, c := range cats {
		if !c.present {
			continue
		}
		if !c.matched {
			res.Qualified = false
			res.Missing = append(res.Missing, c.missing)
		}
	}
	return res
}

// evaluateCategories computes every category sub-score against req.
func evaluateCategories(candidate model.Candidate, req model.RequirementSet) []categoryScore {
	return []categoryScore{
		educationScore(candidate, req),
		skillsScore(candidate, req),
		experienceScore(candidate, req),
		academicScore(candidate, req),
		certificatesScore(candidate, req),
	}
}

// weightedScore normalizes present category scores by their profile
// weights and rounds to an integer clamped to [0,100].
func weightedScore(cats []categoryScore, profile WeightProfile) int {
	weights := map[string]float64{
		CategoryEducation:    profile.Education,
		CategorySkills:       profile.Skills,
		CategoryExperience:   profile.Experience,
		CategoryAcademic:     profile.Academic,
		CategoryCertificates: profile.Certificates,
	}

	var num, den float64
	for _, c := range cats {
		w := weights[c.category]
		if !c.present || w <= 0 {
			continue
		}
		num += c.score * w
		den += w
	}
	if den == 0 {
		return 100
	}
	score := int(math.Round(num / den * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// educationScore is binary: the candidate's highest level must meet or
// exceed the required rank. No partial credit.
func educationScore(candidate model.Candidate, req model.RequirementSet) categoryScore {
	c := categoryScore{category: CategoryEducation}
	required, ok := educationRank[strings.ToLower(req.Education)]
	if req.Education == "" || !ok {
		return c
	}
	c.present = true

	highest := 0
	for _, e := range candidate.Education {
		if r, ok := educationRank[strings.ToLower(e.Level)]; ok && r > highest {
			highest = r
		}
	}
	if highest >= required {
		c.score = 1
		c.matched = true
		return c
	}
	c.missing = fmt.Sprintf("education level %s required", req.Education)
	return c
}

// skillsScore is the fraction of required skills the candidate holds,
// using bidirectional substring matching.
func skillsScore(candidate model.Candidate, req model.RequirementSet) categoryScore {
	c := categoryScore{category: CategorySkills}
	if len(req.Skills) == 0 {
		return c
	}
	c.present = true

	matched := 0
	var unmet []string
	for _, required := range req.Skills {
		found := false
		for _, have := range candidate.Skills {
			if fuzzyMatch(required, have) {
				found = true
				break
			}
		}
		if found {
			matched++
		} else {
			unmet = append(unmet, required)
		}
	}
	c.score = float64(matched) / float64(len(req.Skills))
	c.matched = matched == len(req.Skills)
	if !c.matched {
		c.missing = "missing skills: " + strings.Join(unmet, ", ")
	}
	return c
}

// experienceScore compares total years held against the threshold for
// the required experience level. An absent or zero threshold excludes
// the category entirely rather than scoring it zero.
func experienceScore(candidate model.Candidate, req model.RequirementSet) categoryScore {
	c := categoryScore{category: CategoryExperience}
	threshold := experienceYears[strings.ToLower(req.ExperienceLevel)]
	if req.ExperienceLevel == "" || threshold <= 0 {
		return c
	}
	c.present = true

	var total float64
	for _, w := range candidate.WorkExperience {
		total += w.Years
	}
	c.score = math.Min(total/threshold, 1)
	c.matched = total >= threshold
	if !c.matched {
		c.missing = fmt.Sprintf("%s experience required (%.1f years)", req.ExperienceLevel, threshold)
	}
	return c
}

// academicScore gives full credit at or above the minimum GPA and
// proportional credit below it, never negative.
func academicScore(candidate model.Candidate, req model.RequirementSet) categoryScore {
	c := categoryScore{category: CategoryAcademic}
	if req.MinGPA <= 0 {
		return c
	}
	c.present = true

	var highest float64
	for _, e := range candidate.Education {
		if e.GPA > highest {
			highest = e.GPA
		}
	}
	if highest >= req.MinGPA {
		c.score = 1
		c.matched = true
		return c
	}
	c.score = math.Min(math.Max(highest/req.MinGPA, 0), 1)
	c.missing = fmt.Sprintf("minimum GPA %.2f required", req.MinGPA)
	return c
}

// certificatesScore mirrors skillsScore over required certificates.
func certificatesScore(candidate model.Candidate, req model.RequirementSet) categoryScore {
	c := categoryScore{category: CategoryCertificates}
	if len(req.RequiredCertificates) == 0 {
		return c
	}
	c.present = true

	matched := 0
	var unmet []string
	for _, required := range req.RequiredCertificates {
		found := false
		for _, have := range candidate.Certificates {
			if fuzzyMatch(required, have.Name) {
				found = true
				break
			}
		}
		if found {
			matched++
		} else {
			unmet = append(unmet, required)
		}
	}
	c.score = float64(matched) / float64(len(req.RequiredCertificates))
	c.matched = matched == len(req.RequiredCertificates)
	if !c.matched {
		c.missing = "missing certificates: " + strings.Join(unmet, ", ")
	}
	return c
}

// fuzzyMatch reports whether either string is a case-insensitive
// substring of the other. The loose bidirectional semantics are
// deliberate; exact matching changes scoring outcomes.
func fuzzyMatch(a, b string) bool {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}
