package matching_test

import (
	"fmt"
	"testing"

	"github.com/okian/intake/internal/domain/matching"
	"github.com/okian/intake/internal/domain/model"
	"github.com/okian/intake/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// rankerCandidate holds twenty fixed-width skill tokens so a job
// requiring k of them plus (20-k) fillers scores exactly k*5.
func rankerCandidate() model.Candidate {
	c := model.Candidate{ID: "student-1"}
	for i := 0; i < 20; i++ {
		c.Skills = append(c.Skills, fmt.Sprintf("alpha%02d", i))
	}
	return c
}

func jobScoring(title string, matched int) model.RequirementSet {
	job := model.RequirementSet{
		ID:     title,
		Kind:   model.KindJob,
		Title:  title,
		Status: model.TargetActive,
	}
	for i := 0; i < matched; i++ {
		job.Skills = append(job.Skills, fmt.Sprintf("alpha%02d", i))
	}
	for i := 0; i < 20-matched; i++ {
		job.Skills = append(job.Skills, fmt.Sprintf("omega%02d", i))
	}
	return job
}

func TestRankJobs(t *testing.T) {
	Convey("Given a ranker with default settings", t, func() {
		ranker := matching.New(scoring.New())
		candidate := rankerCandidate()

		Convey("When ranking five jobs with scores 90, 40, 70, 55, 10", func() {
			jobs := []model.RequirementSet{
				jobScoring("job-90", 18),
				jobScoring("job-40", 8),
				jobScoring("job-70", 14),
				jobScoring("job-55", 11),
				jobScoring("job-10", 2),
			}
			matches := ranker.RankJobs(candidate, jobs)

			Convey("Then only jobs above 50 survive, in descending order", func() {
				So(len(matches), ShouldEqual, 3)
				So(matches[0].Job.Title, ShouldEqual, "job-90")
				So(matches[0].Score, ShouldEqual, 90)
				So(matches[1].Job.Title, ShouldEqual, "job-70")
				So(matches[1].Score, ShouldEqual, 70)
				So(matches[2].Job.Title, ShouldEqual, "job-55")
				So(matches[2].Score, ShouldEqual, 55)
			})

			Convey("And qualification follows the job threshold", func() {
				So(matches[0].Qualified, ShouldBeTrue)
				So(matches[2].Qualified, ShouldBeFalse)
			})
		})

		Convey("When a job scores exactly the floor", func() {
			matches := ranker.RankJobs(candidate, []model.RequirementSet{jobScoring("job-50", 10)})

			Convey("Then the floor is exclusive", func() {
				So(matches, ShouldBeEmpty)
			})
		})

		Convey("When jobs tie on score", func() {
			jobs := []model.RequirementSet{
				jobScoring("first", 14),
				jobScoring("second", 14),
				jobScoring("third", 18),
			}
			matches := ranker.RankJobs(candidate, jobs)

			Convey("Then ties keep input order", func() {
				So(matches[0].Job.Title, ShouldEqual, "third")
				So(matches[1].Job.Title, ShouldEqual, "first")
				So(matches[2].Job.Title, ShouldEqual, "second")
			})
		})

		Convey("When more than ten jobs qualify", func() {
			var jobs []model.RequirementSet
			for i := 0; i < 14; i++ {
				jobs = append(jobs, jobScoring(fmt.Sprintf("bulk-%02d", i), 16))
			}
			matches := ranker.RankJobs(candidate, jobs)

			Convey("Then results truncate to the top ten", func() {
				So(len(matches), ShouldEqual, 10)
				So(matches[0].Job.Title, ShouldEqual, "bulk-00")
			})
		})

		Convey("When there are no jobs", func() {
			So(ranker.RankJobs(candidate, nil), ShouldBeEmpty)
		})
	})

	Convey("Given a ranker with custom floor and limit", t, func() {
		ranker := matching.New(scoring.New(), matching.WithMinScore(0), matching.WithLimit(2))
		candidate := rankerCandidate()

		Convey("When ranking three low-scoring jobs", func() {
			jobs := []model.RequirementSet{
				jobScoring("a", 2),
				jobScoring("b", 6),
				jobScoring("c", 4),
			}
			matches := ranker.RankJobs(candidate, jobs)

			Convey("Then the custom settings apply", func() {
				So(len(matches), ShouldEqual, 2)
				So(matches[0].Job.Title, ShouldEqual, "b")
				So(matches[1].Job.Title, ShouldEqual, "c")
			})
		})
	})
}
