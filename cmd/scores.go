package cmd

import (
	"time"

	"github.com/jaajung-kjs/kepco-survey/core"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/internal/outwriter"
	"github.com/jaajung-kjs/kepco-survey/schema"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// newAggregator builds the aggregator over the opened store.
func newAggregator() (*core.Aggregator, error) {
	catalog, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	return core.NewAggregator(surveyStore(), catalog), nil
}

// departmentArg validates a positional department name.
func departmentArg(name string) (schema.Department, error) {
	d := schema.Department(name)
	if !d.IsValid() {
		return "", &contract.UnknownDepartmentError{Name: name}
	}
	return d, nil
}

// scoresCmd groups the read-only score reports.
var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Print department and organization scores",
	Long: `Compute scores from the stored answers and print them as a table, CSV or JSON.

Subcommands:
  department   - Rank every department, or show one department
  organization - Organization-wide category averages
  questions    - Per-question detail of one department

Examples:
  kepco-survey scores department
  kepco-survey scores department 원주전력 --output json
  kepco-survey scores questions 계통운영부 --output csv --output-file grid.csv`,
}

var scoresDepartmentCmd = &cobra.Command{
	Use:     "department [name]",
	Short:   "Rank all departments or show one",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		start := time.Now()
		agg, err := newAggregator()
		if err != nil {
			return err
		}
		ow := outwriter.NewOutWriter()

		if len(args) == 0 {
			scores, err := agg.ComputeAllDepartmentScores(rootCtx)
			if err != nil {
				return err
			}
			return ow.WriteDepartments(scores, cfg, time.Since(start))
		}

		department, err := departmentArg(args[0])
		if err != nil {
			return err
		}
		score, err := agg.RankedDepartmentScore(rootCtx, department)
		if err != nil {
			return err
		}
		return ow.WriteDepartments([]schema.DepartmentScore{score}, cfg, time.Since(start))
	},
}

var scoresQuestionsCmd = &cobra.Command{
	Use:     "questions <name>",
	Short:   "Show the question breakdown of one department",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		start := time.Now()
		department, err := departmentArg(args[0])
		if err != nil {
			return err
		}
		agg, err := newAggregator()
		if err != nil {
			return err
		}

		var detail schema.DepartmentDetail
		g, ctx := errgroup.WithContext(rootCtx)
		g.Go(func() (err error) {
			detail.Score, err = agg.RankedDepartmentScore(ctx, department)
			return err
		})
		g.Go(func() (err error) {
			detail.Questions, err = agg.ComputeQuestionDetail(ctx, department, nil)
			return err
		})
		g.Go(func() (err error) {
			detail.PeerQuestions, err = agg.ComputePeerQuestionDetail(ctx, department)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteDepartmentDetail(detail, cfg, time.Since(start))
	},
}

var scoresOrganizationCmd = &cobra.Command{
	Use:     "organization",
	Short:   "Show organization-wide category averages",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		start := time.Now()
		agg, err := newAggregator()
		if err != nil {
			return err
		}
		scores, err := agg.ComputeOrganizationScores(rootCtx)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteOrganization(scores, cfg, time.Since(start))
	},
}
