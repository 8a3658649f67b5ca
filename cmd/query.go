package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/catalog-cli/internal/compare"
	"github.com/sells-group/catalog-cli/internal/competitor"
)

var compareCmd = &cobra.Command{
	Use:   "compare <vehicle-id> <competitor-id>...",
	Short: "Compare a vehicle against competitors",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("query"); err != nil {
			return err
		}
		snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		rows, err := lookup(snap, args...)
		if err != nil {
			return eris.Wrap(err, "compare")
		}
		return printJSON(os.Stdout, compare.Compare(rows[0], rows[1:]))
	},
}

var competitorsCmd = &cobra.Command{
	Use:   "competitors <vehicle-id>",
	Short: "Auto-select the closest competitors of a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("query"); err != nil {
			return err
		}
		snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		rows, err := lookup(snap, args[0])
		if err != nil {
			return eris.Wrap(err, "competitors")
		}

		req, err := competitorRequest(cmd)
		if err != nil {
			return err
		}
		items := competitor.NewSelector(snap.Rows, cfg.Catalog.AllowedYears).Select(rows[0], req)
		return printJSON(os.Stdout, map[string]any{"items": items, "count": len(items)})
	},
}

// competitorRequest reads selector flags; soft constraints stay nil unless
// set explicitly.
func competitorRequest(cmd *cobra.Command) (competitor.Request, error) {
	f := cmd.Flags()
	var req competitor.Request

	k, err := f.GetInt("k")
	if err != nil {
		return req, err
	}
	req.K = &k
	req.SameSegment, _ = f.GetBool("same-segment")
	req.SamePropulsion, _ = f.GetBool("same-propulsion")
	req.IncludeSameBrand, _ = f.GetBool("include-same-brand")
	req.IncludeDifferentYears, _ = f.GetBool("include-different-years")

	for name, dst := range map[string]**float64{
		"max-length-pct": &req.MaxLengthPct,
		"max-length-mm":  &req.MaxLengthMM,
		"score-diff-pct": &req.ScoreDiffPct,
		"min-match-pct":  &req.MinMatchPct,
	} {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetFloat64(name)
		if err != nil {
			return req, err
		}
		*dst = &v
	}
	return req, nil
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Diff every version of a model against a base version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("query"); err != nil {
			return err
		}
		q := compare.VersionQuery{}
		q.Make, _ = cmd.Flags().GetString("make")
		q.Model, _ = cmd.Flags().GetString("model")
		q.Year, _ = cmd.Flags().GetInt("year")
		q.BaseVersion, _ = cmd.Flags().GetString("base-version")

		snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		diff, err := compare.Versions(snap.Rows, q)
		if err != nil {
			return eris.Wrap(err, "versions")
		}
		return printJSON(os.Stdout, diff)
	},
}

// addCompetitorFlags registers the selector flags on cmd.
func addCompetitorFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("k", competitor.DefaultK, "number of competitors to return")
	f.Bool("same-segment", false, "restrict to the same segment bucket")
	f.Bool("same-propulsion", false, "restrict to the same propulsion bucket")
	f.Bool("include-same-brand", false, "allow competitors of the same make")
	f.Bool("include-different-years", false, "allow other model years")
	f.Float64("max-length-pct", 0, "max length difference as a percent of the vehicle's length")
	f.Float64("max-length-mm", 0, "max length difference in millimetres")
	f.Float64("score-diff-pct", 0, "max equip_score difference as a percent")
	f.Float64("min-match-pct", 0, "minimum overall match; ranks by match instead of price")
}

func init() {
	addCompetitorFlags(competitorsCmd)

	versionsCmd.Flags().String("make", "", "make")
	versionsCmd.Flags().String("model", "", "model (required)")
	versionsCmd.Flags().Int("year", 0, "model year")
	versionsCmd.Flags().String("base-version", "", "version to diff against (default: cheapest)")

	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(competitorsCmd)
	rootCmd.AddCommand(versionsCmd)
}
