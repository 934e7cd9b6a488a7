package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jobapply-engine/internal/config"
	"jobapply-engine/internal/docselect"
	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/ingest"
	"jobapply-engine/internal/rank"
)

var scoreCmd = &cobra.Command{
	Use:   "score <listings-file>",
	Short: "Score listings from a JSON or YAML file without storing anything",
	Long:  "Normalizes and scores every listing in the file with the configured preferences and weights, and shows the documents that would be used. Nothing is stored or submitted.",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

var scoreJSON bool

func init() {
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print results as JSON")
	rootCmd.AddCommand(scoreCmd)
}

type scoredListing struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Company     string      `json:"company"`
	Result      rank.Result `json:"result"`
	Resume      string      `json:"resume"`
	CoverLetter string      `json:"cover_letter,omitempty"`
}

func runScore(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	res, err := ingest.NewFileSource(args[0]).Fetch(cmd.Context())
	if err != nil {
		return fmt.Errorf("read listings: %w", err)
	}
	out, err := scoreListings(cfg, res.Listings)
	if err != nil {
		return err
	}

	if scoreJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return printScores(cmd.OutOrStdout(), out, cfg.ScoreThreshold)
}

func scoreListings(cfg config.Config, in []domain.Listing) ([]scoredListing, error) {
	engine, err := rank.NewEngine(cfg.Preferences, cfg.ScoringWeights, cfg.ScoreThreshold)
	if err != nil {
		return nil, err
	}
	docs := docselect.New(cfg.Documents)

	out := make([]scoredListing, 0, len(in))
	for _, l := range ingest.Dedupe(normalizeAll(in)) {
		d := docs.Select(l)
		resume, cover := d.Paths()
		out = append(out, scoredListing{
			ID:          l.ID,
			Title:       l.Title,
			Company:     l.Company,
			Result:      engine.Score(l),
			Resume:      resume,
			CoverLetter: cover,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Result.Total > out[j].Result.Total })
	return out, nil
}

func printScores(w io.Writer, rows []scoredListing, threshold float64) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tPASS\tTITLE\tCOMPANY\tRESUME")
	for _, r := range rows {
		pass := ""
		if r.Result.Passed {
			pass = "yes"
		}
		fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\t%s\n", r.Result.Total, pass, r.Title, r.Company, r.Resume)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d listings, threshold %.2f\n", len(rows), threshold)
	return err
}

func normalizeAll(in []domain.Listing) []domain.Listing {
	out := make([]domain.Listing, 0, len(in))
	for _, l := range in {
		out = append(out, ingest.Normalize(l))
	}
	return out
}
