package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"proposaland/internal/config"
	"proposaland/internal/domain"
	"proposaland/internal/infrastructure/report"
	"proposaland/internal/logging"
	"proposaland/internal/reference"
	"proposaland/internal/scoring"
)

func newScoreCommand(load func() config.Config) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "score FILE [--json]",
		Short: "Scores opportunities read from a JSON or YAML file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			opps, err := readOpportunities(args[0])
			if err != nil {
				return err
			}

			extractor := reference.NewExtractor()
			for i := range opps {
				if opps[i].ReferenceNumber != "" {
					continue
				}
				if m, ok := extractor.Best(opps[i].Text(), opps[i].Organization); ok {
					opps[i].ReferenceNumber = m.Number
					opps[i].ReferenceConfidence = m.Confidence
				}
			}

			engine := scoring.NewEngine(cfg,
				scoring.WithLogger(logging.NewWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)),
				scoring.WithWorkers(cfg.Scoring.Workers),
			)
			scored, err := engine.ScoreOpportunities(cmd.Context(), opps)
			if err != nil {
				return err
			}
			summary := engine.Report(scored)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Opportunities []domain.ScoredOpportunity `json:"opportunities"`
					Report        scoring.Report             `json:"report"`
				}{scored, summary})
			}

			report.RenderTable(out, scored)
			report.RenderSummary(out, summary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print scored records and the report as JSON.")
	return cmd
}

func readOpportunities(path string) ([]domain.Opportunity, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read opportunities: %w", err)
	}

	var opps []domain.Opportunity
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &opps)
	default:
		err = yaml.Unmarshal(raw, &opps)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return opps, nil
}
