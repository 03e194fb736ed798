// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/survey-engine/internal/harvest"
	"github.com/pdiddy/survey-engine/internal/records"
	"github.com/pdiddy/survey-engine/internal/secrets"
	"github.com/pdiddy/survey-engine/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "survey-engine/0.1"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest bibliographic records from academic APIs",
	Long: `Harvest queries academic APIs (arXiv, Semantic Scholar) for papers
matching a search query and writes the combined records to a CSV file.
A failing source is reported and skipped; the remaining sources still
run.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("query", "", "search query (required)")
	harvestCmd.Flags().String("sources", "arxiv,semantic_scholar", "comma-separated sources: arxiv, semantic_scholar")
	harvestCmd.Flags().Int("max-results", 200, "maximum records per source")
	harvestCmd.Flags().Int("page-size", 100, "records requested per API page")
	harvestCmd.Flags().Duration("delay", 3*time.Second, "delay between consecutive API pages")
	harvestCmd.Flags().Int("start-year", 0, "drop records published before this year (0 = no floor)")
	harvestCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")
	harvestCmd.Flags().String("output", "records.csv", "output CSV path")

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	if query == "" {
		return fmt.Errorf("--query is required")
	}

	sources, _ := cmd.Flags().GetString("sources")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	delay, _ := cmd.Flags().GetDuration("delay")
	startYear, _ := cmd.Flags().GetInt("start-year")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	output, _ := cmd.Flags().GetString("output")

	cfg := types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		MaxResults:            maxResults,
		PageSize:              pageSize,
		PageDelay:             delay,
		StartYear:             startYear,
		SemanticScholarAPIKey: secrets.Resolve("SEMANTIC_SCHOLAR_API_KEY", "semantic-scholar-api-key", loadedSecrets),
		OutputPath:            output,
	}
	// Partial snapshot after every page batch, so an interrupted harvest
	// keeps what it already fetched.
	cfg.Snapshot = func(recs []types.Record) error {
		return records.WriteCSV(cfg.OutputPath, recs)
	}

	client := &http.Client{Timeout: cfg.Timeout}

	backends, err := harvestBackends(sources, client, cfg)
	if err != nil {
		return err
	}

	out, err := harvest.Harvest(context.Background(), query, backends, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if len(out.Records) == 0 && len(out.BackendErrors) > 0 {
		return fmt.Errorf("all sources failed: %s", strings.Join(out.BackendErrors, "; "))
	}

	if err := records.WriteCSV(cfg.OutputPath, out.Records); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.OutputPath, err)
	}
	fmt.Printf("wrote %d records to %s\n", len(out.Records), cfg.OutputPath)
	return nil
}

func harvestBackends(sources string, client *http.Client, cfg types.HarvestConfig) ([]harvest.Backend, error) {
	var backends []harvest.Backend
	for _, name := range strings.Split(sources, ",") {
		switch strings.TrimSpace(name) {
		case "arxiv":
			backends = append(backends, &harvest.ArxivBackend{Client: client})
		case "semantic_scholar":
			backends = append(backends, &harvest.SemanticScholarBackend{
				Client: client,
				APIKey: cfg.SemanticScholarAPIKey,
			})
		case "":
		default:
			return nil, fmt.Errorf("unknown source %q: use arxiv or semantic_scholar", name)
		}
	}
	return backends, nil
}
