// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/survey-engine/internal/classify"
	"github.com/pdiddy/survey-engine/internal/records"
	"github.com/pdiddy/survey-engine/internal/secrets"
	"github.com/pdiddy/survey-engine/pkg/types"
)

const defaultModel = "gpt-4o-mini-2024-07-18"

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify harvested records against the topic taxonomy",
	Long: `Classify reads harvested records from a CSV file, deduplicates them
by title, and sends each to a chat-completion model for tagging. Records
whose tags satisfy the retention rule are written to the results CSV.

Progress is checkpointed periodically; an interrupted run resumes from
the last checkpoint without re-classifying completed records.`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().String("input", "records.csv", "input records CSV")
	classifyCmd.Flags().String("output", "results.csv", "output results CSV")
	classifyCmd.Flags().String("checkpoint-file", "checkpoint.json", "checkpoint file path")
	classifyCmd.Flags().Int("checkpoint-freq", 10, "records between checkpoint saves")
	classifyCmd.Flags().Duration("sleep", 300*time.Millisecond, "delay between model calls")
	classifyCmd.Flags().String("model", "", "chat-completion model (default "+defaultModel+")")
	classifyCmd.Flags().String("prompt-file", "", "file holding the classification prompt (default: built-in)")
	classifyCmd.Flags().String("filter-file", "", "YAML file holding the retention rule and projection (default: built-in)")
	classifyCmd.Flags().Int("max-retries", 3, "retries for transient model call failures")
	classifyCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	apiKey := secrets.Resolve("OPENAI_API_KEY", "openai-api-key", loadedSecrets)
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set: export it, add it to .env, or create .secrets/openai-api-key")
	}

	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	checkpointFile, _ := cmd.Flags().GetString("checkpoint-file")
	checkpointFreq, _ := cmd.Flags().GetInt("checkpoint-freq")
	sleep, _ := cmd.Flags().GetDuration("sleep")
	model, _ := cmd.Flags().GetString("model")
	promptFile, _ := cmd.Flags().GetString("prompt-file")
	filterFile, _ := cmd.Flags().GetString("filter-file")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if model == "" {
		model = viper.GetString("classify.model")
	}
	if model == "" {
		model = defaultModel
	}

	recs, err := records.ReadCSV(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	prompt := classify.DefaultPrompt
	if promptFile != "" {
		if prompt, err = classify.LoadPrompt(promptFile); err != nil {
			return err
		}
	}

	filter := classify.DefaultFilter()
	if filterFile != "" {
		if filter, err = classify.LoadFilter(filterFile); err != nil {
			return err
		}
	}

	cfg := types.ClassifyConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		Model:  model,
		APIKey: apiKey,
		Retry: types.RetryConfig{
			MaxRetries: maxRetries,
		},
		CheckpointFreq: checkpointFreq,
		CheckpointPath: checkpointFile,
		ResultsPath:    output,
		CallDelay:      sleep,
	}

	backend := &classify.ChatBackend{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		Prompt: prompt,
		Client: &http.Client{Timeout: cfg.Timeout},
		Retry:  cfg.Retry,
	}

	summary, err := classify.Run(context.Background(), recs, backend, filter, cfg, os.Stdout)
	if err != nil {
		return err
	}
	// Skipped records are already reported per record and in the summary
	// line; exhausting the list is a completed run.
	if summary.Failed > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d record(s) failed classification and were skipped\n", summary.Failed)
	}
	return nil
}
