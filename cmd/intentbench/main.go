// intentbench runs banking intent classification against a configured
// text-generation service: batch evaluation of a labeled CSV, or a quick
// smoke test of a handful of utterances.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mathanleo/Mashreq/adapters"
	"github.com/Mathanleo/Mashreq/batch"
	"github.com/Mathanleo/Mashreq/classifier"
	"github.com/Mathanleo/Mashreq/clients/azurechat"
	"github.com/Mathanleo/Mashreq/config"
)

var (
	configPath string
	inputPath  string
	outputPath string
)

func main() {
	// .env is optional; config.yaml plus env vars is a valid setup
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "intentbench",
		Short:         "Two-stage banking intent classification and batch evaluation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config.yaml")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Classify a labeled CSV and write the evaluation report",
		RunE:  runBatch,
	}
	runCmd.Flags().StringVar(&inputPath, "input", "", "input CSV with utterance and expected_intent columns")
	runCmd.Flags().StringVar(&outputPath, "output", "", "output CSV location")
	runCmd.MarkFlagRequired("input")
	runCmd.MarkFlagRequired("output")

	smokeCmd := &cobra.Command{
		Use:   "smoke-test",
		Short: "Classify a few canned utterances to verify endpoint and credentials",
		RunE:  runSmokeTest,
	}

	root.AddCommand(runCmd, smokeCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup wires config, logger, taxonomy, gateway and pipeline for a run.
func setup() (*config.Config, *zap.Logger, *classifier.Pipeline, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, nil, err
	}

	tax, err := cfg.BuildTaxonomy()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid taxonomy: %w", err)
	}

	client := azurechat.NewClient(azurechat.Config{
		Endpoint: cfg.Service.Endpoint,
		Auth: azurechat.TokenConfig{
			TokenURL:     cfg.Auth.TokenURL,
			Scope:        cfg.Auth.Scope,
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			StaticToken:  cfg.Auth.StaticToken,
			CacheToken:   cfg.Auth.CacheToken,
		},
		XUserID:            cfg.Service.XUserID,
		Timeout:            cfg.Timeout(),
		InsecureSkipVerify: cfg.Service.InsecureSkipVerify,
	})
	client.Log = logger.Sugar().Infof

	gateway := adapters.NewChatGateway(client, adapters.GatewayConfig{
		Model:       cfg.Service.Model,
		MaxTokens:   cfg.Service.MaxTokens,
		Temperature: cfg.Service.Temperature,
	}, logger)

	rc := classifier.NewRunContext(tax, classifier.Options{
		MinConfidence:  cfg.Routing.MinConf,
		TieDelta:       cfg.Routing.TieDelta,
		TopK:           cfg.Routing.TopK,
		IntentMinScore: cfg.Routing.IntentMinConf,
	}, logger)

	return cfg, logger, classifier.NewPipeline(rc, gateway), nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, logger, pipeline, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	records, err := batch.LoadDataset(inputPath)
	if err != nil {
		return err
	}
	logger.Info("starting batch evaluation",
		zap.Int("records", len(records)),
		zap.Int("chunk_size", cfg.Batch.ChunkSize),
		zap.Int("max_threads", cfg.Batch.MaxThreads))

	scheduler := batch.NewScheduler(pipeline, batch.Options{
		ChunkSize:           cfg.Batch.ChunkSize,
		MaxConcurrency:      cfg.Batch.MaxThreads,
		IntentMinConfidence: cfg.Routing.IntentMinConf,
	}, logger)

	start := time.Now()
	results, err := scheduler.Run(context.Background(), records)
	if err != nil {
		return err
	}
	duration := time.Since(start)

	if err := batch.WriteResults(outputPath, results); err != nil {
		return err
	}
	logger.Info("output saved", zap.String("path", outputPath))

	summary := batch.BuildSummary(results, duration)
	summaryPath, err := batch.SaveSummary(".", summary)
	if err != nil {
		return err
	}

	confusionPath := "confusion_matrix.csv"
	if err := batch.WriteConfusionCSV(confusionPath, batch.ComputeConfusion(results)); err != nil {
		return err
	}

	fmt.Println("Batch classification complete")
	fmt.Println("  Output CSV:      ", outputPath)
	fmt.Println("  Metrics:         ", summaryPath)
	fmt.Println("  Confusion matrix:", confusionPath)
	fmt.Printf("  Verdicts:         %d PASS / %d FAIL / %d REVIEW (%d errors)\n",
		summary.Passed, summary.Failed, summary.Review, summary.Errors)
	return nil
}

var smokeUtterances = []string{
	"I lost my card",
	"What is my account balance?",
	"I want to transfer money to my friend",
}

func runSmokeTest(cmd *cobra.Command, args []string) error {
	_, logger, pipeline, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	for _, u := range smokeUtterances {
		result, err := pipeline.Classify(ctx, u)
		if err != nil {
			return fmt.Errorf("smoke test failed on %q: %w", u, err)
		}
		intent := "<no match>"
		if result.TopIntent != nil {
			intent = fmt.Sprintf("%s (%.2f)", result.TopIntent.Intent, result.TopIntent.Score)
		}
		fmt.Printf("%-45q -> %s [%d tokens, %.3fs + %.3fs]\n",
			u, intent, result.Usage.Total, result.GroupSeconds, result.IntentSeconds)
	}

	fmt.Println("Smoke test passed")
	return nil
}
