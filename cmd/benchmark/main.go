// ABOUTME: Command-line benchmark runner for the RAGAS scenarios
// ABOUTME: Runs scenarios against the configured provider and writes JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/harper/ragmem/benchmarks/ragas"
	"github.com/harper/ragmem/internal/config"
	"github.com/harper/ragmem/internal/llm"
	"github.com/harper/ragmem/internal/logger"
)

func main() {
	testID := flag.String("test", "", "Run specific test ("+strings.Join(ragas.TestIDs(), ", ")+"). If empty, runs all tests.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	zlog, err := logger.NewLogger(cfg.Env, level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	provider, err := llm.New(ctx, cfg.ProviderOptions(zlog.Named("llm")))
	if err != nil {
		log.Fatalf("Failed to initialize %s provider: %v", cfg.Provider, err)
	}
	defer provider.Close()

	fmt.Println("========================================")
	fmt.Printf("ragmem RAGAS Benchmarks (%s)\n", provider.Name())
	fmt.Println("========================================")
	fmt.Println()

	runner := ragas.NewBenchmarkRunner(provider, zlog.Named("bench")).WithChunking(cfg.ChunkSize, cfg.ChunkOverlap)

	var results []ragas.TestResult
	if *testID == "" {
		fmt.Println("Running all RAGAS benchmark tests...")
		fmt.Println()
		results = runner.RunAllTests(ctx)
	} else {
		scenario, err := ragas.GetTest(*testID)
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf("Running test: %s\n\n", scenario.Name)

		result, err := runner.RunTest(ctx, scenario)
		if err != nil {
			zlog.Error("Test failed", zap.String("test_id", scenario.ID), zap.Error(err))
			os.Exit(1)
		}
		results = []ragas.TestResult{result}
	}

	summary := ragas.Summarize(results, time.Now())

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		if result.ErrorMessage != "" {
			fmt.Printf("  Error: %s\n", result.ErrorMessage)
		}
		fmt.Printf("  Faithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Printf("  Context Recall: %.2f\n", result.ContextRecallScore)
		fmt.Printf("  Memory: %.2f\n", result.MemoryScore)
		fmt.Printf("  Refusal Correct: %t\n", result.RefusalCorrect)
		fmt.Printf("  Overall: %.2f\n", result.OverallScore)
		fmt.Printf("  Status: %s\n", result.Status)
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", summary.TotalTests)
	fmt.Printf("Passed: %d\n", summary.Passed)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Println("========================================")

	if err := ragas.ExportResults(summary, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}
	fmt.Printf("✓ Results exported to: %s\n", *outputPath)

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
