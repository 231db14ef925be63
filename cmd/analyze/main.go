// Package main provides a one-shot analyzer for a file of match snapshots.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/goal-edge/internal/config"
	"github.com/yourusername/goal-edge/internal/engine"
	"github.com/yourusername/goal-edge/internal/models"
	"github.com/yourusername/goal-edge/internal/ratings"
)

var (
	configFile    string
	snapshotsFile string
	jsonOutput    bool
	refreshFirst  bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file")
	rootCmd.Flags().StringVarP(&snapshotsFile, "snapshots", "f", "-", "Path to snapshots JSON file ('-' for stdin)")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit recommendations as JSON")
	rootCmd.Flags().BoolVar(&refreshFirst, "refresh-ratings", false, "Refresh team ratings before analyzing")
}

var rootCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a set of live match snapshots once",
	Long: `Reads match snapshots from a JSON file (or stdin), runs the goal model
over every priced market and prints the resulting bet recommendations.`,
	RunE: runAnalyze,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLog := logrus.New()
	appLog.SetLevel(logrus.WarnLevel)

	snapshots, err := readSnapshots(snapshotsFile)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		return fmt.Errorf("no snapshots to analyze")
	}

	store := ratings.NewStore()
	if refreshFirst {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		fetcher := ratings.NewFetcher(store, &cfg.Ratings, appLog)
		if err := fetcher.Refresh(ctx); err != nil {
			appLog.WithError(err).Warn("Ratings refresh failed, analyzing with defaults")
		}
	}

	eng := engine.New(store, &cfg.Model, &cfg.Betting, appLog)
	results := eng.BatchAnalyze(context.Background(), snapshots)

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(results)
	}

	printResults(results)
	return nil
}

func readSnapshots(path string) ([]models.MatchSnapshot, error) {
	var reader io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshots file: %w", err)
		}
		defer f.Close()
		reader = f
	}

	var snapshots []models.MatchSnapshot
	if err := json.NewDecoder(reader).Decode(&snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode snapshots: %w", err)
	}

	return snapshots, nil
}

func printResults(results map[string][]*models.BetRecommendation) {
	if len(results) == 0 {
		fmt.Println("No value bets found.")
		return
	}

	keys := make([]string, 0, len(results))
	for key := range results {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		recs := results[key]
		first := recs[0]
		fmt.Printf("\n%s vs %s (predicted %s)\n", first.HomeTeam, first.AwayTeam, first.PredictedScore)

		for _, rec := range recs {
			marker := " "
			if rec.AutoBettable {
				marker = "*"
			}
			fmt.Printf("  %s %-14s @ %.2f  p=%.3f  edge=%+.3f  conf=%.0f (%s)  stake=%.0f\n",
				marker, rec.MarketLabel, rec.Odds, rec.ModelProbability,
				rec.Edge, rec.Confidence, rec.ConfidenceLabel, rec.RecommendedStake)
			for _, warning := range rec.Warnings {
				fmt.Printf("      ! %s\n", warning)
			}
		}
	}

	fmt.Println("\n* auto-bettable")
}
