package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oncp/resolution-mcp/internal/client"
	"github.com/oncp/resolution-mcp/internal/config"
)

var (
	smokeHostname  string
	smokeErrorCode string
	smokeMessage   string
	smokeAttempts  int
	smokeInterval  time.Duration
)

// smokeCmd drives the full launch -> status -> analysis flow against the
// configured downstream service and exits non-zero if any step fails.
var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "End-to-end check against the downstream resolution service",
	Long: `Launches a resolution job against RESOLUTION_SERVICE_URL, polls its status
until it completes (or the attempt budget runs out), then fetches the
analysis. Intended for deployment validation.`,
	RunE: smoke,
}

func init() {
	smokeCmd.Flags().StringVar(&smokeHostname, "hostname", "smoke-test-host", "Hostname to report in the launched job")
	smokeCmd.Flags().StringVar(&smokeErrorCode, "error-code", "SMOKE_TEST", "Error code to report in the launched job")
	smokeCmd.Flags().StringVar(&smokeMessage, "message", "Smoke test issue, safe to ignore.", "Issue description for the launched job")
	smokeCmd.Flags().IntVar(&smokeAttempts, "poll-attempts", 10, "Maximum number of status polls")
	smokeCmd.Flags().DurationVar(&smokeInterval, "poll-interval", 2*time.Second, "Delay between status polls")
	rootCmd.AddCommand(smokeCmd)
}

func smoke(cmd *cobra.Command, args []string) error {
	cfg, err := config.ValidateEnv()
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	resolutionClient := client.New(client.Config{
		BaseURL: cfg.ResolutionServiceURL,
		Timeout: cfg.Timeout(),
	}, logger)
	defer resolutionClient.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	launched, err := resolutionClient.LaunchResolution(ctx, smokeHostname, smokeErrorCode, smokeMessage)
	if err != nil {
		return fmt.Errorf("launch failed: %w", err)
	}
	jobID, _ := launched["job_id"].(string)
	if jobID == "" {
		return fmt.Errorf("launch response did not include a job_id: %v", launched)
	}
	fmt.Printf("✓ launched job %s (status=%v)\n", jobID, launched["status"])

	status := ""
	for attempt := 1; attempt <= smokeAttempts; attempt++ {
		payload, err := resolutionClient.GetJobStatus(ctx, jobID)
		if err != nil {
			return fmt.Errorf("status poll %d failed: %w", attempt, err)
		}
		status, _ = payload["status"].(string)
		fmt.Printf("✓ poll %d: status=%s\n", attempt, status)
		if status == "COMPLETED" || status == "FAILED" {
			break
		}
		time.Sleep(smokeInterval)
	}
	if status != "COMPLETED" {
		return fmt.Errorf("job %s did not complete (last status %q)", jobID, status)
	}

	analysis, err := resolutionClient.GetJobAnalysis(ctx, jobID)
	if err != nil {
		return fmt.Errorf("analysis fetch failed: %w", err)
	}
	fmt.Printf("✓ analysis: %v\n", analysis["thoughts"])

	return nil
}
