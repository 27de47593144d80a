package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhartinger/vitacoach-go/internal/client"
	"github.com/jhartinger/vitacoach-go/internal/metrics"
)

var statsServer string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show runtime statistics of a running server",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsServer, "server", "", "server URL (default VITACOACH_SERVER_URL or localhost:8474)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap, err := client.New(statsServer).Stats(ctx)
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}

	fmt.Printf("Uptime: %s\n\n", (time.Duration(snap.UptimeSeconds) * time.Second).String())
	printOp("Turns", snap.Turn)
	printOp("LLM generate", snap.LLMGenerate)
	printOp("LLM stream", snap.LLMStream)
	printOp("Memory extraction", snap.MemoryExtract)
	printOp("DB queries", snap.DBQuery)
	return nil
}

func printOp(label string, op *metrics.OperationSnapshot) {
	if op == nil || op.Count == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	fmt.Printf("  count: %d  avg: %.1fms  max: %dms\n", op.Count, op.AvgTimeMs, op.MaxTimeMs)
	if op.TotalInputTokens != nil && op.TotalOutputTokens != nil {
		fmt.Printf("  tokens in/out: %d/%d\n", *op.TotalInputTokens, *op.TotalOutputTokens)
	}
	fmt.Println()
}
