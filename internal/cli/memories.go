package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhartinger/vitacoach-go/internal/models"
)

var memoriesAll bool

var memoriesCmd = &cobra.Command{
	Use:   "memories",
	Short: "Inspect and manage stored memories",
	Long: `List, verify, or forget the long-term memories stored for an owner.

Examples:
  vitacoach memories
  vitacoach memories --all
  vitacoach memories verify ab12cd
  vitacoach memories forget ab12cd`,
	RunE: runListMemories,
}

var memoriesVerifyCmd = &cobra.Command{
	Use:   "verify <id>",
	Short: "Mark a memory as user-verified",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerifyMemory,
}

var memoriesForgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Deactivate a memory",
	Args:  cobra.ExactArgs(1),
	RunE:  runForgetMemory,
}

func init() {
	memoriesCmd.Flags().BoolVar(&memoriesAll, "all", false, "include deactivated memories")
	memoriesCmd.AddCommand(memoriesVerifyCmd)
	memoriesCmd.AddCommand(memoriesForgetCmd)
}

func runListMemories(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	memories, err := dbClient.ListMemories(ctx, owner, !memoriesAll)
	if err != nil {
		return fmt.Errorf("list memories: %w", err)
	}

	if len(memories) == 0 {
		fmt.Println("No memories stored.")
		return nil
	}

	fmt.Printf("Memories for %s (%d):\n\n", owner, len(memories))
	for _, m := range memories {
		marks := ""
		if m.Verified {
			marks += " [verified]"
		}
		if !m.Active {
			marks += " [inactive]"
		}
		fmt.Printf("- [%s/%s] %s%s\n", m.Kind, m.Category, m.Content, marks)
		if verbose {
			fmt.Printf("  id: %s  confidence: %.2f\n", models.MustRecordIDString(m.ID), m.Confidence)
		}
	}

	return nil
}

func runVerifyMemory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := dbClient.VerifyMemory(ctx, args[0]); err != nil {
		return fmt.Errorf("verify memory: %w", err)
	}

	fmt.Printf("Memory %s verified.\n", args[0])
	return nil
}

func runForgetMemory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := dbClient.DeactivateMemory(ctx, args[0]); err != nil {
		return fmt.Errorf("forget memory: %w", err)
	}

	fmt.Printf("Memory %s forgotten.\n", args[0])
	return nil
}
