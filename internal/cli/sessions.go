package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhartinger/vitacoach-go/internal/models"
)

var sessionsArchived bool

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage conversation sessions",
	Long: `List, rename, or archive conversation sessions, or erase all data
for an owner.

Examples:
  vitacoach sessions
  vitacoach sessions rename ab12cd "Morning routine planning"
  vitacoach sessions archive ab12cd
  vitacoach sessions erase`,
	RunE: runListSessions,
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a session",
	Args:  cobra.ExactArgs(2),
	RunE:  runRenameSession,
}

var sessionsArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveSession,
}

var sessionsEraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase all conversations, memories, and preferences for the owner",
	RunE:  runEraseOwner,
}

func init() {
	sessionsCmd.Flags().BoolVar(&sessionsArchived, "archived", false, "include archived sessions")
	sessionsCmd.AddCommand(sessionsRenameCmd)
	sessionsCmd.AddCommand(sessionsArchiveCmd)
	sessionsCmd.AddCommand(sessionsEraseCmd)
}

func runListSessions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sessions, err := dbClient.ListSessions(ctx, owner, sessionsArchived)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Printf("Sessions for %s (%d):\n\n", owner, len(sessions))
	for _, s := range sessions {
		title := "(untitled)"
		if s.Title != nil && *s.Title != "" {
			title = *s.Title
		}
		mark := ""
		if s.Archived {
			mark = " [archived]"
		}
		fmt.Printf("- %s  %s (%d messages)%s\n", models.MustRecordIDString(s.ID), title, s.MessageCount, mark)
		if verbose && s.Summary != nil && *s.Summary != "" {
			fmt.Printf("  %s\n", *s.Summary)
		}
	}

	return nil
}

func runRenameSession(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := dbClient.RenameSession(ctx, args[0], args[1]); err != nil {
		return fmt.Errorf("rename session: %w", err)
	}

	fmt.Printf("Session %s renamed.\n", args[0])
	return nil
}

func runArchiveSession(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := dbClient.ArchiveSession(ctx, args[0]); err != nil {
		return fmt.Errorf("archive session: %w", err)
	}

	fmt.Printf("Session %s archived.\n", args[0])
	return nil
}

func runEraseOwner(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Printf("This deletes ALL conversations, memories, and preferences for %q. Type the owner name to confirm: ", owner)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}
	if strings.TrimSpace(line) != owner {
		fmt.Println("Aborted.")
		return nil
	}

	if err := dbClient.EraseOwner(ctx, owner); err != nil {
		return fmt.Errorf("erase owner: %w", err)
	}

	fmt.Printf("All data for %s erased.\n", owner)
	return nil
}
