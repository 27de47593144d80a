// Package assembler builds the token-budgeted textual context injected into
// the coaching prompt from tiered wellness data, memories, and the
// conversation summary.
package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jhartinger/vitacoach-go/internal/config"
	"github.com/jhartinger/vitacoach-go/internal/wellness"
)

// Part names used in diagnostics.
const (
	PartTier1        = "tier1"
	PartTier2        = "tier2"
	PartMemories     = "memories"
	PartConversation = "conversation"
)

// EstimateTokens approximates the model-token cost of a string. The default
// is a character-count heuristic, pluggable so a real tokenizer can be
// swapped in.
type EstimateTokens func(text string) int

// DefaultEstimate approximates tokens as len/4.
func DefaultEstimate(text string) int {
	return len(text) / 4
}

// Summary is the per-build diagnostic record.
type Summary struct {
	PartTokens map[string]int `json:"part_tokens"`
	Included   []string       `json:"included"`
	Dropped    []string       `json:"dropped"`
	Trimmed    []string       `json:"trimmed"`
	// UnderTotal reports whether the sum of included parts stayed under the
	// advisory total ceiling. The total is never enforced: per-part
	// decisions stand even when their sum exceeds it.
	UnderTotal  bool `json:"under_total"`
	TotalTokens int  `json:"total_tokens"`
}

// Context is the assembled result handed to the orchestrator.
type Context struct {
	// Text is Tier1 + Tier2 + memories + conversation summary, trimmed per
	// budget, joined with blank lines in that fixed order.
	Text string
	// The individual parts after budget decisions, empty when dropped.
	// The prompt composer consumes these separately.
	Tier1        string
	Tier2        string
	Memories     string
	Conversation string
	// HealthWarnings holds the fasting-safety block. Budget-exempt: it is
	// never trimmed or dropped, and empty when the owner's profile is clear.
	HealthWarnings string
	Summary        Summary
}

// Assembler builds contexts under a configured budget.
type Assembler struct {
	reader   wellness.Reader
	budgets  config.Budgets
	estimate EstimateTokens
	logger   *slog.Logger
}

// New creates an assembler with the default token estimator.
func New(reader wellness.Reader, budgets config.Budgets, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		reader:   reader,
		budgets:  budgets,
		estimate: DefaultEstimate,
		logger:   logger,
	}
}

// WithEstimator replaces the token estimation strategy.
func (a *Assembler) WithEstimator(fn EstimateTokens) *Assembler {
	a.estimate = fn
	return a
}

// Build assembles the context for one turn. Collaborator read failures
// degrade to missing lines; Build itself cannot fail.
func (a *Assembler) Build(ctx context.Context, owner string, queryTypes []string, memoriesText, conversationSummary string) Context {
	summary := Summary{PartTokens: map[string]int{}}

	tier1 := a.buildTier1(ctx, owner)
	tier2 := a.buildTier2(ctx, owner, queryTypes)

	var parts []string

	// Tier 1 is always included; over budget it is hard-truncated to the
	// ceiling in characters rather than dropped.
	t1Tokens := a.estimate(tier1)
	summary.PartTokens[PartTier1] = t1Tokens
	if t1Tokens > a.budgets.Tier1 {
		tier1 = tier1[:a.budgets.Tier1]
		summary.Trimmed = append(summary.Trimmed, PartTier1)
	}
	parts = append(parts, tier1)
	summary.Included = append(summary.Included, PartTier1)

	out := Context{Tier1: tier1}

	// Tier 2, memories, and the conversation summary are whole-or-nothing.
	for _, p := range []struct {
		name   string
		text   string
		budget int
		dst    *string
	}{
		{PartTier2, tier2, a.budgets.Tier2, &out.Tier2},
		{PartMemories, memoriesText, a.budgets.Memories, &out.Memories},
		{PartConversation, conversationSummary, a.budgets.Conversation, &out.Conversation},
	} {
		if p.text == "" {
			continue
		}
		tokens := a.estimate(p.text)
		summary.PartTokens[p.name] = tokens
		if tokens > p.budget {
			summary.Dropped = append(summary.Dropped, p.name)
			a.logger.Debug("context part dropped", "part", p.name, "tokens", tokens, "budget", p.budget)
			continue
		}
		parts = append(parts, p.text)
		summary.Included = append(summary.Included, p.name)
		*p.dst = p.text
	}

	text := strings.Join(parts, "\n\n")
	summary.TotalTokens = a.estimate(text)
	summary.UnderTotal = summary.TotalTokens <= a.budgets.Total
	if !summary.UnderTotal {
		a.logger.Debug("context exceeds advisory total", "tokens", summary.TotalTokens, "total_budget", a.budgets.Total)
	}

	out.Text = text
	out.HealthWarnings = a.buildHealth(ctx, owner)
	out.Summary = summary
	return out
}

// buildTier1 renders the always-loaded status lines.
func (a *Assembler) buildTier1(ctx context.Context, owner string) string {
	var lines []string
	lines = append(lines, "Current status:")

	if fs, err := a.reader.FastingStatus(ctx, owner); err != nil {
		a.logger.Warn("fasting status unavailable", "owner", owner, "error", err)
	} else if fs.IsActive {
		lines = append(lines, fmt.Sprintf("- Fasting: %.1fh elapsed of %.0fh (%s)", fs.ElapsedHours, fs.TargetHours, fs.Protocol))
	} else {
		lines = append(lines, "- Fasting: in eating window")
	}

	if ws, err := a.reader.WorkoutStats(ctx, owner); err != nil {
		a.logger.Warn("workout stats unavailable", "owner", owner, "error", err)
	} else {
		lines = append(lines, fmt.Sprintf("- Workouts today: %d", ws.TodayCount))
	}

	if streaks, err := a.reader.Streaks(ctx, owner); err != nil {
		a.logger.Warn("streaks unavailable", "owner", owner, "error", err)
	} else {
		for _, s := range streaks {
			if s.Count > 0 {
				lines = append(lines, fmt.Sprintf("- %s streak: %d days", s.Name, s.Count))
			}
		}
	}

	if lvl, err := a.reader.Level(ctx, owner); err != nil {
		a.logger.Warn("level unavailable", "owner", owner, "error", err)
	} else if lvl.Level > 0 {
		lines = append(lines, fmt.Sprintf("- Level %d (%s)", lvl.Level, lvl.Title))
	}

	return strings.Join(lines, "\n")
}

// buildTier2 renders one fact block per selected query type.
// Types with no mapped fact source are skipped.
func (a *Assembler) buildTier2(ctx context.Context, owner string, queryTypes []string) string {
	var blocks []string

	for _, qt := range queryTypes {
		switch qt {
		case "workout":
			ws, err := a.reader.WorkoutStats(ctx, owner)
			if err != nil {
				a.logger.Warn("tier2 workout stats unavailable", "owner", owner, "error", err)
				continue
			}
			block := fmt.Sprintf("This week: %d workouts, %d minutes", ws.WeekCount, ws.WeekMinutes)
			if ws.FavoriteType != "" {
				block += fmt.Sprintf(" (favorite: %s)", ws.FavoriteType)
			}
			if rec, err := a.reader.WorkoutRecommendation(ctx, owner); err == nil && rec.Name != "" {
				block += fmt.Sprintf("\nNext suggested session: %s (%s, %d min)", rec.Name, rec.Focus, rec.DurationMinutes)
			}
			blocks = append(blocks, block)

		case "progress":
			wt, err := a.reader.WeightTrend(ctx, owner)
			if err != nil {
				a.logger.Warn("tier2 weight trend unavailable", "owner", owner, "error", err)
				continue
			}
			if wt.CurrentKg > 0 {
				blocks = append(blocks, fmt.Sprintf("Weight: %.1f kg, %+.1f kg over 30 days (%s)", wt.CurrentKg, wt.ChangeKg30d, wt.Direction))
			}

		case "biometrics":
			markers, err := a.reader.Biomarkers(ctx, owner)
			if err != nil {
				a.logger.Warn("tier2 biomarkers unavailable", "owner", owner, "error", err)
				continue
			}
			var lines []string
			for _, m := range markers {
				line := fmt.Sprintf("- %s: %.1f %s", m.Marker, m.Value, m.Unit)
				if m.Trend != "" {
					line += " (" + m.Trend + ")"
				}
				lines = append(lines, line)
			}
			if len(lines) > 0 {
				blocks = append(blocks, "Latest biomarkers:\n"+strings.Join(lines, "\n"))
			}

		case "recovery":
			rs, err := a.reader.RecoveryScore(ctx, owner)
			if err != nil {
				a.logger.Warn("tier2 recovery unavailable", "owner", owner, "error", err)
				continue
			}
			if rs.Score > 0 {
				blocks = append(blocks, fmt.Sprintf("Recovery score: %d (%s)", rs.Score, rs.Status))
			}
		}
	}

	return strings.Join(blocks, "\n\n")
}

// buildHealth renders the fasting-safety block, empty when the profile is
// clear. Never budget-trimmed.
func (a *Assembler) buildHealth(ctx context.Context, owner string) string {
	check, err := a.reader.FastingSafety(ctx, owner)
	if err != nil {
		a.logger.Warn("fasting safety check unavailable", "owner", owner, "error", err)
		return ""
	}
	if check.Safe && len(check.Warnings) == 0 {
		return ""
	}

	var lines []string
	if !check.Safe {
		lines = append(lines, "Fasting is NOT currently considered safe for this user.")
	}
	for _, w := range check.Warnings {
		lines = append(lines, "- "+w)
	}
	return strings.Join(lines, "\n")
}
