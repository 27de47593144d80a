package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"

	"github.com/jhartinger/vitacoach-go/internal/wellness"
)

// noArgsSchema is the parameter schema shared by all retrieval tools: they
// operate on the turn's owner, so the model passes nothing.
var noArgsSchema = map[string]any{
	"type":       "object",
	"properties": map[string]any{},
}

// toolset binds the retrieval tools for one turn's owner. Every call is
// guarded: a collaborator failure becomes a degraded payload the model can
// read, never an aborted turn.
type toolset struct {
	reader   wellness.Reader
	memories MemorySource
	owner    string
	logger   *slog.Logger
}

func def(name, description string) llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  noArgsSchema,
		},
	}
}

func (t *toolset) definitions() []llms.Tool {
	return []llms.Tool{
		def("get_fasting_status", "Current fast or eating-window status for the user."),
		def("get_streaks", "The user's active activity streaks."),
		def("get_level", "The user's level, title, and XP."),
		def("get_workout_stats", "Workout counts and minutes for today and this week."),
		def("get_workout_recommendation", "The next suggested workout session."),
		def("get_weight_trend", "Current weight and 30-day trend."),
		def("get_biomarkers", "Latest biomarker readings and trends."),
		def("get_recovery_score", "Composite recovery/readiness score."),
		def("get_user_memories", "Stored facts, preferences, goals, and constraints about the user."),
	}
}

// call executes one tool. The only error it returns is ToolSchemaError for
// a tool name the model invented; everything else degrades in-band.
func (t *toolset) call(ctx context.Context, name string) (string, error) {
	var (
		result any
		err    error
	)

	switch name {
	case "get_fasting_status":
		result, err = t.reader.FastingStatus(ctx, t.owner)
	case "get_streaks":
		result, err = t.reader.Streaks(ctx, t.owner)
	case "get_level":
		result, err = t.reader.Level(ctx, t.owner)
	case "get_workout_stats":
		result, err = t.reader.WorkoutStats(ctx, t.owner)
	case "get_workout_recommendation":
		result, err = t.reader.WorkoutRecommendation(ctx, t.owner)
	case "get_weight_trend":
		result, err = t.reader.WeightTrend(ctx, t.owner)
	case "get_biomarkers":
		result, err = t.reader.Biomarkers(ctx, t.owner)
	case "get_recovery_score":
		result, err = t.reader.RecoveryScore(ctx, t.owner)
	case "get_user_memories":
		var mems []string
		if records, merr := t.memories.ForSkills(ctx, t.owner, nil); merr != nil {
			err = merr
		} else {
			for _, m := range records {
				mems = append(mems, m.Content)
			}
			result = mems
		}
	default:
		return "", &ToolSchemaError{Tool: name, Err: fmt.Errorf("not a registered tool")}
	}

	if err != nil {
		t.logger.Warn("tool degraded", "tool", name, "owner", t.owner, "error", err)
		return degradedPayload(err), nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return degradedPayload(err), nil
	}
	return string(data), nil
}

func degradedPayload(err error) string {
	data, _ := json.Marshal(map[string]any{
		"error":     err.Error(),
		"is_active": false,
	})
	return string(data)
}
