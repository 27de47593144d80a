package coach

import (
	"errors"
	"fmt"
	"strings"
)

// Apology is the terminal response when both the primary call and the
// tool-less retry fail. Exactly this string, no internal detail.
const Apology = "I'm sorry, something went wrong on my end. Please try again in a moment."

// ToolSchemaError marks a failure in tool invocation or tool-schema
// validation. The generation loop raises it itself where it can tell; for
// provider errors that arrive untyped, the substring heuristic below takes
// over.
type ToolSchemaError struct {
	Tool string
	Err  error
}

func (e *ToolSchemaError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("tool %q: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("tool invocation: %v", e.Err)
}

func (e *ToolSchemaError) Unwrap() error { return e.Err }

// toolErrorSignatures are matched case-insensitively against provider error
// text. Provider-dependent and fragile, which is why the typed error is
// checked first.
var toolErrorSignatures = []string{
	"tool_use_failed",
	"tool call validation",
	"invalid tool call",
	"invalid tool input",
	"does not match the schema",
	"function call arguments",
	"unknown tool",
	"malformed tool",
}

// isToolSchemaError reports whether err warrants the one tool-less retry.
func isToolSchemaError(err error) bool {
	var tse *ToolSchemaError
	if errors.As(err, &tse) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range toolErrorSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
