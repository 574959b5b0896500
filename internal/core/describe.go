package core

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/akedrou/textdiff"
)

const exclusiveHint = "Use the non-exclusive mode to ignore calls to `%s` that do not match this expectation"

// candidatesDiff renders the expected call against every recorded candidate as
// a unified diff: expected on the "-" side, candidates on the "+" side in
// ledger order.
func candidatesDiff(expected string, candidates []RecordedCall) string {
	var recorded strings.Builder

	for _, call := range candidates {
		recorded.WriteString(recordedLine(call))
		recorded.WriteByte('\n')
	}

	return textdiff.Unified("expected", "recorded", expected+"\n", recorded.String())
}

// expectedTypeLine renders an expectation that only constrains types.
func expectedTypeLine(signature string, inputType, outputType reflect.Type) string {
	return fmt.Sprintf("%s(%s) -> %s", signature, TypeName(inputType), TypeName(outputType))
}

// expectedValueLine renders an expectation on an input value.
func expectedValueLine(signature string, input any, outputType reflect.Type) string {
	return fmt.Sprintf("%s%s -> %s", signature, DescribeInput(input), TypeName(outputType))
}

func recordedLine(call RecordedCall) string {
	return fmt.Sprintf("%s%s -> %s", call.Signature, DescribeInput(call.Input), TypeName(call.OutputType))
}

// withDiff appends a diff, and the exclusive-mode hint when mode is exclusive.
func withDiff(message, diff string, mode Mode, signature string) string {
	var out strings.Builder

	out.WriteString(message)

	if diff != "" {
		out.WriteByte('\n')
		out.WriteString(strings.TrimRight(diff, "\n"))
	}

	if mode == ModeExclusive {
		out.WriteByte('\n')
		fmt.Fprintf(&out, exclusiveHint, signature)
	}

	return out.String()
}
