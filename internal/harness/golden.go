package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result for golden comparison: a short header with the
// outcome followed by the operator transcript.
func Snapshot(scenarioName string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# scenario: %s\n", scenarioName)
	fmt.Fprintf(&b, "# outcome: %s", result.Outcome)
	if result.Kind != "" {
		fmt.Fprintf(&b, " (%s)", result.Kind)
	}
	b.WriteString("\n")
	b.WriteString(result.Transcript)
	return []byte(b.String())
}

// RunWithGolden runs a scenario in a fresh temp directory and compares its
// snapshot with testdata/golden/<name>.golden. Run with -update to rewrite
// the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, t.TempDir())
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares a result's snapshot with its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
