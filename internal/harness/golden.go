package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tillsync/internal/model"
)

// RunWithGolden executes a scenario and compares its trace against the
// golden file testdata/golden/{scenario.Name}.golden. Assertion failures
// are reported on t independently of the golden comparison.
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}
	for _, failure := range result.Failures {
		t.Errorf("scenario %s: %s", scenario.Name, failure)
	}

	trace, err := marshalTrace(result)
	if err != nil {
		t.Fatalf("marshal trace for %s: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, trace)
}

// marshalTrace serializes a result's trace deterministically: canonical
// key ordering, then indentation for reviewable diffs.
func marshalTrace(result *Result) ([]byte, error) {
	events := make([]any, 0, len(result.Trace))
	for _, event := range result.Trace {
		m := map[string]any{
			"seq": event.Seq,
			"op":  event.Op,
		}
		if event.Fields != nil {
			m["fields"] = event.Fields
		}
		events = append(events, m)
	}
	snapshot := map[string]any{
		"scenario_name": result.ScenarioName,
		"trace":         events,
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	canonical, err := model.CanonicalJSON(raw)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, canonical, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
