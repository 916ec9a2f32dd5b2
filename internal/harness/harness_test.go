package harness

import (
	"path/filepath"
	"testing"
)

// TestScenarios runs every scenario under testdata/scenarios against its
// golden trace.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	if err != nil {
		t.Fatalf("glob scenarios: %v", err)
	}
	if len(paths) == 0 {
		t.Fatal("no scenario files found")
	}

	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			if err != nil {
				t.Fatalf("load %s: %v", path, err)
			}
			RunWithGolden(t, scenario)
		})
	}
}

func TestRunIsolation(t *testing.T) {
	scenario := &Scenario{
		Name:        "isolation",
		Description: "two runs of the same scenario see independent state",
		Steps: []Step{
			{Op: StepSaveOrder, Order: map[string]any{
				"orderNumber": "901",
				"orderType":   "takeout",
				"totalAmount": 500,
			}},
		},
		Assertions: []Assertion{
			{Type: AssertOrderCount, Count: 1},
			{Type: AssertQueueCount, Status: "pending", Count: 1},
		},
	}

	for i := 0; i < 2; i++ {
		result, err := Run(scenario)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if !result.Passed {
			t.Fatalf("run %d failed: %v", i, result.Failures)
		}
	}
}

func TestRunRecordsAssertionFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing-assertion",
		Description: "a wrong expectation surfaces as a failure, not an error",
		Steps: []Step{
			{Op: StepSaveOrder, Order: map[string]any{
				"orderNumber": "902",
				"orderType":   "takeout",
			}},
		},
		Assertions: []Assertion{
			{Type: AssertFinalOrder, OrderNumber: "902", Expect: map[string]any{
				"synced": true,
			}},
		},
	}

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Passed {
		t.Fatal("expected the assertion to fail")
	}
	if len(result.Failures) != 1 {
		t.Fatalf("failures = %v, want exactly one", result.Failures)
	}
}
