package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a sequence of engine
// operations with scripted backend responses and final-state assertions.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Online sets the engine's initial connectivity. Defaults to offline,
	// which is the regime most scenarios exercise.
	Online bool `yaml:"online,omitempty"`

	// Responses scripts the backend. Each entry is consumed once, matched
	// by method and endpoint in order of appearance.
	Responses []ResponseStep `yaml:"responses,omitempty"`

	// Steps is the main flow. Each step invokes one engine operation.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final store and queue state.
	Assertions []Assertion `yaml:"assertions"`
}

// ResponseStep scripts one backend reply.
type ResponseStep struct {
	Method   string `yaml:"method"`
	Endpoint string `yaml:"endpoint"`

	// Body is the JSON response object. Ignored when Error is set.
	Body map[string]any `yaml:"body,omitempty"`

	// Error makes the request fail with this message.
	Error string `yaml:"error,omitempty"`
}

// Step op names.
const (
	StepSaveOrder            = "save_order"
	StepUpdateStatus         = "update_status"
	StepUpdateDeliveryStatus = "update_delivery_status"
	StepMarkPaid             = "mark_paid"
	StepCancelOrder          = "cancel_order"
	StepSetOnline            = "set_online"
	StepReplay               = "replay"
	StepQueueSnapshot        = "queue_snapshot"
)

// Step is one engine operation in a scenario flow.
type Step struct {
	// Op selects the operation. See the Step* constants.
	Op string `yaml:"op"`

	// Order is the order payload for save_order. Both naming conventions
	// are accepted, same as at the real boundary.
	Order map[string]any `yaml:"order,omitempty"`

	// OrderNumber selects the target order for status operations.
	// Order numbers are stable across the offline-to-server id swap,
	// which minted OFFLINE ids are not.
	OrderNumber string `yaml:"order_number,omitempty"`

	// Status is the target status for update_status / update_delivery_status.
	Status string `yaml:"status,omitempty"`

	// Force bypasses the backward-move check on status operations.
	Force bool `yaml:"force,omitempty"`

	// Online is the connectivity value for set_online.
	Online bool `yaml:"online,omitempty"`

	// ExpectError inverts the step's error handling: the step must fail,
	// and its error message is recorded in the trace.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalOrder    = "final_order"
	AssertQueueCount    = "queue_count"
	AssertOrderCount    = "order_count"
	AssertTraceContains = "trace_contains"
)

// Assertion validates final state or the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// OrderNumber selects the order for final_order.
	OrderNumber string `yaml:"order_number,omitempty"`

	// Expect are expected order fields (subset match) for final_order.
	// Field names match trace field names (order_status, synced, ...).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Status selects the queue bucket (pending or failed) for queue_count.
	Status string `yaml:"status,omitempty"`

	// Count is the expected size for queue_count and order_count.
	Count int `yaml:"count,omitempty"`

	// Op is the expected step op for trace_contains.
	Op string `yaml:"op,omitempty"`

	// Fields are expected trace event fields (subset match) for
	// trace_contains.
	Fields map[string]any `yaml:"fields,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so a typo fails loudly instead of silently skipping a check.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, r := range s.Responses {
		if r.Method == "" || r.Endpoint == "" {
			return fmt.Errorf("responses[%d]: method and endpoint are required", i)
		}
		if r.Body != nil && r.Error != "" {
			return fmt.Errorf("responses[%d]: body and error are mutually exclusive", i)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step) error {
	switch step.Op {
	case StepSaveOrder:
		if step.Order == nil {
			return fmt.Errorf("steps[%d]: order is required for save_order", index)
		}
	case StepUpdateStatus, StepUpdateDeliveryStatus:
		if step.OrderNumber == "" {
			return fmt.Errorf("steps[%d]: order_number is required for %s", index, step.Op)
		}
		if step.Status == "" {
			return fmt.Errorf("steps[%d]: status is required for %s", index, step.Op)
		}
	case StepMarkPaid, StepCancelOrder:
		if step.OrderNumber == "" {
			return fmt.Errorf("steps[%d]: order_number is required for %s", index, step.Op)
		}
	case StepSetOnline, StepReplay, StepQueueSnapshot:
		// No required arguments.
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertFinalOrder:
		if a.OrderNumber == "" {
			return fmt.Errorf("assertions[%d]: order_number is required for final_order", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_order", index)
		}
	case AssertQueueCount:
		if a.Status != "pending" && a.Status != "failed" {
			return fmt.Errorf("assertions[%d]: status must be pending or failed for queue_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertOrderCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
