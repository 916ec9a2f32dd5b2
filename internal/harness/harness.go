package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/roach88/tillsync/internal/broadcast"
	"github.com/roach88/tillsync/internal/engine"
	"github.com/roach88/tillsync/internal/model"
	"github.com/roach88/tillsync/internal/queue"
	"github.com/roach88/tillsync/internal/store"
	"github.com/roach88/tillsync/internal/testutil"
)

// Harness executes one scenario against a fresh engine stack.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	client *testutil.ScriptedClient
	result *Result

	// ids maps minted OFFLINE ids to stable placeholders in order of
	// first appearance, so traces stay deterministic.
	ids map[string]string
}

var mintedIDPattern = regexp.MustCompile(`OFFLINE-\d+-[a-z0-9]+`)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. The broadcast bus has
// no redis behind it and degrades to inert, which is itself the degradation
// path the engine must tolerate.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory store: %w", err)
	}
	defer st.Close()

	client := testutil.NewScriptedClient()
	for _, r := range scenario.Responses {
		resp := testutil.Response{}
		if r.Error != "" {
			resp.Err = errors.New(r.Error)
		} else {
			body, err := json.Marshal(r.Body)
			if err != nil {
				return nil, fmt.Errorf("marshal scripted response body: %w", err)
			}
			resp.Body = body
		}
		client.Script(r.Method, r.Endpoint, resp)
	}

	bus := broadcast.New("", "tillsync-harness")
	defer bus.Close()

	eng := engine.New(st, queue.New(st), bus, client, engine.WithStabilizationDelay(0))
	eng.SetOnline(scenario.Online)

	h := &Harness{
		store:  st,
		engine: eng,
		client: client,
		result: NewResult(scenario.Name),
		ids:    make(map[string]string),
	}

	ctx := context.Background()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, step); err != nil {
			return nil, fmt.Errorf("steps[%d] %s: %w", i, step.Op, err)
		}
	}

	h.evaluateAssertions(ctx, scenario.Assertions)
	return h.result, nil
}

// executeStep runs one step and records its trace event. The returned
// error is infrastructural (unknown op, broken lookup); domain errors from
// the engine are part of the observed behavior and land in the trace.
func (h *Harness) executeStep(ctx context.Context, step Step) error {
	switch step.Op {
	case StepSaveOrder:
		raw, err := json.Marshal(step.Order)
		if err != nil {
			return fmt.Errorf("marshal order: %w", err)
		}
		o, err := model.DecodeOrder(raw)
		if err != nil {
			return err
		}
		saved, err := h.engine.SaveOrder(ctx, o)
		return h.recordOrderStep(step, saved, err)

	case StepUpdateStatus:
		o, err := h.target(ctx, step.OrderNumber)
		if err != nil {
			return err
		}
		updated, err := h.engine.UpdateOrderStatus(ctx, o.ID, model.OrderStatus(step.Status), step.Force)
		return h.recordOrderStep(step, updated, err)

	case StepUpdateDeliveryStatus:
		o, err := h.target(ctx, step.OrderNumber)
		if err != nil {
			return err
		}
		updated, err := h.engine.UpdateDeliveryStatus(ctx, o.ID, model.DeliveryStatus(step.Status), step.Force)
		return h.recordOrderStep(step, updated, err)

	case StepMarkPaid:
		o, err := h.target(ctx, step.OrderNumber)
		if err != nil {
			return err
		}
		updated, err := h.engine.MarkAsPaid(ctx, o.ID)
		return h.recordOrderStep(step, updated, err)

	case StepCancelOrder:
		o, err := h.target(ctx, step.OrderNumber)
		if err != nil {
			return err
		}
		updated, err := h.engine.CancelOrder(ctx, o.ID)
		return h.recordOrderStep(step, updated, err)

	case StepSetOnline:
		h.engine.SetOnline(step.Online)
		h.record(step.Op, map[string]any{"online": step.Online})
		return nil

	case StepReplay:
		report, err := h.engine.Replay(ctx)
		if err != nil {
			return err
		}
		h.record(step.Op, map[string]any{
			"attempted": report.Attempted,
			"succeeded": report.Succeeded,
			"failed":    report.Failed,
			"skipped":   report.Skipped,
		})
		return nil

	case StepQueueSnapshot:
		pending, err := h.engine.ListPendingOperations(ctx)
		if err != nil {
			return err
		}
		failed, err := h.engine.ListFailedOperations(ctx)
		if err != nil {
			return err
		}
		h.record(step.Op, map[string]any{
			"pending": h.operationList(pending),
			"failed":  h.operationList(failed),
		})
		return nil

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

// target resolves a step's order by its order number.
func (h *Harness) target(ctx context.Context, orderNumber string) (model.Order, error) {
	o, err := h.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return model.Order{}, fmt.Errorf("order %q: %w", orderNumber, err)
	}
	return o, nil
}

// recordOrderStep traces an order-returning step, honoring expect_error.
func (h *Harness) recordOrderStep(step Step, o model.Order, err error) error {
	if step.ExpectError {
		if err == nil {
			h.result.Fail("step %s: expected an error, got none", step.Op)
			h.record(step.Op, h.orderFields(o))
			return nil
		}
		fields := map[string]any{"error": h.normalize(err.Error())}
		if step.OrderNumber != "" {
			fields["order_number"] = step.OrderNumber
		}
		h.record(step.Op, fields)
		return nil
	}
	if err != nil {
		h.result.Fail("step %s: %v", step.Op, err)
		h.record(step.Op, map[string]any{"error": h.normalize(err.Error())})
		return nil
	}
	h.record(step.Op, h.orderFields(o))
	return nil
}

func (h *Harness) record(op string, fields map[string]any) {
	h.result.Trace = append(h.result.Trace, TraceEvent{
		Seq:    len(h.result.Trace) + 1,
		Op:     op,
		Fields: fields,
	})
}

// normalize replaces minted OFFLINE ids with stable placeholders.
func (h *Harness) normalize(s string) string {
	return mintedIDPattern.ReplaceAllStringFunc(s, func(id string) string {
		if placeholder, ok := h.ids[id]; ok {
			return placeholder
		}
		placeholder := fmt.Sprintf("OFFLINE-%d", len(h.ids)+1)
		h.ids[id] = placeholder
		return placeholder
	})
}

// orderFields projects an order into trace fields. Timestamps are excluded;
// zero-valued optional fields are omitted.
func (h *Harness) orderFields(o model.Order) map[string]any {
	fields := map[string]any{
		"id":             h.normalize(o.ID),
		"order_number":   o.OrderNumber,
		"order_type":     string(o.OrderType),
		"order_status":   string(o.OrderStatus),
		"payment_status": string(o.PaymentStatus),
		"synced":         o.Synced,
	}
	if o.OfflineID != "" {
		fields["offline_id"] = h.normalize(o.OfflineID)
	}
	if o.DeliveryStatus != "" {
		fields["delivery_status"] = string(o.DeliveryStatus)
	}
	if o.OfflineStatusUpdated {
		fields["offline_status_updated"] = true
	}
	if o.TotalAmount != 0 {
		fields["total_amount"] = o.TotalAmount
	}
	return fields
}

func (h *Harness) operationFields(op model.PendingOperation) map[string]any {
	fields := map[string]any{
		"id":          op.ID,
		"type":        string(op.Type),
		"method":      op.Method,
		"endpoint":    h.normalize(op.Endpoint),
		"status":      string(op.Status),
		"retry_count": op.RetryCount,
	}
	if op.Error != "" {
		fields["error"] = h.normalize(op.Error)
	}
	return fields
}

func (h *Harness) operationList(ops []model.PendingOperation) []any {
	list := make([]any, 0, len(ops))
	for _, op := range ops {
		list = append(list, h.operationFields(op))
	}
	return list
}
