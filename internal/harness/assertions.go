package harness

import (
	"context"
	"fmt"

	"github.com/roach88/tillsync/internal/model"
	"github.com/roach88/tillsync/internal/store"
)

// evaluateAssertions checks every assertion against final state and the
// trace, recording failures on the result.
func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion) {
	for i, a := range assertions {
		switch a.Type {
		case AssertFinalOrder:
			h.assertFinalOrder(ctx, i, a)
		case AssertQueueCount:
			h.assertQueueCount(ctx, i, a)
		case AssertOrderCount:
			h.assertOrderCount(ctx, i, a)
		case AssertTraceContains:
			h.assertTraceContains(i, a)
		}
	}
}

func (h *Harness) assertFinalOrder(ctx context.Context, index int, a Assertion) {
	o, err := h.store.GetOrderByNumber(ctx, a.OrderNumber)
	if err != nil {
		h.result.Fail("assertions[%d] final_order: order %q: %v", index, a.OrderNumber, err)
		return
	}
	fields := h.orderFields(o)
	for name, want := range a.Expect {
		got, ok := fields[name]
		if !ok {
			h.result.Fail("assertions[%d] final_order %q: field %s absent, want %v",
				index, a.OrderNumber, name, want)
			continue
		}
		if !looselyEqual(got, want) {
			h.result.Fail("assertions[%d] final_order %q: %s = %v, want %v",
				index, a.OrderNumber, name, got, want)
		}
	}
}

func (h *Harness) assertQueueCount(ctx context.Context, index int, a Assertion) {
	ops, err := h.store.PendingOperations(ctx, model.OperationStatus(a.Status))
	if err != nil {
		h.result.Fail("assertions[%d] queue_count: %v", index, err)
		return
	}
	if len(ops) != a.Count {
		h.result.Fail("assertions[%d] queue_count: %d %s operations, want %d",
			index, len(ops), a.Status, a.Count)
	}
}

func (h *Harness) assertOrderCount(ctx context.Context, index int, a Assertion) {
	orders, err := h.store.ListOrders(ctx, store.OrderFilter{})
	if err != nil {
		h.result.Fail("assertions[%d] order_count: %v", index, err)
		return
	}
	if len(orders) != a.Count {
		h.result.Fail("assertions[%d] order_count: %d orders, want %d",
			index, len(orders), a.Count)
	}
}

func (h *Harness) assertTraceContains(index int, a Assertion) {
	for _, event := range h.result.Trace {
		if event.Op != a.Op {
			continue
		}
		if subsetMatch(event.Fields, a.Fields) {
			return
		}
	}
	h.result.Fail("assertions[%d] trace_contains: no %s event matching %v",
		index, a.Op, a.Fields)
}

func subsetMatch(fields, expect map[string]any) bool {
	for name, want := range expect {
		got, ok := fields[name]
		if !ok || !looselyEqual(got, want) {
			return false
		}
	}
	return true
}

// looselyEqual compares across the int/int64/bool/string shapes that YAML
// decoding and Go field types produce for the same value.
func looselyEqual(got, want any) bool {
	return fmt.Sprintf("%v", got) == fmt.Sprintf("%v", want)
}
