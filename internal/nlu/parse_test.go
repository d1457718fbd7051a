package nlu

import (
	"testing"
	"time"
)

var testToday = time.Date(2025, 2, 5, 10, 0, 0, 0, time.UTC)

func TestParseIntentResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Intent
	}{
		{"plain json", `{"intent": "ORDER", "confidence": 0.97}`, IntentOrder},
		{"fenced json", "```json\n{\"intent\": \"CANCEL_ORDER\", \"confidence\": 0.8}\n```", IntentCancelOrder},
		{"lowercase label", `{"intent": "chit_chat"}`, IntentChitChat},
		{"handoff", `{"intent": "HUMAN_HANDOFF"}`, IntentHumanHandoff},
		{"unexpected label", `{"intent": "GREETING"}`, IntentUnknown},
		{"non-json salvages keywords", `The user wants to batal the order`, IntentCancelOrder},
		{"non-json garbage", `hmm not sure`, IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseIntentResponse(tt.raw); got != tt.want {
				t.Fatalf("parseIntentResponse(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseExtractionResponseMultiLine(t *testing.T) {
	raw := `{
		"customer_name": "Anton",
		"customer_company": null,
		"cancellation_reason": null,
		"order_lines": [
			{"line_index": null, "product_name": "oksigen UHP", "quantity": 3, "unit": "tabung", "delivery_date": {"day_offset": 1}},
			{"line_index": 2, "product_name": null, "quantity": 5, "unit": null, "delivery_date": null}
		]
	}`

	ents, err := parseExtractionResponse(raw, testToday)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if ents.CustomerName != "Anton" {
		t.Fatalf("customer_name = %q", ents.CustomerName)
	}
	if ents.CustomerCompany != "" {
		t.Fatalf("customer_company should be empty, got %q", ents.CustomerCompany)
	}
	if len(ents.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(ents.Lines))
	}

	first := ents.Lines[0]
	if first.LineRef != nil {
		t.Fatalf("first line should have no explicit ref")
	}
	if first.ProductName != "oksigen UHP" || first.Unit != "tabung" {
		t.Fatalf("unexpected first line: %+v", first)
	}
	if first.Quantity == nil || *first.Quantity != 3 {
		t.Fatalf("first quantity = %v", first.Quantity)
	}
	if first.DeliveryDate != "2025-02-06" {
		t.Fatalf("delivery date = %q, want 2025-02-06", first.DeliveryDate)
	}

	second := ents.Lines[1]
	if second.LineRef == nil || *second.LineRef != 2 {
		t.Fatalf("second line ref = %v, want 2", second.LineRef)
	}
	if second.Quantity == nil || *second.Quantity != 5 {
		t.Fatalf("second quantity = %v", second.Quantity)
	}
}

func TestParseExtractionResponseDropsEmptyLines(t *testing.T) {
	raw := `{"order_lines": [{"line_index": null, "product_name": null, "quantity": null, "unit": null, "delivery_date": null}]}`

	ents, err := parseExtractionResponse(raw, testToday)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ents.Lines) != 0 {
		t.Fatalf("empty line bundle should be dropped, got %+v", ents.Lines)
	}
	if !ents.Empty() {
		t.Fatalf("entities should report empty")
	}
}

func TestParseExtractionResponseFloatQuantity(t *testing.T) {
	raw := `{"order_lines": [{"product_name": "argon", "quantity": 3.0, "unit": "m3", "delivery_date": null}]}`

	ents, err := parseExtractionResponse(raw, testToday)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ents.Lines) != 1 || ents.Lines[0].Quantity == nil || *ents.Lines[0].Quantity != 3 {
		t.Fatalf("unexpected lines: %+v", ents.Lines)
	}
}

func TestParseExtractionResponseMalformed(t *testing.T) {
	if _, err := parseExtractionResponse("I could not find any entities", testToday); err == nil {
		t.Fatalf("expected error for non-JSON response")
	}
}

func TestParseChangesResponse(t *testing.T) {
	raw := `{
		"has_changes": true,
		"changes": {
			"customer_name": null,
			"order_lines": [{"line_index": null, "product_name": null, "quantity": null, "unit": null, "delivery_date": "2025-02-06"}]
		}
	}`

	ents, has, err := parseChangesResponse(raw, testToday)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !has {
		t.Fatalf("expected has_changes")
	}
	if len(ents.Lines) != 1 || ents.Lines[0].DeliveryDate != "2025-02-06" {
		t.Fatalf("unexpected changes: %+v", ents.Lines)
	}
}

func TestParseChangesResponseNoChanges(t *testing.T) {
	_, has, err := parseChangesResponse(`{"has_changes": false, "changes": {}}`, testToday)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if has {
		t.Fatalf("expected no changes")
	}
}
