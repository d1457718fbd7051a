package nlu

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Wire shapes for model responses. All fields are pointers or raw JSON so
// that explicit nulls and absent keys both read as "not provided".
type intentPayload struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

type linePayload struct {
	LineIndex    *int            `json:"line_index"`
	ProductName  *string         `json:"product_name"`
	Quantity     json.Number     `json:"quantity"`
	Unit         *string         `json:"unit"`
	DeliveryDate json.RawMessage `json:"delivery_date"`
}

type extractionPayload struct {
	CustomerName       *string       `json:"customer_name"`
	CustomerCompany    *string       `json:"customer_company"`
	CancellationReason *string       `json:"cancellation_reason"`
	OrderLines         []linePayload `json:"order_lines"`
}

type changesPayload struct {
	HasChanges bool              `json:"has_changes"`
	Changes    extractionPayload `json:"changes"`
}

// stripFences removes a markdown code fence the model sometimes wraps
// around its JSON despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parseIntentResponse(raw string) Intent {
	var payload intentPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return intentFromText(raw)
	}
	return ParseIntent(payload.Intent)
}

// intentFromText is the salvage path for non-JSON responses.
func intentFromText(text string) Intent {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "cancel", "batal"):
		return IntentCancelOrder
	case containsAny(lower, "order", "pesan", "beli"):
		return IntentOrder
	case containsAny(lower, "human", "agent", "handoff"):
		return IntentHumanHandoff
	case containsAny(lower, "fallback", "redirect", "other"):
		return IntentFallback
	default:
		return IntentUnknown
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func parseExtractionResponse(raw string, today time.Time) (Entities, error) {
	var payload extractionPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return Entities{}, fmt.Errorf("parse extraction response: %w", err)
	}
	return payload.toEntities(today), nil
}

func parseChangesResponse(raw string, today time.Time) (Entities, bool, error) {
	var payload changesPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return Entities{}, false, fmt.Errorf("parse changes response: %w", err)
	}
	if !payload.HasChanges {
		return Entities{}, false, nil
	}
	ents := payload.Changes.toEntities(today)
	return ents, !ents.Empty(), nil
}

func (p extractionPayload) toEntities(today time.Time) Entities {
	ents := Entities{
		CustomerName:       deref(p.CustomerName),
		CustomerCompany:    deref(p.CustomerCompany),
		CancellationReason: deref(p.CancellationReason),
	}

	for _, lp := range p.OrderLines {
		li := LineItem{
			ProductName:  deref(lp.ProductName),
			Unit:         deref(lp.Unit),
			DeliveryDate: resolveDate(lp.DeliveryDate, today),
		}
		if lp.LineIndex != nil && *lp.LineIndex > 0 {
			ref := *lp.LineIndex
			li.LineRef = &ref
		}
		if qty, ok := parseQuantity(lp.Quantity); ok {
			li.Quantity = &qty
		}
		if li.ProductName != "" || li.Quantity != nil || li.Unit != "" || li.DeliveryDate != "" {
			ents.Lines = append(ents.Lines, li)
		}
	}

	return ents
}

// parseQuantity accepts integers and the occasional float the model emits
// for whole numbers ("3.0"). Non-positive values are rejected.
func parseQuantity(num json.Number) (int, bool) {
	if num.String() == "" {
		return 0, false
	}
	if n, err := num.Int64(); err == nil && n > 0 {
		return int(n), true
	}
	if f, err := num.Float64(); err == nil && f > 0 && f == float64(int(f)) {
		return int(f), true
	}
	return 0, false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
