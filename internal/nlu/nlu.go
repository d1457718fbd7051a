// Package nlu is the boundary to the language model. It classifies intents,
// extracts order entities, and generates free-form replies. Everything the
// model returns is validated and normalized here; downstream packages only
// ever see typed intents, integer quantities, and ISO delivery dates.
package nlu

import (
	"context"
	"strings"
	"time"
)

// Intent is a validated conversation intent.
type Intent string

const (
	IntentOrder        Intent = "ORDER"
	IntentCancelOrder  Intent = "CANCEL_ORDER"
	IntentChitChat     Intent = "CHIT_CHAT"
	IntentHumanHandoff Intent = "HUMAN_HANDOFF"
	IntentFallback     Intent = "FALLBACK"
	IntentUnknown      Intent = "UNKNOWN"
)

// ParseIntent maps a raw model label onto a known intent.
// Anything unrecognized becomes UNKNOWN.
func ParseIntent(raw string) Intent {
	switch Intent(strings.ToUpper(strings.TrimSpace(raw))) {
	case IntentOrder:
		return IntentOrder
	case IntentCancelOrder:
		return IntentCancelOrder
	case IntentChitChat:
		return IntentChitChat
	case IntentHumanHandoff:
		return IntentHumanHandoff
	case IntentFallback:
		return IntentFallback
	default:
		return IntentUnknown
	}
}

// Message is one turn of conversation history replayed to the model.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// LineItem is one extracted bundle of line-level entities. LineRef carries an
// explicit 1-based line reference from the message ("untuk item kedua"), nil
// when the user did not point at a line.
type LineItem struct {
	LineRef      *int
	ProductName  string
	Quantity     *int
	Unit         string
	DeliveryDate string // ISO YYYY-MM-DD, already normalized
}

// Entities is the full extraction result for one user message.
type Entities struct {
	CustomerName       string
	CustomerCompany    string
	CancellationReason string
	Lines              []LineItem
}

// Empty reports whether the extraction carried no usable order data.
func (e Entities) Empty() bool {
	if e.CustomerName != "" || e.CustomerCompany != "" {
		return false
	}
	for _, li := range e.Lines {
		if li.ProductName != "" || li.Quantity != nil || li.Unit != "" || li.DeliveryDate != "" {
			return false
		}
	}
	return true
}

// Service is what the conversation router and order agent need from the
// language model.
type Service interface {
	// ClassifyIntent labels a user message given the current order snapshot.
	ClassifyIntent(ctx context.Context, message string, snapshot []byte, history []Message) (Intent, error)

	// ExtractEntities pulls order entities out of a user message. Date
	// phrases are normalized to ISO dates relative to today.
	ExtractEntities(ctx context.Context, message string, snapshot []byte, history []Message, today time.Time) (Entities, error)

	// ExtractChanges is the edit-mode extraction used during confirmation:
	// only fields the user wants changed come back. The bool reports whether
	// any change was detected.
	ExtractChanges(ctx context.Context, message string, snapshot []byte, today time.Time) (Entities, bool, error)

	// Reply generates a free-form assistant reply under the given system
	// prompt.
	Reply(ctx context.Context, system, message string, history []Message) (string, error)
}
