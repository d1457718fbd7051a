// Package order owns the order lifecycle: the multi-line order aggregate,
// entity resolution onto it, delivery-date rules, and the collection /
// confirmation / completion state machine.
package order

import "encoding/json"

// Status is the lifecycle status of the aggregate being collected.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Line is one order line. Zero values mean "not collected yet".
type Line struct {
	PartNum      string `json:"partnum,omitempty"`
	ProductName  string `json:"product_name,omitempty"`
	Quantity     int    `json:"quantity,omitempty"`
	Unit         string `json:"unit,omitempty"`
	DeliveryDate string `json:"delivery_date,omitempty"` // ISO YYYY-MM-DD
}

func (l *Line) blank() bool {
	return l.ProductName == "" && l.Quantity == 0 && l.Unit == "" && l.DeliveryDate == ""
}

// FieldRef points at one missing field. Line is nil for order-level fields
// (customer name, company) and the zero-based line index otherwise.
type FieldRef struct {
	Line  *int   `json:"line"`
	Field string `json:"field"`
}

// Aggregate is the order being built across conversation turns. The JSON
// form is both the persisted snapshot and what the language model sees as
// "current order state".
type Aggregate struct {
	CustomerName    string     `json:"customer_name,omitempty"`
	CustomerCompany string     `json:"customer_company,omitempty"`
	Lines           []*Line    `json:"order_lines"`
	Status          Status     `json:"order_status"`
	Complete        bool       `json:"is_complete"`
	Missing         []FieldRef `json:"missing_fields"`
}

// New returns a fresh aggregate with a single empty line. An aggregate
// never has zero lines.
func New() *Aggregate {
	a := &Aggregate{
		Lines:  []*Line{{}},
		Status: StatusNew,
	}
	a.Recompute()
	return a
}

// FromSnapshot restores an aggregate from its JSON form, repairing the
// no-empty-lines invariant and the derived fields.
func FromSnapshot(data []byte) (*Aggregate, error) {
	var a Aggregate
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	if len(a.Lines) == 0 {
		a.Lines = []*Line{{}}
	}
	if a.Status == "" {
		a.Status = StatusNew
	}
	a.Recompute()
	return &a, nil
}

// Snapshot returns the JSON form. Marshalling an aggregate cannot fail.
func (a *Aggregate) Snapshot() []byte {
	data, _ := json.Marshal(a)
	return data
}

// Recompute rebuilds the missing-fields checklist and the completeness
// flag. Complete is true exactly when Missing is empty.
func (a *Aggregate) Recompute() {
	missing := make([]FieldRef, 0, 4*len(a.Lines)+2)

	for i, line := range a.Lines {
		idx := i
		if line.ProductName == "" {
			missing = append(missing, FieldRef{Line: &idx, Field: "product_name"})
		}
		if line.Quantity <= 0 {
			missing = append(missing, FieldRef{Line: &idx, Field: "quantity"})
		}
		if line.Unit == "" {
			missing = append(missing, FieldRef{Line: &idx, Field: "unit"})
		}
		if line.DeliveryDate == "" {
			missing = append(missing, FieldRef{Line: &idx, Field: "delivery_date"})
		}
	}

	if a.CustomerName == "" {
		missing = append(missing, FieldRef{Field: "customer_name"})
	}
	if a.CustomerCompany == "" {
		missing = append(missing, FieldRef{Field: "customer_company"})
	}

	a.Missing = missing
	a.Complete = len(missing) == 0
}

// ActiveLine is the line the conversation is currently about: the line of
// the first line-level missing field, or 0 when nothing line-level is
// missing.
func (a *Aggregate) ActiveLine() int {
	for _, ref := range a.Missing {
		if ref.Line != nil {
			return *ref.Line
		}
	}
	return 0
}

// HasData reports whether anything has been collected yet.
func (a *Aggregate) HasData() bool {
	if a.CustomerName != "" || a.CustomerCompany != "" {
		return true
	}
	for _, line := range a.Lines {
		if !line.blank() {
			return true
		}
	}
	return false
}

// Touch moves a new aggregate to in_progress once it holds data.
func (a *Aggregate) Touch() {
	if a.Status == StatusNew && a.HasData() {
		a.Status = StatusInProgress
	}
}

// EarliestDeliveryDate returns the earliest line date, used as the
// order-level delivery date on the completed record. ISO dates compare
// correctly as strings.
func (a *Aggregate) EarliestDeliveryDate() string {
	earliest := ""
	for _, line := range a.Lines {
		if line.DeliveryDate == "" {
			continue
		}
		if earliest == "" || line.DeliveryDate < earliest {
			earliest = line.DeliveryDate
		}
	}
	return earliest
}
