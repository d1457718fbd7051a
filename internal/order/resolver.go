package order

import (
	"context"
	"strings"
	"time"

	"github.com/Leen2210/Chatbot-Samator/internal/catalog"
	"github.com/Leen2210/Chatbot-Samator/internal/nlu"
	"github.com/Leen2210/Chatbot-Samator/platform/language"
	"github.com/Leen2210/Chatbot-Samator/platform/logger"
)

// ProductLookup resolves a free-text product mention to the best catalog
// candidate, or nil when nothing plausible matches.
type ProductLookup interface {
	Best(ctx context.Context, query string) (*catalog.Match, error)
}

// Resolver folds extracted entities into the order aggregate. It decides,
// per extracted line bundle, which aggregate line the data belongs to.
type Resolver struct {
	products ProductLookup
	log      *logger.Logger
}

func NewResolver(products ProductLookup, log *logger.Logger) *Resolver {
	return &Resolver{products: products, log: log}
}

// Apply folds one extraction into the aggregate. Every delivery date in the
// extraction is validated before anything is applied: on the first rejected
// date the aggregate is left untouched and the user-facing validation
// message is returned. An empty return means the extraction was applied.
func (r *Resolver) Apply(ctx context.Context, agg *Aggregate, ents nlu.Entities, today time.Time, lang language.Code) string {
	for _, li := range ents.Lines {
		if li.DeliveryDate == "" {
			continue
		}
		if msg := ValidateDeliveryDate(li.DeliveryDate, today, lang); msg != "" {
			return msg
		}
	}

	if ents.CustomerName != "" {
		agg.CustomerName = ents.CustomerName
	}
	if ents.CustomerCompany != "" {
		agg.CustomerCompany = ents.CustomerCompany
	}

	agg.Recompute()
	for _, li := range ents.Lines {
		r.applyLine(ctx, agg, li)
		// Keep the checklist current so the next bundle targets lines
		// based on what this one filled in.
		agg.Recompute()
	}

	agg.Touch()
	agg.Recompute()
	return ""
}

func (r *Resolver) applyLine(ctx context.Context, agg *Aggregate, li nlu.LineItem) {
	var match *catalog.Match
	if li.ProductName != "" {
		m, err := r.products.Best(ctx, li.ProductName)
		if err != nil {
			// Lookup failure degrades to keeping the raw text; the order
			// can still be taken and fixed up downstream.
			r.log.Warn("product lookup failed", "query", li.ProductName, "error", err)
		} else {
			match = m
		}
	}

	idx := targetLine(agg, li, match)
	for len(agg.Lines) <= idx {
		agg.Lines = append(agg.Lines, &Line{})
	}
	line := agg.Lines[idx]

	if li.ProductName != "" {
		if match != nil {
			line.PartNum = match.PartNum
			line.ProductName = match.Description
			// A unit the customer stated beats the catalog default.
			if li.Unit != "" {
				line.Unit = li.Unit
			} else if match.Unit != "" {
				line.Unit = match.Unit
			}
		} else {
			line.ProductName = li.ProductName
			if li.Unit != "" {
				line.Unit = li.Unit
			}
		}
	} else if li.Unit != "" {
		line.Unit = li.Unit
	}

	if li.Quantity != nil {
		line.Quantity = *li.Quantity
	}
	if li.DeliveryDate != "" {
		line.DeliveryDate = li.DeliveryDate
	}
}

// targetLine picks the aggregate line an extracted bundle belongs to, in
// priority order: explicit 1-based reference from the message, an existing
// line for the same catalog part, an existing line whose name matches by
// substring, the active line for product-less answers, the first line still
// without a product, and finally a fresh appended line.
func targetLine(agg *Aggregate, li nlu.LineItem, match *catalog.Match) int {
	if li.LineRef != nil {
		if idx := *li.LineRef - 1; idx >= 0 && idx < len(agg.Lines) {
			return idx
		}
		// A reference past the current lines means a new item.
		return len(agg.Lines)
	}

	if li.ProductName == "" {
		// Vague answer ("3 tabung", "besok"): bind to the line the
		// conversation is currently filling in.
		return agg.ActiveLine()
	}

	if match != nil && match.PartNum != "" {
		for i, line := range agg.Lines {
			if line.PartNum != "" && line.PartNum == match.PartNum {
				return i
			}
		}
	}

	name := strings.ToLower(li.ProductName)
	for i, line := range agg.Lines {
		if line.ProductName == "" {
			continue
		}
		existing := strings.ToLower(line.ProductName)
		if strings.Contains(existing, name) || strings.Contains(name, existing) {
			return i
		}
	}

	for i, line := range agg.Lines {
		if line.ProductName == "" {
			return i
		}
	}

	return len(agg.Lines)
}
