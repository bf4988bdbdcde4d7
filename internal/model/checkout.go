package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	// MinQuantity and MaxQuantity bound every quantity the server prices or records.
	MinQuantity = 1
	MaxQuantity = 50
)

// CartLine is a single client-submitted cart entry. It is untrusted: the id may not exist and
// the quantity may be missing, out of range or not a number.
type CartLine struct {
	ProductID int64
	Quantity  int
}

// cartLineWire is the wire shape {"id": ..., "qty": ...}.
type cartLineWire struct {
	ID  json.RawMessage `json:"id"`
	Qty json.RawMessage `json:"qty"`
}

// UnmarshalJSON decodes a cart line leniently. Ids that are not integers decode to 0, which never
// matches a catalogue row, and quantities that are missing or not numeric decode to 1.
func (l *CartLine) UnmarshalJSON(data []byte) error {
	var w cartLineWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	l.ProductID = parseID(w.ID)
	l.Quantity = parseQuantity(w.Qty)
	return nil
}

// MarshalJSON encodes the line back to {"id": ..., "qty": ...}.
func (l CartLine) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID  int64 `json:"id"`
		Qty int   `json:"qty"`
	}{ID: l.ProductID, Qty: l.Quantity})
}

// ClampQuantity constrains q to [MinQuantity, MaxQuantity].
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

func parseID(raw json.RawMessage) int64 {
	s := unquote(raw)
	if s == "" {
		return 0
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		if id < 0 {
			return 0
		}
		return id
	}
	// Bare JSON numbers such as 1.0 or 1e0 name the same product as 1; quoted strings must be exact.
	if isQuoted(raw) {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

func parseQuantity(raw json.RawMessage) int {
	s := unquote(raw)
	if s == "" || s == "null" {
		return 1
	}
	if q, err := strconv.Atoi(s); err == nil {
		return q
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// "3abc" reads as 3.
		if q, ok := leadingInt(s); ok {
			return q
		}
		return 1
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

// leadingInt parses an optionally signed run of digits at the start of s.
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	q, err := strconv.Atoi(s[:end])
	if err != nil {
		if s[0] == '-' {
			return math.MinInt32, true
		}
		return math.MaxInt32, true
	}
	return q, true
}

func isQuoted(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}

func unquote(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	return string(raw)
}

// CheckoutRequest is the body of POST /api/create-checkout-session.
type CheckoutRequest struct {
	Cart  []CartLine `json:"cart"`
	Email string     `json:"email,omitempty"`
}

// CheckoutResponse carries the provider session id and the hosted checkout URL.
type CheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PricedLineItem is a server-authoritative cart line.
type PricedLineItem struct {
	ProductID      int64  `json:"product_id"`
	Name           string `json:"name"`
	Image          string `json:"image"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// PricingResult is the output of the pricing engine.
type PricingResult struct {
	LineItems  []PricedLineItem `json:"line_items"`
	TotalCents int64            `json:"total_cents"`
}

// CheckoutIntent is what a checkout session is created from. It is never persisted locally; its
// durable trace is the metadata the provider echoes back in the completion event.
type CheckoutIntent struct {
	Priced     PricingResult
	Cart       []CartLine
	Email      string
	SuccessURL string
	CancelURL  string
	// BaseURL is used to turn relative product image paths into absolute URLs.
	BaseURL string
}
