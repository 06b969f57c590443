// Package parser recognises delivery reports such as "+500 @alice" in chat text.
package parser

import (
	"regexp"
	"strconv"
)

// Amounts are ASCII digits only. The separator also accepts Unicode spaces
// such as U+00A0, which mobile clients insert in place of a plain space.
var deliveryPattern = regexp.MustCompile(`\+([0-9]+)[\s\p{Z}]+@?([\p{L}\p{N}_]+)`)

type Delivery struct {
	Handle string
	Amount int64
}

// Parse extracts the first "+<amount> <handle>" occurrence from text. Amounts
// that are zero or do not fit in int64 are reported as no match.
func Parse(text string) (Delivery, bool) {
	m := deliveryPattern.FindStringSubmatch(text)
	if m == nil {
		return Delivery{}, false
	}
	amount, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || amount <= 0 {
		return Delivery{}, false
	}
	return Delivery{Handle: m[2], Amount: amount}, true
}
