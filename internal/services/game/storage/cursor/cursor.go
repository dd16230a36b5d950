// Package cursor encodes opaque page tokens for sequence-keyed listings.
//
// A token pins the position, direction, and fingerprints of the filter and
// sort order it was minted under, so a caller cannot silently change the
// query between pages.
package cursor

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Direction selects which side of the cursor a page fetches.
type Direction string

const (
	// DirectionForward fetches rows with seq greater than the cursor.
	DirectionForward Direction = "fwd"
	// DirectionBackward fetches rows with seq less than the cursor.
	DirectionBackward Direction = "bwd"
)

// Cursor is the decoded form of a page token.
type Cursor struct {
	// Seq is the pagination key the page continues from.
	Seq int64 `json:"seq"`
	// Dir selects the comparison operator relative to Seq.
	Dir Direction `json:"dir"`
	// Reverse marks previous-page fetches that must flip sort order so the
	// rows nearest the cursor come back first.
	Reverse bool `json:"rev,omitempty"`
	// FilterHash fingerprints the filter the cursor was minted under.
	FilterHash string `json:"fh,omitempty"`
	// OrderHash fingerprints the sort order the cursor was minted under.
	OrderHash string `json:"oh,omitempty"`
}

// Encode serializes a cursor into an opaque page token.
func Encode(c Cursor) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// Decode parses an opaque page token back into a cursor.
func Decode(token string) (Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Cursor{}, fmt.Errorf("page token is required")
	}

	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode page token: %w", err)
	}

	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, fmt.Errorf("parse page token: %w", err)
	}
	switch c.Dir {
	case DirectionForward, DirectionBackward:
	default:
		return Cursor{}, fmt.Errorf("page token direction %q is invalid", c.Dir)
	}
	return c, nil
}

// HashFilter returns a short fingerprint of a filter or order expression.
// Empty expressions fingerprint to the empty string.
func HashFilter(expr string) string {
	if strings.TrimSpace(expr) == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(expr))
	return hex.EncodeToString(sum[:8])
}

// NewForwardCursor mints a forward cursor pinned to a filter and sort order.
func NewForwardCursor(seq int64, filter, order string) Cursor {
	return Cursor{
		Seq:        seq,
		Dir:        DirectionForward,
		FilterHash: HashFilter(filter),
		OrderHash:  HashFilter(order),
	}
}

// NewNextPageCursor mints the token continuing past the last row of a page.
func NewNextPageCursor(seq int64, descending bool, filter, order string) Cursor {
	dir := DirectionForward
	if descending {
		dir = DirectionBackward
	}
	return Cursor{
		Seq:        seq,
		Dir:        dir,
		FilterHash: HashFilter(filter),
		OrderHash:  HashFilter(order),
	}
}

// NewPrevPageCursor mints the token for the page before the first row of a
// page.
func NewPrevPageCursor(seq int64, descending bool, filter, order string) Cursor {
	dir := DirectionBackward
	if descending {
		dir = DirectionForward
	}
	return Cursor{
		Seq:        seq,
		Dir:        dir,
		Reverse:    true,
		FilterHash: HashFilter(filter),
		OrderHash:  HashFilter(order),
	}
}

// ValidateFilterHash checks that a cursor was minted under the same filter.
func ValidateFilterHash(c Cursor, filter string) error {
	if c.FilterHash != HashFilter(filter) {
		return fmt.Errorf("page token was issued for a different filter")
	}
	return nil
}

// ValidateOrderHash checks that a cursor was minted under the same sort order.
func ValidateOrderHash(c Cursor, order string) error {
	if c.OrderHash != HashFilter(order) {
		return fmt.Errorf("page token was issued for a different sort order")
	}
	return nil
}
