// Package pagination computes page windows and next/prev page descriptors
// for list endpoints.
package pagination

import (
	"fmt"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 100
	MaxPage      = 10000
)

// Limits bounds the values a client may request.
type Limits struct {
	MaxLimit int
	MaxPage  int
}

// DefaultLimits returns the bounds used when configuration does not override them.
func DefaultLimits() Limits {
	return Limits{MaxLimit: MaxLimit, MaxPage: MaxPage}
}

// Params is a normalized page request.
type Params struct {
	Page  int
	Limit int
}

// PageRef points at a neighbouring page.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Descriptor describes the neighbouring pages. A nil field means no such page.
type Descriptor struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// ErrPageOutOfRange is returned when the requested page exceeds Limits.MaxPage.
type ErrPageOutOfRange struct {
	Page int
	Max  int
}

func (e *ErrPageOutOfRange) Error() string {
	return fmt.Sprintf("page %d exceeds the maximum of %d", e.Page, e.Max)
}

// Parse reads raw page/limit strings. Missing, malformed or non-positive
// values fall back to the defaults; limit is capped at l.MaxLimit.
func Parse(rawPage, rawLimit string, l Limits) (Params, error) {
	return Normalize(atoiOr(rawPage, DefaultPage), atoiOr(rawLimit, DefaultLimit), l)
}

// Normalize applies defaults and bounds to an already-parsed request.
func Normalize(page, limit int, l Limits) (Params, error) {
	if l.MaxLimit <= 0 {
		l.MaxLimit = MaxLimit
	}
	if l.MaxPage <= 0 {
		l.MaxPage = MaxPage
	}
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > l.MaxLimit {
		limit = l.MaxLimit
	}
	if page > l.MaxPage {
		return Params{}, &ErrPageOutOfRange{Page: page, Max: l.MaxPage}
	}
	return Params{Page: page, Limit: limit}, nil
}

// Offset is the index of the first record in the window.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// End is the index one past the last record in the window.
func (p Params) End() int {
	return p.Page * p.Limit
}

// Describe builds the next/prev descriptor for a result set of total records.
func (p Params) Describe(total int64) Descriptor {
	var d Descriptor
	if int64(p.End()) < total {
		d.Next = &PageRef{Page: p.Page + 1, Limit: p.Limit}
	}
	if p.Offset() > 0 {
		d.Prev = &PageRef{Page: p.Page - 1, Limit: p.Limit}
	}
	return d
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
