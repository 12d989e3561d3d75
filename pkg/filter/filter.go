// Package filter translates flat request query parameters into a structured
// predicate of (field, operator, value) clauses plus the residual select,
// sort, page and limit control parameters.
//
// Filters are written as field=value or field[op]=value, for example
// experience[gte]=3 or status[in]=ongoing,scheduled.
package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Control parameters stripped before predicate construction.
const (
	ParamSelect = "select"
	ParamSort   = "sort"
	ParamPage   = "page"
	ParamLimit  = "limit"
)

type Operator string

const (
	OpEq  Operator = "eq"
	OpNe  Operator = "ne"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

var operators = map[Operator]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true, OpIn: true,
}

// Kind is the value type of a field; it decides coercion and which operators apply.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindTime
	KindEnum
)

// Field describes one queryable attribute.
type Field struct {
	Name       string
	Kind       Kind
	Enum       []string
	Filterable bool
	Sortable   bool
	// Lower folds string operands to lower case for fields stored lowercased.
	Lower bool
}

// Schema is the whitelist of fields a query may reference.
type Schema struct {
	fields      map[string]Field
	defaultSort []SortField
}

// NewSchema builds a schema. defaultSort uses the same syntax as the sort
// parameter, e.g. "-created_at".
func NewSchema(defaultSort string, fields ...Field) Schema {
	s := Schema{fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		s.fields[f.Name] = f
	}
	for _, name := range splitList(defaultSort) {
		desc := strings.HasPrefix(name, "-")
		s.defaultSort = append(s.defaultSort, SortField{Field: strings.TrimPrefix(name, "-"), Desc: desc})
	}
	return s
}

// Field returns the schema entry for name.
func (s Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Clause is a single predicate term. Value holds string, int64 or time.Time;
// for OpIn it holds a slice of those.
type Clause struct {
	Field string
	Op    Operator
	Value interface{}
}

type SortField struct {
	Field string
	Desc  bool
}

// Query is the translated request.
type Query struct {
	Clauses  []Clause
	Select   []string
	Sort     []SortField
	RawPage  string
	RawLimit string
}

// Error reports a malformed or disallowed query parameter.
type Error struct {
	Param  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid query parameter %q: %s", e.Param, e.Reason)
}

var keyPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\[([a-z]+)\])?$`)

// Parse translates values against schema.
func Parse(values map[string][]string, schema Schema) (*Query, error) {
	q := &Query{
		RawPage:  first(values[ParamPage]),
		RawLimit: first(values[ParamLimit]),
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		switch k {
		case ParamSelect, ParamSort, ParamPage, ParamLimit:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		m := keyPattern.FindStringSubmatch(key)
		if m == nil {
			return nil, &Error{Param: key, Reason: "expected field or field[operator]"}
		}
		name, op := m[1], Operator(m[2])
		if op == "" {
			op = OpEq
		}
		if !operators[op] {
			return nil, &Error{Param: key, Reason: fmt.Sprintf("unknown operator %q", op)}
		}
		field, ok := schema.fields[name]
		if !ok || !field.Filterable {
			return nil, &Error{Param: key, Reason: fmt.Sprintf("unknown field %q", name)}
		}
		if isOrdering(op) && (field.Kind == KindString || field.Kind == KindEnum) {
			return nil, &Error{Param: key, Reason: fmt.Sprintf("operator %q is not supported for %q", op, name)}
		}
		for _, raw := range values[key] {
			value, err := coerceOperand(field, op, raw)
			if err != nil {
				return nil, &Error{Param: key, Reason: err.Error()}
			}
			q.Clauses = append(q.Clauses, Clause{Field: name, Op: op, Value: value})
		}
	}

	if raw := first(values[ParamSelect]); raw != "" {
		sel, err := parseSelect(raw, schema)
		if err != nil {
			return nil, err
		}
		q.Select = sel
	}

	if raw := first(values[ParamSort]); raw != "" {
		srt, err := parseSort(raw, schema)
		if err != nil {
			return nil, err
		}
		q.Sort = srt
	} else {
		q.Sort = append([]SortField(nil), schema.defaultSort...)
	}

	return q, nil
}

func parseSelect(raw string, schema Schema) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, name := range splitList(raw) {
		if _, ok := schema.fields[name]; !ok {
			return nil, &Error{Param: ParamSelect, Reason: fmt.Sprintf("unknown field %q", name)}
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out, nil
}

func parseSort(raw string, schema Schema) ([]SortField, error) {
	var out []SortField
	for _, name := range splitList(raw) {
		desc := strings.HasPrefix(name, "-")
		name = strings.TrimPrefix(name, "-")
		f, ok := schema.fields[name]
		if !ok || !f.Sortable {
			return nil, &Error{Param: ParamSort, Reason: fmt.Sprintf("cannot sort by %q", name)}
		}
		out = append(out, SortField{Field: name, Desc: desc})
	}
	return out, nil
}

func coerceOperand(f Field, op Operator, raw string) (interface{}, error) {
	if op != OpIn {
		return coerce(f, raw)
	}
	parts := splitList(raw)
	if len(parts) == 0 {
		return nil, fmt.Errorf("operator %q needs at least one value", op)
	}
	switch f.Kind {
	case KindInt:
		out := make([]int64, 0, len(parts))
		for _, p := range parts {
			v, err := coerce(f, p)
			if err != nil {
				return nil, err
			}
			out = append(out, v.(int64))
		}
		return out, nil
	case KindTime:
		out := make([]time.Time, 0, len(parts))
		for _, p := range parts {
			v, err := coerce(f, p)
			if err != nil {
				return nil, err
			}
			out = append(out, v.(time.Time))
		}
		return out, nil
	default:
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			v, err := coerce(f, p)
			if err != nil {
				return nil, err
			}
			out = append(out, v.(string))
		}
		return out, nil
	}
}

func coerce(f Field, raw string) (interface{}, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("value must not be empty")
	}
	switch f.Kind {
	case KindInt:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return v, nil
	case KindTime:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, nil
		}
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return t, nil
		}
		return nil, fmt.Errorf("%q is not a date (YYYY-MM-DD or RFC3339)", raw)
	case KindEnum:
		for _, allowed := range f.Enum {
			if raw == allowed {
				return raw, nil
			}
		}
		return nil, fmt.Errorf("%q is not one of: %s", raw, strings.Join(f.Enum, ", "))
	default:
		if f.Lower {
			return strings.ToLower(raw), nil
		}
		return raw, nil
	}
}

func isOrdering(op Operator) bool {
	return op == OpGt || op == OpGte || op == OpLt || op == OpLte
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}
