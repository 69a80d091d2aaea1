package hass

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Property renders a single JSON object member.
//
// The value is quoted and escaped unless raw is set, in which case it is
// inserted verbatim (numbers, booleans, nested objects or arrays). A trailing
// comma is appended unless last is true.
func Property(key, value string, last, raw bool) string {
	var sb strings.Builder
	sb.WriteString(quote(key))
	sb.WriteByte(':')
	if raw {
		sb.WriteString(value)
	} else {
		sb.WriteString(quote(value))
	}
	if !last {
		sb.WriteByte(',')
	}
	return sb.String()
}

// ConditionalProperty is Property, but yields "" when value is empty.
func ConditionalProperty(key, value string, last, raw bool) string {
	if value == "" {
		return ""
	}
	return Property(key, value, last, raw)
}

// ConditionalInt emits key only when value differs from def.
func ConditionalInt(key string, value, def int, last bool) string {
	if value == def {
		return ""
	}
	return Property(key, strconv.Itoa(value), last, true)
}

// ConditionalBool emits key only when value differs from def.
func ConditionalBool(key string, value, def bool, last bool) string {
	if value == def {
		return ""
	}
	return Property(key, strconv.FormatBool(value), last, true)
}

// Fragment collects candidate object members and renders them without
// a dangling separator, so callers never need to know which member is last.
//
// The zero value is ready to use.
type Fragment struct {
	members []string
}

// Add appends a quoted string member.
func (f *Fragment) Add(key, value string) *Fragment {
	return f.append(Property(key, value, true, false))
}

// AddRaw appends a member whose value is already valid JSON.
func (f *Fragment) AddRaw(key, value string) *Fragment {
	return f.append(Property(key, value, true, true))
}

// AddIf appends a quoted string member when value is non-empty.
func (f *Fragment) AddIf(key, value string) *Fragment {
	return f.append(ConditionalProperty(key, value, true, false))
}

// AddIntIf appends an integer member when value differs from def.
func (f *Fragment) AddIntIf(key string, value, def int) *Fragment {
	return f.append(ConditionalInt(key, value, def, true))
}

// AddBoolIf appends a boolean member when value differs from def.
func (f *Fragment) AddBoolIf(key string, value, def bool) *Fragment {
	return f.append(ConditionalBool(key, value, def, true))
}

// Merge appends an already rendered member list (as returned by String).
func (f *Fragment) Merge(members string) *Fragment {
	return f.append(strings.TrimSuffix(members, ","))
}

// Len reports the number of non-empty members collected so far.
func (f *Fragment) Len() int {
	return len(f.members)
}

// String returns the members joined by commas with no trailing separator.
func (f *Fragment) String() string {
	return strings.Join(f.members, ",")
}

// Object wraps the members in braces.
func (f *Fragment) Object() string {
	return "{" + f.String() + "}"
}

func (f *Fragment) append(member string) *Fragment {
	if member != "" {
		f.members = append(f.members, member)
	}
	return f
}

// quote renders s as a JSON string literal. HTML escaping is disabled so
// Jinja templates and units survive unchanged.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// escape returns s escaped for use inside an existing JSON string literal.
func escape(s string) string {
	q := quote(s)
	return q[1 : len(q)-1]
}
