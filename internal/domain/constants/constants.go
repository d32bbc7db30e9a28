// Package constants holds the lookup tables the host sends once at startup.
//
// The host describes its event types, source types, error codes and so on as
// name→number tables. Nothing it sends afterwards can be interpreted without
// them, which is why the bridge buffers traffic until a valid set arrives.
package constants

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid is returned for payloads that do not have the constants shape.
var ErrInvalid = errors.New("invalid constants payload")

// Table maps symbolic names to numeric values.
type Table map[string]int64

// Constants is the validated handshake payload.
type Constants struct {
	LogEventTypes    Table          `json:"logEventTypes"`
	ClientInfo       map[string]any `json:"clientInfo"`
	LogEventPhase    Table          `json:"logEventPhase"`
	LogSourceType    Table          `json:"logSourceType"`
	LogLevelType     Table          `json:"logLevelType"`
	LoadFlag         Table          `json:"loadFlag"`
	NetError         Table          `json:"netError"`
	AddressFamily    Table          `json:"addressFamily"`
	LoadState        Table          `json:"loadState,omitempty"`
	TimeTickOffset   string         `json:"timeTickOffset"`
	LogFormatVersion int            `json:"logFormatVersion"`

	// Raw is the payload exactly as received, kept for log dumps.
	Raw map[string]any `json:"-"`

	// Warnings lists entries Parse had to skip. They do not invalidate the
	// handshake.
	Warnings []string `json:"-"`

	eventTypeNames  map[int64]string
	sourceTypeNames map[int64]string
	tickOffset      time.Duration
}

var objectFields = []string{
	"logEventTypes",
	"clientInfo",
	"logEventPhase",
	"logSourceType",
	"logLevelType",
	"loadFlag",
	"netError",
	"addressFamily",
}

// Parse validates a decoded handshake payload and builds the lookup tables.
// Only the shape is checked: an object with the eight named sub-objects, a
// string timeTickOffset and a numeric logFormatVersion. Table entries that
// are not numbers are skipped and a tick offset that is not an integer
// counts as zero; both are reported in Warnings.
func Parse(payload any) (*Constants, error) {
	raw, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected object, got %T", ErrInvalid, payload)
	}

	for _, field := range objectFields {
		if _, ok := raw[field].(map[string]any); !ok {
			return nil, fmt.Errorf("%w: %s must be an object", ErrInvalid, field)
		}
	}
	offset, ok := raw["timeTickOffset"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: timeTickOffset must be a string", ErrInvalid)
	}
	version, ok := toNumber(raw["logFormatVersion"])
	if !ok {
		return nil, fmt.Errorf("%w: logFormatVersion must be a number", ErrInvalid)
	}

	c := &Constants{
		ClientInfo:       raw["clientInfo"].(map[string]any),
		TimeTickOffset:   offset,
		LogFormatVersion: int(version),
		Raw:              raw,
	}

	tables := []struct {
		field string
		dst   *Table
	}{
		{"logEventTypes", &c.LogEventTypes},
		{"logEventPhase", &c.LogEventPhase},
		{"logSourceType", &c.LogSourceType},
		{"logLevelType", &c.LogLevelType},
		{"loadFlag", &c.LoadFlag},
		{"netError", &c.NetError},
		{"addressFamily", &c.AddressFamily},
		{"loadState", &c.LoadState},
	}
	for _, t := range tables {
		obj, ok := raw[t.field].(map[string]any)
		if !ok {
			continue // only loadState is optional; the rest were checked above
		}
		table, skipped := toTable(obj)
		for _, name := range skipped {
			c.Warnings = append(c.Warnings, fmt.Sprintf("%s.%s is not a number", t.field, name))
		}
		*t.dst = table
	}

	tickOffset, err := parseTickOffset(offset)
	if err != nil {
		c.Warnings = append(c.Warnings, "timeTickOffset: "+err.Error())
	}
	c.tickOffset = tickOffset

	c.eventTypeNames = c.LogEventTypes.Inverse()
	c.sourceTypeNames = c.LogSourceType.Inverse()
	return c, nil
}

// Inverse builds the value→name map of a table.
func (t Table) Inverse() map[int64]string {
	inv := make(map[int64]string, len(t))
	for name, v := range t {
		inv[v] = name
	}
	return inv
}

// KeyWithValue returns the name mapped to v, or "?" when none is.
func (t Table) KeyWithValue(v int64) string {
	// Sorted so duplicated values resolve deterministically.
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if t[name] == v {
			return name
		}
	}
	return "?"
}

// EventTypeName returns the symbolic name of a log event type.
func (c *Constants) EventTypeName(v int64) string {
	if name, ok := c.eventTypeNames[v]; ok {
		return name
	}
	return "?"
}

// SourceTypeName returns the symbolic name of a log source type.
func (c *Constants) SourceTypeName(v int64) string {
	if name, ok := c.sourceTypeNames[v]; ok {
		return name
	}
	return "?"
}

// NetErrorToString renders a net error code, e.g. -105 as
// "ERR_NAME_NOT_RESOLVED". Unknown codes render as "?".
func (c *Constants) NetErrorToString(code int64) string {
	name := c.NetError.KeyWithValue(code)
	if name == "?" {
		return name
	}
	return "ERR_" + name
}

// AddressFamilyToString renders an address family without its
// ADDRESS_FAMILY_ prefix.
func (c *Constants) AddressFamilyToString(family int64) string {
	return strings.TrimPrefix(c.AddressFamily.KeyWithValue(family), "ADDRESS_FAMILY_")
}

// TickOffset is the offset, in milliseconds since the Unix epoch, of the
// host's tick clock origin.
func (c *Constants) TickOffset() time.Duration {
	return c.tickOffset
}

// TicksToTime converts a host tick count (milliseconds, as a decimal string)
// to wall-clock time.
func (c *Constants) TicksToTime(ticks string) (time.Time, error) {
	d, err := parseTickOffset(ticks)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(0).Add(c.tickOffset + d), nil
}

func parseTickOffset(s string) (time.Duration, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// toTable keeps the numeric entries of obj and returns the names of the
// others, sorted.
func toTable(obj map[string]any) (Table, []string) {
	t := make(Table, len(obj))
	var skipped []string
	for name, v := range obj {
		n, ok := toNumber(v)
		if !ok {
			skipped = append(skipped, name)
			continue
		}
		t[name] = int64(n)
	}
	sort.Strings(skipped)
	return t, skipped
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case interface{ Float64() (float64, error) }: // json.Number
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
