package enrich

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/copperpack/copper-pack/internal/models"
)

// CustomFields maps a record's raw custom field entries to named values.
// An entry's computed value, when present, wins over its raw value.
// Entries whose definition is unknown are skipped.
func CustomFields(raw models.RawRecord, refs *models.ReferenceData) map[string]any {
	out := make(map[string]any)
	for _, entry := range raw.Slice("custom_fields") {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		def := refs.FindCustomField(models.NormalizeID(m["custom_field_definition_id"]))
		if def == nil {
			continue
		}
		if cv, ok := computedValue(m); ok {
			out[def.Name] = cv
			continue
		}
		if v := ComputeValue(def, m["value"]); v != nil {
			out[def.Name] = v
		}
	}
	return out
}

func computedValue(entry map[string]any) (any, bool) {
	for _, k := range []string{"computed_value", "computedValue"} {
		if v, ok := entry[k]; ok && v != nil {
			return normalizeNumber(v), true
		}
	}
	return nil, false
}

// ComputeValue derives a display value from a raw custom field value using
// its definition. Option ids become option names, unix timestamps become
// RFC 3339 strings. It returns nil when nothing can be displayed.
func ComputeValue(def *models.CustomFieldDefinition, v any) any {
	if v == nil {
		return nil
	}
	switch def.DataType {
	case models.CustomFieldDropdown:
		if opt := def.FindOption(models.NormalizeID(v)); opt != nil {
			return opt.Name
		}
		return nil
	case models.CustomFieldMultiSelect:
		ids, _ := v.([]any)
		names := make([]string, 0, len(ids))
		for _, id := range ids {
			if opt := def.FindOption(models.NormalizeID(id)); opt != nil {
				names = append(names, opt.Name)
			}
		}
		return names
	case models.CustomFieldCheckbox:
		return truthy(v)
	case models.CustomFieldDate:
		if secs, ok := unixSeconds(v); ok {
			return formatUnix(secs)
		}
		return v
	}
	return normalizeNumber(v)
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(strings.TrimSpace(b))
		return parsed
	}
	if n, ok := unixSeconds(v); ok {
		return n != 0
	}
	return false
}

// unixSeconds reads an integral JSON number.
func unixSeconds(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func formatUnix(secs int64) string {
	return time.Unix(secs, 0).UTC().Format(time.RFC3339)
}

// normalizeNumber turns json.Number into int64 or float64 so callers see
// plain Go numbers.
func normalizeNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
