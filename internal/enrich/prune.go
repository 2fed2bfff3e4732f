package enrich

import (
	"github.com/iancoleman/strcase"

	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/internal/schema"
)

// Prune builds the output record: raw fields renamed to lowerCamel, then
// each layer in order overwriting earlier values. Only fields declared by
// s survive. Nil values are dropped so that missing data stays absent.
func Prune(s *schema.Schema, raw models.RawRecord, layers ...map[string]any) models.Record {
	out := make(models.Record)
	if s == nil {
		return out
	}

	for k, v := range raw {
		name := strcase.ToLowerCamel(k)
		f, ok := s.Field(name)
		if !ok || v == nil {
			continue
		}
		out[name] = conform(f, v)
	}

	for _, layer := range layers {
		for k, v := range layer {
			if v == nil || !s.Has(k) {
				continue
			}
			out[k] = v
		}
	}
	return out
}

// conform adapts a raw value to its declared column: numeric timestamps
// become RFC 3339 strings and numeric ids become strings.
func conform(f schema.Field, v any) any {
	switch {
	case f.Hint == schema.HintDateTime:
		if secs, ok := unixSeconds(v); ok {
			return formatUnix(secs)
		}
	case f.Type == schema.TypeString:
		if _, ok := unixSeconds(v); ok {
			return models.NormalizeID(v)
		}
	}
	return normalizeNumber(v)
}
