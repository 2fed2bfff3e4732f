package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/copperpack/copper-pack/internal/enrich"
	"github.com/copperpack/copper-pack/internal/models"
)

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// printRecord writes one record as JSON or as aligned "key: value" lines.
func printRecord(rec models.Record, asJSON bool) error {
	if asJSON {
		return printJSON(rec)
	}
	keys := make([]string, 0, len(rec))
	width := 0
	for k := range rec {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-*s  %s\n", width+1, k+":", truncate(formatValue(rec[k]), 100))
	}
	return nil
}

// printRow writes a one-line summary of a table row.
func printRow(rec models.Record) {
	fmt.Printf("%-10v %-40s %s\n", rec["id"], truncate(formatValue(rec["name"]), 40), formatValue(rec["url"]))
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case enrich.PersonRef:
		if val.Email == "" {
			return ""
		}
		return fmt.Sprintf("%s <%s>", val.Name, val.Email)
	case enrich.CompanyRef:
		return fmt.Sprintf("%s (%s)", val.Name, val.ID)
	case enrich.ContactRef:
		return val.ID
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, p := range val {
			parts[i] = formatValue(p)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, _ := json.Marshal(val)
		return string(b)
	}
	return fmt.Sprint(v)
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
