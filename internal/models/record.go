package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/copperpack/copper-pack/pkg/humanize"
)

// RecordType identifies one of the CRM entities exposed as a table.
type RecordType string

const (
	RecordTypeOpportunity RecordType = "opportunity"
	RecordTypeCompany     RecordType = "company"
	RecordTypePerson      RecordType = "person"
)

// ValidRecordTypes is the set of all record types, in table order.
var ValidRecordTypes = []RecordType{
	RecordTypeOpportunity,
	RecordTypeCompany,
	RecordTypePerson,
}

// Descriptor holds the per-type vocabulary used by the API client, the
// identifier resolver and the enricher.
type Descriptor struct {
	Type      RecordType
	APIPath   string // plural path segment on the REST API
	WebToken  string // path token in the web app URL
	TableName string
}

var descriptors = map[RecordType]Descriptor{
	RecordTypeOpportunity: {Type: RecordTypeOpportunity, APIPath: "opportunities", WebToken: "deal", TableName: "Opportunities"},
	RecordTypeCompany:     {Type: RecordTypeCompany, APIPath: "companies", WebToken: "organization", TableName: "Companies"},
	RecordTypePerson:      {Type: RecordTypePerson, APIPath: "people", WebToken: "contact", TableName: "People"},
}

// IsValid returns true if the record type is recognized.
func (rt RecordType) IsValid() bool {
	_, ok := descriptors[rt]
	return ok
}

// APIPath returns the plural REST path segment, e.g. "opportunities".
func (rt RecordType) APIPath() string { return descriptors[rt].APIPath }

// WebToken returns the web app URL token, e.g. "deal".
func (rt RecordType) WebToken() string { return descriptors[rt].WebToken }

// RecordTypeForWebToken maps a web app URL token back to its record type.
func RecordTypeForWebToken(token string) (RecordType, bool) {
	for _, d := range descriptors {
		if d.WebToken == token {
			return d.Type, true
		}
	}
	return "", false
}

// ParseRecordType accepts a singular type name, an API path segment or a
// table name, case-insensitively.
func ParseRecordType(s string) (RecordType, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, rt := range ValidRecordTypes {
		d := descriptors[rt]
		if needle == string(rt) || needle == d.APIPath || needle == strings.ToLower(d.TableName) {
			return rt, nil
		}
	}
	names := make([]string, len(ValidRecordTypes))
	for i, rt := range ValidRecordTypes {
		names[i] = rt.APIPath()
	}
	return "", InvalidValuef("unknown record type %q: must be %s", s, humanize.List(names))
}

// RecordIdentifier is the result of parsing a user-supplied record reference.
// Type is empty when the input was a bare numeric ID.
type RecordIdentifier struct {
	ID   string     `json:"id"`
	Type RecordType `json:"type,omitempty"`
}

// TypeKnown reports whether the identifier carried its own record type.
func (ri RecordIdentifier) TypeKnown() bool { return ri.Type != "" }

// RawRecord is a record exactly as decoded from the API. It is never
// mutated after decoding.
type RawRecord map[string]any

// Record is a schema-conformant, enriched record ready for the host.
type Record map[string]any

// DecodeRawRecord decodes a single API record, keeping numbers as
// json.Number so that large IDs survive unchanged.
func DecodeRawRecord(body []byte) (RawRecord, error) {
	var rec RawRecord
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// DecodeRawRecords decodes a JSON array of API records.
func DecodeRawRecords(body []byte) ([]RawRecord, error) {
	var recs []RawRecord
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// ID returns the record's id as a string.
func (r RawRecord) ID() string { return r.IDField("id") }

// IDField returns a foreign-key field normalized to its string form, or ""
// when the field is absent or null.
func (r RawRecord) IDField(key string) string {
	return NormalizeID(r[key])
}

// String returns a string field, or "" when absent or not a string.
func (r RawRecord) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Map returns a nested object field.
func (r RawRecord) Map(key string) map[string]any {
	m, _ := r[key].(map[string]any)
	return m
}

// Slice returns an array field.
func (r RawRecord) Slice(key string) []any {
	s, _ := r[key].([]any)
	return s
}

// Strings returns an array field of strings, skipping non-string entries.
func (r RawRecord) Strings(key string) []string {
	raw := r.Slice(key)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// NormalizeID renders numeric-or-string identifiers in one canonical string
// form so that lookups compare equal regardless of how the API encoded them.
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case FlexID:
		return string(id)
	}
	return ""
}
