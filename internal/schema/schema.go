// Package schema declares the table schema of each record type: the fields
// an enriched record may carry, their value types and display hints.
package schema

import (
	"github.com/copperpack/copper-pack/internal/models"
)

// ValueType is the JSON shape of a field value.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
	TypeObject  ValueType = "object"
	TypeArray   ValueType = "array"
)

// Hint tells the host how to display a value.
type Hint string

const (
	HintNone      Hint = ""
	HintURL       Hint = "url"
	HintDate      Hint = "date"
	HintDateTime  Hint = "datetime"
	HintCurrency  Hint = "currency"
	HintPercent   Hint = "percent"
	HintEmail     Hint = "email"
	HintPerson    Hint = "person"
	HintReference Hint = "reference"
)

// Field is one column of a table.
type Field struct {
	Name string    `json:"name"`
	Type ValueType `json:"type"`
	Hint Hint      `json:"hint,omitempty"`
	// References names the table a reference stub points into.
	References string `json:"references,omitempty"`
}

// Schema is the full column set of one record type.
type Schema struct {
	RecordType   models.RecordType `json:"record_type"`
	IDField      string            `json:"id_field"`
	DisplayField string            `json:"display_field"`
	Fields       []Field           `json:"fields"`

	index map[string]int
}

// Has reports whether name is a declared field.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Field returns the declaration of name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Names lists field names in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// WithCustomFields returns a copy of s extended by one column per custom
// field definition available on the record type.
func (s *Schema) WithCustomFields(defs []*models.CustomFieldDefinition) *Schema {
	fields := make([]Field, len(s.Fields), len(s.Fields)+len(defs))
	copy(fields, s.Fields)
	for _, d := range defs {
		if s.Has(d.Name) {
			continue
		}
		fields = append(fields, customFieldColumn(d))
	}
	return build(s.RecordType, fields)
}

func customFieldColumn(d *models.CustomFieldDefinition) Field {
	f := Field{Name: d.Name, Type: TypeString}
	switch d.DataType {
	case models.CustomFieldNumber, models.CustomFieldFloat:
		f.Type = TypeNumber
	case models.CustomFieldCurrency:
		f.Type, f.Hint = TypeNumber, HintCurrency
	case models.CustomFieldPercentage:
		f.Type, f.Hint = TypeNumber, HintPercent
	case models.CustomFieldCheckbox:
		f.Type = TypeBoolean
	case models.CustomFieldDate:
		f.Hint = HintDateTime
	case models.CustomFieldURL:
		f.Hint = HintURL
	case models.CustomFieldMultiSelect:
		f.Type = TypeArray
	}
	return f
}

// For returns the static schema of rt, or nil for an unknown type.
func For(rt models.RecordType) *Schema {
	return schemas[rt]
}

func build(rt models.RecordType, fields []Field) *Schema {
	s := &Schema{RecordType: rt, IDField: "id", DisplayField: "name", Fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

var common = []Field{
	{Name: "id", Type: TypeString},
	{Name: "name", Type: TypeString},
	{Name: "url", Type: TypeString, Hint: HintURL},
	{Name: "assignee", Type: TypeObject, Hint: HintPerson},
	{Name: "details", Type: TypeString},
	{Name: "tags", Type: TypeArray},
	{Name: "dateCreated", Type: TypeString, Hint: HintDateTime},
	{Name: "dateModified", Type: TypeString, Hint: HintDateTime},
}

func with(extra ...Field) []Field {
	out := make([]Field, 0, len(common)+len(extra))
	out = append(out, common...)
	return append(out, extra...)
}

var schemas = map[models.RecordType]*Schema{
	models.RecordTypeOpportunity: build(models.RecordTypeOpportunity, with(
		Field{Name: "company", Type: TypeObject, Hint: HintReference, References: "Companies"},
		Field{Name: "companyName", Type: TypeString},
		Field{Name: "primaryContact", Type: TypeObject, Hint: HintReference, References: "People"},
		Field{Name: "pipeline", Type: TypeString},
		Field{Name: "pipelineStage", Type: TypeString},
		Field{Name: "status", Type: TypeString},
		Field{Name: "priority", Type: TypeString},
		Field{Name: "customerSource", Type: TypeString},
		Field{Name: "lossReason", Type: TypeString},
		Field{Name: "monetaryValue", Type: TypeNumber, Hint: HintCurrency},
		Field{Name: "monetaryUnit", Type: TypeString},
		Field{Name: "winProbability", Type: TypeNumber, Hint: HintPercent},
		Field{Name: "closeDate", Type: TypeString, Hint: HintDate},
		Field{Name: "dateStageChanged", Type: TypeString, Hint: HintDateTime},
		Field{Name: "dateLastContacted", Type: TypeString, Hint: HintDateTime},
	)),
	models.RecordTypeCompany: build(models.RecordTypeCompany, with(
		Field{Name: "fullAddress", Type: TypeString},
		Field{Name: "contactType", Type: TypeString},
		Field{Name: "emailDomain", Type: TypeString},
		Field{Name: "phoneNumbers", Type: TypeArray},
		Field{Name: "websites", Type: TypeArray},
		Field{Name: "interactionCount", Type: TypeNumber},
		Field{Name: "dateLastContacted", Type: TypeString, Hint: HintDateTime},
	)),
	models.RecordTypePerson: build(models.RecordTypePerson, with(
		Field{Name: "firstName", Type: TypeString},
		Field{Name: "lastName", Type: TypeString},
		Field{Name: "title", Type: TypeString},
		Field{Name: "company", Type: TypeObject, Hint: HintReference, References: "Companies"},
		Field{Name: "companyName", Type: TypeString},
		Field{Name: "contactType", Type: TypeString},
		Field{Name: "fullAddress", Type: TypeString},
		Field{Name: "emails", Type: TypeArray, Hint: HintEmail},
		Field{Name: "phoneNumbers", Type: TypeArray},
		Field{Name: "websites", Type: TypeArray},
		Field{Name: "interactionCount", Type: TypeNumber},
		Field{Name: "dateLastContacted", Type: TypeString, Hint: HintDateTime},
	)),
}
