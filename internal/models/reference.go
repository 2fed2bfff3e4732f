package models

import (
	"encoding/json"
	"strings"
)

// FlexID is an identifier the API may send either as a JSON number or a
// JSON string. It always holds the string form.
type FlexID string

// UnmarshalJSON accepts numbers, strings and null.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// String returns the identifier.
func (f FlexID) String() string { return string(f) }

// User is a CRM user who can own records.
type User struct {
	ID    FlexID `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PipelineStage is one ordered stage of a pipeline.
type PipelineStage struct {
	ID             FlexID   `json:"id"`
	Name           string   `json:"name"`
	WinProbability *float64 `json:"win_probability,omitempty"`
}

// Pipeline is an opportunity pipeline with its nested stages.
type Pipeline struct {
	ID     FlexID          `json:"id"`
	Name   string          `json:"name"`
	Stages []PipelineStage `json:"stages"`
}

// FindStage returns the stage with the given id.
func (p *Pipeline) FindStage(id string) *PipelineStage {
	if id == "" {
		return nil
	}
	for i := range p.Stages {
		if string(p.Stages[i].ID) == id {
			return &p.Stages[i]
		}
	}
	return nil
}

// FindStageByName returns the stage whose name matches case-insensitively.
func (p *Pipeline) FindStageByName(name string) *PipelineStage {
	for i := range p.Stages {
		if strings.EqualFold(p.Stages[i].Name, strings.TrimSpace(name)) {
			return &p.Stages[i]
		}
	}
	return nil
}

// StageNames lists stage names in pipeline order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.Stages))
	for i := range p.Stages {
		names[i] = p.Stages[i].Name
	}
	return names
}

// NamedItem is an id/name pair used by customer sources, loss reasons and
// contact types.
type NamedItem struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

// Account is the CRM account the credentials belong to.
type Account struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

// CustomFieldType is the data type of a custom field definition.
type CustomFieldType string

const (
	CustomFieldString      CustomFieldType = "String"
	CustomFieldText        CustomFieldType = "Text"
	CustomFieldNumber      CustomFieldType = "Number"
	CustomFieldFloat       CustomFieldType = "Float"
	CustomFieldDate        CustomFieldType = "Date"
	CustomFieldCheckbox    CustomFieldType = "Checkbox"
	CustomFieldCurrency    CustomFieldType = "Currency"
	CustomFieldPercentage  CustomFieldType = "Percentage"
	CustomFieldMultiSelect CustomFieldType = "MultiSelect"
	CustomFieldDropdown    CustomFieldType = "Dropdown"
	CustomFieldConnect     CustomFieldType = "Connect"
	CustomFieldURL         CustomFieldType = "URL"
)

// IsNumeric reports whether values of this type are numbers.
func (t CustomFieldType) IsNumeric() bool {
	switch t {
	case CustomFieldNumber, CustomFieldFloat, CustomFieldCurrency, CustomFieldPercentage:
		return true
	}
	return false
}

// CustomFieldOption is one choice of a Dropdown or MultiSelect field.
type CustomFieldOption struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// CustomFieldDefinition describes an account-level custom field.
type CustomFieldDefinition struct {
	ID          FlexID              `json:"id"`
	Name        string              `json:"name"`
	DataType    CustomFieldType     `json:"data_type"`
	AvailableOn []string            `json:"available_on"`
	Options     []CustomFieldOption `json:"options,omitempty"`
}

// AppliesTo reports whether the field is available on records of type rt.
func (d *CustomFieldDefinition) AppliesTo(rt RecordType) bool {
	for _, on := range d.AvailableOn {
		if strings.EqualFold(on, string(rt)) {
			return true
		}
	}
	return false
}

// FindOption returns the option with the given id.
func (d *CustomFieldDefinition) FindOption(id string) *CustomFieldOption {
	for i := range d.Options {
		if string(d.Options[i].ID) == id {
			return &d.Options[i]
		}
	}
	return nil
}

// FindOptionByName returns the option whose name matches case-insensitively.
func (d *CustomFieldDefinition) FindOptionByName(name string) *CustomFieldOption {
	for i := range d.Options {
		if strings.EqualFold(d.Options[i].Name, strings.TrimSpace(name)) {
			return &d.Options[i]
		}
	}
	return nil
}

// OptionNames lists option names in definition order.
func (d *CustomFieldDefinition) OptionNames() []string {
	names := make([]string, len(d.Options))
	for i := range d.Options {
		names[i] = d.Options[i].Name
	}
	return names
}

// ReferenceData bundles the account-wide datasets used to resolve foreign
// keys on records. Any dataset may be nil when it was not loaded.
type ReferenceData struct {
	Account         *Account                `json:"account,omitempty"`
	Users           []User                  `json:"users,omitempty"`
	Pipelines       []Pipeline              `json:"pipelines,omitempty"`
	CustomerSources []NamedItem             `json:"customer_sources,omitempty"`
	LossReasons     []NamedItem             `json:"loss_reasons,omitempty"`
	ContactTypes    []NamedItem             `json:"contact_types,omitempty"`
	CustomFields    []CustomFieldDefinition `json:"custom_field_definitions,omitempty"`
}

// AccountID returns the account id, or "" when the account was not loaded.
func (r *ReferenceData) AccountID() string {
	if r == nil || r.Account == nil {
		return ""
	}
	return string(r.Account.ID)
}

// FindUser returns the user with the given id.
func (r *ReferenceData) FindUser(id string) *User {
	if r == nil || id == "" {
		return nil
	}
	for i := range r.Users {
		if string(r.Users[i].ID) == id {
			return &r.Users[i]
		}
	}
	return nil
}

// FindUserByEmail returns the user whose email matches case-insensitively.
func (r *ReferenceData) FindUserByEmail(email string) *User {
	if r == nil {
		return nil
	}
	for i := range r.Users {
		if strings.EqualFold(r.Users[i].Email, strings.TrimSpace(email)) {
			return &r.Users[i]
		}
	}
	return nil
}

// UserEmails lists the emails of all users.
func (r *ReferenceData) UserEmails() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Users))
	for i := range r.Users {
		out = append(out, r.Users[i].Email)
	}
	return out
}

// FindPipeline returns the pipeline with the given id.
func (r *ReferenceData) FindPipeline(id string) *Pipeline {
	if r == nil || id == "" {
		return nil
	}
	for i := range r.Pipelines {
		if string(r.Pipelines[i].ID) == id {
			return &r.Pipelines[i]
		}
	}
	return nil
}

// FindCustomerSource returns the customer source with the given id.
func (r *ReferenceData) FindCustomerSource(id string) *NamedItem {
	if r == nil {
		return nil
	}
	return FindNamed(r.CustomerSources, id)
}

// FindLossReason returns the loss reason with the given id.
func (r *ReferenceData) FindLossReason(id string) *NamedItem {
	if r == nil {
		return nil
	}
	return FindNamed(r.LossReasons, id)
}

// FindContactType returns the contact type with the given id.
func (r *ReferenceData) FindContactType(id string) *NamedItem {
	if r == nil {
		return nil
	}
	return FindNamed(r.ContactTypes, id)
}

// FindCustomField returns the custom field definition with the given id.
func (r *ReferenceData) FindCustomField(id string) *CustomFieldDefinition {
	if r == nil || id == "" {
		return nil
	}
	for i := range r.CustomFields {
		if string(r.CustomFields[i].ID) == id {
			return &r.CustomFields[i]
		}
	}
	return nil
}

// FindCustomFieldByName returns the definition available on rt whose name
// matches case-insensitively.
func (r *ReferenceData) FindCustomFieldByName(rt RecordType, name string) *CustomFieldDefinition {
	for _, d := range r.CustomFieldsFor(rt) {
		if strings.EqualFold(d.Name, strings.TrimSpace(name)) {
			return d
		}
	}
	return nil
}

// CustomFieldsFor returns the definitions available on rt.
func (r *ReferenceData) CustomFieldsFor(rt RecordType) []*CustomFieldDefinition {
	if r == nil {
		return nil
	}
	var out []*CustomFieldDefinition
	for i := range r.CustomFields {
		if r.CustomFields[i].AppliesTo(rt) {
			out = append(out, &r.CustomFields[i])
		}
	}
	return out
}

// FindNamed returns the item with the given id.
func FindNamed(items []NamedItem, id string) *NamedItem {
	if id == "" {
		return nil
	}
	for i := range items {
		if string(items[i].ID) == id {
			return &items[i]
		}
	}
	return nil
}

// FindNamedByName returns the item whose name matches case-insensitively.
func FindNamedByName(items []NamedItem, name string) *NamedItem {
	for i := range items {
		if strings.EqualFold(items[i].Name, strings.TrimSpace(name)) {
			return &items[i]
		}
	}
	return nil
}

// Names lists the names of items in order.
func Names(items []NamedItem) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].Name
	}
	return out
}
