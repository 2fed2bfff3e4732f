package coppertest

import (
	"fmt"

	"github.com/copperpack/copper-pack/internal/models"
)

func prob(p float64) *float64 { return &p }

// DefaultReferenceData is the account configuration the fake serves unless
// a test replaces it.
func DefaultReferenceData() models.ReferenceData {
	return models.ReferenceData{
		Account: &models.Account{ID: "999", Name: "Acme Sales"},
		Users: []models.User{
			{ID: "1001", Name: "Ada Lovelace", Email: "ada@example.com"},
			{ID: "1002", Name: "Grace Hopper", Email: "grace@example.com"},
		},
		Pipelines: []models.Pipeline{
			{ID: "201", Name: "Sales", Stages: []models.PipelineStage{
				{ID: "301", Name: "Qualified", WinProbability: prob(10)},
				{ID: "302", Name: "Proposal", WinProbability: prob(50)},
				{ID: "303", Name: "Negotiation", WinProbability: prob(80)},
			}},
			{ID: "202", Name: "Renewals", Stages: []models.PipelineStage{
				{ID: "311", Name: "Upcoming"},
				{ID: "312", Name: "Closed"},
			}},
		},
		CustomerSources: []models.NamedItem{{ID: "401", Name: "Referral"}, {ID: "402", Name: "Website"}},
		LossReasons:     []models.NamedItem{{ID: "501", Name: "Price"}, {ID: "502", Name: "Timing"}, {ID: "503", Name: "Competitor"}},
		ContactTypes:    []models.NamedItem{{ID: "601", Name: "Customer"}, {ID: "602", Name: "Prospect"}},
		CustomFields: []models.CustomFieldDefinition{
			{ID: "701", Name: "Region", DataType: models.CustomFieldDropdown, AvailableOn: []string{"opportunity", "company", "person"},
				Options: []models.CustomFieldOption{{ID: "801", Name: "EMEA"}, {ID: "802", Name: "APAC"}}},
			{ID: "702", Name: "Budget", DataType: models.CustomFieldCurrency, AvailableOn: []string{"opportunity"}},
			{ID: "703", Name: "Channels", DataType: models.CustomFieldMultiSelect, AvailableOn: []string{"opportunity", "company"},
				Options: []models.CustomFieldOption{{ID: "811", Name: "Email"}, {ID: "812", Name: "Phone"}}},
			{ID: "704", Name: "Notes", DataType: models.CustomFieldText, AvailableOn: []string{"company", "person"}},
			{ID: "705", Name: "Renewal Date", DataType: models.CustomFieldDate, AvailableOn: []string{"opportunity"}},
			{ID: "706", Name: "VIP", DataType: models.CustomFieldCheckbox, AvailableOn: []string{"company", "person"}},
			{ID: "707", Name: "Partner", DataType: models.CustomFieldConnect, AvailableOn: []string{"opportunity"}},
		},
	}
}

// Opportunity returns a raw opportunity record with every foreign key set.
func Opportunity(id int64) map[string]any {
	return map[string]any{
		"id":                 id,
		"name":               fmt.Sprintf("Deal %d", id),
		"assignee_id":        1001,
		"company_id":         90001,
		"company_name":       "Globex",
		"primary_contact_id": 80001,
		"pipeline_id":        201,
		"pipeline_stage_id":  302,
		"customer_source_id": 401,
		"loss_reason_id":     nil,
		"status":             "Open",
		"priority":           "High",
		"monetary_value":     25000,
		"monetary_unit":      "USD",
		"win_probability":    50,
		"close_date":         "12/31/2026",
		"tags":               []any{"enterprise"},
		"date_created":       1700000000,
		"date_modified":      1700003600,
		"custom_fields": []any{
			map[string]any{"custom_field_definition_id": 701, "value": 801},
			map[string]any{"custom_field_definition_id": 702, "value": 1200.5},
		},
	}
}

// Company returns a raw company record.
func Company(id int64) map[string]any {
	return map[string]any{
		"id":              id,
		"name":            fmt.Sprintf("Company %d", id),
		"assignee_id":     1002,
		"contact_type_id": 601,
		"email_domain":    "globex.example",
		"address": map[string]any{
			"street":      "123 Main St",
			"city":        "Springfield",
			"state":       "IL",
			"postal_code": "62701",
			"country":     "US",
		},
		"tags":          []any{"key-account"},
		"date_created":  1700000000,
		"date_modified": 1700000000,
		"custom_fields": []any{
			map[string]any{"custom_field_definition_id": 706, "value": true},
		},
	}
}

// Person returns a raw person record.
func Person(id int64) map[string]any {
	return map[string]any{
		"id":              id,
		"name":            fmt.Sprintf("Person %d", id),
		"first_name":      "Pat",
		"last_name":       fmt.Sprintf("Doe%d", id),
		"title":           "CTO",
		"assignee_id":     1001,
		"company_id":      90001,
		"company_name":    "Globex",
		"contact_type_id": 602,
		"emails":          []any{map[string]any{"email": "pat@globex.example", "category": "work"}},
		"address":         map[string]any{"city": "Berlin", "country": "DE"},
		"tags":            []any{},
		"date_created":    1700000000,
		"date_modified":   1700000000,
		"custom_fields":   []any{},
	}
}
