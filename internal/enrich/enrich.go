// Package enrich turns raw CRM records into schema-conformant records by
// resolving foreign keys against reference data and synthesizing computed
// fields. Every function here is pure given its inputs; a lookup miss
// leaves the field absent instead of failing.
package enrich

import (
	"fmt"
	"strings"

	"github.com/copperpack/copper-pack/internal/metrics"
	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/internal/schema"
)

// contactPlaceholder is the fullName of a primary contact stub; the host
// resolves the real name when it matches the stub to a People row.
const contactPlaceholder = "Not found"

// PersonRef is shaped like the host's person value so the host can match
// it to a real user by email. All fields are empty when the assignee is
// unknown.
type PersonRef struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// CompanyRef is a reference stub into the Companies table.
type CompanyRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ContactRef is a reference stub into the People table.
type ContactRef struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
}

// Enricher holds the one piece of configuration enrichment needs beyond
// its inputs: the web app host used to build record URLs.
type Enricher struct {
	appHost string
}

// New creates an Enricher. appHost is e.g. "app.copper.com".
func New(appHost string) *Enricher {
	return &Enricher{appHost: appHost}
}

// Enrich produces the final record for rt. withReferences attaches
// cross-table reference stubs, which only make sense for table rows.
func (e *Enricher) Enrich(rt models.RecordType, raw models.RawRecord, refs *models.ReferenceData, withReferences bool) models.Record {
	computed := make(map[string]any)

	if addr := raw.Map("address"); addr != nil {
		if full := FullAddress(addr); full != "" {
			computed["fullAddress"] = full
		}
	}
	if u := RecordURL(e.appHost, refs.AccountID(), rt, raw.ID()); u != "" {
		computed["url"] = u
	}
	computed["assignee"] = Assignee(raw, refs)

	switch rt {
	case models.RecordTypeOpportunity:
		opportunityFields(raw, refs, computed)
	case models.RecordTypeCompany, models.RecordTypePerson:
		if ct := refs.FindContactType(raw.IDField("contact_type_id")); ct != nil {
			computed["contactType"] = ct.Name
		}
	}

	custom := CustomFields(raw, refs)

	var stubs map[string]any
	if withReferences {
		stubs = referenceStubs(rt, raw)
	}

	out := Prune(FullSchema(rt, refs), raw, computed, custom, stubs)
	metrics.Inc(metrics.RecordsEnriched)
	return out
}

// EnrichAll enriches a page of records in order.
func (e *Enricher) EnrichAll(rt models.RecordType, raws []models.RawRecord, refs *models.ReferenceData, withReferences bool) []models.Record {
	out := make([]models.Record, len(raws))
	for i, raw := range raws {
		out[i] = e.Enrich(rt, raw, refs, withReferences)
	}
	return out
}

// FullAddress joins the present address components with ", ".
func FullAddress(addr map[string]any) string {
	parts := make([]string, 0, 5)
	for _, keys := range [][]string{{"street"}, {"city"}, {"state"}, {"country"}, {"postal_code", "postalCode"}} {
		for _, k := range keys {
			if s, ok := addr[k].(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
				break
			}
		}
	}
	return strings.Join(parts, ", ")
}

// RecordURL builds the web app detail page URL of a record. It returns ""
// when the account or record id is unknown.
func RecordURL(appHost, accountID string, rt models.RecordType, id string) string {
	token := rt.WebToken()
	if appHost == "" || accountID == "" || id == "" || token == "" {
		return ""
	}
	return fmt.Sprintf("https://%s/companies/%s/app#/%s/%s", appHost, accountID, token, id)
}

// Assignee resolves the record's owner against the user list.
func Assignee(raw models.RawRecord, refs *models.ReferenceData) PersonRef {
	u := refs.FindUser(raw.IDField("assignee_id"))
	if u == nil {
		return PersonRef{}
	}
	return PersonRef{ID: string(u.ID), Email: u.Email, Name: u.Name}
}

func opportunityFields(raw models.RawRecord, refs *models.ReferenceData, out map[string]any) {
	if p := refs.FindPipeline(raw.IDField("pipeline_id")); p != nil {
		out["pipeline"] = p.Name
		if st := p.FindStage(raw.IDField("pipeline_stage_id")); st != nil {
			out["pipelineStage"] = st.Name
		}
	}
	if cs := refs.FindCustomerSource(raw.IDField("customer_source_id")); cs != nil {
		out["customerSource"] = cs.Name
	}
	if lr := refs.FindLossReason(raw.IDField("loss_reason_id")); lr != nil {
		out["lossReason"] = lr.Name
	}
}

func referenceStubs(rt models.RecordType, raw models.RawRecord) map[string]any {
	out := make(map[string]any)
	switch rt {
	case models.RecordTypeOpportunity:
		if id := raw.IDField("company_id"); id != "" {
			out["company"] = CompanyRef{ID: id, Name: raw.String("company_name")}
		}
		if id := raw.IDField("primary_contact_id"); id != "" {
			out["primaryContact"] = ContactRef{ID: id, FullName: contactPlaceholder}
		}
	case models.RecordTypePerson:
		if id := raw.IDField("company_id"); id != "" {
			out["company"] = CompanyRef{ID: id, Name: raw.String("company_name")}
		}
	}
	return out
}

// FullSchema is the static schema of rt extended by the custom fields
// available on it.
func FullSchema(rt models.RecordType, refs *models.ReferenceData) *schema.Schema {
	s := schema.For(rt)
	if s == nil {
		return nil
	}
	return s.WithCustomFields(refs.CustomFieldsFor(rt))
}
