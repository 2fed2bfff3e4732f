package actions

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/copperpack/copper-pack/internal/identifier"
	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/pkg/humanize"
)

// dateLayout is the accepted input format of Date custom fields.
const dateLayout = "2006-01-02"

// SetCustomField sets the custom field named field on a record. value is
// converted according to the field's data type; an empty value clears it.
func (e *Executor) SetCustomField(ctx context.Context, rt models.RecordType, ref, field, value string) (models.Record, error) {
	ri, err := identifier.ResolveAs(ref, rt)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(field) == "" {
		return nil, models.InvalidValuef("a custom field name is required")
	}

	refs, _, err := e.load(ctx, ri, false)
	if err != nil {
		return nil, err
	}

	def := refs.FindCustomFieldByName(rt, field)
	if def == nil {
		available := refs.CustomFieldsFor(rt)
		if len(available) == 0 {
			return nil, models.InvalidValuef("%q is not a custom field: no custom fields are available on %s",
				field, humanize.WithArticle(string(rt)))
		}
		names := make([]string, len(available))
		for i, d := range available {
			names[i] = d.Name
		}
		return nil, models.InvalidValuef("%q is not a custom field on %s: must be %s",
			field, humanize.WithArticle(string(rt)), humanize.List(humanize.Quoted(names)))
	}

	v, err := ConvertCustomFieldValue(def, value)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"custom_fields": []map[string]any{{
			"custom_field_definition_id": apiID(def.ID),
			"value":                      v,
		}},
	}
	return e.update(ctx, "set custom field", ri, payload, refs)
}

// ConvertCustomFieldValue turns user input into the API value for def.
func ConvertCustomFieldValue(def *models.CustomFieldDefinition, value string) (any, error) {
	value = strings.TrimSpace(value)
	if def.DataType == models.CustomFieldConnect {
		return nil, models.InvalidValuef("%q is a connect field and cannot be set", def.Name)
	}
	if value == "" {
		return nil, nil
	}

	if def.DataType.IsNumeric() {
		f, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil {
			return nil, models.InvalidValuef("%q must be a number, got %q", def.Name, value)
		}
		return f, nil
	}

	switch def.DataType {
	case models.CustomFieldCheckbox:
		switch strings.ToLower(value) {
		case "true", "yes", "y", "1", "checked":
			return true, nil
		case "false", "no", "n", "0", "unchecked":
			return false, nil
		}
		return nil, models.InvalidValuef("%q must be true or false, got %q", def.Name, value)

	case models.CustomFieldDate:
		t, err := time.Parse(dateLayout, value)
		if err != nil {
			return nil, models.InvalidValuef("%q must be a date in YYYY-MM-DD form, got %q", def.Name, value)
		}
		return t.Unix(), nil

	case models.CustomFieldURL:
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, models.InvalidValuef("%q must be an absolute URL, got %q", def.Name, value)
		}
		return value, nil

	case models.CustomFieldDropdown:
		opt := def.FindOptionByName(value)
		if opt == nil {
			return nil, models.InvalidValuef("%q is not an option of %q: must be %s",
				value, def.Name, humanize.List(def.OptionNames()))
		}
		return apiID(opt.ID), nil

	case models.CustomFieldMultiSelect:
		var ids []any
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			opt := def.FindOptionByName(part)
			if opt == nil {
				return nil, models.InvalidValuef("%q is not an option of %q: must be %s",
					part, def.Name, humanize.List(def.OptionNames()))
			}
			ids = append(ids, apiID(opt.ID))
		}
		return ids, nil
	}

	return value, nil
}
