package identifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperpack/copper-pack/internal/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    models.RecordIdentifier
		wantErr bool
	}{
		{"bare id", "123456", models.RecordIdentifier{ID: "123456"}, false},
		{"bare id with whitespace", "  98765 \n", models.RecordIdentifier{ID: "98765"}, false},
		{"deal url", "https://app.x.com/companies/999/app#/deal/123456",
			models.RecordIdentifier{ID: "123456", Type: models.RecordTypeOpportunity}, false},
		{"organization url", "https://app.copper.com/companies/1/app#/organization/55555",
			models.RecordIdentifier{ID: "55555", Type: models.RecordTypeCompany}, false},
		{"contact url", "https://app.copper.com/companies/1/app#/contact/7777777",
			models.RecordIdentifier{ID: "7777777", Type: models.RecordTypePerson}, false},
		{"too short", "1234", models.RecordIdentifier{}, true},
		{"letters", "abc", models.RecordIdentifier{}, true},
		{"empty", "", models.RecordIdentifier{}, true},
		{"unknown web token", "https://app.copper.com/companies/1/app#/task/123456", models.RecordIdentifier{}, true},
		{"url without id", "https://app.copper.com/companies/1/app#/deal/", models.RecordIdentifier{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, models.ErrInvalidIdentifier))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_GeneratedURLRoundTrip(t *testing.T) {
	for _, rt := range models.ValidRecordTypes {
		url := "https://app.copper.com/companies/999/app#/" + rt.WebToken() + "/424242"
		got, err := Resolve(url)
		require.NoError(t, err)
		assert.Equal(t, models.RecordIdentifier{ID: "424242", Type: rt}, got)
	}
}

func TestCheckType(t *testing.T) {
	assert.NoError(t, CheckType("", models.RecordTypePerson))
	assert.NoError(t, CheckType(models.RecordTypePerson, models.RecordTypePerson))

	err := CheckType(models.RecordTypeCompany, models.RecordTypePerson)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrTypeMismatch))
	assert.Contains(t, err.Error(), "a company")
	assert.Contains(t, err.Error(), "a person")

	err = CheckType(models.RecordTypeCompany, models.RecordTypeOpportunity)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "an opportunity")
}

func TestResolveAs(t *testing.T) {
	ri, err := ResolveAs("123456", models.RecordTypeCompany)
	require.NoError(t, err)
	assert.Equal(t, models.RecordTypeCompany, ri.Type)

	_, err = ResolveAs("https://app.copper.com/companies/1/app#/deal/123456", models.RecordTypeCompany)
	assert.True(t, errors.Is(err, models.ErrTypeMismatch))

	_, err = ResolveAs("nope", models.RecordTypeCompany)
	assert.True(t, errors.Is(err, models.ErrInvalidIdentifier))
}
