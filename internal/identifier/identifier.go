// Package identifier parses user-supplied record references: either a bare
// numeric id or a record URL copied from the CRM web app.
package identifier

import (
	"regexp"
	"strings"

	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/pkg/humanize"
)

var (
	bareIDPattern = regexp.MustCompile(`^[0-9]{5,}$`)

	// Matches ".../app#/<webToken>/<digits>" anywhere in the input.
	recordURLPattern = regexp.MustCompile(`app#/([a-z]+)/([0-9]+)`)
)

// Resolve extracts the record id, and the record type when the input is a
// URL. A bare id yields an identifier with an empty Type.
func Resolve(input string) (models.RecordIdentifier, error) {
	input = strings.TrimSpace(input)

	if bareIDPattern.MatchString(input) {
		return models.RecordIdentifier{ID: input}, nil
	}

	if m := recordURLPattern.FindStringSubmatch(input); m != nil {
		rt, ok := models.RecordTypeForWebToken(m[1])
		if ok {
			return models.RecordIdentifier{ID: m[2], Type: rt}, nil
		}
	}

	return models.RecordIdentifier{}, models.InvalidIdentifierf(
		"%q is not a valid record id or Copper record URL", input)
}

// CheckType is a no-op when actual is unknown or equals expected.
func CheckType(actual, expected models.RecordType) error {
	if actual == "" || actual == expected {
		return nil
	}
	return models.TypeMismatchf("expected %s but the link points to %s",
		humanize.WithArticle(string(expected)), humanize.WithArticle(string(actual)))
}

// ResolveAs resolves input and checks it refers to a record of type expected.
// The returned identifier always carries expected as its type.
func ResolveAs(input string, expected models.RecordType) (models.RecordIdentifier, error) {
	ri, err := Resolve(input)
	if err != nil {
		return models.RecordIdentifier{}, err
	}
	if err := CheckType(ri.Type, expected); err != nil {
		return models.RecordIdentifier{}, err
	}
	ri.Type = expected
	return ri, nil
}
