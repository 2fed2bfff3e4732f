package actions

import (
	"context"
	"strings"

	"github.com/copperpack/copper-pack/internal/identifier"
	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/pkg/humanize"
)

// Assign makes the user with the given email the owner of a record.
func (e *Executor) Assign(ctx context.Context, rt models.RecordType, ref, email string) (models.Record, error) {
	ri, err := identifier.ResolveAs(ref, rt)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(email) == "" {
		return nil, models.InvalidValuef("an assignee email is required")
	}

	refs, _, err := e.load(ctx, ri, false)
	if err != nil {
		return nil, err
	}
	user := refs.FindUserByEmail(email)
	if user == nil {
		return nil, models.NotFoundf("no user with email %q: must be %s", email, humanize.List(refs.UserEmails()))
	}

	return e.update(ctx, "assign", ri, map[string]any{"assignee_id": apiID(user.ID)}, refs)
}

// AddTag adds tag to a record. Adding a tag the record already carries
// changes nothing and issues no update.
func (e *Executor) AddTag(ctx context.Context, rt models.RecordType, ref, tag string) (models.Record, error) {
	return e.editTags(ctx, "add tag", rt, ref, tag, func(tags []string, tag string) ([]string, bool) {
		for _, t := range tags {
			if t == tag {
				return tags, false
			}
		}
		return append(tags, tag), true
	})
}

// RemoveTag removes every exact occurrence of tag. Removing an absent tag
// changes nothing and issues no update.
func (e *Executor) RemoveTag(ctx context.Context, rt models.RecordType, ref, tag string) (models.Record, error) {
	return e.editTags(ctx, "remove tag", rt, ref, tag, func(tags []string, tag string) ([]string, bool) {
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if t != tag {
				out = append(out, t)
			}
		}
		return out, len(out) != len(tags)
	})
}

// editTags reads the current tag list, applies edit and PUTs the full
// replacement list when it changed.
func (e *Executor) editTags(ctx context.Context, action string, rt models.RecordType, ref, tag string,
	edit func(tags []string, tag string) ([]string, bool)) (models.Record, error) {
	ri, err := identifier.ResolveAs(ref, rt)
	if err != nil {
		return nil, err
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, models.InvalidValuef("a tag is required")
	}

	refs, raw, err := e.load(ctx, ri, true)
	if err != nil {
		return nil, err
	}

	tags, changed := edit(raw.Strings("tags"), tag)
	if !changed {
		e.logger.Debug("actions: tags unchanged", "action", action, "record_type", rt, "id", ri.ID)
		return e.enricher.Enrich(rt, raw, refs, false), nil
	}
	return e.update(ctx, action, ri, map[string]any{"tags": tags}, refs)
}
