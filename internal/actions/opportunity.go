package actions

import (
	"context"
	"strings"

	"github.com/copperpack/copper-pack/internal/identifier"
	"github.com/copperpack/copper-pack/internal/models"
	"github.com/copperpack/copper-pack/pkg/humanize"
)

// Opportunity statuses.
const (
	StatusOpen      = "Open"
	StatusWon       = "Won"
	StatusLost      = "Lost"
	StatusAbandoned = "Abandoned"
)

// Statuses lists the legal opportunity statuses.
var Statuses = []string{StatusOpen, StatusWon, StatusLost, StatusAbandoned}

// NormalizeStatus title-cases status and checks it is legal.
func NormalizeStatus(status string) (string, error) {
	s := humanize.TitleCase(status)
	for _, legal := range Statuses {
		if s == legal {
			return s, nil
		}
	}
	return "", models.InvalidValuef("%q is not a valid status: must be %s", status, humanize.List(Statuses))
}

// SetStatus changes an opportunity's status. lossReason names a loss reason
// and is only accepted together with the Lost status.
func (e *Executor) SetStatus(ctx context.Context, ref, status, lossReason string) (models.Record, error) {
	ri, err := identifier.ResolveAs(ref, models.RecordTypeOpportunity)
	if err != nil {
		return nil, err
	}
	status, err = NormalizeStatus(status)
	if err != nil {
		return nil, err
	}
	lossReason = strings.TrimSpace(lossReason)
	if lossReason != "" && status != StatusLost {
		return nil, models.InvalidValuef("a loss reason can only be given when the status is %s", StatusLost)
	}

	refs, _, err := e.load(ctx, ri, false)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{"status": status}
	if lossReason != "" {
		reason := models.FindNamedByName(refs.LossReasons, lossReason)
		if reason == nil {
			return nil, models.InvalidValuef("%q is not a valid loss reason: must be %s",
				lossReason, humanize.List(models.Names(refs.LossReasons)))
		}
		payload["loss_reason_id"] = apiID(reason.ID)
	}

	return e.update(ctx, "set status", ri, payload, refs)
}

// SetStage moves an opportunity to the named stage of its own pipeline.
func (e *Executor) SetStage(ctx context.Context, ref, stage string) (models.Record, error) {
	ri, err := identifier.ResolveAs(ref, models.RecordTypeOpportunity)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(stage) == "" {
		return nil, models.InvalidValuef("a stage name is required")
	}

	refs, raw, err := e.load(ctx, ri, true)
	if err != nil {
		return nil, err
	}

	pipeline := refs.FindPipeline(raw.IDField("pipeline_id"))
	if pipeline == nil {
		return nil, models.NotFoundf("the pipeline of opportunity %s could not be found", ri.ID)
	}
	target := pipeline.FindStageByName(stage)
	if target == nil {
		return nil, models.InvalidValuef("%q is not a stage of the %s pipeline: must be %s",
			stage, pipeline.Name, humanize.List(pipeline.StageNames()))
	}

	return e.update(ctx, "set stage", ri, map[string]any{"pipeline_stage_id": apiID(target.ID)}, refs)
}
