package services

import (
	"context"
	"encoding/json"

	gerrors "github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
	"github.com/openplaces/directory-sdk/pkg/metrics"
)

// ConflictResolver narrows or removes pending sibling requests whose
// payloads overlap a newly created request against the same entity. It must
// run in the same transaction as the creation: a request is never accepted
// without its pruning side effects.
type ConflictResolver struct {
	repo updaterequest.Repository
	m    *metrics.Moderation
	log  logrus.FieldLogger
}

func NewConflictResolver(repo updaterequest.Repository, log logrus.FieldLogger) *ConflictResolver {
	return &ConflictResolver{repo: repo, m: metrics.UseModeration(), log: log}
}

func (r *ConflictResolver) Resolve(ctx context.Context, created *updaterequest.UpdateRequest) error {
	if !created.IsExisting() {
		return nil
	}

	data, err := created.DataMap()
	if err != nil {
		return gerrors.Wrap(err, "decode created payload")
	}
	disputed := updaterequest.SchemaFor(created.Type).DisputedPaths(data)
	if len(disputed) == 0 {
		return nil
	}

	siblings, err := r.repo.ListPendingForTarget(ctx, created.Type, *created.UpdateableID, created.ID)
	if err != nil {
		return err
	}

	for _, sib := range siblings {
		m, err := sib.DataMap()
		if err != nil {
			return gerrors.Wrap(err, "decode sibling payload")
		}
		pruned, changed := updaterequest.Prune(m, disputed)
		if !changed {
			continue
		}

		if len(pruned) == 0 {
			if err := r.repo.SoftDelete(ctx, sib.ID); err != nil {
				return gerrors.Wrap(err, "delete emptied sibling")
			}
			r.m.SiblingsDeleted.Inc()
			r.log.WithFields(logrus.Fields{
				"update_request_id": sib.ID,
				"superseded_by":     created.ID,
			}).Info("pending update request superseded entirely")
			continue
		}

		raw, err := json.Marshal(pruned)
		if err != nil {
			return err
		}
		if err := r.repo.ReplaceData(ctx, sib.ID, raw); err != nil {
			return gerrors.Wrap(err, "narrow sibling payload")
		}
		r.m.SiblingsPruned.Inc()
		r.log.WithFields(logrus.Fields{
			"update_request_id": sib.ID,
			"superseded_by":     created.ID,
		}).Info("pending update request narrowed")
	}
	return nil
}
