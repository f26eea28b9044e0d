package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"github.com/wI2L/jsondiff"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/user"
	"github.com/openplaces/directory-sdk/modules/moderation/appliers"
	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
	"github.com/openplaces/directory-sdk/pkg/composables"
	"github.com/openplaces/directory-sdk/pkg/eventbus"
	"github.com/openplaces/directory-sdk/pkg/metrics"
	"github.com/openplaces/directory-sdk/pkg/notifications"
	"github.com/openplaces/directory-sdk/pkg/outbox"
)

var ErrForbidden = errors.New("user may not action update requests")

// NotificationOutboxTable is where the workflow enqueues notifications for
// the relay to deliver.
var NotificationOutboxTable = pgx.Identifier{"notification_outbox"}

// Events published on the bus after each committed workflow step.
type RequestCreated struct {
	Request *updaterequest.UpdateRequest
}

type RequestApproved struct {
	Request   *updaterequest.UpdateRequest
	AppliedID uuid.UUID
}

type RequestRejected struct {
	Request *updaterequest.UpdateRequest
}

type CreateParams struct {
	Type         updaterequest.Type
	UpdateableID *uuid.UUID
	UserID       uuid.UUID
	Data         json.RawMessage
	// Preview suppresses persistence for existing-entity requests and
	// returns the diff the payload would produce. Ignored for new-entity
	// requests, which have nothing to preview against.
	Preview bool
}

type CreateResult struct {
	// Request is nil when the call was a preview.
	Request     *updaterequest.UpdateRequest
	AutoApplied bool
	Previewed   bool
	Diff        jsondiff.Patch
}

// UpdateRequestService orchestrates the moderation workflow. Each write
// runs as one transaction: persist, resolve conflicts, and enqueue
// notifications commit together or not at all. Delivery itself is
// asynchronous and can never roll back a committed change.
type UpdateRequestService struct {
	repo        updaterequest.Repository
	users       user.Repository
	registry    *appliers.Registry
	resolver    *ConflictResolver
	publisher   outbox.Publisher
	bus         eventbus.EventBus
	adminEmails []string
	m           *metrics.Moderation
	log         logrus.FieldLogger
}

func NewUpdateRequestService(
	repo updaterequest.Repository,
	users user.Repository,
	registry *appliers.Registry,
	resolver *ConflictResolver,
	publisher outbox.Publisher,
	bus eventbus.EventBus,
	adminEmails []string,
	log logrus.FieldLogger,
) *UpdateRequestService {
	return &UpdateRequestService{
		repo:        repo,
		users:       users,
		registry:    registry,
		resolver:    resolver,
		publisher:   publisher,
		bus:         bus,
		adminEmails: adminEmails,
		m:           metrics.UseModeration(),
		log:         log,
	}
}

func (s *UpdateRequestService) GetByID(ctx context.Context, id uuid.UUID) (*updaterequest.UpdateRequest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UpdateRequestService) List(ctx context.Context, f updaterequest.Filter) ([]*updaterequest.UpdateRequest, error) {
	return s.repo.List(ctx, f)
}

func (s *UpdateRequestService) Create(ctx context.Context, params CreateParams) (*CreateResult, error) {
	if !params.Type.Valid() {
		return nil, updaterequest.ErrUnknownType
	}
	if params.Type.IsNew() != (params.UpdateableID == nil) {
		return nil, &appliers.ValidationError{Fields: map[string]string{
			"updateable_id": "must be set for existing-entity types and absent for new-entity types",
		}}
	}
	if _, err := updaterequest.NormalizePayload(params.Data); err != nil {
		return nil, err
	}

	submitter, err := s.users.GetByID(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	applier, err := s.registry.For(params.Type)
	if err != nil {
		return nil, err
	}

	u := &updaterequest.UpdateRequest{
		Type:         params.Type,
		UpdateableID: params.UpdateableID,
		UserID:       params.UserID,
		Data:         params.Data,
	}
	if err := applier.Validate(ctx, u, appliers.ModeSubmit); err != nil {
		return nil, err
	}

	if params.Preview && !params.Type.IsNew() {
		return s.preview(ctx, applier, u)
	}
	if submitter.IsSuperAdmin() {
		return s.autoApply(ctx, applier, u)
	}

	err = composables.InTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.Insert(txCtx, u); err != nil {
			return err
		}
		if err := s.resolver.Resolve(txCtx, u); err != nil {
			return gerrors.Wrap(err, "conflict resolution")
		}
		admins, err := s.notifiableAdmins(txCtx)
		if err != nil {
			return err
		}
		resourceName, err := applier.DisplayName(txCtx, u)
		if err != nil {
			return err
		}
		return s.enqueue(txCtx, createdNotifications(u, submitter, admins, resourceName))
	})
	if err != nil {
		return nil, err
	}

	s.m.CreatedTotal.WithLabelValues(string(u.Type)).Inc()
	s.bus.Publish(RequestCreated{Request: u})
	s.log.WithFields(logrus.Fields{
		"update_request_id": u.ID,
		"updateable_type":   u.Type,
	}).Info("update request created")
	return &CreateResult{Request: u}, nil
}

// preview computes the change an existing-entity payload would make,
// without persisting anything.
func (s *UpdateRequestService) preview(ctx context.Context, applier appliers.Applier, u *updaterequest.UpdateRequest) (*CreateResult, error) {
	snapshot, err := applier.Snapshot(ctx, u.UpdateableID)
	if err != nil {
		return nil, err
	}
	merged, err := jsonMergeForPreview(snapshot, u.Data)
	if err != nil {
		return nil, err
	}
	diff, err := jsondiff.CompareJSON(snapshot, merged)
	if err != nil {
		return nil, gerrors.Wrap(err, "compute preview diff")
	}
	return &CreateResult{Previewed: true, Diff: diff}, nil
}

// autoApply persists the request already approved and applies it in the
// same transaction, so a privileged submitter's change takes effect
// immediately while keeping the audit row. The row is never pending.
func (s *UpdateRequestService) autoApply(ctx context.Context, applier appliers.Applier, u *updaterequest.UpdateRequest) (*CreateResult, error) {
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		appliedID, err := applier.Apply(txCtx, u)
		if err != nil {
			return err
		}
		now := time.Now()
		u.UpdateableID = &appliedID
		u.ActioningUserID = &u.UserID
		u.ApprovedAt = &now
		if _, err := s.repo.Insert(txCtx, u); err != nil {
			return err
		}
		return s.resolver.Resolve(txCtx, u)
	})
	if err != nil {
		return nil, err
	}

	s.m.AutoAppliedTotal.WithLabelValues(string(u.Type)).Inc()
	s.bus.Publish(RequestApproved{Request: u, AppliedID: *u.UpdateableID})
	s.log.WithFields(logrus.Fields{
		"update_request_id": u.ID,
		"updateable_type":   u.Type,
	}).Info("update request auto-applied")
	return &CreateResult{Request: u, AutoApplied: true}, nil
}

func (s *UpdateRequestService) Approve(ctx context.Context, id, actioningUserID uuid.UUID) (*updaterequest.UpdateRequest, error) {
	actioner, err := s.users.GetByID(ctx, actioningUserID)
	if err != nil {
		return nil, err
	}
	if !actioner.IsAtLeast(user.RoleGlobalAdmin) {
		return nil, ErrForbidden
	}

	var u *updaterequest.UpdateRequest
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		u, err = s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if !u.IsPending() {
			return updaterequest.ErrNotPending
		}
		applier, err := s.registry.For(u.Type)
		if err != nil {
			return err
		}
		if err := applier.Validate(txCtx, u, appliers.ModeApply); err != nil {
			return err
		}
		appliedID, err := applier.Apply(txCtx, u)
		if err != nil {
			return gerrors.Wrap(err, "apply update request")
		}
		if err := s.repo.Approve(txCtx, u.ID, actioningUserID, appliedID); err != nil {
			return err
		}
		u.UpdateableID = &appliedID
		u.ActioningUserID = &actioningUserID

		submitter, err := s.users.GetByID(txCtx, u.UserID)
		if err != nil {
			return err
		}
		resourceName, err := applier.DisplayName(txCtx, u)
		if err != nil {
			return err
		}
		return s.enqueue(txCtx, actionedNotifications(u, submitter, notifications.KindUpdateRequestApproved, nil, resourceName))
	})
	if err != nil {
		return nil, err
	}

	s.m.ApprovedTotal.WithLabelValues(string(u.Type)).Inc()
	s.bus.Publish(RequestApproved{Request: u, AppliedID: *u.UpdateableID})
	s.log.WithFields(logrus.Fields{
		"update_request_id": u.ID,
		"updateable_type":   u.Type,
	}).Info("update request approved")
	return u, nil
}

func (s *UpdateRequestService) Reject(ctx context.Context, id, actioningUserID uuid.UUID, message *string) (*updaterequest.UpdateRequest, error) {
	actioner, err := s.users.GetByID(ctx, actioningUserID)
	if err != nil {
		return nil, err
	}
	if !actioner.IsAtLeast(user.RoleGlobalAdmin) {
		return nil, ErrForbidden
	}

	var u *updaterequest.UpdateRequest
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		u, err = s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if !u.IsPending() {
			return updaterequest.ErrNotPending
		}
		if err := s.repo.Reject(txCtx, u.ID, &actioningUserID, message); err != nil {
			return err
		}
		now := time.Now()
		u.DeletedAt = &now
		u.ActioningUserID = &actioningUserID
		u.RejectionMessage = message

		submitter, err := s.users.GetByID(txCtx, u.UserID)
		if err != nil {
			return err
		}
		applier, err := s.registry.For(u.Type)
		if err != nil {
			return err
		}
		// A vanished target must not block rejection.
		resourceName, err := applier.DisplayName(txCtx, u)
		if err != nil {
			resourceName = ""
		}
		return s.enqueue(txCtx, actionedNotifications(u, submitter, notifications.KindUpdateRequestRejected, message, resourceName))
	})
	if err != nil {
		return nil, err
	}

	s.m.RejectedTotal.WithLabelValues(string(u.Type)).Inc()
	s.bus.Publish(RequestRejected{Request: u})
	s.log.WithFields(logrus.Fields{
		"update_request_id": u.ID,
		"updateable_type":   u.Type,
	}).Info("update request rejected")
	return u, nil
}

// notifiableAdmins merges the configured notification addresses with the
// global admins on record, deduplicated.
func (s *UpdateRequestService) notifiableAdmins(ctx context.Context) ([]string, error) {
	fromDB, err := s.users.GlobalAdminEmails(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(fromDB)+len(s.adminEmails))
	var out []string
	for _, email := range append(append([]string{}, s.adminEmails...), fromDB...) {
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	return out, nil
}

func (s *UpdateRequestService) enqueue(ctx context.Context, ns []notifications.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	for _, n := range ns {
		payload, err := n.Encode()
		if err != nil {
			return err
		}
		if _, err := s.publisher.Enqueue(ctx, tx, NotificationOutboxTable, outbox.Message{
			Topic:   string(n.Kind),
			EventID: n.EventID,
			Payload: payload,
		}); err != nil {
			return err
		}
	}
	return nil
}
