package services

import (
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch/v5"
	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/user"
	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
	"github.com/openplaces/directory-sdk/pkg/notifications"
)

// createdNotifications decides who hears about a newly persisted request.
// Existing-entity requests notify the submitter and every admin. Of the
// new-entity flows only the public sign-up form notifies: the others are
// raised by admins about their own backlog.
func createdNotifications(u *updaterequest.UpdateRequest, submitter *user.User, adminEmails []string, resourceName string) []notifications.Notification {
	vars := requestVars(u, submitter, resourceName)

	if u.Type.IsNew() {
		if u.Type != updaterequest.TypeOrganisationSignUpForm {
			return nil
		}
		ns := []notifications.Notification{{
			EventID: uuid.New(),
			Kind:    notifications.KindSignUpReceived,
			To:      submitter.Email,
			Vars:    vars,
		}}
		for _, email := range adminEmails {
			ns = append(ns, notifications.Notification{
				EventID: uuid.New(),
				Kind:    notifications.KindSignUpAdminReceived,
				To:      email,
				Vars:    vars,
			})
		}
		return ns
	}

	ns := []notifications.Notification{{
		EventID: uuid.New(),
		Kind:    notifications.KindUpdateRequestReceived,
		To:      submitter.Email,
		Vars:    vars,
	}}
	for _, email := range adminEmails {
		ns = append(ns, notifications.Notification{
			EventID: uuid.New(),
			Kind:    notifications.KindUpdateRequestAdminReceived,
			To:      email,
			Vars:    vars,
		})
	}
	return ns
}

// actionedNotifications tells the submitter their request was approved or
// rejected. A rejection reason, when given, is passed through to the
// template.
func actionedNotifications(u *updaterequest.UpdateRequest, submitter *user.User, kind notifications.Kind, reason *string, resourceName string) []notifications.Notification {
	vars := requestVars(u, submitter, resourceName)
	if reason != nil {
		vars["reason"] = *reason
	}
	return []notifications.Notification{{
		EventID: uuid.New(),
		Kind:    kind,
		To:      submitter.Email,
		Vars:    vars,
	}}
}

// requestVars feeds the notification templates: who submitted, what kind of
// resource, and the resolved name of the subject itself.
func requestVars(u *updaterequest.UpdateRequest, submitter *user.User, resourceName string) map[string]string {
	return map[string]string{
		"name":          submitter.Name,
		"resource":      u.Type.Kind(),
		"resource_name": resourceName,
		"request_id":    u.ID.String(),
	}
}

func jsonMergeForPreview(snapshot, data json.RawMessage) (json.RawMessage, error) {
	merged, err := jsonpatch.MergePatch(snapshot, data)
	if err != nil {
		return nil, gerrors.Wrap(err, "merge preview payload")
	}
	return merged, nil
}
