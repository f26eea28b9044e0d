package appliers

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/file"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/taxonomy"
	"github.com/openplaces/directory-sdk/modules/directory/services"
)

// checkFileRef validates a payload's reference to an uploaded file. At
// submission the file must be a fresh upload still awaiting assignment,
// unless the payload re-states the target's current file. At apply time
// existence suffices.
func checkFileRef(ctx context.Context, files *services.FileService, field string, id uuid.UUID, mode Mode, current *uuid.UUID) error {
	f, err := files.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, file.ErrNotFound) {
			return fieldError(field, "refers to an unknown file")
		}
		return err
	}
	if mode == ModeSubmit && !f.PendingAssignment && (current == nil || *current != id) {
		return fieldError(field, "refers to a file that is already assigned")
	}
	return nil
}

func checkTaxonomyRefs(ctx context.Context, taxonomies *services.TaxonomyService, field string, ids []uuid.UUID) error {
	if err := taxonomies.Validate(ctx, ids); err != nil {
		if errors.Is(err, taxonomy.ErrUnknownTaxonomies) {
			return fieldError(field, "refers to an unknown taxonomy")
		}
		return err
	}
	return nil
}
