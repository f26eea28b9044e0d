package appliers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	gerrors "github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
	"github.com/openplaces/directory-sdk/pkg/constants"
)

// Mode selects which validation rules run. Submission requires referenced
// file uploads to still be awaiting assignment; by approval time they have
// been confirmed, so that check is relaxed.
type Mode int

const (
	ModeSubmit Mode = iota
	ModeApply
)

// Applier materializes one updateable type's payloads into entity state.
// All methods run inside the caller's ambient transaction.
type Applier interface {
	ResourceName() string
	// DisplayName resolves the human-readable name of the request's
	// subject: the target entity's name or title for existing entities,
	// the proposed one from the payload for new ones. Used in
	// notification templates.
	DisplayName(ctx context.Context, u *updaterequest.UpdateRequest) (string, error)
	// Snapshot returns the document payloads merge over: the target's
	// current state for existing entities, defaults for new ones.
	Snapshot(ctx context.Context, id *uuid.UUID) (json.RawMessage, error)
	Validate(ctx context.Context, u *updaterequest.UpdateRequest, mode Mode) error
	// Apply writes the merged result and returns the affected entity id.
	Apply(ctx context.Context, u *updaterequest.UpdateRequest) (uuid.UUID, error)
}

type Registry struct {
	appliers map[updaterequest.Type]Applier
}

func NewRegistry() *Registry {
	return &Registry{appliers: make(map[updaterequest.Type]Applier)}
}

func (r *Registry) Register(t updaterequest.Type, a Applier) {
	r.appliers[t] = a
}

func (r *Registry) For(t updaterequest.Type) (Applier, error) {
	a, ok := r.appliers[t]
	if !ok {
		return nil, gerrors.Wrap(updaterequest.ErrUnknownType, string(t))
	}
	return a, nil
}

// ValidationError carries field-level failures back to the submitter.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation failed: %s", strings.Join(keys, ", "))
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// validateStruct runs the shared validator and converts its failures into a
// ValidationError keyed by the json field name.
func validateStruct(in any) error {
	err := constants.Validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !gerrors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[jsonFieldName(fe)] = fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
	return &ValidationError{Fields: fields}
}

func jsonFieldName(fe validator.FieldError) string {
	// Namespace is Struct.Field[.Nested]; drop the struct name and map the
	// Go field names through snake_case, which matches our json tags.
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = toSnake(p)
	}
	return strings.Join(parts, ".")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// payloadString reads a top-level string field from a raw payload, empty
// when absent or malformed.
func payloadString(data json.RawMessage, key string) string {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(doc[key], &s); err != nil {
		return ""
	}
	return s
}

// mergeOver applies the payload as an RFC 7386 merge patch over the
// snapshot document: absent keys keep their current value, null keys are
// removed, arrays are replaced wholesale.
func mergeOver(snapshot, data json.RawMessage) (json.RawMessage, error) {
	merged, err := jsonpatch.MergePatch(snapshot, data)
	if err != nil {
		return nil, gerrors.Wrap(err, "merge payload")
	}
	return merged, nil
}
