package updaterequest

import "errors"

var ErrUnknownType = errors.New("unknown update request type")

// Type is the closed set of updateable targets. Each value names both the
// resource family and whether the request proposes a brand-new entity or a
// change to an existing one.
type Type string

const (
	TypeOrganisation           Type = "organisation"
	TypeNewOrganisationByAdmin Type = "new-organisation-by-admin"
	TypeOrganisationSignUpForm Type = "organisation-sign-up-form"
	TypeService                Type = "service"
	TypeNewServiceByOrgAdmin   Type = "new-service-by-org-admin"
	TypePage                   Type = "page"
	TypeNewPage                Type = "new-page"
	TypeEvent                  Type = "organisation-event"
	TypeNewEvent               Type = "new-organisation-event"
)

var typeInfo = map[Type]struct {
	kind  string
	isNew bool
}{
	TypeOrganisation:           {"organisation", false},
	TypeNewOrganisationByAdmin: {"organisation", true},
	TypeOrganisationSignUpForm: {"organisation", true},
	TypeService:                {"service", false},
	TypeNewServiceByOrgAdmin:   {"service", true},
	TypePage:                   {"page", false},
	TypeNewPage:                {"page", true},
	TypeEvent:                  {"event", false},
	TypeNewEvent:               {"event", true},
}

func ParseType(s string) (Type, error) {
	t := Type(s)
	if _, ok := typeInfo[t]; !ok {
		return "", ErrUnknownType
	}
	return t, nil
}

// Kind returns the resource family the type targets, shared between the
// new-entity and existing-entity variants.
func (t Type) Kind() string {
	return typeInfo[t].kind
}

// IsNew reports whether requests of this type propose a new entity rather
// than a change to an existing one.
func (t Type) IsNew() bool {
	return typeInfo[t].isNew
}

func (t Type) Valid() bool {
	_, ok := typeInfo[t]
	return ok
}

func Types() []Type {
	out := make([]Type, 0, len(typeInfo))
	for t := range typeInfo {
		out = append(out, t)
	}
	return out
}
