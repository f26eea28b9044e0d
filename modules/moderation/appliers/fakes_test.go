package appliers

import (
	"context"

	"github.com/google/uuid"

	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/file"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/organisation"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/page"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/taxonomy"
)

type fakeOrgRepo struct {
	orgs            map[uuid.UUID]*organisation.Organisation
	created         []*organisation.Organisation
	updated         []*organisation.Organisation
	replaced        map[uuid.UUID][]organisation.SocialMedia
	socialMediasErr error
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{
		orgs:     make(map[uuid.UUID]*organisation.Organisation),
		replaced: make(map[uuid.UUID][]organisation.SocialMedia),
	}
}

func (r *fakeOrgRepo) GetByID(_ context.Context, id uuid.UUID) (*organisation.Organisation, error) {
	o, ok := r.orgs[id]
	if !ok {
		return nil, organisation.ErrNotFound
	}
	return o, nil
}

func (r *fakeOrgRepo) Create(_ context.Context, o *organisation.Organisation) (*organisation.Organisation, error) {
	o.ID = uuid.New()
	r.orgs[o.ID] = o
	r.created = append(r.created, o)
	return o, nil
}

func (r *fakeOrgRepo) Update(_ context.Context, o *organisation.Organisation) (*organisation.Organisation, error) {
	if _, ok := r.orgs[o.ID]; !ok {
		return nil, organisation.ErrNotFound
	}
	r.orgs[o.ID] = o
	r.updated = append(r.updated, o)
	return o, nil
}

func (r *fakeOrgRepo) ReplaceSocialMedias(_ context.Context, id uuid.UUID, items []organisation.SocialMedia) error {
	if r.socialMediasErr != nil {
		return r.socialMediasErr
	}
	r.replaced[id] = items
	return nil
}

type fakePageRepo struct {
	pages   map[uuid.UUID]*page.Page
	created []*page.Page
	updated []*page.Page
}

func newFakePageRepo() *fakePageRepo {
	return &fakePageRepo{pages: make(map[uuid.UUID]*page.Page)}
}

func (r *fakePageRepo) GetByID(_ context.Context, id uuid.UUID) (*page.Page, error) {
	p, ok := r.pages[id]
	if !ok {
		return nil, page.ErrNotFound
	}
	return p, nil
}

func (r *fakePageRepo) Create(_ context.Context, p *page.Page) (*page.Page, error) {
	p.ID = uuid.New()
	r.pages[p.ID] = p
	r.created = append(r.created, p)
	return p, nil
}

func (r *fakePageRepo) Update(_ context.Context, p *page.Page) (*page.Page, error) {
	if _, ok := r.pages[p.ID]; !ok {
		return nil, page.ErrNotFound
	}
	r.pages[p.ID] = p
	r.updated = append(r.updated, p)
	return p, nil
}

type fakeFileRepo struct {
	files   map[uuid.UUID]*file.File
	resized map[uuid.UUID][]int
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{
		files:   make(map[uuid.UUID]*file.File),
		resized: make(map[uuid.UUID][]int),
	}
}

func (r *fakeFileRepo) addPending() uuid.UUID {
	id := uuid.New()
	r.files[id] = &file.File{ID: id, Filename: "upload.png", MimeType: "image/png", PendingAssignment: true}
	return id
}

func (r *fakeFileRepo) GetByID(_ context.Context, id uuid.UUID) (*file.File, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, file.ErrNotFound
	}
	return f, nil
}

func (r *fakeFileRepo) Create(_ context.Context, f *file.File) (*file.File, error) {
	f.ID = uuid.New()
	r.files[f.ID] = f
	return f, nil
}

func (r *fakeFileRepo) MarkAssigned(_ context.Context, id uuid.UUID) error {
	f, ok := r.files[id]
	if !ok {
		return file.ErrNotFound
	}
	f.PendingAssignment = false
	return nil
}

func (r *fakeFileRepo) InsertResizedVersion(_ context.Context, id uuid.UUID, maxDimension int) error {
	r.resized[id] = append(r.resized[id], maxDimension)
	return nil
}

type fakeTaxonomyRepo struct {
	known  map[uuid.UUID]bool
	synced map[uuid.UUID][]uuid.UUID
}

func newFakeTaxonomyRepo(ids ...uuid.UUID) *fakeTaxonomyRepo {
	r := &fakeTaxonomyRepo{
		known:  make(map[uuid.UUID]bool),
		synced: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, id := range ids {
		r.known[id] = true
	}
	return r
}

func (r *fakeTaxonomyRepo) MissingIDs(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	var missing []uuid.UUID
	for _, id := range ids {
		if !r.known[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *fakeTaxonomyRepo) SyncRelationships(_ context.Context, _ taxonomy.EntityKind, entityID uuid.UUID, ids []uuid.UUID) error {
	r.synced[entityID] = ids
	return nil
}

func (r *fakeTaxonomyRepo) ListForEntity(_ context.Context, _ taxonomy.EntityKind, entityID uuid.UUID) ([]uuid.UUID, error) {
	return r.synced[entityID], nil
}
