package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openplaces/directory-sdk/migrations"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/organisation"
	"github.com/openplaces/directory-sdk/modules/directory/domain/aggregates/user"
	dirpersistence "github.com/openplaces/directory-sdk/modules/directory/infrastructure/persistence"
	dirservices "github.com/openplaces/directory-sdk/modules/directory/services"
	"github.com/openplaces/directory-sdk/modules/moderation/appliers"
	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
	modpersistence "github.com/openplaces/directory-sdk/modules/moderation/infrastructure/persistence"
	"github.com/openplaces/directory-sdk/pkg/composables"
	"github.com/openplaces/directory-sdk/pkg/eventbus"
	"github.com/openplaces/directory-sdk/pkg/outbox"
)

var migrateOnce sync.Once

type workflowFixture struct {
	ctx  context.Context
	pool *pgxpool.Pool
	svc  *UpdateRequestService
	orgs organisation.Repository
}

func setupWorkflow(t *testing.T) *workflowFixture {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrateOnce.Do(func() {
		goose.SetBaseFS(migrations.FS)
		if err := goose.SetDialect("postgres"); err != nil {
			t.Fatal(err)
		}
		db := stdlib.OpenDBFromPool(pool)
		defer func() { _ = db.Close() }()
		if err := goose.Up(db, "."); err != nil {
			t.Fatal(err)
		}
	})

	orgs := dirpersistence.NewOrganisationRepository()
	files := dirservices.NewFileService(dirpersistence.NewFileRepository())
	taxonomies := dirservices.NewTaxonomyService(dirpersistence.NewTaxonomyRepository())

	registry := appliers.NewRegistry()
	orgApplier := appliers.NewOrganisationApplier(orgs, files, taxonomies)
	registry.Register(updaterequest.TypeOrganisation, orgApplier)
	registry.Register(updaterequest.TypeNewOrganisationByAdmin, orgApplier)
	registry.Register(updaterequest.TypeOrganisationSignUpForm, orgApplier)

	requests := modpersistence.NewUpdateRequestRepository()
	users := dirpersistence.NewUserRepository()
	log := quietLogger()
	svc := NewUpdateRequestService(
		requests, users, registry,
		NewConflictResolver(requests, log),
		outbox.NewPublisher(),
		eventbus.NewEventPublisher(log),
		nil, log,
	)

	return &workflowFixture{
		ctx:  composables.WithPool(ctx, pool),
		pool: pool,
		svc:  svc,
		orgs: orgs,
	}
}

func (f *workflowFixture) seedUser(t *testing.T, role user.Role) *user.User {
	t.Helper()
	u := &user.User{
		Name:  "Test User",
		Email: fmt.Sprintf("%s-%s@test.example", role, uuid.NewString()),
		Role:  role,
	}
	var err error
	u, err = dirpersistence.NewUserRepository().Create(f.ctx, u)
	require.NoError(t, err)
	return u
}

func (f *workflowFixture) seedOrg(t *testing.T) *organisation.Organisation {
	t.Helper()
	o := &organisation.Organisation{
		Slug:        "org-" + uuid.NewString(),
		Name:        "Original Name",
		Description: "Original description",
	}
	var err error
	err = composables.InTx(f.ctx, func(txCtx context.Context) error {
		o, err = f.orgs.Create(txCtx, o)
		return err
	})
	require.NoError(t, err)
	return o
}

func (f *workflowFixture) pendingCountForTarget(t *testing.T, targetID uuid.UUID) int {
	t.Helper()
	var n int
	err := f.pool.QueryRow(f.ctx, `
	SELECT count(*) FROM update_requests
	WHERE updateable_id = $1 AND approved_at IS NULL AND deleted_at IS NULL
	`, targetID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestWorkflow_EmptyPayloadNeverPersists(t *testing.T) {
	f := setupWorkflow(t)
	member := f.seedUser(t, user.RoleMember)
	org := f.seedOrg(t)

	_, err := f.svc.Create(f.ctx, CreateParams{
		Type:         updaterequest.TypeOrganisation,
		UpdateableID: &org.ID,
		UserID:       member.ID,
		Data:         json.RawMessage(`{}`),
	})
	require.ErrorIs(t, err, updaterequest.ErrEmptyPayload)
	assert.Zero(t, f.pendingCountForTarget(t, org.ID))
}

func TestWorkflow_ConflictNarrowsAndDeletesSiblings(t *testing.T) {
	f := setupWorkflow(t)
	member := f.seedUser(t, user.RoleMember)
	org := f.seedOrg(t)

	r1, err := f.svc.Create(f.ctx, CreateParams{
		Type:         updaterequest.TypeOrganisation,
		UpdateableID: &org.ID,
		UserID:       member.ID,
		Data:         json.RawMessage(`{"name":"A","phone":"0123"}`),
	})
	require.NoError(t, err)

	_, err = f.svc.Create(f.ctx, CreateParams{
		Type:         updaterequest.TypeOrganisation,
		UpdateableID: &org.ID,
		UserID:       member.ID,
		Data:         json.RawMessage(`{"name":"B"}`),
	})
	require.NoError(t, err)

	// R1 keeps only the undisputed field.
	narrowed, err := f.svc.GetByID(f.ctx, r1.Request.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"phone":"0123"}`, string(narrowed.Data))
	assert.True(t, narrowed.IsPending())

	// A third request disputing the remaining field removes R1 entirely.
	_, err = f.svc.Create(f.ctx, CreateParams{
		Type:         updaterequest.TypeOrganisation,
		UpdateableID: &org.ID,
		UserID:       member.ID,
		Data:         json.RawMessage(`{"phone":"9999"}`),
	})
	require.NoError(t, err)

	gone, err := f.svc.GetByID(f.ctx, r1.Request.ID)
	require.NoError(t, err)
	assert.False(t, gone.IsPending())
	assert.NotNil(t, gone.DeletedAt)
}

func TestWorkflow_ApproveAppliesChange(t *testing.T) {
	f := setupWorkflow(t)
	member := f.seedUser(t, user.RoleMember)
	admin := f.seedUser(t, user.RoleGlobalAdmin)
	org := f.seedOrg(t)

	created, err := f.svc.Create(f.ctx, CreateParams{
		Type:         updaterequest.TypeOrganisation,
		UpdateableID: &org.ID,
		UserID:       member.ID,
		Data:         json.RawMessage(`{"name":"Approved Name"}`),
	})
	require.NoError(t, err)

	approved, err := f.svc.Approve(f.ctx, created.Request.ID, admin.ID)
	require.NoError(t, err)
	assert.NotNil(t, approved.ApprovedAt)
	require.NotNil(t, approved.ActioningUserID)
	assert.Equal(t, admin.ID, *approved.ActioningUserID)

	got, err := f.orgs.GetByID(f.ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Approved Name", got.Name)
	assert.Equal(t, "Original description", got.Description)

	// Approving twice conflicts.
	_, err = f.svc.Approve(f.ctx, created.Request.ID, admin.ID)
	assert.ErrorIs(t, err, updaterequest.ErrNotPending)
}

func TestWorkflow_MemberCannotApprove(t *testing.T) {
	f := setupWorkflow(t)
	member := f.seedUser(t, user.RoleMember)
	org := f.seedOrg(t)

	created, err := f.svc.Create(f.ctx, CreateParams{
		Type:         updaterequest.TypeOrganisation,
		UpdateableID: &org.ID,
		UserID:       member.ID,
		Data:         json.RawMessage(`{"name":"Nope"}`),
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(f.ctx, created.Request.ID, member.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestWorkflow_SuperAdminAutoApplies(t *testing.T) {
	f := setupWorkflow(t)
	super := f.seedUser(t, user.RoleSuperAdmin)
	org := f.seedOrg(t)

	result, err := f.svc.Create(f.ctx, CreateParams{
		Type:         updaterequest.TypeOrganisation,
		UpdateableID: &org.ID,
		UserID:       super.ID,
		Data:         json.RawMessage(`{"name":"Instant"}`),
	})
	require.NoError(t, err)
	assert.True(t, result.AutoApplied)

	// The audit row exists but was never pending.
	row, err := f.svc.GetByID(f.ctx, result.Request.ID)
	require.NoError(t, err)
	assert.NotNil(t, row.ApprovedAt)
	assert.Zero(t, f.pendingCountForTarget(t, org.ID))

	got, err := f.orgs.GetByID(f.ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Instant", got.Name)
}

func TestWorkflow_NewOrganisationRoundTrip(t *testing.T) {
	f := setupWorkflow(t)
	submitter := f.seedUser(t, user.RoleGlobalAdmin)
	admin := f.seedUser(t, user.RoleGlobalAdmin)

	slug := "new-org-" + uuid.NewString()
	created, err := f.svc.Create(f.ctx, CreateParams{
		Type:   updaterequest.TypeNewOrganisationByAdmin,
		UserID: submitter.ID,
		Data: json.RawMessage(fmt.Sprintf(
			`{"name":"Test Org","slug":"%s","description":"A brand new organisation"}`, slug,
		)),
	})
	require.NoError(t, err)
	assert.Nil(t, created.Request.UpdateableID)

	approved, err := f.svc.Approve(f.ctx, created.Request.ID, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, approved.UpdateableID)

	got, err := f.orgs.GetByID(f.ctx, *approved.UpdateableID)
	require.NoError(t, err)
	assert.Equal(t, "Test Org", got.Name)
	assert.Equal(t, slug, got.Slug)
}

func TestWorkflow_PreviewPersistsNothing(t *testing.T) {
	f := setupWorkflow(t)
	member := f.seedUser(t, user.RoleMember)
	org := f.seedOrg(t)

	result, err := f.svc.Create(f.ctx, CreateParams{
		Type:         updaterequest.TypeOrganisation,
		UpdateableID: &org.ID,
		UserID:       member.ID,
		Data:         json.RawMessage(`{"name":"Previewed"}`),
		Preview:      true,
	})
	require.NoError(t, err)
	assert.True(t, result.Previewed)
	assert.Nil(t, result.Request)
	assert.NotEmpty(t, result.Diff)

	assert.Zero(t, f.pendingCountForTarget(t, org.ID))
}

func TestWorkflow_RejectKeepsEntityUntouched(t *testing.T) {
	f := setupWorkflow(t)
	member := f.seedUser(t, user.RoleMember)
	admin := f.seedUser(t, user.RoleGlobalAdmin)
	org := f.seedOrg(t)

	created, err := f.svc.Create(f.ctx, CreateParams{
		Type:         updaterequest.TypeOrganisation,
		UpdateableID: &org.ID,
		UserID:       member.ID,
		Data:         json.RawMessage(`{"name":"Rejected Name"}`),
	})
	require.NoError(t, err)

	reason := "not appropriate"
	rejected, err := f.svc.Reject(f.ctx, created.Request.ID, admin.ID, &reason)
	require.NoError(t, err)
	assert.NotNil(t, rejected.DeletedAt)
	require.NotNil(t, rejected.RejectionMessage)
	assert.Equal(t, reason, *rejected.RejectionMessage)

	got, err := f.orgs.GetByID(f.ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original Name", got.Name)
}

func TestWorkflow_ApproveMissingTargetKeepsRequestPending(t *testing.T) {
	f := setupWorkflow(t)
	member := f.seedUser(t, user.RoleMember)
	admin := f.seedUser(t, user.RoleGlobalAdmin)
	org := f.seedOrg(t)

	created, err := f.svc.Create(f.ctx, CreateParams{
		Type:         updaterequest.TypeOrganisation,
		UpdateableID: &org.ID,
		UserID:       member.ID,
		Data:         json.RawMessage(`{"name":"Orphaned"}`),
	})
	require.NoError(t, err)

	// The target vanishes out-of-band before the admin gets to it.
	_, err = f.pool.Exec(f.ctx, `DELETE FROM organisations WHERE id = $1`, org.ID)
	require.NoError(t, err)

	_, err = f.svc.Approve(f.ctx, created.Request.ID, admin.ID)
	require.Error(t, err)

	still, getErr := f.svc.GetByID(f.ctx, created.Request.ID)
	require.NoError(t, getErr)
	assert.True(t, still.IsPending())
}

func TestWorkflow_ChildReplacementFailureRollsBack(t *testing.T) {
	f := setupWorkflow(t)
	member := f.seedUser(t, user.RoleMember)
	admin := f.seedUser(t, user.RoleGlobalAdmin)
	org := f.seedOrg(t)

	created, err := f.svc.Create(f.ctx, CreateParams{
		Type:         updaterequest.TypeOrganisation,
		UpdateableID: &org.ID,
		UserID:       member.ID,
		Data:         json.RawMessage(`{"name":"Half Applied","social_medias":[{"type":"facebook","url":"https://fb.example/acme"}]}`),
	})
	require.NoError(t, err)

	// Sabotage the child-record insert so the apply fails after the
	// parent row was already updated inside the transaction.
	_, err = f.pool.Exec(f.ctx, `
	CREATE OR REPLACE FUNCTION refuse_social_media_writes() RETURNS trigger AS $$
	BEGIN
		RAISE EXCEPTION 'social media writes refused';
	END;
	$$ LANGUAGE plpgsql`)
	require.NoError(t, err)
	_, err = f.pool.Exec(f.ctx, `
	CREATE TRIGGER refuse_social_media_writes BEFORE INSERT ON organisation_social_medias
	FOR EACH ROW EXECUTE FUNCTION refuse_social_media_writes()`)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = f.pool.Exec(ctx, `DROP TRIGGER IF EXISTS refuse_social_media_writes ON organisation_social_medias`)
		_, _ = f.pool.Exec(ctx, `DROP FUNCTION IF EXISTS refuse_social_media_writes`)
	})

	_, err = f.svc.Approve(f.ctx, created.Request.ID, admin.ID)
	require.Error(t, err)

	// The whole apply rolled back: parent fields untouched, request still
	// pending and retryable.
	got, err := f.orgs.GetByID(f.ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original Name", got.Name)

	still, err := f.svc.GetByID(f.ctx, created.Request.ID)
	require.NoError(t, err)
	assert.True(t, still.IsPending())
	assert.Nil(t, still.ApprovedAt)
}

func TestWorkflow_CreateEnqueuesNotifications(t *testing.T) {
	f := setupWorkflow(t)
	member := f.seedUser(t, user.RoleMember)
	admin := f.seedUser(t, user.RoleGlobalAdmin)
	_ = admin
	org := f.seedOrg(t)

	created, err := f.svc.Create(f.ctx, CreateParams{
		Type:         updaterequest.TypeOrganisation,
		UpdateableID: &org.ID,
		UserID:       member.ID,
		Data:         json.RawMessage(`{"name":"Notify"}`),
	})
	require.NoError(t, err)

	var n int
	err = f.pool.QueryRow(f.ctx, `
	SELECT count(*) FROM notification_outbox
	WHERE payload->'vars'->>'request_id' = $1
	`, created.Request.ID.String()).Scan(&n)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 2)

	// Every queued notification names the entity under moderation.
	var resourceName string
	err = f.pool.QueryRow(f.ctx, `
	SELECT payload->'vars'->>'resource_name' FROM notification_outbox
	WHERE payload->'vars'->>'request_id' = $1
	LIMIT 1
	`, created.Request.ID.String()).Scan(&resourceName)
	require.NoError(t, err)
	assert.Equal(t, "Original Name", resourceName)
}
