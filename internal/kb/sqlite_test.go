package kb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "kb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func record(name, company string) *model.ProfileRecord {
	r := &model.ProfileRecord{Name: name, Company: company, Role: "Engineer", Industry: "Tech"}
	r.Normalize()
	return r
}

func TestSQLiteSaveAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msgs := &model.MessageBundle{LinkedIn: "Hi Jane"}
	p, err := s.SaveProspect(ctx, record("Jane Doe", "Acme"), msgs, "https://linkedin.com/in/jane-doe")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, model.ProspectStatusSent, p.Status)

	got, err := s.ListProspects(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jane Doe", got[0].Name)
	assert.Equal(t, "Engineer", got[0].Profile.Role)
	require.NotNil(t, got[0].Messages)
	assert.Equal(t, "Hi Jane", got[0].Messages.LinkedIn)
}

func TestSQLiteSaveUpsertsByIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.SaveProspect(ctx, record("Jane Doe", "Acme"), nil, "u1")
	require.NoError(t, err)
	require.NoError(t, s.UpdateStatus(ctx, first.ID, model.ProspectStatusReplied))

	// Same person, different case: id and status survive the rewrite.
	again, err := s.SaveProspect(ctx, record("jane doe", "ACME"), nil, "u2")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, model.ProspectStatusReplied, again.Status)

	all, err := s.ListProspects(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "u2", all[0].URL)
}

func TestSQLiteGetProspect(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msgs := &model.MessageBundle{LinkedIn: "Hi Jane"}
	saved, err := s.SaveProspect(ctx, record("Jane Doe", "Acme"), msgs, "u1")
	require.NoError(t, err)

	got, err := s.GetProspect(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "Jane Doe", got.Name)
	require.NotNil(t, got.Messages)
	assert.Equal(t, "Hi Jane", got.Messages.LinkedIn)

	_, err = s.GetProspect(ctx, "missing")
	assert.Error(t, err)
}

func TestSQLiteUpdateStatusNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateStatus(context.Background(), "missing", model.ProspectStatusGhosted)
	assert.Error(t, err)
}

func TestSQLiteDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.SaveProspect(ctx, record("Jane Doe", "Acme"), nil, "")
	require.NoError(t, err)
	require.NoError(t, s.DeleteProspect(ctx, p.ID))

	all, err := s.ListProspects(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.Error(t, s.DeleteProspect(ctx, p.ID))
}

func TestSQLiteStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveProspect(ctx, record("Jane Doe", "Acme"), nil, "")
	require.NoError(t, err)
	_, err = s.SaveProspect(ctx, record("John Smith", "Acme"), nil, "")
	require.NoError(t, err)
	unknown := record("Mystery Person", model.Unknown)
	unknown.Industry = model.Unknown
	_, err = s.SaveProspect(ctx, unknown, nil, "")
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Companies)
	assert.Equal(t, 1, st.Industries)
}

func TestBuildSummary(t *testing.T) {
	r := record("Jane Doe", "Acme")
	r.KeyInsights = []string{"ships fast", "likes Go", "third insight"}
	assert.Equal(t, "Engineer at Acme - ships fast, likes Go", BuildSummary(r))

	empty := &model.ProfileRecord{}
	empty.Normalize()
	assert.Equal(t, "No summary", BuildSummary(empty))
}
