package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/roadmap-backend/internal/data/repos"
	"github.com/yungbote/roadmap-backend/internal/data/repos/testutil"
	types "github.com/yungbote/roadmap-backend/internal/domain/roadmap"
	"github.com/yungbote/roadmap-backend/internal/modules/roadmap"
	"github.com/yungbote/roadmap-backend/internal/observability"
	"github.com/yungbote/roadmap-backend/internal/platform/apierr"
	"github.com/yungbote/roadmap-backend/internal/platform/dbctx"
)

const goRoadmap = `{
  "Go": {
    "Day 1": {"Topic": "Syntax", "Description": "Basics", "Resources": ["tour.golang.org"], "Tasks": ["hello world"]},
    "Day 2": {"Topic": "Types", "Description": "Structs"}
  }
}`

type fakeGenerator struct {
	out     string
	err     error
	calls   int
	prompts []roadmap.Prompt
}

func (f *fakeGenerator) Generate(_ context.Context, p roadmap.Prompt) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, p)
	return f.out, f.err
}

type failingRoadmapRepo struct {
	repos.RoadmapRepo
	creates int
}

func (r *failingRoadmapRepo) Create(dbctx.Context, []*types.Roadmap) ([]*types.Roadmap, error) {
	r.creates++
	return nil, errors.New("disk full")
}

func newRoadmapService(t *testing.T, gen GenerationClient, repo repos.RoadmapRepo, opts roadmap.ParseOptions) RoadmapService {
	t.Helper()
	return NewRoadmapService(testutil.Logger(t), observability.NewMetrics(), gen, repo, RoadmapServiceConfig{ParseOptions: opts})
}

func requireAPIError(t *testing.T, err error, status int, code, message string) {
	t.Helper()
	ae, ok := apierr.As(err)
	require.True(t, ok, "expected *apierr.Error, got %v", err)
	assert.Equal(t, status, ae.Status)
	assert.Equal(t, code, ae.Code)
	assert.Equal(t, message, ae.Message)
}

func TestGenerateRoadmap(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.New(db, testutil.Logger(t)).Roadmap
	gen := &fakeGenerator{out: goRoadmap}
	svc := newRoadmapService(t, gen, repo, roadmap.ParseOptions{})

	rec, err := svc.Generate(context.Background(), roadmap.Request{SubjectName: " Go ", Duration: "2 days"})
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
	assert.Contains(t, gen.prompts[0].User, "Go")
	assert.Contains(t, gen.prompts[0].User, "2 days")

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, "Go", rec.SubjectName)
	assert.Equal(t, "2 days", rec.Duration)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t,
		`{"Go":{"Day 1":{"Topic":"Syntax","Description":"Basics","Resources":["tour.golang.org"],"Tasks":["hello world"]},"Day 2":{"Topic":"Types","Description":"Structs"}}}`,
		string(rec.RoadmapData))

	got, err := svc.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, string(rec.RoadmapData), string(got.RoadmapData))
}

func TestGenerateRoadmapMissingFields(t *testing.T) {
	for _, req := range []roadmap.Request{
		{SubjectName: "", Duration: "1 week"},
		{SubjectName: "Go", Duration: "   "},
		{},
	} {
		gen := &fakeGenerator{out: goRoadmap}
		repo := &failingRoadmapRepo{}
		_, err := newRoadmapService(t, gen, repo, roadmap.ParseOptions{}).Generate(context.Background(), req)
		requireAPIError(t, err, http.StatusBadRequest, CodeBadRequest, "languageName and duration are required")
		assert.Zero(t, gen.calls)
		assert.Zero(t, repo.creates)
	}
}

func TestGenerateRoadmapUpstreamFailure(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.New(db, testutil.Logger(t)).Roadmap
	gen := &fakeGenerator{err: errors.New("connection refused")}

	_, err := newRoadmapService(t, gen, repo, roadmap.ParseOptions{}).Generate(context.Background(), roadmap.Request{SubjectName: "Go", Duration: "1 week"})
	requireAPIError(t, err, http.StatusInternalServerError, CodeUpstreamError, "Failed to generate and save roadmap")
	assert.Contains(t, err.(*apierr.Error).Detail(), "connection refused")
	assert.Equal(t, 1, gen.calls)

	list, err := repo.List(dbctx.Of(context.Background()), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGenerateRoadmapBadFormat(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.New(db, testutil.Logger(t)).Roadmap

	for _, out := range []string{"", "Sure! Here is your roadmap", `{"Go": {"Day 1": "study"}}`, `{}`} {
		gen := &fakeGenerator{out: out}
		_, err := newRoadmapService(t, gen, repo, roadmap.ParseOptions{}).Generate(context.Background(), roadmap.Request{SubjectName: "Go", Duration: "1 week"})
		requireAPIError(t, err, http.StatusInternalServerError, CodeBadUpstreamFormat, "Invalid format of AI response")
		var pe *roadmap.ParseError
		assert.ErrorAs(t, err, &pe)
	}

	list, err := repo.List(dbctx.Of(context.Background()), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGenerateRoadmapPersistenceFailure(t *testing.T) {
	repo := &failingRoadmapRepo{}
	gen := &fakeGenerator{out: goRoadmap}

	rec, err := newRoadmapService(t, gen, repo, roadmap.ParseOptions{}).Generate(context.Background(), roadmap.Request{SubjectName: "Go", Duration: "1 week"})
	assert.Nil(t, rec)
	requireAPIError(t, err, http.StatusInternalServerError, CodePersistenceFailure, "Failed to generate and save roadmap")
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, repo.creates)
}

func TestGenerateRoadmapCodeFences(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.New(db, testutil.Logger(t)).Roadmap
	fenced := "```json\n" + goRoadmap + "\n```"

	_, err := newRoadmapService(t, &fakeGenerator{out: fenced}, repo, roadmap.ParseOptions{}).Generate(context.Background(), roadmap.Request{SubjectName: "Go", Duration: "2 days"})
	requireAPIError(t, err, http.StatusInternalServerError, CodeBadUpstreamFormat, "Invalid format of AI response")

	rec, err := newRoadmapService(t, &fakeGenerator{out: fenced}, repo, roadmap.ParseOptions{StripCodeFences: true}).Generate(context.Background(), roadmap.Request{SubjectName: "Go", Duration: "2 days"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(rec.RoadmapData), `{"Go":`))
}

func TestGetRoadmapNotFound(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.New(db, testutil.Logger(t)).Roadmap
	svc := newRoadmapService(t, &fakeGenerator{}, repo, roadmap.ParseOptions{})

	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.True(t, IsRoadmapNotFound(err))
	requireAPIError(t, err, http.StatusNotFound, CodeRoadmapNotFound, "Roadmap not found")
}

func TestListRoadmaps(t *testing.T) {
	db := testutil.DB(t)
	repo := repos.New(db, testutil.Logger(t)).Roadmap
	svc := newRoadmapService(t, &fakeGenerator{out: goRoadmap}, repo, roadmap.ParseOptions{})

	for i := 0; i < 3; i++ {
		_, err := svc.Generate(context.Background(), roadmap.Request{SubjectName: "Go", Duration: "2 days"})
		require.NoError(t, err)
	}
	list, err := svc.List(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
