// Package db provides integration tests for SurrealDB operations.
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhartinger/vitacoach-go/internal/models"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()

	session, err := testDB.CreateSession(ctx, "owner-sessions")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "owner-sessions", session.Owner)
	assert.Zero(t, session.MessageCount)
	assert.False(t, session.Archived)

	id := models.MustRecordIDString(session.ID)

	got, err := testDB.GetSession(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, session.Owner, got.Owner)

	require.NoError(t, testDB.RenameSession(ctx, id, "Morning check-in"))
	require.NoError(t, testDB.UpdateSessionSummary(ctx, id, "User planned a workout."))

	got, err = testDB.GetSession(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Title)
	assert.Equal(t, "Morning check-in", *got.Title)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "User planned a workout.", *got.Summary)

	require.NoError(t, testDB.ArchiveSession(ctx, id))
	listed, err := testDB.ListSessions(ctx, "owner-sessions", false)
	require.NoError(t, err)
	assert.Empty(t, listed)

	listed, err = testDB.ListSessions(ctx, "owner-sessions", true)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Archived)
}

func TestGetSessionNotFound(t *testing.T) {
	got, err := testDB.GetSession(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMessagesSequenceAndOrder(t *testing.T) {
	ctx := context.Background()

	session, err := testDB.CreateSession(ctx, "owner-messages")
	require.NoError(t, err)
	id := models.MustRecordIDString(session.ID)

	contents := []struct {
		role, content string
	}{
		{models.RoleHuman, "how do I start running?"},
		{models.RoleAI, "Start with intervals of walking and jogging."},
		{models.RoleHuman, "how often per week?"},
	}
	for i, m := range contents {
		seq, err := testDB.AppendMessage(ctx, id, m.role, m.content, nil)
		require.NoError(t, err)
		assert.Equal(t, i+1, seq)
	}

	msgs, err := testDB.RecentMessages(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, m := range contents {
		assert.Equal(t, i+1, msgs[i].Seq)
		assert.Equal(t, m.role, msgs[i].Role)
		assert.Equal(t, m.content, msgs[i].Content)
	}

	// A smaller limit returns the most recent turns, still chronological.
	msgs, err = testDB.RecentMessages(ctx, id, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, 2, msgs[0].Seq)
	assert.Equal(t, 3, msgs[1].Seq)

	got, err := testDB.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, got.MessageCount)
}

func TestAppendMessageUnknownSession(t *testing.T) {
	_, err := testDB.AppendMessage(context.Background(), "missing", models.RoleHuman, "hi", nil)
	assert.Error(t, err)
}

func TestMemoryLifecycle(t *testing.T) {
	ctx := context.Background()

	created, err := testDB.InsertMemory(ctx, models.Memory{
		Owner:      "owner-memories",
		Kind:       models.KindConstraint,
		Category:   models.CategoryInjury,
		Content:    "Left knee injury limits squats",
		Confidence: 0.8,
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.True(t, created.Active)
	id := models.MustRecordIDString(created.ID)

	active, err := testDB.ActiveMemories(ctx, "owner-memories", models.CategoryInjury)
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, testDB.RaiseMemoryConfidence(ctx, id, 0.95))
	active, err = testDB.ActiveMemories(ctx, "owner-memories", models.CategoryInjury)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 0.95, active[0].Confidence)
	assert.Equal(t, "Left knee injury limits squats", active[0].Content)

	require.NoError(t, testDB.VerifyMemory(ctx, id))
	active, err = testDB.ActiveMemories(ctx, "owner-memories", models.CategoryInjury)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].Verified)
	assert.Equal(t, 1.0, active[0].Confidence)

	require.NoError(t, testDB.DeactivateMemory(ctx, id))
	active, err = testDB.ActiveMemories(ctx, "owner-memories", models.CategoryInjury)
	require.NoError(t, err)
	assert.Empty(t, active)

	// Soft-deleted records remain visible to the full listing.
	all, err := testDB.ListMemories(ctx, "owner-memories", false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)
}

func TestTopMemoriesRankedByConfidence(t *testing.T) {
	ctx := context.Background()

	for i, conf := range []float64{0.7, 0.95, 0.8} {
		_, err := testDB.InsertMemory(ctx, models.Memory{
			Owner:      "owner-top",
			Kind:       models.KindFact,
			Category:   models.CategoryGeneral,
			Content:    fmt.Sprintf("fact number %d", i),
			Confidence: conf,
		})
		require.NoError(t, err)
	}

	top, err := testDB.TopMemories(ctx, "owner-top", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 0.95, top[0].Confidence)
	assert.Equal(t, 0.8, top[1].Confidence)
}

func TestActiveMemoriesByCategories(t *testing.T) {
	ctx := context.Background()

	seed := []models.Memory{
		{Owner: "owner-cats", Kind: models.KindConstraint, Category: models.CategoryInjury, Content: "bad knee", Confidence: 0.9},
		{Owner: "owner-cats", Kind: models.KindPreference, Category: models.CategoryDietary, Content: "vegetarian", Confidence: 0.9},
		{Owner: "owner-cats", Kind: models.KindGoal, Category: models.CategoryMotivation, Content: "wants a buddy", Confidence: 0.9},
	}
	for _, m := range seed {
		_, err := testDB.InsertMemory(ctx, m)
		require.NoError(t, err)
	}

	got, err := testDB.ActiveMemoriesByCategories(ctx, "owner-cats",
		[]models.MemoryCategory{models.CategoryInjury, models.CategoryDietary})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPreferenceUpsert(t *testing.T) {
	ctx := context.Background()

	pref, err := testDB.GetPreference(ctx, "owner-pref")
	require.NoError(t, err)
	assert.Nil(t, pref)

	require.NoError(t, testDB.SetPreference(ctx, "owner-pref", "direct"))
	require.NoError(t, testDB.SetPreference(ctx, "owner-pref", "playful"))

	pref, err = testDB.GetPreference(ctx, "owner-pref")
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Equal(t, "playful", pref.Personality)
}

func TestInsertEvaluation(t *testing.T) {
	ctx := context.Background()

	sessionID := "eval-session"
	err := testDB.InsertEvaluation(ctx, models.Evaluation{
		Owner:           "owner-eval",
		Session:         &sessionID,
		Helpfulness:     0.8,
		Safety:          1.0,
		Personalization: 0.5,
		Overall:         models.OverallScore(0.8, 1.0, 0.5),
		Reasoning:       "Grounded in the user's streaks.",
		Judge:           "test-judge",
	})
	require.NoError(t, err)
}

func TestEraseOwner(t *testing.T) {
	ctx := context.Background()

	session, err := testDB.CreateSession(ctx, "owner-erase")
	require.NoError(t, err)
	id := models.MustRecordIDString(session.ID)
	_, err = testDB.AppendMessage(ctx, id, models.RoleHuman, "hello", nil)
	require.NoError(t, err)
	_, err = testDB.InsertMemory(ctx, models.Memory{
		Owner: "owner-erase", Kind: models.KindFact,
		Category: models.CategoryGeneral, Content: "fact", Confidence: 0.9,
	})
	require.NoError(t, err)
	require.NoError(t, testDB.SetPreference(ctx, "owner-erase", "direct"))

	require.NoError(t, testDB.EraseOwner(ctx, "owner-erase"))

	sessions, err := testDB.ListSessions(ctx, "owner-erase", true)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	memories, err := testDB.ListMemories(ctx, "owner-erase", false)
	require.NoError(t, err)
	assert.Empty(t, memories)

	pref, err := testDB.GetPreference(ctx, "owner-erase")
	require.NoError(t, err)
	assert.Nil(t, pref)
}
