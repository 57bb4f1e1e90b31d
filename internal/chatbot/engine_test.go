package chatbot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/assembler"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/config"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/db"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/llm"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/models"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/resolver"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/session"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/store"
)

type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userMessage string, p llm.Params) (string, error) {
	f.calls++
	return f.response, f.err
}

type engineFixture struct {
	engine    *Engine
	completer *fakeCompleter
	users     *store.UserStore
	resources *store.ResourceStore
	perms     *store.PermissionStore
	chats     *store.ChatStore
	admin     *session.Session
}

func newEngineFixture(t *testing.T, groqCfg config.GroqConfig) *engineFixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	users := store.NewUserStore(conn)
	resources := store.NewResourceStore(conn)
	perms := store.NewPermissionStore(conn)
	chats := store.NewChatStore(conn)

	adminUser, err := users.Create(context.Background(), "root", "secret123", models.UserRoleAdmin)
	require.NoError(t, err)

	completer := &fakeCompleter{response: "Here is a detailed answer about the document."}

	engine := NewEngine(
		resolver.New(users, resources),
		assembler.New(nil),
		resources,
		chats,
		completer,
		groqCfg,
		config.ContextConfig{MaxChars: 800, PerDocCap: 500, MaxDocs: 2, TopN: 5},
	)

	return &engineFixture{
		engine:    engine,
		completer: completer,
		users:     users,
		resources: resources,
		perms:     perms,
		chats:     chats,
		admin:     session.New(adminUser),
	}
}

func (f *engineFixture) addResource(t *testing.T, name, text string) *models.Resource {
	t.Helper()
	res, err := f.resources.UpsertByURL(context.Background(), store.Upsert{
		Name: name, URL: "u-" + name, FileType: "txt", UploadedBy: "seed",
		ExtractedText: &text,
	})
	require.NoError(t, err)
	return res
}

var configured = config.GroqConfig{APIKey: "key", Model: "llama3-8b-8192", MaxTokens: 500, Temperature: 0.7}

func TestMissingAPIKeyShortCircuits(t *testing.T) {
	f := newEngineFixture(t, config.GroqConfig{APIKey: "  "})
	f.addResource(t, "doc", "content")

	out := f.engine.Answer(context.Background(), f.admin, "what is in the doc?", llm.Params{})
	require.Equal(t, MissingKeyMessage, out)
	require.Zero(t, f.completer.calls)
}

func TestNoAccessibleDocumentsRefuses(t *testing.T) {
	f := newEngineFixture(t, configured)

	out := f.engine.Answer(context.Background(), f.admin, "what is in the doc?", llm.Params{})
	require.Equal(t, RefusalMessage, out)
	require.Zero(t, f.completer.calls)
}

func TestOffTopicKeywordRefusesWithoutModelCall(t *testing.T) {
	f := newEngineFixture(t, configured)
	f.addResource(t, "doc", "quarterly revenue details")

	out := f.engine.Answer(context.Background(), f.admin, "what's the weather today?", llm.Params{})
	require.Equal(t, RefusalMessage, out)
	require.Zero(t, f.completer.calls)
}

func TestHappyPathReturnsModelAnswer(t *testing.T) {
	f := newEngineFixture(t, configured)
	f.addResource(t, "doc", "quarterly revenue details")

	out := f.engine.Answer(context.Background(), f.admin, "summarize the revenue figures", llm.Params{})
	require.Equal(t, f.completer.response, out)
	require.Equal(t, 1, f.completer.calls)
}

func TestTooLargeErrorMapsToDedicatedMessage(t *testing.T) {
	f := newEngineFixture(t, configured)
	f.addResource(t, "doc", "quarterly revenue details")
	f.completer.err = llm.ErrTooLarge

	out := f.engine.Answer(context.Background(), f.admin, "summarize everything", llm.Params{})
	require.Equal(t, TooLargeMessage, out)
	require.Equal(t, 1, f.completer.calls)
}

func TestProviderErrorBecomesErrorString(t *testing.T) {
	f := newEngineFixture(t, configured)
	f.addResource(t, "doc", "quarterly revenue details")
	f.completer.err = errors.New("upstream exploded")

	out := f.engine.Answer(context.Background(), f.admin, "summarize the revenue", llm.Params{})
	require.Contains(t, out, "Sorry, I encountered an error while processing your request:")
	require.Contains(t, out, "upstream exploded")
	// One attempt only, no automatic retry.
	require.Equal(t, 1, f.completer.calls)
}

func TestValidationRejectsHedgingResponse(t *testing.T) {
	cfg := configured
	cfg.ValidateResponses = true
	f := newEngineFixture(t, cfg)
	f.addResource(t, "doc", "quarterly revenue details")
	f.completer.response = "I don't have access to that information right now, sorry."

	out := f.engine.Answer(context.Background(), f.admin, "summarize the revenue", llm.Params{})
	require.Equal(t, ValidationFallbackMessage, out)
}

func TestValidationRejectsTooShortResponse(t *testing.T) {
	cfg := configured
	cfg.ValidateResponses = true
	f := newEngineFixture(t, cfg)
	f.addResource(t, "doc", "quarterly revenue details")
	f.completer.response = "ok"

	out := f.engine.Answer(context.Background(), f.admin, "summarize the revenue", llm.Params{})
	require.Equal(t, ValidationFallbackMessage, out)
}

func TestValidationOffPassesHedgingThrough(t *testing.T) {
	f := newEngineFixture(t, configured)
	f.addResource(t, "doc", "quarterly revenue details")
	f.completer.response = "I don't know, the document does not say."

	out := f.engine.Answer(context.Background(), f.admin, "summarize the revenue", llm.Params{})
	require.Equal(t, f.completer.response, out)
}

func TestEveryOutcomeIsPersisted(t *testing.T) {
	f := newEngineFixture(t, configured)
	f.addResource(t, "doc", "quarterly revenue details")

	f.engine.Answer(context.Background(), f.admin, "what's the weather?", llm.Params{})
	f.engine.Answer(context.Background(), f.admin, "summarize the revenue", llm.Params{})

	history, err := f.chats.History(context.Background(), f.admin.UserID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestAnswerBumpsAccessStats(t *testing.T) {
	f := newEngineFixture(t, configured)
	res := f.addResource(t, "doc", "quarterly revenue details")

	f.engine.Answer(context.Background(), f.admin, "summarize the revenue", llm.Params{})

	reloaded, err := f.resources.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	require.True(t, reloaded.IsAccessed)
	require.Equal(t, 1, reloaded.AccessCount)
}

func TestUserRoleGatesDocuments(t *testing.T) {
	f := newEngineFixture(t, configured)
	f.addResource(t, "doc", "quarterly revenue details")

	plain, err := f.users.Create(context.Background(), "plain", "secret123", models.UserRoleUser)
	require.NoError(t, err)

	// No grant: refusal without a model call.
	out := f.engine.Answer(context.Background(), session.New(plain), "summarize the revenue", llm.Params{})
	require.Equal(t, RefusalMessage, out)
	require.Zero(t, f.completer.calls)
}
