package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/repolens/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driven"
	"github.com/custodia-labs/repolens/internal/core/ports/driving"
)

// structuredReply is a well-formed analyzer reply wrapped in prose.
const structuredReply = "Here is the analysis:\n```json\n" + `{
  "summary": "A small Go service.",
  "objectives": ["serve requests"],
  "architecture": {"pattern": "layered", "layers": ["cmd", "internal"], "key_directories": {"cmd": "entry points"}},
  "key_components": [{"name": "main", "type": "function", "purpose": "starts the app", "location": "cmd/main.go"}],
  "tech_stack": ["Go"],
  "concepts": [{"name": "goroutines", "category": "language", "description": "concurrency", "examples": ["go serve()"], "importance": "high"}],
  "complexity_score": 3,
  "recommendations": ["add tests"]
}` + "\n```"

// mockAcquirer serves a fixed directory and counts acquisitions and releases.
type mockAcquirer struct {
	root      string
	err       error
	onAcquire func()
	mu        sync.Mutex
	acquired int
	released int
}

func (m *mockAcquirer) Acquire(_ context.Context, _, _ string) (*driven.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquired++
	if m.err != nil {
		return nil, m.err
	}
	if m.onAcquire != nil {
		m.onAcquire()
	}
	return driven.NewWorkspace(m.root, func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.released++
		return nil
	}), nil
}

func (m *mockAcquirer) Name() string { return "mock" }

// mockLLM returns a canned reply and records what it was sent.
type mockLLM struct {
	reply    string
	err      error
	calls    int
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (m *mockLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return m.reply, m.err
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.calls++
	m.messages = messages
	m.opts = opts
	return m.reply, m.err
}

func (m *mockLLM) ModelName() string { return "mock-model" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) userMessage() string { return m.messages[len(m.messages)-1].Content }

func (m *mockLLM) systemMessage() string { return m.messages[0].Content }

// flakyStore wraps a memory store with injectable failures.
type flakyStore struct {
	*memory.ResultStore
	putErr error
	getErr error
}

func (f *flakyStore) Put(ctx context.Context, record *domain.AnalysisRecord) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.ResultStore.Put(ctx, record)
}

func (f *flakyStore) Get(ctx context.Context, fingerprint string) (*domain.AnalysisRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.ResultStore.Get(ctx, fingerprint)
}

// mockPromptStore serves a single prompt.
type mockPromptStore struct {
	prompt string
	err    error
}

func (m *mockPromptStore) Load(_ string) (string, error) { return m.prompt, m.err }

func (m *mockPromptStore) Reload() {}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

func sampleTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"README.md":        "# Sample\nA sample service.\n",
		"go.mod":           "module example.com/sample\n",
		"cmd/main.go":      "package main\n\nfunc main() {}\n",
		"internal/util.go": "package internal\n",
		"logo.png":         "\x89PNG",
	})
}

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.FixedZone("CET", 3600))

type analysisFixture struct {
	service  *AnalysisService
	acquirer *mockAcquirer
	llm      *mockLLM
	store    *flakyStore
	cancel   context.CancelFunc
}

func newAnalysisFixture(t *testing.T, root string) *analysisFixture {
	t.Helper()
	f := &analysisFixture{
		acquirer: &mockAcquirer{root: root},
		llm:      &mockLLM{reply: structuredReply},
		store:    &flakyStore{ResultStore: memory.NewResultStore()},
	}
	f.service = NewAnalysisService(f.acquirer, f.store, f.llm, nil, domain.AnalysisConfig{
		Budget:  domain.Budget{MaxFiles: 25, MaxCharsPerFile: 6000},
		Workers: 2,
		Now:     func() time.Time { return fixedNow },
	})
	return f
}

func request(location, ref, subtree string) driving.AnalyzeRequest {
	return driving.AnalyzeRequest{Identity: domain.NewSourceIdentity(location, ref, subtree)}
}

func TestNewAnalysisService_Defaults(t *testing.T) {
	service := NewAnalysisService(&mockAcquirer{}, memory.NewResultStore(), nil, nil, domain.AnalysisConfig{})

	require.NotNil(t, service)
	assert.Equal(t, domain.Budget{MaxFiles: domain.DefaultMaxFiles, MaxCharsPerFile: domain.DefaultMaxCharsPerFile},
		service.budget)
	assert.NotNil(t, service.now)
}

func TestAnalysisService_Analyze_Success(t *testing.T) {
	f := newAnalysisFixture(t, sampleTree(t))
	req := request("octo/sample", "main", "")

	record, err := f.service.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "A small Go service.", record.Summary)
	assert.Equal(t, []string{"serve requests"}, record.Objectives)
	assert.Equal(t, "layered", record.Architecture.Pattern)
	require.Len(t, record.KeyComponents, 1)
	assert.Equal(t, "function", record.KeyComponents[0].Kind)
	require.NotNil(t, record.ComplexityScore)
	assert.Equal(t, 3, *record.ComplexityScore)
	assert.Equal(t, structuredReply, record.RawResponse)

	meta := record.Metadata
	assert.True(t, meta.SourceIdentity.Equal(req.Identity))
	assert.Equal(t, domain.Fingerprint(req.Identity), meta.Fingerprint)
	assert.Equal(t, fixedNow.UTC(), meta.AnalysisTimestamp)
	assert.Equal(t, 4, meta.TotalFiles)
	assert.Equal(t, 4, meta.AnalyzedFiles)
	assert.Equal(t, 7, meta.TotalLines)
	assert.Equal(t, map[string]int{".md": 1, ".mod": 1, ".go": 2}, meta.FileTypes)

	assert.Equal(t, 1, f.acquirer.acquired)
	assert.Equal(t, 1, f.acquirer.released)
	assert.Equal(t, 1, f.llm.calls)
	assert.Equal(t, 1, f.store.Len())

	stored, err := f.store.Get(context.Background(), meta.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, record, stored)
}

func TestAnalysisService_Analyze_Message(t *testing.T) {
	f := newAnalysisFixture(t, sampleTree(t))

	_, err := f.service.Analyze(context.Background(), request("octo/sample", "main", ""))
	require.NoError(t, err)

	require.Len(t, f.llm.messages, 2)
	assert.Equal(t, driven.RoleSystem, f.llm.messages[0].Role)
	assert.Contains(t, f.llm.systemMessage(), "entire repository")

	msg := f.llm.userMessage()
	assert.Contains(t, msg, "- Location: octo/sample")
	assert.NotContains(t, msg, "logo.png")

	// Files appear in priority order.
	readme := strings.Index(msg, "=== FILE: README.md ===")
	gomod := strings.Index(msg, "=== FILE: go.mod ===")
	mainGo := strings.Index(msg, "=== FILE: cmd/main.go ===")
	util := strings.Index(msg, "=== FILE: internal/util.go ===")
	require.True(t, readme >= 0 && gomod >= 0 && mainGo >= 0 && util >= 0, msg)
	assert.Less(t, readme, gomod)
	assert.Less(t, gomod, mainGo)
	assert.Less(t, mainGo, util)

	assert.Equal(t, "", f.llm.opts.Model)
	assert.InDelta(t, analysisTemperature, f.llm.opts.Temperature, 0.0001)
}

func TestAnalysisService_Analyze_Subtree(t *testing.T) {
	root := writeTree(t, map[string]string{
		"README.md":            "root readme\n",
		"pkg/api/README.md":    "api readme\n",
		"pkg/api/handler.go":   "package api\n",
		"pkg/other/ignored.go": "package other\n",
	})
	f := newAnalysisFixture(t, root)

	record, err := f.service.Analyze(context.Background(), request("octo/sample", "main", "pkg/api"))
	require.NoError(t, err)

	assert.Equal(t, 2, record.Metadata.TotalFiles)
	msg := f.llm.userMessage()
	assert.Contains(t, msg, "=== FILE: pkg/api/README.md ===")
	assert.Contains(t, msg, "=== FILE: pkg/api/handler.go ===")
	assert.NotContains(t, msg, "root readme")
	assert.NotContains(t, msg, "ignored.go")
	assert.Contains(t, msg, "- Subfolder: pkg/api")
	assert.Contains(t, f.llm.systemMessage(), "subfolder 'pkg/api'")

	// The subtree is part of the cache key.
	_, err = f.service.Analyze(context.Background(), request("octo/sample", "main", ""))
	require.NoError(t, err)
	assert.Equal(t, 2, f.llm.calls)
	assert.Equal(t, 2, f.store.Len())
}

func TestAnalysisService_Analyze_Idempotent(t *testing.T) {
	f := newAnalysisFixture(t, sampleTree(t))
	req := request("octo/sample", "main", "")

	first, err := f.service.Analyze(context.Background(), req)
	require.NoError(t, err)

	f.llm.reply = `{"summary": "different"}`
	second, err := f.service.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.llm.calls)
	assert.Equal(t, 1, f.acquirer.acquired)
}

func TestAnalysisService_Analyze_ForceRefresh(t *testing.T) {
	f := newAnalysisFixture(t, sampleTree(t))
	req := request("octo/sample", "main", "")

	_, err := f.service.Analyze(context.Background(), req)
	require.NoError(t, err)

	f.llm.reply = `{"summary": "refreshed"}`
	req.Force = true
	record, err := f.service.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "refreshed", record.Summary)
	assert.Equal(t, 2, f.llm.calls)
	assert.Equal(t, 1, f.store.Len())

	stored, err := f.service.Lookup(context.Background(), domain.Fingerprint(req.Identity))
	require.NoError(t, err)
	assert.Equal(t, "refreshed", stored.Summary)
}

func TestAnalysisService_Analyze_UnstructuredReply(t *testing.T) {
	f := newAnalysisFixture(t, sampleTree(t))
	f.llm.reply = "I could not produce JSON, but this looks like a Go service."

	record, err := f.service.Analyze(context.Background(), request("octo/sample", "main", ""))
	require.NoError(t, err)

	assert.Equal(t, f.llm.reply, record.Summary)
	assert.Equal(t, f.llm.reply, record.RawResponse)
	assert.Nil(t, record.ComplexityScore)
	assert.Equal(t, 1, f.store.Len())
}

func TestAnalysisService_Analyze_CorruptCacheRecomputes(t *testing.T) {
	f := newAnalysisFixture(t, sampleTree(t))
	f.store.getErr = domain.ErrCorruptRecord

	record, err := f.service.Analyze(context.Background(), request("octo/sample", "main", ""))
	require.NoError(t, err)

	assert.Equal(t, "A small Go service.", record.Summary)
	assert.Equal(t, 1, f.llm.calls)
}

func TestAnalysisService_Analyze_PersistenceFailure(t *testing.T) {
	f := newAnalysisFixture(t, sampleTree(t))
	f.store.putErr = errors.New("disk full")

	record, err := f.service.Analyze(context.Background(), request("octo/sample", "main", ""))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	require.NotNil(t, record, "computed record is still returned")
	assert.Equal(t, "A small Go service.", record.Summary)

	stage, ok := domain.FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, domain.StagePersisting, stage)
}

func TestAnalysisService_Analyze_Failures(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(t *testing.T, f *analysisFixture)
		req          driving.AnalyzeRequest
		wantErr      error
		wantStage    domain.Stage
		wantAcquired int
	}{
		{
			name:      "missing location",
			req:       request("", "main", ""),
			wantErr:   domain.ErrInvalidInput,
			wantStage: domain.StageResolving,
		},
		{
			name:      "subtree escapes tree",
			req:       request("octo/sample", "main", "../etc"),
			wantErr:   domain.ErrInvalidInput,
			wantStage: domain.StageResolving,
		},
		{
			name: "invalid budget",
			setup: func(t *testing.T, f *analysisFixture) {
				f.service.budget = domain.Budget{MaxFiles: -1, MaxCharsPerFile: 10}
			},
			req:       request("octo/sample", "main", ""),
			wantErr:   domain.ErrInvalidInput,
			wantStage: domain.StageResolving,
		},
		{
			name: "acquisition fails",
			setup: func(t *testing.T, f *analysisFixture) {
				f.acquirer.err = errors.New("repository not found")
			},
			req:          request("octo/missing", "main", ""),
			wantErr:      domain.ErrAcquisition,
			wantStage:    domain.StageAcquiring,
			wantAcquired: 1,
		},
		{
			name:         "subtree not found",
			req:          request("octo/sample", "main", "nope"),
			wantErr:      domain.ErrScopeNotFound,
			wantStage:    domain.StageScanning,
			wantAcquired: 1,
		},
		{
			name:         "subtree is a file",
			req:          request("octo/sample", "main", "go.mod"),
			wantErr:      domain.ErrScopeNotADirectory,
			wantStage:    domain.StageScanning,
			wantAcquired: 1,
		},
		{
			name: "no analyzable content",
			setup: func(t *testing.T, f *analysisFixture) {
				f.acquirer.root = writeTree(t, map[string]string{"logo.png": "x", "node_modules/a.js": "x"})
			},
			req:          request("octo/sample", "main", ""),
			wantErr:      domain.ErrNoAnalyzableContent,
			wantStage:    domain.StageAssembling,
			wantAcquired: 1,
		},
		{
			name: "cancelled after acquisition",
			setup: func(t *testing.T, f *analysisFixture) {
				f.acquirer.onAcquire = f.cancel
			},
			req:          request("octo/sample", "main", ""),
			wantErr:      context.Canceled,
			wantStage:    domain.StageScanning,
			wantAcquired: 1,
		},
		{
			name: "analyzer fails",
			setup: func(t *testing.T, f *analysisFixture) {
				f.llm.err = errors.New("rate limited")
			},
			req:          request("octo/sample", "main", ""),
			wantErr:      domain.ErrAnalysisService,
			wantStage:    domain.StageExternalAnalyze,
			wantAcquired: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAnalysisFixture(t, sampleTree(t))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			f.cancel = cancel
			if tt.setup != nil {
				tt.setup(t, f)
			}

			record, err := f.service.Analyze(ctx, tt.req)

			require.Error(t, err)
			assert.Nil(t, record)
			assert.ErrorIs(t, err, tt.wantErr)
			stage, ok := domain.FailedStage(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantStage, stage)

			assert.Equal(t, tt.wantAcquired, f.acquirer.acquired)
			if tt.wantAcquired > 0 && f.acquirer.err == nil {
				assert.Equal(t, 1, f.acquirer.released, "workspace released on failure")
			}
			assert.Equal(t, 0, f.store.Len())
		})
	}
}

func TestAnalysisService_Analyze_NoLLM(t *testing.T) {
	acquirer := &mockAcquirer{root: sampleTree(t)}
	store := memory.NewResultStore()
	service := NewAnalysisService(acquirer, store, nil, nil, domain.AnalysisConfig{})

	_, err := service.Analyze(context.Background(), request("octo/sample", "main", ""))

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Equal(t, 1, acquirer.released)
}

func TestAnalysisService_Analyze_CachedWithoutLLM(t *testing.T) {
	store := memory.NewResultStore()
	req := request("octo/sample", "main", "")
	cached := &domain.AnalysisRecord{
		Metadata: domain.ScanMetadata{SourceIdentity: req.Identity, Fingerprint: domain.Fingerprint(req.Identity)},
		Summary:  "from cache",
	}
	require.NoError(t, store.Put(context.Background(), cached))
	acquirer := &mockAcquirer{}
	service := NewAnalysisService(acquirer, store, nil, nil, domain.AnalysisConfig{})

	record, err := service.Analyze(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "from cache", record.Summary)
	assert.Equal(t, 0, acquirer.acquired)
}

func TestAnalysisService_Analyze_Overrides(t *testing.T) {
	f := newAnalysisFixture(t, sampleTree(t))
	req := request("octo/sample", "main", "")
	req.MaxFiles = 1
	req.MaxCharsPerFile = 4
	req.Model = "gpt-4o"

	record, err := f.service.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 4, record.Metadata.TotalFiles)
	assert.Equal(t, 1, record.Metadata.AnalyzedFiles)
	assert.Equal(t, "gpt-4o", f.llm.opts.Model)

	msg := f.llm.userMessage()
	assert.Contains(t, msg, "FILE: README.md (27 chars, truncated)")
	assert.Contains(t, msg, "=== FILE: README.md ===\n# Sa\n")
	assert.NotContains(t, msg, "go.mod ===")
}

func TestAnalysisService_Analyze_CustomPrompt(t *testing.T) {
	root := sampleTree(t)

	tests := []struct {
		name    string
		prompts driven.PromptStore
		want    string
	}{
		{name: "no store", prompts: nil, want: "Provide a comprehensive analysis of the entire repository."},
		{name: "template with scope", prompts: &mockPromptStore{prompt: "Review the %s."}, want: "Review the entire repository."},
		{name: "template without scope", prompts: &mockPromptStore{prompt: "Be terse."}, want: "Be terse."},
		{name: "load error", prompts: &mockPromptStore{err: errors.New("boom")}, want: "expert software architect"},
		{name: "blank prompt", prompts: &mockPromptStore{prompt: "  \n"}, want: "expert software architect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &mockLLM{reply: "{}"}
			service := NewAnalysisService(&mockAcquirer{root: root}, memory.NewResultStore(), llm, tt.prompts,
				domain.AnalysisConfig{})

			_, err := service.Analyze(context.Background(), request("octo/sample", "main", ""))
			require.NoError(t, err)

			assert.Contains(t, llm.systemMessage(), tt.want)
		})
	}
}

func TestAnalysisService_Lookup(t *testing.T) {
	f := newAnalysisFixture(t, sampleTree(t))
	record, err := f.service.Analyze(context.Background(), request("octo/sample", "main", ""))
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		got, err := f.service.Lookup(context.Background(), record.Metadata.Fingerprint)
		require.NoError(t, err)
		assert.Equal(t, record, got)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := f.service.Lookup(context.Background(), "0000000000000000")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty fingerprint", func(t *testing.T) {
		_, err := f.service.Lookup(context.Background(), "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestAnalysisService_Export(t *testing.T) {
	f := newAnalysisFixture(t, sampleTree(t))
	req := request("octo/sample", "main", "cmd")
	record, err := f.service.Analyze(context.Background(), req)
	require.NoError(t, err)

	got, err := f.service.Export(context.Background(), domain.NewSourceIdentity("octo/sample", "main", "cmd"))
	require.NoError(t, err)
	assert.Equal(t, record, got)

	_, err = f.service.Export(context.Background(), domain.NewSourceIdentity("octo/sample", "main", ""))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.service.Export(context.Background(), domain.SourceIdentity{Ref: "main"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, 1, f.llm.calls, "export never analyses")
}

func TestAnalysisService_History(t *testing.T) {
	f := newAnalysisFixture(t, sampleTree(t))
	for _, location := range []string{"octo/a", "octo/b", "octo/a"} {
		req := request(location, "main", "")
		req.Force = true
		_, err := f.service.Analyze(context.Background(), req)
		require.NoError(t, err)
	}

	all, err := f.service.History(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "octo/a", all[0].Location, "re-analysed location is newest")

	filtered, err := f.service.History(context.Background(), "octo/b")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "octo/b", filtered[0].Location)
}
