package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/registry"
)

func TestIsValidKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", false},
		{"your-key-here", false},
		{"sk-abc-placeholder-123", false},
		{"test-key-1", false},
		{"sk-live-abc123", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidKey(tt.key))
		})
	}
}

func TestCredentialsSnapshotIsIndependent(t *testing.T) {
	creds := Credentials{Groq: "gsk-live"}
	snap := creds.Snapshot()
	creds[Groq] = ""

	assert.True(t, snap.Valid(Groq))
	assert.False(t, creds.Valid(Groq))
}

func TestDefaultBindingsCoverCatalogue(t *testing.T) {
	r, err := NewDefaultResolver()
	require.NoError(t, err)

	reg := registry.Default()
	assert.Equal(t, len(reg.ListModels()), len(r.ModelIDs()))
	for _, m := range reg.ListModels() {
		b, ok := r.Binding(m.ID)
		require.True(t, ok, "no binding for %s", m.ID)
		assert.False(t, b.RequiresCredential(), "%s has no terminal rule", m.ID)
	}
}

func TestResolveWithEmptyCredentials(t *testing.T) {
	r, err := NewDefaultResolver()
	require.NoError(t, err)

	for _, id := range r.ModelIDs() {
		b, err := r.Resolve(id, Credentials{})
		require.NoError(t, err, id)

		binding, _ := r.Binding(id)
		terminal := binding.Rules[len(binding.Rules)-1]
		assert.Equal(t, terminal.Provider, b.Provider, id)
		assert.Equal(t, terminal.Model, b.Model, id)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r, err := NewDefaultResolver()
	require.NoError(t, err)

	snapshots := []Credentials{
		{},
		{Groq: "gsk-live", Anthropic: "sk-ant-live"},
		{OpenAI: "sk-live", Google: "AIza-live", XAI: "xai-live", DeepInfra: "di-live"},
		{Groq: "placeholder", Mistral: "m-live"},
	}
	for _, creds := range snapshots {
		for _, id := range r.ModelIDs() {
			first, err := r.Resolve(id, creds)
			require.NoError(t, err)
			second, err := r.Resolve(id, creds)
			require.NoError(t, err)

			assert.Equal(t, first.Provider, second.Provider, id)
			assert.Equal(t, first.Model, second.Model, id)
		}
	}
}

func TestResolveFollowsDeclaredOrder(t *testing.T) {
	r, err := NewDefaultResolver()
	require.NoError(t, err)

	tests := []struct {
		name     string
		creds    Credentials
		provider string
		model    string
	}{
		{"primary key present", Credentials{Google: "AIza-live", Groq: "gsk-live"}, Google, "gemini-2.5-flash"},
		{"second rule", Credentials{Groq: "gsk-live", Anthropic: "sk-ant-live"}, Groq, "llama-3.3-70b-versatile"},
		{"placeholder skipped", Credentials{Groq: "your-key-here", Anthropic: "sk-ant-live"}, Anthropic, "claude-sonnet-4-20250514"},
		{"terminal", Credentials{}, Google, "gemini-2.5-flash"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := r.Resolve("scira-default", tt.creds)
			require.NoError(t, err)
			assert.Equal(t, "scira-default", b.ModelID)
			assert.Equal(t, tt.provider, b.Provider)
			assert.Equal(t, tt.model, b.Model)
			assert.NotNil(t, b.Client)
		})
	}
}

func TestCandidatesStopAtTerminal(t *testing.T) {
	r, err := NewDefaultResolver()
	require.NoError(t, err)

	got, err := r.Candidates("scira-default", Credentials{Groq: "gsk-live", Anthropic: "sk-ant-live"})
	require.NoError(t, err)

	var providers []string
	for _, b := range got {
		providers = append(providers, b.Provider)
	}
	assert.Equal(t, []string{Groq, Anthropic, Google}, providers)
}

func TestResolveNoBackend(t *testing.T) {
	factories := map[string]Factory{
		OpenAI: func(key string) Provider { return &fakeProvider{name: OpenAI} },
	}
	r, err := NewResolver(factories, Binding{ModelID: "keyed", Rules: []Rule{try(OpenAI, "gpt-4o")}})
	require.NoError(t, err)

	_, err = r.Resolve("missing", Credentials{OpenAI: "sk-live"})
	assert.ErrorIs(t, err, ErrNoBackendAvailable)

	_, err = r.Resolve("keyed", Credentials{})
	assert.ErrorIs(t, err, ErrNoBackendAvailable)

	b, err := r.Resolve("keyed", Credentials{OpenAI: "sk-live"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", b.Model)
}

func TestNewResolverRejectsBadBindings(t *testing.T) {
	factories := map[string]Factory{
		OpenAI: func(key string) Provider { return &fakeProvider{name: OpenAI} },
	}
	tests := []struct {
		name     string
		bindings []Binding
	}{
		{"empty id", []Binding{bind("", last(OpenAI, "gpt-4o"))}},
		{"no rules", []Binding{{ModelID: "a"}}},
		{"unknown provider", []Binding{bind("a", last(Groq, "llama"))}},
		{"empty model", []Binding{bind("a", last(OpenAI, ""))}},
		{"duplicate", []Binding{bind("a", last(OpenAI, "x")), bind("a", last(OpenAI, "y"))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(factories, tt.bindings...)
			assert.Error(t, err)
		})
	}
}

func TestResolveAppliesMiddleware(t *testing.T) {
	r, err := NewDefaultResolver()
	require.NoError(t, err)

	b, err := r.Resolve("scira-deepseek-r1", Credentials{DeepInfra: "di-live"})
	require.NoError(t, err)
	_, wrapped := b.Client.(*reasoningProvider)
	assert.True(t, wrapped)
	assert.Equal(t, DeepInfra, b.Client.GetProviderName())

	b, err = r.Resolve("scira-deepseek-chat", Credentials{DeepInfra: "di-live"})
	require.NoError(t, err)
	_, wrapped = b.Client.(*reasoningProvider)
	assert.False(t, wrapped)
}
