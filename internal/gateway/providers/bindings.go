package providers

// Backend model names shared by several chains.
const (
	geminiFlash   = "gemini-2.5-flash"
	groqLlama     = "llama-3.3-70b-versatile"
	claudeSonnet4 = "claude-sonnet-4-20250514"
	grok4Latest   = "grok-4-latest"
	deepSeekV3    = "deepseek-ai/DeepSeek-V3"
	glm46         = "zai-org/GLM-4.6:novita"
)

// DefaultFactories builds clients against each vendor's public endpoint.
func DefaultFactories() map[string]Factory {
	compatible := func(name string) Factory {
		return func(key string) Provider { return NewCompatibleProvider(name, "", key) }
	}
	return map[string]Factory{
		OpenAI:      func(key string) Provider { return NewOpenAIProvider(key) },
		Anthropic:   func(key string) Provider { return NewAnthropicProvider("", key) },
		Google:      func(key string) Provider { return NewGeminiProvider("", key) },
		Groq:        compatible(Groq),
		XAI:         compatible(XAI),
		DeepInfra:   compatible(DeepInfra),
		Cerebras:    compatible(Cerebras),
		Fireworks:   compatible(Fireworks),
		HuggingFace: compatible(HuggingFace),
		ZhipuAI:     compatible(ZhipuAI),
		Mistral:     compatible(Mistral),
	}
}

func try(provider, model string) Rule {
	return Rule{Provider: provider, Model: model}
}

func last(provider, model string) Rule {
	return Rule{Provider: provider, Model: model, Terminal: true}
}

func bind(id string, rules ...Rule) Binding {
	return Binding{ModelID: id, Rules: rules}
}

func thinking(b Binding) Binding {
	b.Middleware = append(b.Middleware, ExtractReasoning("think", false))
	return b
}

// DefaultBindings returns the fallback chain of every catalogue model. Each
// chain ends in a terminal rule that is used even without a valid key.
func DefaultBindings() []Binding {
	return []Binding{
		// Free tier
		bind("scira-default",
			try(Google, geminiFlash),
			try(Groq, groqLlama),
			try(Anthropic, claudeSonnet4),
			last(Google, geminiFlash)),
		bind("scira-qwen-4b",
			try(Groq, groqLlama),
			last(Anthropic, claudeSonnet4)),
		{
			ModelID:    "scira-qwen-4b-thinking",
			Rules:      []Rule{last(HuggingFace, "Qwen/Qwen2.5-7B-Instruct")},
			Middleware: []Middleware{ExtractReasoning("think", true)},
		},
		bind("scira-gpt-4o-mini",
			try(OpenAI, "gpt-4o-mini"),
			last(Google, geminiFlash)),
		bind("scira-glm-4-flash",
			try(ZhipuAI, "glm-4.5-flash"),
			last(Google, geminiFlash)),
		bind("scira-deepinfra-free",
			try(DeepInfra, deepSeekV3),
			last(Google, geminiFlash)),
		bind("scira-cerebras-free",
			try(Cerebras, "llama3.1-8b"),
			last(Groq, groqLlama)),
		bind("scira-fireworks-free",
			try(Fireworks, "accounts/fireworks/models/llama-v3p3-70b-instruct"),
			last(Google, geminiFlash)),

		// xAI
		bind("scira-grok-3-mini",
			try(XAI, "grok-3-mini"),
			last(XAI, grok4Latest)),
		bind("scira-grok-3",
			try(XAI, "grok-3"),
			last(XAI, grok4Latest)),
		bind("scira-grok-4",
			try(XAI, grok4Latest),
			last(Anthropic, claudeSonnet4)),
		bind("scira-grok-code-fast",
			try(XAI, "grok-code-fast-1"),
			last(XAI, grok4Latest)),
		bind("scira-grok-4-fast-think",
			try(Groq, groqLlama),
			last(Anthropic, claudeSonnet4)),
		bind("scira-code",
			try(XAI, grok4Latest),
			last(Anthropic, claudeSonnet4)),

		// DeepInfra, Cerebras, Fireworks
		bind("scira-deepinfra-llama-33",
			try(DeepInfra, "meta-llama/Llama-3.3-70B-Instruct"),
			last(Groq, groqLlama)),
		bind("scira-deepinfra-qwen-72b",
			try(DeepInfra, "Qwen/Qwen2.5-72B-Instruct"),
			last(Google, geminiFlash)),
		thinking(bind("scira-deepseek-r1",
			try(DeepInfra, "deepseek-ai/DeepSeek-R1"),
			last(Google, geminiFlash))),
		bind("scira-deepseek-chat",
			try(DeepInfra, deepSeekV3),
			last(Google, geminiFlash)),
		bind("scira-cerebras-llama-33",
			try(Cerebras, "llama-3.3-70b"),
			last(Groq, groqLlama)),
		bind("scira-fireworks-qwen-coder",
			try(Fireworks, "accounts/fireworks/models/qwen2p5-coder-32b-instruct"),
			last(Groq, groqLlama)),

		// Mistral
		bind("scira-mistral-medium", last(Mistral, "mistral-medium-2508")),
		bind("scira-magistral-small", last(Mistral, "magistral-small-2509")),

		// OpenAI
		thinking(bind("scira-gpt-oss-120",
			try(Groq, groqLlama),
			last(Anthropic, claudeSonnet4))),
		bind("scira-gpt5-mini",
			try(OpenAI, "gpt-5-mini"),
			last(Google, geminiFlash)),
		bind("scira-gpt5",
			try(OpenAI, "gpt-5"),
			last(Google, geminiFlash)),
		bind("scira-o3",
			try(OpenAI, "o3"),
			last(Google, geminiFlash)),

		// Others
		bind("scira-qwen-3-max",
			try(HuggingFace, "Qwen/Qwen3-Max-70B-A22B-Instruct:nebius"),
			last(Groq, groqLlama)),
		bind("scira-kimi-k2-v2",
			try(Groq, "moonshotai/kimi-k2-instruct-0905"),
			last(OpenAI, "gpt-4o")),
		thinking(bind("scira-glm-4.6", last(HuggingFace, glm46))),
		thinking(bind("scira-glm",
			try(HuggingFace, glm46),
			last(Groq, groqLlama))),

		// Anthropic
		bind("scira-haiku", last(Anthropic, "claude-3-5-haiku-20241022")),
		bind("scira-anthropic", last(Anthropic, "claude-sonnet-4-5")),
	}
}

// NewDefaultResolver wires DefaultBindings to DefaultFactories.
func NewDefaultResolver() (*Resolver, error) {
	return NewResolver(DefaultFactories(), DefaultBindings()...)
}
