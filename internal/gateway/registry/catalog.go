package registry

// Model families.
const (
	FamilyGoogle    = "google"
	FamilyOpenAI    = "openai"
	FamilyAnthropic = "anthropic"
	FamilyXAI       = "xai"
	FamilyMeta      = "meta"
	FamilyAlibaba   = "alibaba"
	FamilyDeepSeek  = "deepseek"
	FamilyZhipu     = "zhipu"
	FamilyMistral   = "mistral"
	FamilyMoonshot  = "moonshot"
)

func f32(v float32) *float32 { return &v }
func intp(v int) *int        { return &v }

// Default returns the product catalogue in display order.
func Default() *Registry {
	return MustNew(catalog()...)
}

func catalog() []ModelDescriptor {
	return []ModelDescriptor{
		// Free tier
		{
			ID: "scira-default", Label: "Gemini 2.5 Flash", Family: FamilyGoogle,
			Description:    "Google's advanced small LLM - Default model",
			SupportsVision: true, SupportsPdf: true,
			MaxOutputTokens: 10000, Extreme: true, Fast: true, IsNew: true,
		},
		{
			ID: "scira-qwen-4b", Label: "Qwen 3 4B", Family: FamilyAlibaba,
			Description:     "Alibaba's small base LLM",
			RequiresAuth:    true,
			MaxOutputTokens: 16000,
			Params:          GenerationParams{Temperature: f32(0.7), TopP: f32(0.8), TopK: intp(20), MinP: f32(0)},
		},
		{
			ID: "scira-qwen-4b-thinking", Label: "Qwen 3 4B Thinking", Family: FamilyAlibaba,
			Description:       "Alibaba's small base LLM with reasoning",
			SupportsReasoning: true, RequiresAuth: true,
			MaxOutputTokens: 16000,
			Params:          GenerationParams{Temperature: f32(0.6), TopP: f32(0.95), TopK: intp(20), MinP: f32(0)},
		},
		{
			ID: "scira-gpt-4o-mini", Label: "GPT-4o Mini", Family: FamilyOpenAI,
			Description:    "OpenAI's efficient small model",
			SupportsVision: true, RequiresAuth: true,
			MaxOutputTokens: 16384, Fast: true, IsNew: true,
		},
		{
			ID: "scira-glm-4-flash", Label: "GLM 4.5 Flash", Family: FamilyZhipu,
			Description:     "Zhipu AI's fast efficient LLM",
			RequiresAuth:    true,
			MaxOutputTokens: 8000, Fast: true, IsNew: true,
		},
		{
			ID: "scira-deepinfra-free", Label: "DeepSeek V3", Family: FamilyDeepSeek,
			Description:       "DeepSeek's V3 via DeepInfra",
			SupportsReasoning: true, RequiresAuth: true,
			MaxOutputTokens: 64000, Fast: true, IsNew: true,
		},
		{
			ID: "scira-cerebras-free", Label: "Llama 3.1 8B", Family: FamilyMeta,
			Description:  "Meta's Llama 3.1 8B on Cerebras - unlimited for signed-in users",
			RequiresAuth: true, FreeUnlimited: true,
			MaxOutputTokens: 8192, Extreme: true, Fast: true, IsNew: true,
		},
		{
			ID: "scira-fireworks-free", Label: "Llama 3.3 70B", Family: FamilyMeta,
			Description:     "Meta's Llama 3.3 via Fireworks",
			RequiresAuth:    true,
			MaxOutputTokens: 32768, Fast: true, IsNew: true,
		},

		// Pro tier
		{
			ID: "scira-grok-3-mini", Label: "Grok 3 Mini", Family: FamilyXAI,
			Description:       "xAI's recent smallest LLM",
			SupportsReasoning: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 16000,
		},
		{
			ID: "scira-grok-3", Label: "Grok 3", Family: FamilyXAI,
			Description:  "xAI's recent smartest LLM",
			RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 16000,
		},
		{
			ID: "scira-grok-4", Label: "Grok 4", Family: FamilyXAI,
			Description:    "xAI's most intelligent LLM",
			SupportsVision: true, SupportsReasoning: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 16000,
		},
		{
			ID: "scira-grok-code-fast", Label: "Grok Code Fast", Family: FamilyXAI,
			Description:  "xAI's specialized coding model",
			RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 256000, Fast: true, IsNew: true,
		},
		{
			ID: "scira-grok-4-fast-think", Label: "Grok 4 Fast Thinking", Family: FamilyXAI,
			Description:    "xAI's fastest multimodal reasoning LLM",
			SupportsVision: true, SupportsReasoning: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 16000, Extreme: true, Fast: true, IsNew: true,
		},
		{
			ID: "scira-code", Label: "Grok Code", Family: FamilyXAI,
			Description:       "xAI's advanced coding LLM",
			SupportsReasoning: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 16000, Fast: true,
		},
		{
			ID: "scira-deepinfra-llama-33", Label: "Llama 3.3 70B (DeepInfra)", Family: FamilyMeta,
			Description:  "Meta's Llama 3.3 via DeepInfra",
			RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 32000, Fast: true, IsNew: true,
		},
		{
			ID: "scira-deepinfra-qwen-72b", Label: "Qwen 2.5 72B (DeepInfra)", Family: FamilyAlibaba,
			Description:  "Alibaba's Qwen 2.5 72B via DeepInfra",
			RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 32000, Fast: true, IsNew: true,
		},
		{
			ID: "scira-deepseek-r1", Label: "DeepSeek R1", Family: FamilyDeepSeek,
			Description:       "DeepSeek R1 reasoning model via DeepInfra",
			SupportsReasoning: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 64000, Fast: true, IsNew: true,
		},
		{
			ID: "scira-deepseek-chat", Label: "DeepSeek V3 Chat", Family: FamilyDeepSeek,
			Description:       "DeepSeek V3 chat model via DeepInfra",
			SupportsReasoning: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 64000, Fast: true, IsNew: true,
		},
		{
			ID: "scira-cerebras-llama-33", Label: "Llama 3.3 70B (Cerebras)", Family: FamilyMeta,
			Description:  "Meta's Llama 3.3 via Cerebras",
			RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 8192, Extreme: true, Fast: true, IsNew: true,
		},
		{
			ID: "scira-fireworks-qwen-coder", Label: "Qwen 2.5 Coder 32B (Fireworks)", Family: FamilyAlibaba,
			Description:  "Alibaba's Qwen Coder via Fireworks",
			RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 32000, Fast: true, IsNew: true,
		},
		{
			ID: "scira-mistral-medium", Label: "Mistral Medium", Family: FamilyMistral,
			Description:    "Mistral's medium multi-modal LLM",
			SupportsVision: true, SupportsPdf: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 16000, IsNew: true,
		},
		{
			ID: "scira-magistral-small", Label: "Magistral Small", Family: FamilyMistral,
			Description:    "Mistral's small reasoning LLM",
			SupportsVision: true, SupportsPdf: true, SupportsReasoning: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 16000, IsNew: true,
		},
		{
			ID: "scira-gpt-oss-120", Label: "GPT OSS 120B", Family: FamilyOpenAI,
			Description:  "OpenAI's advanced OSS LLM",
			RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 16000,
		},
		{
			ID: "scira-gpt5-mini", Label: "GPT 5 Mini", Family: FamilyOpenAI,
			Description:    "OpenAI's latest small reasoning LLM",
			SupportsVision: true, SupportsPdf: true, SupportsReasoning: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 16000,
		},
		{
			ID: "scira-gpt5", Label: "GPT 5", Family: FamilyOpenAI,
			Description:    "OpenAI's latest flagship LLM",
			SupportsVision: true, SupportsPdf: true, SupportsReasoning: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 16000,
		},
		{
			ID: "scira-o3", Label: "o3", Family: FamilyOpenAI,
			Description:    "OpenAI's advanced reasoning LLM",
			SupportsVision: true, SupportsPdf: true, SupportsReasoning: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 16000,
		},
		{
			ID: "scira-qwen-3-max", Label: "Qwen 3 Max", Family: FamilyAlibaba,
			Description:  "Alibaba's most capable LLM",
			RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 10000,
		},
		{
			ID: "scira-kimi-k2-v2", Label: "Kimi K2 Latest", Family: FamilyMoonshot,
			Description:  "Moonshot's Kimi K2 via Groq",
			RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 10000,
		},
		{
			ID: "scira-glm-4.6", Label: "GLM 4.6", Family: FamilyZhipu,
			Description:       "Zhipu AI's advanced reasoning LLM",
			SupportsReasoning: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 130000,
		},
		{
			ID: "scira-glm", Label: "GLM 4.5", Family: FamilyZhipu,
			Description:       "Zhipu AI's reasoning LLM",
			SupportsReasoning: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 13000,
		},
		{
			ID: "scira-haiku", Label: "Claude Haiku 3.5", Family: FamilyAnthropic,
			Description:    "Anthropic's fast small LLM",
			SupportsVision: true, SupportsPdf: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 8000,
		},
		{
			ID: "scira-anthropic", Label: "Claude Sonnet 4.5", Family: FamilyAnthropic,
			Description:    "Anthropic's most capable everyday LLM",
			SupportsVision: true, SupportsPdf: true, SupportsReasoning: true, RequiresAuth: true, RequiresSubscription: true,
			MaxOutputTokens: 16000,
		},
	}
}
