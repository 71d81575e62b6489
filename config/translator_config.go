package config

// parameters for the model that performs the actual text translation
type translatorConfig struct {
	// the model identifier passed to the chat completion API
	Model string `yaml:"model"`
	// the API key; when empty, the translator runs in passthrough mode and
	// returns every input unchanged
	APIKey string `yaml:"api_key"`
	// an optional OpenAI-compatible base URL
	BaseURL string `yaml:"base_url"`
	// the maximum number of attempts for a single translation batch
	MaxAttempts int `yaml:"max_attempts"`
}

func defaultTranslatorConfig() translatorConfig {
	return translatorConfig{
		Model:       "gpt-4o-mini",
		MaxAttempts: 3,
	}
}
