// Package config loads pipeline configuration from the environment (and an
// optional .env file), env-first: a variable set in the process environment
// always wins over the .env file.
package config

import (
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var loadOnce sync.Once

// LoadEnv loads a .env file from the working directory if present. A missing
// file is not an error.
func LoadEnv() {
	loadOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("no .env file found, using process environment only")
		}
	})
}

// Provider is the closed set of remote chat capability variants the
// analyzer can dispatch to.
type Provider string

const (
	ProviderGLM        Provider = "glm"
	ProviderDeepSeek   Provider = "deepseek"
	ProviderOpenAI     Provider = "openai"
	ProviderGemini     Provider = "gemini"
	ProviderAnthropic  Provider = "anthropic"
	ProviderClaude     Provider = "claude" // alias of anthropic
)

// canonicalProvider resolves the anthropic/claude alias to one name.
func canonicalProvider(p Provider) Provider {
	if p == ProviderClaude {
		return ProviderAnthropic
	}
	return p
}

// DefaultModels are the fixed default model names per provider.
var DefaultModels = map[Provider]string{
	ProviderGLM:       "glm-4-plus",
	ProviderDeepSeek:  "deepseek-chat",
	ProviderOpenAI:    "gpt-5.2",
	ProviderGemini:    "gemini-2.0-flash",
	ProviderAnthropic: "claude-sonnet-4-5",
}

// DefaultBaseURLs are the fixed default endpoints per provider, overridable
// by the <PROVIDER>_API_URL environment variables.
var DefaultBaseURLs = map[Provider]string{
	ProviderGLM:       "https://open.bigmodel.cn/api/paas/v4/chat/completions",
	ProviderDeepSeek:  "https://api.deepseek.com/chat/completions",
	ProviderOpenAI:    "https://api.openai.com/v1/responses",
	ProviderGemini:    "https://generativelanguage.googleapis.com/v1beta/chat/completions",
	ProviderAnthropic: "https://api.anthropic.com/v1/messages",
}

// FallbackOrder is the order providers are tried when the caller does not
// name one explicitly.
var FallbackOrder = []Provider{ProviderOpenAI, ProviderGemini, ProviderGLM, ProviderDeepSeek, ProviderAnthropic}

// BaseURL returns the configured (or default) endpoint for a provider.
func BaseURL(p Provider) string {
	p = canonicalProvider(p)
	envKey := strings.ToUpper(string(p)) + "_API_URL"
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return DefaultBaseURLs[p]
}

// cleanAPIKey strips wrapping quotes then a leading "Bearer " prefix, in
// that order.
func cleanAPIKey(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 {
		if (strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)) ||
			(strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'")) {
			s = s[1 : len(s)-1]
		}
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "bearer ") {
		s = s[len("bearer "):]
	}
	return strings.TrimSpace(s)
}

// KeyStore is the config-store fallback consulted after environment
// variables. A pipeline caller can supply its own (e.g. backed by the
// desktop app's persisted config); the zero value has no keys.
type KeyStore interface {
	Get(key string) (string, bool)
}

type emptyKeyStore struct{}

func (emptyKeyStore) Get(string) (string, bool) { return "", false }

// NoKeyStore is used when no config-store fallback is available.
var NoKeyStore KeyStore = emptyKeyStore{}

// ResolveAPIKey looks up a provider's API key: first
// <PROVIDER>_API_KEY, then CHEEKAI_<PROVIDER>_API_KEY, then the config
// store, with alias fallback between anthropic and claude.
func ResolveAPIKey(store KeyStore, p Provider) (string, bool) {
	if store == nil {
		store = NoKeyStore
	}
	names := []Provider{canonicalProvider(p)}
	if canonicalProvider(p) == ProviderAnthropic {
		names = append(names, ProviderClaude)
	}
	for _, name := range names {
		upper := strings.ToUpper(string(name))
		if v := os.Getenv(upper + "_API_KEY"); v != "" {
			return cleanAPIKey(v), true
		}
		if v := os.Getenv("CHEEKAI_" + upper + "_API_KEY"); v != "" {
			return cleanAPIKey(v), true
		}
		if v, ok := store.Get(upper + "_API_KEY"); ok && v != "" {
			return cleanAPIKey(v), true
		}
	}
	return "", false
}

// ResolveProxyURL returns the proxy configured in the store under PROXY_URL,
// if any. Environment-based proxying (HTTPS_PROXY and friends) is handled by
// the HTTP transport itself and needs no lookup here.
func ResolveProxyURL(store KeyStore) (*url.URL, bool) {
	if store == nil {
		return nil, false
	}
	raw, ok := store.Get("PROXY_URL")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, false
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		log.Warn().Err(err).Msg("ignoring unparseable PROXY_URL from config store")
		return nil, false
	}
	return u, true
}

// SentenceRefineDisabled reports whether CHEEKAI_DISABLE_SENTENCE_LLM_REFINE
// requests the sentence refiner (component G) be skipped.
func SentenceRefineDisabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("CHEEKAI_DISABLE_SENTENCE_LLM_REFINE")))
	return v == "1" || v == "true" || v == "yes"
}

// Sensitivity is the closed set of detection sensitivity levels.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// ParseSensitivity defaults to medium for any unrecognized value.
func ParseSensitivity(v string) Sensitivity {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "low":
		return SensitivityLow
	case "high":
		return SensitivityHigh
	default:
		return SensitivityMedium
	}
}

// SplitterBaseURL is the default base URL for the optional out-of-process
// sentence/paragraph splitter.
func SplitterBaseURL() string {
	if v := os.Getenv("CHEEKAI_SPLITTER_URL"); v != "" {
		return v
	}
	return "http://127.0.0.1:8788"
}

const (
	// AnalyzerConcurrency bounds the general per-segment remote analyzer.
	AnalyzerConcurrency = 10
	// DeepSeekSentenceConcurrency bounds sentence-level DeepSeek calls.
	DeepSeekSentenceConcurrency = 10

	// SegmentAnalysisTimeoutSeconds is the wall-clock timeout for a
	// per-segment remote analysis call.
	SegmentAnalysisTimeoutSeconds = 120
	// DeepSeekSentenceTimeoutSeconds is the wall-clock timeout for one
	// sentence-level DeepSeek attempt.
	DeepSeekSentenceTimeoutSeconds = 60
	// SplitterTimeoutSeconds bounds calls to the external splitter.
	SplitterTimeoutSeconds = 30

	// DeepSeekSentenceMaxAttempts is the retry budget for sentence-level
	// DeepSeek calls.
	DeepSeekSentenceMaxAttempts = 3
	// DeepSeekSentenceBackoffMillis is the linear backoff unit (attempt *
	// this) between DeepSeek sentence retries.
	DeepSeekSentenceBackoffMillis = 400

	// DecisionMargin is the buffer margin used in base-decision banding.
	DecisionMargin = 0.03

	// DivergentRegionThreshold is the default probability-diff threshold
	// used to flag a dual-mode divergent region.
	DivergentRegionThreshold = 0.20

	// ParagraphFusionWeight and SentenceFusionWeight blend per-mode
	// aggregations into the fused document-level verdict.
	ParagraphFusionWeight = 0.6
	SentenceFusionWeight  = 0.4
)
