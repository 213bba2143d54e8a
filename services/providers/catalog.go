package providers

import "time"

// ProviderID identifies one integrated backend
type ProviderID string

const (
	Gemini      ProviderID = "gemini"
	Groq        ProviderID = "groq"
	Together    ProviderID = "together"
	HuggingFace ProviderID = "huggingface"
)

// Limits holds the per-provider throttling and retry budget
type Limits struct {
	RequestsPerMinute int
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	Timeout           time.Duration
}

// Descriptor is the static catalogue entry for a provider
type Descriptor struct {
	ID             ProviderID
	Name           string
	Priority       int
	DefaultModel   string
	DefaultBaseURL string

	// CredentialEnv lists the environment variables checked for the API key, in order
	CredentialEnv []string

	// KeyURL is where a user obtains a key
	KeyURL      string
	Free        bool
	Description string

	Limits Limits
}

var catalog = []Descriptor{
	{
		ID:             Gemini,
		Name:           "Google Gemini",
		Priority:       1,
		DefaultModel:   "gemini-2.0-flash-exp",
		DefaultBaseURL: "https://generativelanguage.googleapis.com",
		CredentialEnv:  []string{"GEMINI_API_KEY", "API_KEY", "VITE_GEMINI_API_KEY", "VITE_API_KEY"},
		KeyURL:         "https://aistudio.google.com/app/apikey",
		Free:           true,
		Description:    "Primary provider - Fast and reliable (Free tier available)",
		Limits: Limits{
			RequestsPerMinute: 15,
			MaxRetries:        3,
			InitialDelay:      time.Second,
			MaxDelay:          10 * time.Second,
			Timeout:           30 * time.Second,
		},
	},
	{
		ID:             Groq,
		Name:           "Groq",
		Priority:       2,
		DefaultModel:   "llama-3.3-70b-versatile",
		DefaultBaseURL: "https://api.groq.com/openai/v1",
		CredentialEnv:  []string{"GROQ_API_KEY", "VITE_GROQ_API_KEY"},
		KeyURL:         "https://console.groq.com/keys",
		Free:           true,
		Description:    "Fallback provider - Extremely fast inference (Free)",
		Limits: Limits{
			RequestsPerMinute: 30,
			MaxRetries:        3,
			InitialDelay:      time.Second,
			MaxDelay:          10 * time.Second,
			Timeout:           30 * time.Second,
		},
	},
	{
		ID:             Together,
		Name:           "Together AI",
		Priority:       3,
		DefaultModel:   "meta-llama/Meta-Llama-3.1-70B-Instruct-Turbo",
		DefaultBaseURL: "https://api.together.xyz/v1",
		CredentialEnv:  []string{"TOGETHER_API_KEY", "VITE_TOGETHER_API_KEY"},
		KeyURL:         "https://api.together.xyz/settings/api-keys",
		Free:           true,
		Description:    "Fallback provider - Good quality (Free tier available)",
		Limits: Limits{
			RequestsPerMinute: 20,
			MaxRetries:        3,
			InitialDelay:      time.Second,
			MaxDelay:          10 * time.Second,
			Timeout:           30 * time.Second,
		},
	},
	{
		ID:             HuggingFace,
		Name:           "Hugging Face",
		Priority:       4,
		DefaultModel:   "meta-llama/Meta-Llama-3-70B-Instruct",
		DefaultBaseURL: "https://api-inference.huggingface.co",
		CredentialEnv:  []string{"HUGGINGFACE_API_KEY", "VITE_HUGGINGFACE_API_KEY"},
		KeyURL:         "https://huggingface.co/settings/tokens",
		Free:           true,
		Description:    "Fallback provider - Free inference API",
		Limits: Limits{
			RequestsPerMinute: 10,
			MaxRetries:        3,
			InitialDelay:      2 * time.Second,
			MaxDelay:          20 * time.Second,
			Timeout:           60 * time.Second,
		},
	},
}

// Catalog returns every known provider in priority order
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	for i, d := range catalog {
		d.CredentialEnv = append([]string(nil), d.CredentialEnv...)
		out[i] = d
	}
	return out
}

// Lookup returns the catalogue entry for id
func Lookup(id ProviderID) (Descriptor, bool) {
	for _, d := range catalog {
		if d.ID == id {
			d.CredentialEnv = append([]string(nil), d.CredentialEnv...)
			return d, true
		}
	}
	return Descriptor{}, false
}

// MustLookup is Lookup for ids known at compile time
func MustLookup(id ProviderID) Descriptor {
	d, ok := Lookup(id)
	if !ok {
		panic("providers: unknown provider id " + string(id))
	}
	return d
}
