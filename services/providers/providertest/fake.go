// Package providertest provides a scriptable Provider for tests.
package providertest

import (
	"context"
	"sync"

	"github.com/upb/llm-content-gateway/services/providers"
)

// Call records the arguments of one Generate invocation
type Call struct {
	Prompt            string
	SystemInstruction string
	Config            *providers.GenerationConfig
}

// Result is one scripted Generate outcome
type Result struct {
	Text string
	Err  error
}

// Fake is a Provider whose Generate outcomes are scripted in order.
// Once the script is exhausted the last entry repeats.
type Fake struct {
	id       providers.ProviderID
	name     string
	priority int

	mu        sync.Mutex
	available bool
	healthy   bool
	script    []Result
	calls     []Call
	health    int
}

// New creates an available, healthy fake that answers "ok"
func New(id providers.ProviderID, name string, priority int) *Fake {
	return &Fake{
		id:        id,
		name:      name,
		priority:  priority,
		available: true,
		healthy:   true,
		script:    []Result{{Text: "ok"}},
	}
}

// SetAvailable toggles the credential flag
func (f *Fake) SetAvailable(available bool) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available = available
	return f
}

// SetHealthy sets the HealthCheck answer
func (f *Fake) SetHealthy(healthy bool) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthy = healthy
	return f
}

// Script replaces the scripted Generate outcomes
func (f *Fake) Script(results ...Result) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = results
	return f
}

// Calls returns a copy of the recorded Generate calls
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many times Generate ran
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// HealthCheckCount returns how many times HealthCheck ran
func (f *Fake) HealthCheckCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.health
}

func (f *Fake) ID() providers.ProviderID { return f.id }

func (f *Fake) Name() string { return f.name }

func (f *Fake) Priority() int { return f.priority }

func (f *Fake) IsAvailable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

func (f *Fake) HealthCheck(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.health++
	return f.healthy
}

func (f *Fake) Generate(ctx context.Context, prompt, systemInstruction string, cfg *providers.GenerationConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	idx := len(f.calls)
	f.calls = append(f.calls, Call{Prompt: prompt, SystemInstruction: systemInstruction, Config: cfg})

	if len(f.script) == 0 {
		return "", providers.ErrEmptyOutput
	}
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	r := f.script[idx]
	return r.Text, r.Err
}
