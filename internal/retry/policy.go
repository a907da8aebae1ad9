package retry

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Well-known counter names.
const (
	CounterResendCode = "resend_code"
	CounterVerifyCode = "verify_code"
)

// Default maxima.
const (
	DefaultResendMax = 4
	DefaultVerifyMax = 3
)

// ErrUnknownCounter is returned when evaluating a counter the policy does not name.
var ErrUnknownCounter = errors.New("counter has no configured maximum")

// Policy maps counter names to their maximum. It is immutable once built.
type Policy struct {
	maxima map[string]int
}

// policyFile is the on-disk YAML shape:
//
//	counters:
//	  resend_code: 4
//	  verify_code: 3
type policyFile struct {
	Counters map[string]int `yaml:"counters"`
}

// DefaultPolicy returns the resend/verify policy.
func DefaultPolicy() Policy {
	return Policy{maxima: map[string]int{
		CounterResendCode: DefaultResendMax,
		CounterVerifyCode: DefaultVerifyMax,
	}}
}

// NewPolicy builds a policy from explicit maxima. Every maximum must be at least 1.
func NewPolicy(maxima map[string]int) (Policy, error) {
	p := Policy{maxima: make(map[string]int, len(maxima))}
	for name, max := range maxima {
		if name == "" {
			return Policy{}, errors.New("counter name is required")
		}
		if max < 1 {
			return Policy{}, fmt.Errorf("counter %q: maximum must be at least 1, got %d", name, max)
		}
		p.maxima[name] = max
	}
	return p, nil
}

// LoadPolicy reads a YAML policy file and layers it over DefaultPolicy.
// An empty path returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read retry policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes YAML policy bytes layered over DefaultPolicy.
func ParsePolicy(data []byte) (Policy, error) {
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Policy{}, fmt.Errorf("parse retry policy: %w", err)
	}
	merged := DefaultPolicy().maxima
	for name, max := range f.Counters {
		merged[name] = max
	}
	return NewPolicy(merged)
}

// Max returns the maximum for a counter.
func (p Policy) Max(name string) (int, bool) {
	max, ok := p.maxima[name]
	return max, ok
}

// Names lists the configured counters in sorted order.
func (p Policy) Names() []string {
	names := make([]string, 0, len(p.maxima))
	for name := range p.maxima {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
