package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// MarkerPattern is the grammar for injection markers: a line-comment prefix
// followed by the INJECT token and an uppercase identifier, alone on a line.
var MarkerPattern = regexp.MustCompile(`^\s*(?://|#)\s*INJECT:[A-Z_]+\s*$`)

type Injection struct {
	TargetFile string `json:"targetFile"`
	Marker     string `json:"marker"`
	Code       string `json:"code"`
}

type Feature struct {
	Key             string            `json:"-"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Files           []string          `json:"files,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
	Injections      []Injection       `json:"injections,omitempty"`
}

type Registry struct {
	features map[string]Feature
}

// Load reads a registry document mapping feature key to descriptor. The
// registry is read once per run and never mutated afterwards.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Registry, error) {
	var raw map[string]Feature
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed registry: %w", err)
	}

	features := make(map[string]Feature, len(raw))
	for key, feat := range raw {
		feat.Key = key
		if err := validate(feat); err != nil {
			return nil, fmt.Errorf("feature %q: %w", key, err)
		}
		features[key] = feat
	}

	return &Registry{features: features}, nil
}

func validate(feat Feature) error {
	if feat.Key == "" {
		return fmt.Errorf("feature key cannot be empty")
	}

	for _, pattern := range feat.Files {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid file pattern %q", pattern)
		}
	}

	for _, inj := range feat.Injections {
		if inj.TargetFile == "" {
			return fmt.Errorf("injection target file cannot be empty")
		}
		if !MarkerPattern.MatchString(inj.Marker) {
			return fmt.Errorf("invalid marker %q in %s", inj.Marker, inj.TargetFile)
		}
	}

	return nil
}

func (r *Registry) Get(key string) (Feature, error) {
	feat, exists := r.features[key]
	if !exists {
		return Feature{}, fmt.Errorf("feature %q not found", key)
	}
	return feat, nil
}

func (r *Registry) Has(key string) bool {
	_, exists := r.features[key]
	return exists
}

// Resolve returns descriptors in selection order. Order matters: it decides
// how injections stack when several features target the same marker.
func (r *Registry) Resolve(keys []string) ([]Feature, error) {
	features := make([]Feature, 0, len(keys))
	for _, key := range keys {
		feat, err := r.Get(key)
		if err != nil {
			return nil, err
		}
		features = append(features, feat)
	}
	return features, nil
}

// List returns all features sorted by key, for display surfaces.
func (r *Registry) List() []Feature {
	features := make([]Feature, 0, len(r.features))
	for _, feat := range r.features {
		features = append(features, feat)
	}
	sort.Slice(features, func(i, j int) bool {
		return features[i].Key < features[j].Key
	})
	return features
}

func (r *Registry) Len() int {
	return len(r.features)
}
