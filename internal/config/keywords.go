package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Keywords overrides the built-in offering-type keyword lists. Lists
// left empty fall back to the defaults.
type Keywords struct {
	Bootcamp  []string `yaml:"bootcamp"`
	Talent    []string `yaml:"talent"`
	Devtool   []string `yaml:"devtool"`
	Education []string `yaml:"education"`
	// Noise extends the normalizer's chrome denylist with additional
	// line prefixes.
	Noise []string `yaml:"noise"`
}

// LoadKeywords reads a keywords override file.
func LoadKeywords(path string) (*Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read keywords file %s", path)
	}
	var kw Keywords
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return nil, eris.Wrapf(err, "config: parse keywords file %s", path)
	}
	return &kw, nil
}
