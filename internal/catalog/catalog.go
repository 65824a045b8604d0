// Package catalog maps logical whisper.cpp model names to the ggml artifact
// files the engine loads.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultModel is used when the configuration does not name one.
const DefaultModel = "small.en"

const downloadBase = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

type Model struct {
	Name     string
	FileName string
	URL      string
	// SHA256 is empty for models whose checksum is not pinned.
	SHA256 string
}

var registry = map[string]Model{
	"tiny":      newModel("tiny", "be07e048e1e599ad46341c8d2a135645097a538221678b7acdd1b1919c6e1b21"),
	"tiny.en":   newModel("tiny.en", ""),
	"base":      newModel("base", "60ed5bc3dd14eea856493d334349b405782ddcaf0028d4b5df4088345fba2efe"),
	"base.en":   newModel("base.en", ""),
	"small":     newModel("small", "1be3a9b2063867b937e64e2ec7483364a79917e157fa98c5d94b5c1fffea987b"),
	"small.en":  newModel("small.en", ""),
	"medium":    newModel("medium", "6c14d5adee5f86394037b4e4e8b59f1673b6cee10e3cf0b11bbdbee79c156208"),
	"medium.en": newModel("medium.en", ""),
	"large":     newModel("large", ""),
	"large-v1":  newModel("large-v1", ""),
	"large-v2":  newModel("large-v2", ""),
	"large-v3":  newModel("large-v3", "64d182b440b98d5203c4f9bd541544d84c605196c4f7b845dfa11fb23594d1e2"),
}

// Lookup finds name in the built-in registry.
func Lookup(name string) (Model, bool) {
	model, ok := registry[strings.TrimSpace(name)]
	return model, ok
}

// KnownNames lists the built-in model names in sorted order.
func KnownNames() []string {
	return names(registry)
}

func newModel(name, sha string) Model {
	fileName := "ggml-" + name + ".bin"
	return Model{Name: name, FileName: fileName, URL: downloadBase + fileName, SHA256: sha}
}

// Catalog resolves requested model names, substituting a default for names
// it does not know. It is immutable and safe for concurrent use.
type Catalog struct {
	models   map[string]Model
	fallback Model
}

// New returns a catalog whose unknown-name fallback is defaultModel.
func New(defaultModel string) (*Catalog, error) {
	defaultModel = strings.TrimSpace(defaultModel)
	if defaultModel == "" {
		defaultModel = DefaultModel
	}

	fallback, ok := registry[defaultModel]
	if !ok {
		return nil, fmt.Errorf("default model %q is not a known model (known models: %s)", defaultModel, strings.Join(names(registry), ", "))
	}

	return &Catalog{models: registry, fallback: fallback}, nil
}

// Resolve returns the artifact file name for name. Names outside the
// catalog resolve to the default model and report defaulted.
func (c *Catalog) Resolve(name string) (fileName string, defaulted bool) {
	model, defaulted := c.model(name)
	return model.FileName, defaulted
}

// Effective returns the logical name that is actually used for name.
func (c *Catalog) Effective(name string) string {
	model, _ := c.model(name)
	return model.Name
}

// Model returns the catalog entry used for name, and whether it is the
// fallback substitute.
func (c *Catalog) Model(name string) (Model, bool) {
	return c.model(name)
}

// Lookup returns the entry for name without falling back to the default.
func (c *Catalog) Lookup(name string) (Model, bool) {
	model, ok := c.models[strings.TrimSpace(name)]
	return model, ok
}

func (c *Catalog) Default() Model {
	return c.fallback
}

// Names lists the known model names in sorted order.
func (c *Catalog) Names() []string {
	return names(c.models)
}

func (c *Catalog) model(name string) (Model, bool) {
	if model, ok := c.models[strings.TrimSpace(name)]; ok {
		return model, false
	}
	return c.fallback, true
}

func names(models map[string]Model) []string {
	out := make([]string, 0, len(models))
	for name := range models {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
