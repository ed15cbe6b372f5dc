package pitch

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// CatalogEntry describes one predefined optional section.
type CatalogEntry struct {
	Key   string `yaml:"key" json:"key"`
	Title string `yaml:"title" json:"title"`
	Kind  Kind   `yaml:"kind" json:"kind"`
}

type Catalog struct {
	entries []CatalogEntry
	byKey   map[string]CatalogEntry
}

var customKeyRE = regexp.MustCompile(`^custom_[a-z0-9][a-z0-9_-]{0,62}$`)

var sectionKeyRE = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,69}$`)

// IsCustomKey reports whether key is a well-formed custom section key.
func IsCustomKey(key string) bool { return customKeyRE.MatchString(key) }

// IsSectionKey reports whether key is well-formed at all. Stored keys that are neither in the
// catalog nor custom-prefixed still pass, so older sections survive a load/save round trip.
func IsSectionKey(key string) bool { return sectionKeyRE.MatchString(key) }

// NewCustomKey mints a fresh custom section key.
func NewCustomKey() string {
	return "custom_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// ParseCatalog decodes a YAML section catalog.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var doc struct {
		Sections []CatalogEntry `yaml:"sections"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse section catalog: %w", err)
	}
	c := &Catalog{byKey: make(map[string]CatalogEntry, len(doc.Sections))}
	for i, e := range doc.Sections {
		e.Key = strings.TrimSpace(e.Key)
		switch {
		case e.Key == "":
			return nil, fmt.Errorf("section catalog entry %d has no key", i)
		case IsCustomKey(e.Key):
			return nil, fmt.Errorf("section catalog key %q collides with the custom prefix", e.Key)
		case !e.Kind.Valid() || e.Kind == KindCustom:
			return nil, fmt.Errorf("section catalog key %q has invalid kind %q", e.Key, e.Kind)
		}
		if _, dup := c.byKey[e.Key]; dup {
			return nil, fmt.Errorf("section catalog key %q listed twice", e.Key)
		}
		c.entries = append(c.entries, e)
		c.byKey[e.Key] = e
	}
	return c, nil
}

// DefaultCatalog returns the embedded catalog. It panics if the embedded file is malformed.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Entries() []CatalogEntry {
	return append([]CatalogEntry(nil), c.entries...)
}

func (c *Catalog) Lookup(key string) (CatalogEntry, bool) {
	e, ok := c.byKey[key]
	return e, ok
}

// KindFor resolves the archetype for a key; custom keys map to KindCustom.
func (c *Catalog) KindFor(key string) (Kind, bool) {
	if e, ok := c.byKey[key]; ok {
		return e.Kind, true
	}
	if IsCustomKey(key) {
		return KindCustom, true
	}
	return "", false
}
