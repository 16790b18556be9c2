// Package i18n resolves "namespace:key" strings from embedded TOML message
// files through a go-i18n bundle.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

// Fallback is consulted when the active locale lacks a key.
const Fallback = "en"

// Translator looks up user-facing strings.
type Translator interface {
	T(key string, vars ...string) string
}

// Catalog is a loaded bundle with one locale active.
type Catalog struct {
	locale    string
	bundle    *goi18n.Bundle
	localizer *goi18n.Localizer
}

// Load reads every embedded locale and activates locale.
func Load(locale string) (*Catalog, error) {
	bundle := goi18n.NewBundle(language.MustParse(Fallback))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if _, err := bundle.LoadMessageFileFS(localeFS, path.Join("locales", e.Name())); err != nil {
			return nil, fmt.Errorf("locale %s: %w", strings.TrimSuffix(e.Name(), ".toml"), err)
		}
	}

	c := &Catalog{bundle: bundle}
	tag, err := language.Parse(locale)
	if err != nil || !c.has(tag) {
		return nil, fmt.Errorf("unknown locale %q (have %s)", locale, strings.Join(c.Locales(), ", "))
	}
	c.locale = tag.String()
	c.localizer = goi18n.NewLocalizer(bundle, c.locale, Fallback)
	return c, nil
}

func (c *Catalog) has(tag language.Tag) bool {
	for _, t := range c.bundle.LanguageTags() {
		if t == tag {
			return true
		}
	}
	return false
}

func (c *Catalog) Locale() string { return c.locale }

func (c *Catalog) Locales() []string {
	tags := c.bundle.LanguageTags()
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.String())
	}
	sort.Strings(out)
	return out
}

// T returns the text for key. vars are name/value pairs filling {{.name}}.
// Missing keys fall back to English, then to the key itself.
func (c *Catalog) T(key string, vars ...string) string {
	var data map[string]string
	if len(vars) > 1 {
		data = make(map[string]string, len(vars)/2)
		for i := 0; i+1 < len(vars); i += 2 {
			data[vars[i]] = vars[i+1]
		}
	}
	text, err := c.localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    strings.ReplaceAll(key, ":", "."),
		TemplateData: data,
	})
	if err != nil || text == "" {
		return key
	}
	return text
}
