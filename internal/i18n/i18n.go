// internal/i18n/i18n.go
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const DefaultLocale = "en"

//go:embed catalog/*.yaml
var catalogFS embed.FS

// Catalog holds flat message tables keyed by locale.
type Catalog struct {
	messages map[string]map[string]string
	matcher  language.Matcher
	locales  []string
}

// Load parses the embedded catalogs. The default locale must be present and
// every other locale must cover the same keys.
func Load() (*Catalog, error) {
	entries, err := catalogFS.ReadDir("catalog")
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	c := &Catalog{messages: make(map[string]map[string]string)}
	for _, e := range entries {
		locale := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		raw, err := catalogFS.ReadFile("catalog/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", locale, err)
		}
		table := map[string]string{}
		if err := yaml.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", locale, err)
		}
		c.messages[locale] = table
	}

	base, ok := c.messages[DefaultLocale]
	if !ok {
		return nil, fmt.Errorf("catalog %s missing", DefaultLocale)
	}
	for locale, table := range c.messages {
		for key := range base {
			if _, ok := table[key]; !ok {
				return nil, fmt.Errorf("catalog %s: missing key %s", locale, key)
			}
		}
	}

	// the default locale goes first so the matcher falls back to it
	c.locales = []string{DefaultLocale}
	for locale := range c.messages {
		if locale != DefaultLocale {
			c.locales = append(c.locales, locale)
		}
	}
	sort.Strings(c.locales[1:])

	tags := make([]language.Tag, len(c.locales))
	for i, l := range c.locales {
		tags[i] = language.Make(l)
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

// MustLoad is Load for program start-up.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Locales lists the available locales, default first.
func (c *Catalog) Locales() []string {
	return append([]string(nil), c.locales...)
}

// Match picks the best supported locale for an Accept-Language header or a
// bare locale string.
func (c *Catalog) Match(accept ...string) string {
	_, idx := language.MatchStrings(c.matcher, accept...)
	return c.locales[idx]
}

// T returns the message for key in locale, falling back to the default
// locale and then to the key itself. {name} placeholders are replaced from
// args.
func (c *Catalog) T(locale, key string, args map[string]string) string {
	msg, ok := c.messages[locale][key]
	if !ok {
		if msg, ok = c.messages[DefaultLocale][key]; !ok {
			return key
		}
	}
	if len(args) == 0 {
		return msg
	}

	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Fields translates validation message keys field by field. Empty messages
// are dropped.
func (c *Catalog) Fields(locale string, fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for field, key := range fields {
		if key == "" {
			continue
		}
		out[field] = c.T(locale, "validation."+key, nil)
	}
	return out
}
