package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var localesFS embed.FS

// Catalog maps (locale, message) to display text.
type Catalog struct {
	texts map[Locale]map[Message]string
}

var (
	builtinOnce sync.Once
	builtin     *Catalog
)

// Builtin returns the catalog compiled into the binary.
func Builtin() *Catalog {
	builtinOnce.Do(func() {
		c, err := NewCatalog(localesFS)
		if err != nil {
			panic(err)
		}
		builtin = c
	})
	return builtin
}

// NewCatalog reads locales/<code>.yaml for every supported locale and checks
// that each one defines all messages.
func NewCatalog(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{texts: make(map[Locale]map[Message]string, len(Supported()))}
	for _, l := range Supported() {
		file := path.Join("locales", string(l)+".yaml")
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", file, err)
		}
		table, err := parseTable(data)
		if err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", file, err)
		}
		for _, m := range Messages() {
			if strings.TrimSpace(table[m]) == "" {
				return nil, fmt.Errorf("locale %s: missing message %q", l, m)
			}
		}
		c.texts[l] = table
	}
	return c, nil
}

func parseTable(data []byte) (map[Message]string, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	table := make(map[Message]string, len(raw))
	for k, v := range raw {
		table[Message(k)] = v
	}
	return table, nil
}

// Text renders m in l, formatting args into the template when given.
// An unset locale renders in Default; an unknown message renders as its key.
func (c *Catalog) Text(l Locale, m Message, args ...any) string {
	format, ok := c.texts[l.Or(Default)][m]
	if !ok {
		return string(m)
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Bilingual renders m in every supported locale, one per line.
func (c *Catalog) Bilingual(m Message) string {
	lines := make([]string, 0, len(Supported()))
	for _, l := range Supported() {
		lines = append(lines, c.Text(l, m))
	}
	return strings.Join(lines, "\n")
}

// Intent classifies a menu phrase. Matching is exact after trimming, against
// the phrases of every locale; the matching locale is returned with the intent.
func (c *Catalog) Intent(text string) (Intent, Locale) {
	text = strings.TrimSpace(text)
	if text == "" {
		return IntentNone, None
	}
	for _, l := range Supported() {
		switch text {
		case c.texts[l][MsgChangeLanguage]:
			return IntentChangeLanguage, l
		case c.texts[l][MsgViewBalance]:
			return IntentViewBalance, l
		}
	}
	return IntentNone, None
}

// MatchIntent classifies text against the builtin catalog.
func MatchIntent(text string) (Intent, Locale) {
	return Builtin().Intent(text)
}
