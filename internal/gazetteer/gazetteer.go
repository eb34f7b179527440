// Package gazetteer holds the fixed table of valid localities, their districts,
// spelling aliases, and village-to-parent mappings.
package gazetteer

import (
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// ErrEmpty is returned when a gazetteer has no localities. Every downstream
// component depends on the table, so callers must stop before processing.
var ErrEmpty = eris.New("gazetteer: no localities loaded")

// Entry is one locality and the district it belongs to.
type Entry struct {
	Name     string `yaml:"name" json:"name"`
	District string `yaml:"district" json:"district"`
}

// File is the on-disk gazetteer layout.
type File struct {
	Localities []Entry `yaml:"localities"`
	// Aliases maps an alternate spelling onto a locality or village name.
	Aliases map[string]string `yaml:"aliases"`
	// Villages maps a village onto the locality that contains it.
	Villages map[string]string `yaml:"villages"`
}

// Surface is a spelling that can appear in free text, with the canonical
// identity name it resolves to.
type Surface struct {
	Text      string
	Canonical string
}

// Gazetteer is read-only after construction and safe for concurrent use.
type Gazetteer struct {
	canonical map[string]string // folded spelling -> identity name
	parents   map[string]string // folded village -> parent locality
	districts map[string]string // folded locality -> district
	names     []string
	surfaces  []Surface
}

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases, strips accents and periods, and collapses whitespace so
// that "W. Boylston", "w  boylston" and "W Boylston" compare equal.
func Fold(s string) string {
	s, _, _ = transform.String(stripAccents, s)
	s = strings.ToLower(strings.ReplaceAll(s, ".", " "))
	return strings.Join(strings.Fields(s), " ")
}

// New builds a Gazetteer, validating that every alias and village points at a
// known name.
func New(f File) (*Gazetteer, error) {
	if len(f.Localities) == 0 {
		return nil, ErrEmpty
	}

	g := &Gazetteer{
		canonical: make(map[string]string),
		parents:   make(map[string]string),
		districts: make(map[string]string),
	}

	for _, e := range f.Localities {
		name := strings.Join(strings.Fields(e.Name), " ")
		if name == "" {
			return nil, eris.New("gazetteer: locality with empty name")
		}
		key := Fold(name)
		if _, dup := g.canonical[key]; dup {
			return nil, eris.Errorf("gazetteer: duplicate locality %q", name)
		}
		g.canonical[key] = name
		g.districts[key] = e.District
		g.names = append(g.names, name)
	}

	for village, parent := range f.Villages {
		p, ok := g.canonical[Fold(parent)]
		if !ok {
			return nil, eris.Errorf("gazetteer: village %q has unknown parent %q", village, parent)
		}
		name := strings.Join(strings.Fields(village), " ")
		key := Fold(name)
		if _, dup := g.canonical[key]; dup {
			return nil, eris.Errorf("gazetteer: village %q collides with a locality", village)
		}
		g.canonical[key] = name
		g.parents[key] = p
	}

	for alias, target := range f.Aliases {
		t, ok := g.canonical[Fold(target)]
		if !ok {
			return nil, eris.Errorf("gazetteer: alias %q has unknown target %q", alias, target)
		}
		key := Fold(alias)
		if existing, dup := g.canonical[key]; dup && existing != t {
			return nil, eris.Errorf("gazetteer: alias %q shadows %q", alias, existing)
		}
		g.canonical[key] = t
	}

	sort.Strings(g.names)

	for key, c := range g.canonical {
		g.surfaces = append(g.surfaces, Surface{Text: key, Canonical: c})
	}
	sort.Slice(g.surfaces, func(i, j int) bool {
		a, b := g.surfaces[i].Text, g.surfaces[j].Text
		if wa, wb := len(strings.Fields(a)), len(strings.Fields(b)); wa != wb {
			return wa > wb
		}
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})

	return g, nil
}

// Load reads a YAML gazetteer from path.
func Load(path string) (*Gazetteer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "gazetteer: read %s", path)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "gazetteer: parse")
	}
	return New(f)
}

// Canonical resolves a spelling to its identity name. Villages resolve to
// themselves, not their parent, because the roster records units under the
// village spelling.
func (g *Gazetteer) Canonical(name string) (string, bool) {
	c, ok := g.canonical[Fold(name)]
	return c, ok
}

// Parent returns the locality a name belongs to for territorial purposes.
// For anything other than a village this is the canonical name itself.
func (g *Gazetteer) Parent(name string) string {
	key := Fold(name)
	if p, ok := g.parents[Fold(g.canonical[key])]; ok {
		return p
	}
	return g.canonical[key]
}

// District returns the district of name's territorial parent, or "" when the
// name is unknown.
func (g *Gazetteer) District(name string) string {
	return g.districts[Fold(g.Parent(name))]
}

// IsVillage reports whether name resolves to a village.
func (g *Gazetteer) IsVillage(name string) bool {
	c, ok := g.Canonical(name)
	if !ok {
		return false
	}
	_, v := g.parents[Fold(c)]
	return v
}

// Len returns the number of localities, excluding villages and aliases.
func (g *Gazetteer) Len() int {
	return len(g.names)
}

// Localities returns the locality names in alphabetical order.
func (g *Gazetteer) Localities() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Surfaces returns every folded spelling (localities, villages, aliases)
// ordered longest first, so multi-word names are tried before their parts.
func (g *Gazetteer) Surfaces() []Surface {
	return g.surfaces
}
