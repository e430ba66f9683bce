package subproject

import (
	"golang.org/x/text/cases"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
)

// DefaultSelection is used by commands that need exactly one subproject
// when none is selected.
const DefaultSelection = "luatex"

// Registry keeps the subprojects in insertion order under case folded
// names.
type Registry struct {
	order  []string
	byName map[string]*Subproject
}

// NewRegistry creates a registry holding subprojects.
func NewRegistry(subprojects ...*Subproject) *Registry {
	r := &Registry{byName: make(map[string]*Subproject)}
	for _, s := range subprojects {
		r.Add(s)
	}
	return r
}

func fold(name string) string { return cases.Fold().String(name) }

// Add registers s, replacing a subproject of the same name.
func (r *Registry) Add(s *Subproject) {
	key := fold(s.Name)
	if _, exists := r.byName[key]; !exists {
		r.order = append(r.order, key)
	}
	r.byName[key] = s
}

// Get looks up a subproject ignoring case.
func (r *Registry) Get(name string) (*Subproject, error) {
	s, ok := r.byName[fold(name)]
	if !ok {
		return nil, derrors.UnknownSubproject(name)
	}
	return s, nil
}

// Names returns the keys in insertion order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// All returns every subproject in insertion order.
func (r *Registry) All() []*Subproject {
	all := make([]*Subproject, 0, len(r.order))
	for _, key := range r.order {
		all = append(all, r.byName[key])
	}
	return all
}

// Len is the number of registered subprojects.
func (r *Registry) Len() int { return len(r.order) }

// Selected returns the named subproject, or all of them when name is empty.
func (r *Registry) Selected(name string) ([]*Subproject, error) {
	if name == "" {
		return r.All(), nil
	}
	s, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return []*Subproject{s}, nil
}

// CurrentDefault returns the named subproject or LuaTeX.
func (r *Registry) CurrentDefault(name string) (*Subproject, error) {
	if name == "" {
		name = DefaultSelection
	}
	return r.Get(name)
}

// TeXProjects filters the selection down to TeX subprojects.
func (r *Registry) TeXProjects(name string) ([]*Subproject, error) {
	selected, err := r.Selected(name)
	if err != nil {
		return nil, err
	}
	var tex []*Subproject
	for _, s := range selected {
		if s.IsTeX() {
			tex = append(tex, s)
		}
	}
	return tex, nil
}
