package resources

import (
	"fmt"

	"github.com/wudi/pdfwrite/ir/raw"
)

type ResourceCategory string

const (
	CategoryFont    ResourceCategory = "Font"
	CategoryXObject ResourceCategory = "XObject"
)

// Categories lists the categories in the order they appear in the
// resource dictionary.
var Categories = []ResourceCategory{CategoryFont, CategoryXObject}

type table struct {
	names []raw.Name
	refs  map[raw.Name]raw.ObjectRef
	byRef map[raw.ObjectRef]raw.Name
}

// Registry is the document-wide resource dictionary shared by every page.
// Names keep registration order so the serialized dictionary is stable.
type Registry struct {
	tables map[ResourceCategory]*table
}

func NewRegistry() *Registry {
	return &Registry{tables: make(map[ResourceCategory]*table)}
}

func (r *Registry) table(cat ResourceCategory) *table {
	t, ok := r.tables[cat]
	if !ok {
		t = &table{refs: make(map[raw.Name]raw.ObjectRef), byRef: make(map[raw.ObjectRef]raw.Name)}
		r.tables[cat] = t
	}
	return t
}

// Register binds name to ref within cat. The first binding of a name wins:
// when name is already taken the existing reference is returned with false.
func (r *Registry) Register(cat ResourceCategory, name raw.Name, ref raw.ObjectRef) (raw.ObjectRef, bool) {
	t := r.table(cat)
	if existing, ok := t.refs[name]; ok {
		return existing, false
	}
	t.names = append(t.names, name)
	t.refs[name] = ref
	if _, ok := t.byRef[ref]; !ok {
		t.byRef[ref] = name
	}
	return ref, true
}

func (r *Registry) Lookup(cat ResourceCategory, name raw.Name) (raw.ObjectRef, bool) {
	t, ok := r.tables[cat]
	if !ok {
		return raw.ObjectRef{}, false
	}
	ref, ok := t.refs[name]
	return ref, ok
}

// MustLookup is Lookup returning an error naming the missing resource.
func (r *Registry) MustLookup(cat ResourceCategory, name raw.Name) (raw.ObjectRef, error) {
	ref, ok := r.Lookup(cat, name)
	if !ok {
		return raw.ObjectRef{}, fmt.Errorf("resource not found: %s/%s", cat, name)
	}
	return ref, nil
}

// NameOf returns the first name registered for ref.
func (r *Registry) NameOf(cat ResourceCategory, ref raw.ObjectRef) (raw.Name, bool) {
	t, ok := r.tables[cat]
	if !ok {
		return "", false
	}
	name, ok := t.byRef[ref]
	return name, ok
}

func (r *Registry) Len(cat ResourceCategory) int {
	if t, ok := r.tables[cat]; ok {
		return len(t.names)
	}
	return 0
}

// Dict renders the registry as a resource dictionary. Empty categories are
// omitted.
func (r *Registry) Dict() *raw.Dict {
	d := raw.NewDict()
	for _, cat := range Categories {
		t, ok := r.tables[cat]
		if !ok || len(t.names) == 0 {
			continue
		}
		sub := raw.NewDict()
		for _, name := range t.names {
			sub.Set(name, t.refs[name])
		}
		d.Set(raw.Name(cat), sub)
	}
	return d
}
