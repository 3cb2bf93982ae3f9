package canvas

import (
	"fmt"
	"strconv"
	"strings"

	"whiteboard/internal/domain"
)

// Collection is the canonical, ordered, id-indexed set of canvas elements.
// It is a value type with copy-on-write semantics: every mutating method
// returns a new Collection and leaves the receiver untouched, so any
// consumer holding a Collection always observes a complete, non-torn
// snapshot.
type Collection struct {
	elems []domain.Element
	index map[string]int
}

// NewCollection builds a collection from elements in the given order.
// Elements are normalized (missing geometry repaired) rather than dropped;
// a later element with a duplicate id replaces the earlier one in place.
func NewCollection(elements []domain.Element) Collection {
	c := Collection{
		elems: make([]domain.Element, 0, len(elements)),
		index: make(map[string]int, len(elements)),
	}
	for _, e := range elements {
		el := e.Clone()
		el.Normalize()
		if i, ok := c.index[el.ID]; ok {
			c.elems[i] = el
			continue
		}
		c.index[el.ID] = len(c.elems)
		c.elems = append(c.elems, el)
	}
	return c
}

// Len returns the number of elements, tombstones included.
func (c Collection) Len() int { return len(c.elems) }

// Get returns the element with the given id.
func (c Collection) Get(id string) (domain.Element, bool) {
	i, ok := c.index[id]
	if !ok {
		return domain.Element{}, false
	}
	return c.elems[i].Clone(), true
}

// Has reports whether an element with the given id exists.
func (c Collection) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Elements returns a deep copy of all elements in collection order.
func (c Collection) Elements() []domain.Element {
	out := make([]domain.Element, len(c.elems))
	for i, e := range c.elems {
		out[i] = e.Clone()
	}
	return out
}

// Put inserts or replaces an element, preserving collection order for
// replacements and appending new elements at the end.
func (c Collection) Put(e domain.Element) Collection {
	e = e.Clone()
	e.Normalize()
	next := c.clone()
	if i, ok := next.index[e.ID]; ok {
		next.elems[i] = e
		return next
	}
	next.index[e.ID] = len(next.elems)
	next.elems = append(next.elems, e)
	return next
}

// Update applies fn to the element with the given id and bumps its version
// if fn reports a change. Unknown ids are a no-op.
func (c Collection) Update(id string, fn func(*domain.Element) bool) Collection {
	i, ok := c.index[id]
	if !ok {
		return c
	}
	el := c.elems[i].Clone()
	if !fn(&el) {
		return c
	}
	el.Version++
	next := c.clone()
	next.elems[i] = el
	return next
}

// Delete purges an element together with every dangling reference to it:
// bindings pointing at it are cleared and its id is removed from every
// boundBy set. Affected elements get a version bump.
func (c Collection) Delete(id string) Collection {
	if _, ok := c.index[id]; !ok {
		return c
	}
	next := Collection{
		elems: make([]domain.Element, 0, len(c.elems)-1),
		index: make(map[string]int, len(c.elems)-1),
	}
	for _, e := range c.elems {
		if e.ID == id {
			continue
		}
		el := e.Clone()
		changed := false
		if el.Start != nil && el.Start.TargetID == id {
			el.Start = nil
			changed = true
		}
		if el.End != nil && el.End.TargetID == id {
			el.End = nil
			changed = true
		}
		if removeRef(&el.BoundBy, id) {
			changed = true
		}
		if changed {
			el.Version++
		}
		next.index[el.ID] = len(next.elems)
		next.elems = append(next.elems, el)
	}
	return next
}

// Clear returns an empty collection.
func (c Collection) Clear() Collection {
	return Collection{index: map[string]int{}}
}

// Fingerprint returns a structural fingerprint built from
// (id, kind, x, y, version) tuples in collection order. Two collections
// with equal fingerprints are treated as the same snapshot by the
// reconciler.
func (c Collection) Fingerprint() string {
	if len(c.elems) == 0 {
		return "empty"
	}
	var b strings.Builder
	for _, e := range c.elems {
		b.WriteString(e.ID)
		b.WriteByte(':')
		b.WriteString(string(e.Kind))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(e.X, 'g', -1, 64))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(e.Y, 'g', -1, 64))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(e.Version))
		b.WriteByte(';')
	}
	return b.String()
}

// MarshalJSON serializes the collection as a plain element array, the wire
// format shared with the surface and the store.
func (c Collection) MarshalJSON() ([]byte, error) {
	return marshalElements(c.Elements())
}

func (c Collection) clone() Collection {
	next := Collection{
		elems: make([]domain.Element, len(c.elems)),
		index: make(map[string]int, len(c.index)),
	}
	for i, e := range c.elems {
		next.elems[i] = e.Clone()
		next.index[e.ID] = i
	}
	return next
}

func removeRef(refs *[]string, id string) bool {
	for i, r := range *refs {
		if r == id {
			*refs = append((*refs)[:i], (*refs)[i+1:]...)
			if len(*refs) == 0 {
				*refs = nil
			}
			return true
		}
	}
	return false
}

func addRef(refs *[]string, id string) bool {
	for _, r := range *refs {
		if r == id {
			return false
		}
	}
	*refs = append(*refs, id)
	return true
}

// String is a compact debug form, useful in watcher logs.
func (c Collection) String() string {
	return fmt.Sprintf("Collection(%d elements)", len(c.elems))
}
