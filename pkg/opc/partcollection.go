package opc

import (
	"sort"
)

// PartCollection is the set of live parts of a package keyed by
// case-insensitive part name. Removed parts leave the collection, so they
// never count against the M1.11 and M1.12 checks.
type PartCollection struct {
	parts map[string]*Part
	// dirs counts, for every proper "/"-prefix of a live key, the live
	// keys below it.
	dirs map[string]int
}

// NewPartCollection returns an empty collection
func NewPartCollection() *PartCollection {
	return &PartCollection{
		parts: make(map[string]*Part),
		dirs:  make(map[string]int),
	}
}

// Put adds part. It fails when an equivalent name exists (M1.12) or when
// one name is derived from the other by appending segments (M1.11).
func (c *PartCollection) Put(part *Part) error {
	const op = "add part"
	key := part.name.key()
	if _, ok := c.parts[key]; ok {
		return invalidOperation(op, part.name.name, "M1.12", "a part with an equivalent name already exists")
	}
	for i := 1; i < len(key); i++ {
		if key[i] != '/' {
			continue
		}
		if existing, ok := c.parts[key[:i]]; ok {
			return invalidOperation(op, part.name.name, "M1.11", "part name is derived from %s", existing.name.name)
		}
	}
	if c.dirs[key] > 0 {
		return invalidOperation(op, part.name.name, "M1.11", "other part names are derived from this part name")
	}
	c.parts[key] = part
	c.countDirs(key, 1)
	return nil
}

func (c *PartCollection) countDirs(key string, delta int) {
	for i := 1; i < len(key); i++ {
		if key[i] != '/' {
			continue
		}
		dir := key[:i]
		if n := c.dirs[dir] + delta; n > 0 {
			c.dirs[dir] = n
		} else {
			delete(c.dirs, dir)
		}
	}
}

// replace swaps the entry holding part.name in a single step.
func (c *PartCollection) replace(part *Part) {
	c.parts[part.name.key()] = part
}

// Get returns the part with the given name, or nil
func (c *PartCollection) Get(name PartName) *Part {
	return c.parts[name.key()]
}

// Contains reports whether a part with an equivalent name exists
func (c *PartCollection) Contains(name PartName) bool {
	_, ok := c.parts[name.key()]
	return ok
}

// Remove drops the part with the given name and returns it, or nil
func (c *PartCollection) Remove(name PartName) *Part {
	key := name.key()
	part, ok := c.parts[key]
	if !ok {
		return nil
	}
	delete(c.parts, key)
	c.countDirs(key, -1)
	return part
}

// Len returns the number of parts
func (c *PartCollection) Len() int {
	return len(c.parts)
}

// Sorted returns the parts ordered by name
func (c *PartCollection) Sorted() []*Part {
	out := make([]*Part, 0, len(c.parts))
	for _, p := range c.parts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].name.Compare(out[j].name) < 0
	})
	return out
}
