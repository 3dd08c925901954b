package opc

// Relationships returns a copy of the package-level relationships.
func (p *Package) Relationships() (*RelationshipGraph, error) {
	if err := p.readable("get relationships"); err != nil {
		return nil, err
	}
	g, err := p.relationships()
	if err != nil {
		return nil, err
	}
	return g.clone(), nil
}

// RelationshipsByType returns the package-level relationships of relType.
func (p *Package) RelationshipsByType(relType string) (*RelationshipGraph, error) {
	if err := p.readable("get relationships"); err != nil {
		return nil, err
	}
	g, err := p.relationships()
	if err != nil {
		return nil, err
	}
	return g.ByType(relType), nil
}

// Relationship returns the package-level relationship with the given id, or nil.
func (p *Package) Relationship(id string) (*Relationship, error) {
	if err := p.readable("get relationships"); err != nil {
		return nil, err
	}
	g, err := p.relationships()
	if err != nil {
		return nil, err
	}
	return g.Get(id), nil
}

// AddRelationship relates the package root to target with a generated id.
func (p *Package) AddRelationship(target PartName, mode TargetMode, relType string) (*Relationship, error) {
	return p.addRelationship(RootPartName, p.relationships, target, mode, relType, "")
}

// AddRelationshipWithID relates the package root to target using id.
func (p *Package) AddRelationshipWithID(target PartName, mode TargetMode, relType, id string) (*Relationship, error) {
	return p.addRelationship(RootPartName, p.relationships, target, mode, relType, id)
}

// AddExternalRelationship relates the package root to a URI outside the package.
func (p *Package) AddExternalRelationship(target, relType string) (*Relationship, error) {
	return p.addExternalRelationship(p.relationships, target, relType, "")
}

// AddExternalRelationshipWithID is AddExternalRelationship with an explicit id.
func (p *Package) AddExternalRelationshipWithID(target, relType, id string) (*Relationship, error) {
	return p.addExternalRelationship(p.relationships, target, relType, id)
}

// RemoveRelationship deletes the package-level relationship with the given id.
func (p *Package) RemoveRelationship(id string) error {
	return p.removeRelationship(p.relationships, id)
}

// ClearRelationships deletes every package-level relationship.
func (p *Package) ClearRelationships() error {
	return p.clearRelationships(p.relationships)
}

// The helpers below are shared by package-level and part-level
// relationships; graph is the lazy accessor of the source's graph.

func (p *Package) addRelationship(source PartName, graph func() (*RelationshipGraph, error), target PartName, mode TargetMode, relType, id string) (*Relationship, error) {
	const op = "add relationship"
	if err := p.writable(op); err != nil {
		return nil, err
	}
	if target.IsZero() {
		return nil, illegalArgument(op, source.name, "target part name is required")
	}
	g, err := graph()
	if err != nil {
		return nil, err
	}
	stored := target.name
	if mode == TargetModeInternal {
		stored = RelativizePartURI(source, target)
	}
	r, err := g.Add(stored, mode, relType, id)
	if err != nil {
		return nil, err
	}
	p.state.touch()
	return r, nil
}

func (p *Package) addExternalRelationship(graph func() (*RelationshipGraph, error), target, relType, id string) (*Relationship, error) {
	const op = "add external relationship"
	if err := p.writable(op); err != nil {
		return nil, err
	}
	g, err := graph()
	if err != nil {
		return nil, err
	}
	r, err := g.Add(target, TargetModeExternal, relType, id)
	if err != nil {
		return nil, err
	}
	p.state.touch()
	return r, nil
}

func (p *Package) removeRelationship(graph func() (*RelationshipGraph, error), id string) error {
	const op = "remove relationship"
	if err := p.writable(op); err != nil {
		return err
	}
	g, err := graph()
	if err != nil {
		return err
	}
	if g.Remove(id) {
		p.state.touch()
	}
	return nil
}

func (p *Package) clearRelationships(graph func() (*RelationshipGraph, error)) error {
	const op = "clear relationships"
	if err := p.writable(op); err != nil {
		return err
	}
	g, err := graph()
	if err != nil {
		return err
	}
	if g.Len() > 0 {
		g.Clear()
		p.state.touch()
	}
	return nil
}
