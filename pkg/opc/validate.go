package opc

// Validate checks the package for problems that opening tolerates or that
// edits can introduce: internal relationships pointing at missing parts,
// relationship parts without a source, parts whose content type disagrees
// with the registry and more than one core properties part. Every problem
// is reported; the result is nil or a *MultiError.
func (p *Package) Validate() error {
	const op = "validate"
	if err := p.readable(op); err != nil {
		return err
	}
	errs := NewMultiError()

	rootRels, err := p.relationships()
	if err != nil {
		errs.Add(err)
	} else {
		p.validateTargets(rootRels, errs)
	}

	coreParts := 0
	for _, part := range p.parts.Sorted() {
		name := part.name
		if ct, ok := p.contentTypes.ContentType(name); !ok {
			errs.Add(invalidFormat(op, name.name, "M1.14", "part has no content type"))
		} else if ct != part.contentType {
			errs.Add(invalidFormat(op, name.name, "M1.14", "registered content type %s differs from %s", ct, part.contentType))
		}

		if name.IsRelationshipPart() {
			source, err := name.SourcePartName()
			if err != nil {
				errs.Add(err)
			} else if !source.IsRoot() && !p.parts.Contains(source) {
				errs.Add(invalidFormat(op, name.name, "", "relationship part has no source part %s", source.name))
			}
			continue
		}

		if part.contentType == ContentTypeCoreProperties {
			coreParts++
		}
		g, err := part.relationships()
		if err != nil {
			errs.Add(err)
			continue
		}
		p.validateTargets(g, errs)
	}
	if coreParts > 1 {
		errs.Add(invalidFormat(op, "", "M4.1", "package has %d core properties parts", coreParts))
	}
	return errs.Err()
}

func (p *Package) validateTargets(g *RelationshipGraph, errs *MultiError) {
	for _, r := range g.All() {
		if r.mode != TargetModeInternal {
			continue
		}
		target, err := r.TargetPartName()
		if err != nil {
			errs.Add(err)
			continue
		}
		if !p.parts.Contains(target) {
			errs.Add(invalidFormat("validate", g.source.name, "", "relationship %s targets missing part %s", r.id, target.name))
		}
	}
}
