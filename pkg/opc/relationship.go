package opc

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	wire "github.com/benjaminschreck/go-opc/pkg/opc/xml"
)

// Well-known relationship types
const (
	RelTypeCoreProperties         = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	RelTypeCorePropertiesECMA376  = "http://schemas.openxmlformats.org/officedocument/2006/relationships/metadata/core-properties"
	RelTypeThumbnail              = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/thumbnail"
	RelTypeDigitalSignatureOrigin = "http://schemas.openxmlformats.org/package/2006/relationships/digital-signature/origin"
	RelTypeOfficeDocument         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelTypeExtendedProperties     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	RelTypeCustomProperties       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/custom-properties"
	RelTypeImage                  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	RelTypeHyperlink              = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
)

func isCorePropertiesType(relType string) bool {
	return relType == RelTypeCoreProperties || relType == RelTypeCorePropertiesECMA376
}

// TargetMode tells whether a relationship points inside the package
type TargetMode int

const (
	TargetModeInternal TargetMode = iota
	TargetModeExternal
)

func (m TargetMode) String() string {
	if m == TargetModeExternal {
		return "External"
	}
	return "Internal"
}

func parseTargetMode(s string) (TargetMode, bool) {
	switch {
	case s == "" || strings.EqualFold(s, "Internal"):
		return TargetModeInternal, true
	case strings.EqualFold(s, "External"):
		return TargetModeExternal, true
	}
	return TargetModeInternal, false
}

// Relationship is an immutable typed edge from a source part (or the
// package root) to a target.
type Relationship struct {
	id      string
	relType string
	mode    TargetMode
	target  string
	source  PartName
}

func (r *Relationship) ID() string {
	return r.id
}

func (r *Relationship) Type() string {
	return r.relType
}

func (r *Relationship) TargetMode() TargetMode {
	return r.mode
}

// Target returns the target as stored in the manifest.
func (r *Relationship) Target() string {
	return r.target
}

// Source returns the source part name, RootPartName for package relationships.
func (r *Relationship) Source() PartName {
	return r.source
}

// TargetURI returns external targets unchanged and internal targets
// resolved against the source part name.
func (r *Relationship) TargetURI() string {
	if r.mode == TargetModeExternal {
		return r.target
	}
	resolved, err := ResolvePartURI(r.source, r.target)
	if err != nil {
		return r.target
	}
	return resolved
}

// TargetPartName returns the name of the targeted part. Fragments and
// queries are dropped.
func (r *Relationship) TargetPartName() (PartName, error) {
	if r.mode == TargetModeExternal {
		return PartName{}, invalidOperation("resolve target", r.target, "", "relationship %s is external", r.id)
	}
	return partNameFromURI(r.TargetURI())
}

func (r *Relationship) String() string {
	return fmt.Sprintf("%s -> %s (%s, %s)", r.id, r.target, r.mode, r.relType)
}

func partNameFromURI(uri string) (PartName, error) {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	return NewPartName(uri)
}

// RelationshipGraph holds the relationships of one source, keyed by id.
// Iteration is ordered by id with numeric runs compared by value.
type RelationshipGraph struct {
	source PartName
	byID   map[string]*Relationship
}

// NewRelationshipGraph returns an empty graph for source.
func NewRelationshipGraph(source PartName) *RelationshipGraph {
	return &RelationshipGraph{
		source: source,
		byID:   make(map[string]*Relationship),
	}
}

func (g *RelationshipGraph) Source() PartName {
	return g.source
}

func (g *RelationshipGraph) Len() int {
	return len(g.byID)
}

// All returns the relationships ordered by id
func (g *RelationshipGraph) All() []*Relationship {
	out := make([]*Relationship, 0, len(g.byID))
	for _, r := range g.byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return compareNatural(out[i].id, out[j].id) < 0
	})
	return out
}

// Get returns the relationship with the given id, or nil
func (g *RelationshipGraph) Get(id string) *Relationship {
	return g.byID[id]
}

// ByType returns a filtered copy holding only relationships of relType.
func (g *RelationshipGraph) ByType(relType string) *RelationshipGraph {
	out := NewRelationshipGraph(g.source)
	for id, r := range g.byID {
		if r.relType == relType {
			out.byID[id] = r
		}
	}
	return out
}

func (g *RelationshipGraph) clone() *RelationshipGraph {
	out := NewRelationshipGraph(g.source)
	for id, r := range g.byID {
		out.byID[id] = r
	}
	return out
}

// NextID returns the lowest unused rId<n>, n >= 1.
func (g *RelationshipGraph) NextID() string {
	for n := 1; ; n++ {
		id := "rId" + strconv.Itoa(n)
		if _, ok := g.byID[id]; !ok {
			return id
		}
	}
}

// Add creates a relationship. An empty id asks for the next free rId<n>.
// Internal targets must resolve to a part name that is not a relationship part.
func (g *RelationshipGraph) Add(target string, mode TargetMode, relType, id string) (*Relationship, error) {
	const op = "add relationship"
	if relType == "" {
		return nil, illegalArgument(op, g.source.name, "relationship type cannot be empty")
	}
	if target == "" {
		return nil, illegalArgument(op, g.source.name, "relationship target cannot be empty")
	}
	if g.source.IsRelationshipPart() {
		return nil, invalidOperation(op, g.source.name, "M1.25", "a relationship part cannot have relationships")
	}
	if mode == TargetModeInternal {
		resolved, err := ResolvePartURI(g.source, target)
		if err != nil {
			return nil, err
		}
		targetName, err := partNameFromURI(resolved)
		if err != nil {
			return nil, err
		}
		if targetName.IsRelationshipPart() {
			return nil, invalidOperation(op, targetName.name, "M1.25", "a relationship part cannot be a relationship target")
		}
	}
	if g.source.IsRoot() && isCorePropertiesType(relType) && g.hasCoreProperties() {
		return nil, invalidOperation(op, g.source.name, "M4.1", "the package already has a core properties relationship")
	}
	if id == "" {
		id = g.NextID()
	} else if _, ok := g.byID[id]; ok {
		return nil, invalidOperation(op, g.source.name, "", "relationship id %s is already in use", id)
	}

	r := &Relationship{
		id:      id,
		relType: relType,
		mode:    mode,
		target:  target,
		source:  g.source,
	}
	g.byID[id] = r
	return r, nil
}

// Remove deletes the relationship with the given id and reports whether it existed.
func (g *RelationshipGraph) Remove(id string) bool {
	if _, ok := g.byID[id]; !ok {
		return false
	}
	delete(g.byID, id)
	return true
}

// Clear removes every relationship
func (g *RelationshipGraph) Clear() {
	g.byID = make(map[string]*Relationship)
}

func (g *RelationshipGraph) hasCoreProperties() bool {
	for _, r := range g.byID {
		if isCorePropertiesType(r.relType) {
			return true
		}
	}
	return false
}

// Marshal serializes the graph as a .rels manifest
func (g *RelationshipGraph) Marshal() ([]byte, error) {
	doc := wire.NewRelationships()
	for _, r := range g.All() {
		el := wire.Relationship{ID: r.id, Type: r.relType, Target: r.target}
		if r.mode == TargetModeExternal {
			el.TargetMode = r.mode.String()
		}
		doc.Relationship = append(doc.Relationship, el)
	}
	return wire.Marshal(doc)
}

type relationshipParser struct {
	logger  *Logger
	metrics *Metrics
	strict  bool
}

// ParseRelationships reads a .rels manifest whose relationships start at
// source. Malformed entries are logged and skipped; a second core properties
// relationship fails the whole manifest (M4.1).
func ParseRelationships(source PartName, r io.Reader) (*RelationshipGraph, error) {
	p := relationshipParser{logger: GetLogger()}
	return p.parse(source, r)
}

func (p relationshipParser) parse(source PartName, r io.Reader) (*RelationshipGraph, error) {
	const op = "parse relationships"
	var doc wire.Relationships
	if err := wire.Decode(r, &doc); err != nil {
		return nil, wrapError(ErrInvalidFormat, op, source.name, err)
	}

	g := NewRelationshipGraph(source)
	coreSeen := false
	for _, el := range doc.Relationship {
		if isCorePropertiesType(el.Type) {
			if coreSeen {
				return nil, invalidFormat(op, source.name, "M4.1", "more than one core properties relationship")
			}
			coreSeen = true
		}

		reason := ""
		mode, modeOK := parseTargetMode(el.TargetMode)
		target := strings.ReplaceAll(el.Target, "\\", "/")
		switch {
		case el.ID == "":
			reason = "missing Id"
		case g.byID[el.ID] != nil:
			reason = "duplicate Id"
		case el.Type == "":
			reason = "missing Type"
		case !modeOK:
			reason = "unknown TargetMode " + el.TargetMode
		case target == "":
			reason = "missing Target"
		default:
			if _, err := url.Parse(target); err != nil {
				reason = "invalid Target: " + err.Error()
			}
		}
		if reason != "" {
			if p.strict {
				return nil, invalidFormat(op, source.name, "", "relationship %q: %s", el.ID, reason)
			}
			if p.logger != nil {
				p.logger.Warn("skipping relationship %q of %s: %s", el.ID, source.name, reason)
			}
			p.metrics.relationshipSkipped()
			continue
		}

		g.byID[el.ID] = &Relationship{
			id:      el.ID,
			relType: el.Type,
			mode:    mode,
			target:  target,
			source:  source,
		}
	}
	return g, nil
}
