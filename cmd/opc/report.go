package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-opc/pkg/opc"
)

// packageReport is the inspect output shared by every format.
type packageReport struct {
	Path          string               `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Parts         []partReport         `json:"parts" yaml:"parts" toml:"parts"`
	Relationships []relationshipReport `json:"relationships,omitempty" yaml:"relationships,omitempty" toml:"relationships,omitempty"`
	Properties    *propertiesReport    `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty"`
}

type partReport struct {
	Name          string               `json:"name" yaml:"name" toml:"name"`
	ContentType   string               `json:"content_type" yaml:"content_type" toml:"content_type"`
	Size          int64                `json:"size" yaml:"size" toml:"size"`
	Relationships []relationshipReport `json:"relationships,omitempty" yaml:"relationships,omitempty" toml:"relationships,omitempty"`
}

type relationshipReport struct {
	ID         string `json:"id" yaml:"id" toml:"id"`
	Type       string `json:"type" yaml:"type" toml:"type"`
	Target     string `json:"target" yaml:"target" toml:"target"`
	TargetMode string `json:"target_mode" yaml:"target_mode" toml:"target_mode"`
}

type propertiesReport struct {
	Title    string `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Creator  string `json:"creator,omitempty" yaml:"creator,omitempty" toml:"creator,omitempty"`
	Created  string `json:"created,omitempty" yaml:"created,omitempty" toml:"created,omitempty"`
	Modified string `json:"modified,omitempty" yaml:"modified,omitempty" toml:"modified,omitempty"`
}

func buildReport(pkg *opc.Package) (*packageReport, error) {
	report := &packageReport{Path: pkg.Path()}

	parts, err := pkg.Parts()
	if err != nil {
		return nil, err
	}
	for _, part := range parts {
		pr := partReport{
			Name:        part.Name().Name(),
			ContentType: part.ContentType(),
			Size:        part.Size(),
		}
		if !part.IsRelationshipPart() {
			rels, err := part.Relationships()
			if err != nil {
				return nil, err
			}
			pr.Relationships = relationshipReports(rels)
		}
		report.Parts = append(report.Parts, pr)
	}

	rels, err := pkg.Relationships()
	if err != nil {
		return nil, err
	}
	report.Relationships = relationshipReports(rels)

	props, err := pkg.CoreProperties()
	if err != nil {
		return nil, err
	}
	pr := &propertiesReport{Title: props.Title, Creator: props.Creator}
	if !props.Created.IsZero() {
		pr.Created = props.Created.UTC().Format("2006-01-02T15:04:05Z")
	}
	if !props.Modified.IsZero() {
		pr.Modified = props.Modified.UTC().Format("2006-01-02T15:04:05Z")
	}
	if *pr != (propertiesReport{}) {
		report.Properties = pr
	}
	return report, nil
}

func relationshipReports(g *opc.RelationshipGraph) []relationshipReport {
	var out []relationshipReport
	for _, r := range g.All() {
		out = append(out, relationshipReport{
			ID:         r.ID(),
			Type:       r.Type(),
			Target:     r.TargetURI(),
			TargetMode: r.TargetMode().String(),
		})
	}
	return out
}

// writeReport renders report in one of text, json, yaml or toml.
func writeReport(w io.Writer, report *packageReport, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		return writeTextReport(w, report)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(report); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	}
	return fmt.Errorf("unknown format %q (want text, json, yaml or toml)", format)
}

func writeTextReport(w io.Writer, report *packageReport) error {
	var b strings.Builder
	title := "Package"
	if report.Path != "" {
		title += " " + report.Path
	}
	b.WriteString(styleHeader.Render(title) + "\n")
	if p := report.Properties; p != nil {
		for _, kv := range [][2]string{{"title", p.Title}, {"creator", p.Creator}, {"created", p.Created}, {"modified", p.Modified}} {
			if kv[1] != "" {
				fmt.Fprintf(&b, "  %s %s\n", styleMuted.Render(kv[0]+":"), kv[1])
			}
		}
	}

	b.WriteString("\n" + styleHeader.Render("Relationships") + "\n")
	writeTextRelationships(&b, report.Relationships, "  ")

	b.WriteString("\n" + styleHeader.Render(fmt.Sprintf("Parts (%d)", len(report.Parts))) + "\n")
	for _, part := range report.Parts {
		fmt.Fprintf(&b, "  %s %s %s\n", part.Name, styleMuted.Render(part.ContentType), styleMuted.Render(fmt.Sprintf("%d bytes", part.Size)))
		writeTextRelationships(&b, part.Relationships, "    ")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeTextRelationships(b *strings.Builder, rels []relationshipReport, indent string) {
	for _, r := range rels {
		mode := ""
		if r.TargetMode == opc.TargetModeExternal.String() {
			mode = " (external)"
		}
		fmt.Fprintf(b, "%s%s -> %s%s %s\n", indent, r.ID, r.Target, mode, styleMuted.Render(r.Type))
	}
}
