package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

type format string

const (
	formatText format = "text"
	formatJSON format = "json"
	formatYAML format = "yaml"
)

func parseFormat(s string) (format, error) {
	switch f := format(s); f {
	case formatText, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", s)
	}
}

// printer renders command results in the selected format. Text output is a
// tab-aligned table written by the command; JSON and YAML encode the value.
type printer struct {
	w      io.Writer
	format format
}

func newPrinter(w io.Writer, s string) (*printer, error) {
	f, err := parseFormat(s)
	if err != nil {
		return nil, err
	}
	return &printer{w: w, format: f}, nil
}

func (p *printer) print(v any, text func(tw *tabwriter.Writer)) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return p.yaml(v)
	default:
		tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
		text(tw)
		return tw.Flush()
	}
}

// yaml re-encodes v through its JSON form so both outputs share field names
// and custom marshalers such as the document list apply.
func (p *printer) yaml(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
