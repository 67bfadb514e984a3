package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/autobrr/arrmap/pkg/scan"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

type Detail string

const (
	DetailSummary Detail = "summary"
	DetailNormal  Detail = "normal"
	DetailFull    Detail = "full"
)

type Section string

const (
	SectionSummary    Section = "summary"
	SectionServices   Section = "services"
	SectionHardlinks  Section = "hardlinks"
	SectionOrphans    Section = "orphans"
	SectionCrossSeeds Section = "crossseeds"
	SectionMissing    Section = "missing"
	SectionWarnings   Section = "warnings"
)

type Options struct {
	Format Format
	Detail Detail
	// Sections limits table output; empty means every section the detail level allows.
	Sections []Section
	// IncludeIgnored lists orphans that matched an ignore rule.
	IncludeIgnored bool
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json or yaml)", s)
	}
}

func ParseDetail(s string) (Detail, error) {
	switch d := Detail(strings.ToLower(s)); d {
	case DetailSummary, DetailNormal, DetailFull:
		return d, nil
	default:
		return "", fmt.Errorf("unknown detail level %q (want summary, normal or full)", s)
	}
}

// Write renders rep. json and yaml always carry the whole report.
func Write(w io.Writer, rep *scan.Report, opt Options) error {
	switch opt.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()

	case FormatTable, "":
		return writeTable(w, rep, opt)

	default:
		return fmt.Errorf("unknown format %q", opt.Format)
	}
}
