// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vcfio adapts github.com/brentp/vcfgo and github.com/brentp/xopen
// to the record and header shapes used by the rest of this module.
package vcfio

import (
	"fmt"
	"strings"
)

// ContigInfo describes a single ##contig header line.
type ContigInfo struct {
	Name   string
	Length uint64
}

// Header holds the raw header text alongside the metadata this module
// actually consults. It is parsed exactly once per VcfFile, per the data
// model invariant.
type Header struct {
	Raw        string
	Lines      []string
	FileFormat string
	Reference  string // raw value of the ##reference= line, if any
	Contigs    []ContigInfo
	Samples    []string
}

// ParseHeader scans raw VCF header text (every line up to and including the
// #CHROM column line) into a Header.
func ParseHeader(raw string) (*Header, error) {
	h := &Header{Raw: raw}
	for _, line := range strings.Split(strings.TrimRight(raw, "\n"), "\n") {
		if line == "" {
			continue
		}
		h.Lines = append(h.Lines, line)

		switch {
		case strings.HasPrefix(line, "##fileformat="):
			h.FileFormat = strings.TrimPrefix(line, "##fileformat=")
		case strings.HasPrefix(line, "##reference="):
			h.Reference = strings.TrimPrefix(line, "##reference=")
		case strings.HasPrefix(line, "##contig="):
			if contig, ok := parseContigLine(line); ok {
				h.Contigs = append(h.Contigs, contig)
			}
		case strings.HasPrefix(line, "#CHROM"):
			fields := strings.Split(line, "\t")
			if len(fields) > 9 {
				h.Samples = append(h.Samples, fields[9:]...)
			}
		}
	}
	if h.FileFormat == "" {
		return nil, fmt.Errorf("vcfio: missing ##fileformat line")
	}
	return h, nil
}

// parseContigLine extracts ID and length from a ##contig=<ID=...,length=...>
// line. Fields other than ID/length are ignored; a missing length yields 0,
// which the reference-build heuristic treats as "no opinion".
func parseContigLine(line string) (ContigInfo, bool) {
	body := strings.TrimPrefix(line, "##contig=")
	body = strings.TrimPrefix(body, "<")
	body = strings.TrimSuffix(body, ">")

	var contig ContigInfo
	for _, kv := range splitStructuredFields(body) {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "ID":
			contig.Name = parts[1]
		case "length":
			fmt.Sscanf(parts[1], "%d", &contig.Length)
		}
	}
	if contig.Name == "" {
		return ContigInfo{}, false
	}
	return contig, true
}

// splitStructuredFields splits a VCF structured header body on commas that
// are not inside a quoted string, since descriptions often embed commas.
func splitStructuredFields(body string) []string {
	var fields []string
	var inQuotes bool
	start := 0
	for i, r := range body {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				fields = append(fields, body[start:i])
				start = i + 1
			}
		}
	}
	fields = append(fields, body[start:])
	return fields
}

// Filtered returns the header lines containing substr (all lines if substr
// is empty), with ##contig lines excluded whenever includeContigs is false.
func (h *Header) Filtered(substr string, includeContigs bool) (text string, lineCount int) {
	var out []string
	for _, line := range h.Lines {
		if !includeContigs && strings.HasPrefix(line, "##contig=") {
			continue
		}
		if substr != "" && !strings.Contains(line, substr) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n"), len(out)
}
