package report

import (
	"bufio"
	"crypto/sha1" // #nosec G505 -- the canonical empty-report constant is a SHA-1 digest
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// EmptyFingerprint is the SHA-1 of a diagnostic report that lists every
// section header and no findings.
const EmptyFingerprint = "afd2a1b542b33273920d65821deddc653063c700"

// Sections are the section headers swift-api-digester writes, in order.
var Sections = []string{
	"Generic Signature Changes",
	"RawRepresentable Changes",
	"Removed Decls",
	"Moved Decls",
	"Renamed Decls",
	"Type Changes",
	"Decl Attribute changes",
	"Fixed-layout Type Changes",
	"Protocol Conformance Change",
	"Protocol Requirement Change",
	"Class Inheritance Change",
	"Others",
}

const (
	markerPrefix = "/* "
	markerSuffix = " */"
	blockSize    = 4096
)

// EmptyReport returns the exact bytes of a report with no findings.
// Its fingerprint is EmptyFingerprint.
func EmptyReport() []byte {
	var b strings.Builder
	b.WriteString("\n")
	for i, s := range Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(markerPrefix + s + markerSuffix + "\n")
	}
	return []byte(b.String())
}

// Category is one section of a report with its findings in file order.
type Category struct {
	Name     string   `json:"name"`
	Findings []string `json:"findings"`
}

// BreakageReport is the parsed form of one diagnostic report file.
// It is read-only once built.
type BreakageReport struct {
	Path        string
	Fingerprint string
	// Good is true when the raw file is byte-identical to the empty report.
	Good bool

	order    []string
	findings map[string][]string
}

// Load reads, parses and fingerprints the report at path.
func Load(path string) (*BreakageReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()

	r, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}
	r.Path = path
	return r, nil
}

// Read parses rs and then fingerprints it from the start.
func Read(rs io.ReadSeeker) (*BreakageReport, error) {
	r, err := Parse(rs)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding report: %w", err)
	}
	sum, err := Fingerprint(rs)
	if err != nil {
		return nil, err
	}
	r.Fingerprint = sum
	r.Good = sum == EmptyFingerprint
	return r, nil
}

// Parse groups finding lines by section. The returned report carries no
// fingerprint; use Read or Load for a verdict.
//
// A "/* name */" line opens a section, a blank line closes it, and any other
// line is a finding only while a section is open.
func Parse(rd io.Reader) (*BreakageReport, error) {
	r := &BreakageReport{findings: make(map[string][]string)}
	br := bufio.NewReader(rd)

	active := ""
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing report: %w", err)
		}
		if line != "" {
			active = r.consume(active, trimEOL(line))
		}
		if err != nil {
			break
		}
	}
	return r, nil
}

func (r *BreakageReport) consume(active, line string) string {
	if strings.TrimSpace(line) == "" {
		return ""
	}
	if strings.HasPrefix(line, markerPrefix) {
		return strings.TrimSuffix(strings.TrimPrefix(line, markerPrefix), markerSuffix)
	}
	if active == "" {
		return ""
	}
	if _, seen := r.findings[active]; !seen {
		r.order = append(r.order, active)
	}
	r.findings[active] = append(r.findings[active], line)
	return active
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// Fingerprint returns the hex SHA-1 of everything read from rd, consumed in fixed-size blocks.
func Fingerprint(rd io.Reader) (string, error) {
	h := sha1.New() // #nosec G401
	buf := make([]byte, blockSize)
	for {
		n, err := rd.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("hashing report: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Categories returns the names of sections that have findings, in file order.
func (r *BreakageReport) Categories() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Findings returns the finding lines of one section.
func (r *BreakageReport) Findings(category string) []string {
	src := r.findings[category]
	if len(src) == 0 {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Breakage returns every non-empty section with its findings, in file order.
func (r *BreakageReport) Breakage() []Category {
	out := make([]Category, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Category{Name: name, Findings: r.Findings(name)})
	}
	return out
}

// Total returns the number of finding lines across all sections.
func (r *BreakageReport) Total() int {
	n := 0
	for _, f := range r.findings {
		n += len(f)
	}
	return n
}

// Passed applies the verdict mode. VerdictFingerprint trusts only Good, so a
// report with stray whitespace fails even when no section has findings.
func (r *BreakageReport) Passed(mode VerdictMode) bool {
	if mode == VerdictFindings {
		return r.Total() == 0
	}
	return r.Good
}

// VerdictMode selects how a report is judged.
type VerdictMode string

const (
	VerdictFingerprint VerdictMode = "fingerprint"
	VerdictFindings    VerdictMode = "findings"
)

// ParseVerdictMode converts a config value into a VerdictMode.
func ParseVerdictMode(s string) (VerdictMode, error) {
	switch VerdictMode(s) {
	case VerdictFingerprint, "":
		return VerdictFingerprint, nil
	case VerdictFindings:
		return VerdictFindings, nil
	default:
		return "", fmt.Errorf("unknown verdict mode %q", s)
	}
}
