// Package report parses swift-api-digester diagnostic reports into categorized
// findings and decides whether a comparison passed.
//
// A report is plain text made of sections introduced by "/* <name> */" lines
// and separated by blank lines. The verdict is computed from a whole-file
// SHA-1 compared against [EmptyFingerprint], the digest of a report that has
// every section header and no findings. Any byte of drift, including
// whitespace, counts as breakage under the default [VerdictFingerprint] mode;
// [VerdictFindings] judges on the parsed sections instead.
package report
