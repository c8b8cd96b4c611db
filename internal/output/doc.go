// Package output formats API check results for display or machine consumption.
//
// Four formats are supported:
//   - text: terminal summary (default)
//   - markdown: the condensed pull request comment
//   - json: full structured document
//   - sarif: SARIF v2.1.0 for code scanning upload
//
// Build a [Document] with [NewDocument], then use [GetWriter] or
// [WriteReport]. [RenderSummary] returns the markdown comment body.
package output
