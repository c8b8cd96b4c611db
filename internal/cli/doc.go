// Package cli wires together the Cobra command tree for the apiguard binary.
//
// It defines the root command and its subcommands (dump, check-api, config,
// version), binds flags, reads configuration, drives the bundle, digester,
// output and notify packages, and maps results onto exit codes for CI gating:
// 0 success, 1 API breakage, 2 usage error, 4 runtime or tool failure.
package cli
