// Apiguard is a CI gate for SDK API compatibility.
//
// It dumps the public API of a framework bundle from an SDK release archive
// with swift-api-digester, compares a baseline dump against a candidate, and
// exits non-zero when the candidate breaks the baseline.
//
// Usage:
//
//	apiguard dump MapboxMaps.zip -o base.json             # dump the API of a release
//	apiguard dump MapboxMaps.zip --abi -o base-abi.json   # dump the ABI instead
//	apiguard check-api base.json latest.json --comment-pr # compare and comment on the PR
//	apiguard config init                                  # write a default config file
package main
