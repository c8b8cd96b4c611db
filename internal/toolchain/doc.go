// Package toolchain runs the external platform tools apiguard delegates to
// (xcrun, swift-api-digester, otool, gh).
//
// Every invocation blocks until the subprocess exits and is recorded as an
// OpenTelemetry span. A non-zero exit is reported as an [ExternalToolFailure]
// carrying the tool's diagnostic stream so callers can print it verbatim.
package toolchain
