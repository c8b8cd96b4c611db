// Package digester builds and runs swift-api-digester invocations.
//
// [Digester.Dump] snapshots the public surface of a framework bundle,
// adding a framework search path for every sibling bundle the module links
// against. [Digester.Compare] diagnoses two snapshots and hands the raw
// output to the report package. The tool's own diff logic is authoritative;
// nothing here interprets dump contents.
package digester
