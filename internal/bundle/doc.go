// Package bundle locates framework bundles inside an SDK release archive.
//
// [Unpack] extracts a release zip into a private [Workspace]; [Open] reads a
// bundle's Info.plist manifest into a [Bundle] with one [Library] per
// platform variant; [Bundle.DeviceModule] picks the single device library for
// a platform and loads it as a [Module] carrying the metadata needed to build
// a dump command (target triple, executable, search path).
package bundle
