// Package stamped holds build information shared by the stamped binaries.
package stamped

// Version is the release version reported by `stamped version`.
const Version = "0.3.0"
