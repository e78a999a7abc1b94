// Package platform provides cross-platform filesystem helpers: permission
// management that degrades to a no-op on Windows, and atomic file
// replacement used by the file-backed agent store.
package platform
