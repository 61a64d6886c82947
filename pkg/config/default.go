// Package config carries the module-wide defaults shared by the pager,
// the btree index and the build-diagnostics log.
package config

// Name of the module, used as a prefix for generated file/log names.
const ModuleName = "relidx"

// MaxPagesInBuffer is the maximum number of pages that can be resident in
// a pager's buffer at once; the bound applies to each pager instance
// separately (index files and relation heap files each hold their own
// pager, each bounded by this).
const MaxPagesInBuffer = 32

// BuildLogName is the default name of the build-diagnostics log file
// written alongside an index during bulk construction.
const BuildLogName = "build.log"

// ChecksumPages controls whether pkg/btree's page codec verifies and writes
// an xxhash checksum on every page read/write. Disabling it is useful for
// tests that want to exercise a deliberately corrupted page without the
// codec itself catching the corruption first.
var ChecksumPages = true
