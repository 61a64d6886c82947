package btree

import "errors"

// Named error kinds surfaced from the tree's public operations.
var (
	// ErrBadIndexInfo is returned when opening an existing index whose
	// metadata page disagrees with the arguments the caller supplied.
	ErrBadIndexInfo = errors.New("btree: index metadata does not match")

	// ErrBadOpcodes is returned when a scan's comparison operators fall
	// outside {>, >=} for the low bound or {<, <=} for the high bound.
	ErrBadOpcodes = errors.New("btree: scan operators not in the admissible alphabet")

	// ErrBadScanrange is returned when the low bound of a scan exceeds the
	// high bound.
	ErrBadScanrange = errors.New("btree: scan low bound exceeds high bound")

	// ErrNoSuchKey is returned from StartScan when no entry in the tree
	// satisfies the requested predicate.
	ErrNoSuchKey = errors.New("btree: no entry satisfies scan predicate")

	// ErrScanNotInitialized is returned from Next or EndScan when there is
	// no active scan.
	ErrScanNotInitialized = errors.New("btree: no scan in progress")

	// ErrScanCompleted is returned from Next when the cursor has been
	// exhausted or has advanced past the scan's high bound.
	ErrScanCompleted = errors.New("btree: scan has no more entries")

	// ErrPageChecksum is returned when a page's stored checksum does not
	// match the checksum of its current contents.
	ErrPageChecksum = errors.New("btree: page checksum mismatch")
)
