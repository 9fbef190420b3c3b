package buffer

// AccessType hints to the replacer why a page was touched. The
// replacer may use it to nudge retention; a conforming replacer (this
// one) never lets the hint reorder distinct real accesses, only bias
// the timestamp recorded for the same logical access by a fixed,
// sub-tick amount.
type AccessType int

const (
	AccessUnknown AccessType = iota
	AccessGet
	AccessScan
)
