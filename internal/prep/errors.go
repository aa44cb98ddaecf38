package prep

import "errors"

// ErrNoColumns is returned when a block selector matches no column.
var ErrNoColumns = errors.New("no column matches block selector")

// DropReason explains why a column left a block.
type DropReason string

const (
	ReasonAllMissing   DropReason = "all values missing"
	ReasonZeroVariance DropReason = "zero variance"
	ReasonSingleLevel  DropReason = "single level"
)

// DroppedColumn records a column removed from a block.
type DroppedColumn struct {
	Column string
	Reason DropReason
}
