package domain

import (
	"fmt"
	"time"
)

// QualityFlag marks a known defect class on a lake partition row.
type QualityFlag string

const (
	FlagNullValue   QualityFlag = "NULL_VALUE"
	FlagOrphan      QualityFlag = "ORPHAN"
	FlagDuplicate   QualityFlag = "DUPLICATE"
	FlagSchemaDrift QualityFlag = "SCHEMA_DRIFT"
	FlagOther       QualityFlag = "OTHER"
)

type Table struct {
	Name string
}

// PartitionKey identifies one date-bucketed subdivision of a lake table.
type PartitionKey struct {
	Year  int
	Month int
	Day   int
}

func (k PartitionKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, k.Month, k.Day)
}

func (k PartitionKey) Before(other PartitionKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	if k.Month != other.Month {
		return k.Month < other.Month
	}
	return k.Day < other.Day
}

// PartitionRow is the lake-side state of a single partition at snapshot time.
type PartitionRow struct {
	Key        PartitionKey
	RowCount   int64
	LastLoadAt time.Time
	Flags      []QualityFlag
}

// SourceSnapshot is a point-in-time read of the source-of-record table.
// Immutable once captured.
type SourceSnapshot struct {
	Table    Table
	RowCount int64
	AsOf     time.Time
}

// LakeSnapshot is a point-in-time read of the downstream lake table,
// including per-partition metadata. Partitions are unique by key.
type LakeSnapshot struct {
	Table      Table
	RowCount   int64
	Partitions []PartitionRow
	AsOf       time.Time
}
