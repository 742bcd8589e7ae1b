package compressor

import (
	"encoding/binary"
	"fmt"
	"sort"
)

type OriginalTable struct {
	entries  []int
	rowCount int
	colCount int
}

func NewOriginalTable(entries []int, colCount int) (*OriginalTable, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("entries is empty")
	}
	if colCount <= 0 {
		return nil, fmt.Errorf("colCount must be >=1")
	}
	if len(entries)%colCount != 0 {
		return nil, fmt.Errorf("entries length or column count are incorrect; entries length: %v, column count: %v", len(entries), colCount)
	}

	return &OriginalTable{
		entries:  entries,
		rowCount: len(entries) / colCount,
		colCount: colCount,
	}, nil
}

type Compressor interface {
	Compress(orig *OriginalTable) error
	Lookup(row, col int) (int, error)
	OriginalTableSize() (int, int)
}

var (
	_ Compressor = &UniqueEntriesTable{}
	_ Compressor = &RowDisplacementTable{}
)

// UniqueEntriesTable stores each distinct row once. RowNums maps an original
// row to its position in UniqueEntries.
type UniqueEntriesTable struct {
	UniqueEntries    []int
	UniqueRowCount   int
	RowNums          []int
	OriginalRowCount int
	OriginalColCount int
}

func NewUniqueEntriesTable() *UniqueEntriesTable {
	return &UniqueEntriesTable{}
}

func (tab *UniqueEntriesTable) Lookup(row, col int) (int, error) {
	if row < 0 || row >= tab.OriginalRowCount || col < 0 || col >= tab.OriginalColCount {
		return 0, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	return tab.UniqueEntries[tab.RowNums[row]*tab.OriginalColCount+col], nil
}

func (tab *UniqueEntriesTable) OriginalTableSize() (int, int) {
	return tab.OriginalRowCount, tab.OriginalColCount
}

func (tab *UniqueEntriesTable) Compress(orig *OriginalTable) error {
	var uniqueEntries []int
	rowNums := make([]int, orig.rowCount)
	key2RowNum := map[string]int{}
	buf := make([]byte, 0, orig.colCount*binary.MaxVarintLen64)
	for row := 0; row < orig.rowCount; row++ {
		start := row * orig.colCount
		entry := orig.entries[start : start+orig.colCount]

		buf = buf[:0]
		for _, v := range entry {
			buf = binary.AppendVarint(buf, int64(v))
		}
		key := string(buf)

		rowNum, ok := key2RowNum[key]
		if !ok {
			rowNum = len(key2RowNum)
			key2RowNum[key] = rowNum
			uniqueEntries = append(uniqueEntries, entry...)
		}
		rowNums[row] = rowNum
	}

	tab.UniqueEntries = uniqueEntries
	tab.UniqueRowCount = len(key2RowNum)
	tab.RowNums = rowNums
	tab.OriginalRowCount = orig.rowCount
	tab.OriginalColCount = orig.colCount

	return nil
}

// ForbiddenValue marks a cell of Bounds that no row owns.
const ForbiddenValue = -1

// RowDisplacementTable packs the rows of a sparse table into one shared
// buffer. A cell (row, col) lives at Entries[RowDisplacement[row]+col] and
// belongs to the row only when Bounds holds that row number there; every
// other cell reads as EmptyValue.
type RowDisplacementTable struct {
	OriginalRowCount int
	OriginalColCount int
	EmptyValue       int
	Entries          []int
	Bounds           []int
	RowDisplacement  []int
}

func NewRowDisplacementTable(emptyValue int) *RowDisplacementTable {
	return &RowDisplacementTable{
		EmptyValue: emptyValue,
	}
}

// CompressTable compresses a row-major table of colCount columns whose empty
// cells hold emptyValue.
func CompressTable(entries []int, colCount int, emptyValue int) (*RowDisplacementTable, error) {
	orig, err := NewOriginalTable(entries, colCount)
	if err != nil {
		return nil, err
	}
	tab := NewRowDisplacementTable(emptyValue)
	err = tab.Compress(orig)
	if err != nil {
		return nil, err
	}
	return tab, nil
}

func (tab *RowDisplacementTable) Lookup(row int, col int) (int, error) {
	if row < 0 || row >= tab.OriginalRowCount || col < 0 || col >= tab.OriginalColCount {
		return tab.EmptyValue, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	d := tab.RowDisplacement[row]
	if tab.Bounds[d+col] != row {
		return tab.EmptyValue, nil
	}
	return tab.Entries[d+col], nil
}

func (tab *RowDisplacementTable) OriginalTableSize() (int, int) {
	return tab.OriginalRowCount, tab.OriginalColCount
}

type rowInfo struct {
	rowNum        int
	nonEmptyCount int
	nonEmptyCol   []int
}

func (tab *RowDisplacementTable) Compress(orig *OriginalTable) error {
	rowInfo := make([]rowInfo, orig.rowCount)
	for row := 0; row < orig.rowCount; row++ {
		rowInfo[row].rowNum = row
		for col := 0; col < orig.colCount; col++ {
			if orig.entries[row*orig.colCount+col] == tab.EmptyValue {
				continue
			}
			rowInfo[row].nonEmptyCount++
			rowInfo[row].nonEmptyCol = append(rowInfo[row].nonEmptyCol, col)
		}
	}

	// Rows with more entries choose their displacement first.
	sort.SliceStable(rowInfo, func(i int, j int) bool {
		return rowInfo[i].nonEmptyCount > rowInfo[j].nonEmptyCount
	})

	entries := make([]int, 0, orig.colCount)
	bounds := make([]int, 0, orig.colCount)
	rowDisplacement := make([]int, orig.rowCount)
	for _, rInfo := range rowInfo {
		// A displacement equal to the current length always fits.
		d := 0
		for ; d < len(entries); d++ {
			if fits(bounds, rInfo.nonEmptyCol, d) {
				break
			}
		}

		for len(entries) < d+orig.colCount {
			entries = append(entries, tab.EmptyValue)
			bounds = append(bounds, ForbiddenValue)
		}
		for _, col := range rInfo.nonEmptyCol {
			entries[d+col] = orig.entries[rInfo.rowNum*orig.colCount+col]
			bounds[d+col] = rInfo.rowNum
		}
		rowDisplacement[rInfo.rowNum] = d
	}

	tab.OriginalRowCount = orig.rowCount
	tab.OriginalColCount = orig.colCount
	tab.Entries = entries
	tab.Bounds = bounds
	tab.RowDisplacement = rowDisplacement

	return nil
}

// fits reports whether none of the given columns collides with an owned cell
// when the row is placed at displacement d.
func fits(bounds []int, cols []int, d int) bool {
	for _, col := range cols {
		i := d + col
		if i >= len(bounds) {
			return true
		}
		if bounds[i] != ForbiddenValue {
			return false
		}
	}
	return true
}
