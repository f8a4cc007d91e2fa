package tables

import (
	"encoding/csv"
	"fmt"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/zorros/zorros"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

func parseCell(s string) (float64, bool) {
	if isMissing(s) {
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

func isHeader(row []string) bool {
	for _, s := range row {
		if _, ok := parseCell(s); !ok {
			return true
		}
	}
	return false
}

// column converts cells to a numeric column or, if any cell is not a number, to a categorical one
func column(cells []string) ([]float64, []string) {
	col := make([]float64, len(cells))
	for i, s := range cells {
		v, ok := parseCell(s)
		if !ok {
			for j := range cells {
				cells[j] = strings.TrimSpace(cells[j])
			}
			return factorize(cells)
		}
		col[i] = v
	}
	return col, nil
}

/*
ReadCSV reads a table from CSV.
Columns are named C1..Cn when the first row is not a header,
a column having a not numeric value is categorical
*/
func ReadCSV(rd io.Reader) (*Table, error) {
	r := csv.NewReader(rd)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	var names []string
	var cells [][]string
	line := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, zorros.Wrapf(err, "failed to read csv: %v", err.Error())
		}
		line++
		if line == 1 {
			names = make([]string, len(row))
			cells = make([][]string, len(row))
			if isHeader(row) {
				for i, s := range row {
					names[i] = strings.TrimSpace(s)
				}
				continue
			}
			for i := range row {
				names[i] = fmt.Sprintf("C%d", i+1)
			}
		}
		if len(row) != len(names) {
			return nil, zorros.Errorf("csv line %d has %d fields, expected %d", line, len(row), len(names))
		}
		for i, s := range row {
			cells[i] = append(cells[i], s)
		}
	}
	if names == nil {
		return nil, zorros.New("csv is empty")
	}
	t := NewEmpty(nil)
	if len(cells[0]) == 0 {
		return NewEmpty(names), nil
	}
	for i, c := range cells {
		col, levels := column(c)
		var err error
		if t, err = t.with(names[i], col, levels); err != nil {
			return nil, err
		}
	}
	return t, nil
}

/*
WriteCSV writes the table with a header, missing values are written as NA
*/
func (t *Table) WriteCSV(wr io.Writer) error {
	w := csv.NewWriter(wr)
	if err := w.Write(t.names); err != nil {
		return zorros.Trace(err)
	}
	row := make([]string, t.Width())
	for i := 0; i < t.Len(); i++ {
		for j := range row {
			v := t.columns[j][i]
			if s, ok := t.Level(j, i); ok {
				row[j] = s
			} else if math.IsNaN(v) {
				row[j] = "NA"
			} else {
				row[j] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := w.Write(row); err != nil {
			return zorros.Trace(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return zorros.Trace(err)
	}
	return nil
}

/*
Import reads a CSV table from the input
*/
func Import(input iokit.Input) (*Table, error) {
	rd, err := input.Open()
	if err != nil {
		return nil, zorros.Trace(err)
	}
	defer rd.Close()
	return ReadCSV(rd)
}

/*
ImportFile reads a CSV table from the file, .gz and .xz files are decompressed
*/
func ImportFile(path string) (*Table, error) {
	var input iokit.Input = iokit.File(path)
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".gz" || ext == ".xz" {
		input = iokit.Compressed(input)
	}
	t, err := Import(input)
	if err != nil {
		return nil, zorros.Wrapf(err, "failed to import `%v`: %v", path, err.Error())
	}
	return t, nil
}

/*
LuckyImport imports the file and panics on any error
*/
func LuckyImport(path string) *Table {
	t, err := ImportFile(path)
	if err != nil {
		panic(zorros.Panic(err))
	}
	return t
}
