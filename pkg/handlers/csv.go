package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"

	"github.com/sameehj/dataworks/pkg/config"
	"github.com/sameehj/dataworks/pkg/sandbox"
	"github.com/sameehj/dataworks/pkg/task"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Field is one named cell of a CSV row.
type Field struct {
	Name  string
	Value string
}

// Row is a CSV record that marshals to a JSON object in header order.
type Row []Field

// Get returns the value of the named column.
func (r Row) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FilterCSV returns the rows of a CSV file whose field equals a value.
type FilterCSV struct {
	cfg config.CSVTask
}

func NewFilterCSV(cfg config.CSVTask) *FilterCSV {
	return &FilterCSV{cfg: cfg}
}

func (f *FilterCSV) ID() task.HandlerID { return task.FilterCSV }

func (f *FilterCSV) Description() string {
	return "Return rows of " + f.cfg.Input + " where " + f.cfg.Field + " is " + f.cfg.Value
}

func (f *FilterCSV) Execute(_ context.Context, box *sandbox.IO) (task.Result, error) {
	data, err := box.ReadBytes(f.cfg.Input)
	if err != nil {
		return task.Result{}, task.FromSandbox(err, task.KindNotFound, "CSV file not found")
	}
	rows, err := filterRows(data, f.cfg.Field, f.cfg.Value)
	if err != nil {
		return task.Result{}, task.Codec("Failed to parse CSV", err)
	}
	return task.SucceededWith("CSV filtered", rows), nil
}

// filterRows skips records whose field count differs from the header. A
// repeated header name keeps its first position and its last value.
func filterRows(data []byte, field, value string) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, err
	}

	rows := []Row{}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) != len(header) {
			continue
		}
		row := makeRow(header, record)
		if v, ok := row.Get(field); ok && v == value {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func makeRow(header, record []string) Row {
	row := make(Row, 0, len(header))
	pos := make(map[string]int, len(header))
	for i, name := range header {
		if j, seen := pos[name]; seen {
			row[j].Value = record[i]
			continue
		}
		pos[name] = len(row)
		row = append(row, Field{Name: name, Value: record[i]})
	}
	return row
}
