package file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/pkg/errors"
	"github.com/relloyd/starpipe/helper"
	"github.com/relloyd/starpipe/table"
	td "github.com/relloyd/starpipe/table-definition"
)

// WriteParquet writes ds to w as a single row group parquet file.
// Column types are inferred from the values; mixed columns are written as strings.
func WriteParquet(w io.Writer, ds *table.Dataset) error {
	tc := td.InferTableColumns("", ds)
	fields := make([]arrow.Field, len(tc.Columns))
	for idx, col := range tc.Columns {
		fields[idx] = arrow.Field{Name: col.ColName, Type: arrowType(col.DataType), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	for idx, col := range tc.Columns {
		values, _ := ds.Column(col.ColName)
		if err := appendValues(b.Field(idx), col.DataType, values); err != nil {
			return errors.Wrapf(err, "error building parquet column %v", col.ColName)
		}
	}
	rec := b.NewRecord()
	defer rec.Release()
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	fw, err := pqarrow.NewFileWriter(schema, w, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return errors.Wrap(err, "error creating parquet writer")
	}
	if err = fw.Write(rec); err != nil {
		_ = fw.Close()
		return errors.Wrap(err, "error writing parquet record")
	}
	return errors.Wrap(fw.Close(), "error closing parquet writer")
}

// ReadParquet reads a parquet file held in data into a Dataset.
func ReadParquet(ctx context.Context, data []byte) (*table.Dataset, error) {
	tbl, err := pqarrow.ReadTable(ctx, bytes.NewReader(data), parquet.NewReaderProperties(memory.DefaultAllocator),
		pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, errors.Wrap(err, "error reading parquet")
	}
	defer tbl.Release()
	cols := make([]table.Column, 0, tbl.NumCols())
	for i := 0; i < int(tbl.NumCols()); i++ {
		c := tbl.Column(i)
		values := make([]interface{}, 0, tbl.NumRows())
		for _, chunk := range c.Data().Chunks() {
			v, err := chunkValues(chunk)
			if err != nil {
				return nil, errors.Wrapf(err, "error reading parquet column %v", c.Name())
			}
			values = append(values, v...)
		}
		cols = append(cols, table.Column{Name: c.Name(), Values: values})
	}
	ds, err := table.New(cols...)
	return ds, errors.Wrap(err, "error building dataset from parquet")
}

func arrowType(dataType string) arrow.DataType {
	switch dataType {
	case td.DataTypeInteger:
		return arrow.PrimitiveTypes.Int64
	case td.DataTypeFloat:
		return arrow.PrimitiveTypes.Float64
	case td.DataTypeBoolean:
		return arrow.FixedWidthTypes.Boolean
	case td.DataTypeTimestamp:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

func appendValues(fb array.Builder, dataType string, values []interface{}) error {
	for _, v := range values {
		if v == nil {
			fb.AppendNull()
			continue
		}
		switch b := fb.(type) {
		case *array.Int64Builder:
			b.Append(toInt64(v))
		case *array.Float64Builder:
			switch x := v.(type) {
			case float64:
				b.Append(x)
			case float32:
				b.Append(float64(x))
			default:
				b.Append(float64(toInt64(v)))
			}
		case *array.BooleanBuilder:
			b.Append(v.(bool))
		case *array.TimestampBuilder:
			b.Append(arrow.Timestamp(v.(time.Time).UnixMicro()))
		case *array.StringBuilder:
			s, err := helper.GetStringFromInterface(v)
			if err != nil {
				return err
			}
			b.Append(s)
		default:
			return fmt.Errorf("unsupported builder %T for data type %v", fb, dataType)
		}
	}
	return nil
}

func toInt64(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	}
	return 0
}

func chunkValues(chunk arrow.Array) ([]interface{}, error) {
	values := make([]interface{}, chunk.Len())
	for i := 0; i < chunk.Len(); i++ {
		if chunk.IsNull(i) {
			continue
		}
		switch a := chunk.(type) {
		case *array.Int64:
			values[i] = a.Value(i)
		case *array.Int32:
			values[i] = int64(a.Value(i))
		case *array.Float64:
			values[i] = a.Value(i)
		case *array.Boolean:
			values[i] = a.Value(i)
		case *array.Timestamp:
			unit := a.DataType().(*arrow.TimestampType).Unit
			values[i] = a.Value(i).ToTime(unit).UTC()
		case *array.String:
			values[i] = a.Value(i)
		case *array.LargeString:
			values[i] = a.Value(i)
		default:
			return nil, fmt.Errorf("unsupported arrow type %v", chunk.DataType())
		}
	}
	return values, nil
}
