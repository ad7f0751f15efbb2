package dataset

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// ColumnKinds reports the kind shared by every non-null cell of each column.
// Columns that mix kinds, or hold only nulls, report KindString.
func ColumnKinds(columns []string, rows []Record) []Kind {
	kinds := make([]Kind, len(columns))
	for i := range columns {
		kind := KindNull
		for _, r := range rows {
			v := r.Cell(i)
			if v.IsNull() {
				continue
			}
			if kind == KindNull {
				kind = v.Kind
			} else if kind != v.Kind {
				kind = KindString
				break
			}
		}
		if kind == KindNull {
			kind = KindString
		}
		kinds[i] = kind
	}
	return kinds
}

func arrowSchema(columns []string, kinds []Kind) *arrow.Schema {
	fields := make([]arrow.Field, len(columns))
	for i, name := range columns {
		var dt arrow.DataType
		switch kinds[i] {
		case KindNumber:
			dt = arrow.PrimitiveTypes.Float64
		case KindBool:
			dt = arrow.FixedWidthTypes.Boolean
		default:
			dt = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func writeParquet(w io.Writer, columns []string, rows []Record) error {
	schema := arrowSchema(columns, ColumnKinds(columns, rows))

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()

	for _, r := range rows {
		for i := range columns {
			v := r.Cell(i)
			switch fb := b.Field(i).(type) {
			case *array.Float64Builder:
				if v.IsNull() {
					fb.AppendNull()
				} else {
					fb.Append(v.Num)
				}
			case *array.BooleanBuilder:
				if v.IsNull() {
					fb.AppendNull()
				} else {
					fb.Append(v.Bool)
				}
			case *array.StringBuilder:
				if v.IsNull() {
					fb.AppendNull()
				} else {
					fb.Append(v.String())
				}
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	// The parquet writer closes its sink on Close; hide the caller's Close.
	fw, err := pqarrow.NewFileWriter(schema, struct{ io.Writer }{w}, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}

	if err := fw.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}
