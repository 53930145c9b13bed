package rdbms

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/starpipe/constants"
	"github.com/relloyd/starpipe/helper"
	"github.com/relloyd/starpipe/logger"
	"github.com/relloyd/starpipe/table"
	td "github.com/relloyd/starpipe/table-definition"
)

// InsertStatement generates multi-row INSERT statements with $n bind variables.
type InsertStatement struct {
	sqlStmtTemplate string
	numCols         int
	cache           map[int]string // statement by number of rows.
}

// NewInsertStatement prepares the statement template for the quoted table and columns.
func NewInsertStatement(quotedTable string, columns []string) *InsertStatement {
	quoted := make([]string, len(columns))
	for idx, c := range columns {
		quoted[idx] = helper.QuoteIdentifier(c)
	}
	t := `insert into <TABLE> (<TGT-COLS>) values <VALUES>`
	t = strings.Replace(t, "<TABLE>", quotedTable, 1)
	t = strings.Replace(t, "<TGT-COLS>", strings.Join(quoted, ","), 1)
	return &InsertStatement{sqlStmtTemplate: t, numCols: len(columns), cache: make(map[int]string)}
}

// GetStatement returns the statement for a batch of numRows rows.
// ( $1, $2, $n )
// ,( $n+1, $n+2, $m )
func (o *InsertStatement) GetStatement(numRows int) string {
	if s, ok := o.cache[numRows]; ok {
		return s
	}
	allRows := strings.Builder{}
	valIdx := 1
	for rowIdx := 0; rowIdx < numRows; rowIdx++ {
		row := make([]string, o.numCols)
		for idy := range row { // for each field in the current row...
			row[idy] = fmt.Sprintf("$%v", valIdx)
			valIdx++
		}
		allRows.WriteString(fmt.Sprintf(",( %v )", strings.Join(row, ", ")))
	}
	s := strings.Replace(o.sqlStmtTemplate, "<VALUES>", strings.TrimLeft(allRows.String(), ","), 1)
	o.cache[numRows] = s
	return s
}

// InsertDataset appends all rows of ds to st in batches of batchSize rows inside one transaction.
// It returns the number of rows inserted.
func InsertDataset(ctx context.Context, log logger.Logger, db Connector, st SchemaTable, ds *table.Dataset, batchSize int) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "error starting transaction")
	}
	n, err := insertBatches(ctx, log, tx, st, ds, batchSize)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	return n, errors.Wrapf(tx.Commit(), "error committing insert into %v", st.String())
}

// ReplaceTable drops st, creates it with column types inferred from ds and inserts the rows of ds.
// All statements run in one transaction.
func ReplaceTable(ctx context.Context, log logger.Logger, db Connector, st SchemaTable, ds *table.Dataset, batchSize int) (int, error) {
	ddl, err := td.GetCreateTableDDL(st.Quoted(), td.InferTableColumns(st.GetTable(), ds), td.NewPostgresDataTypeMapper())
	if err != nil {
		return 0, errors.Wrapf(err, "error generating DDL for %v", st.String())
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "error starting transaction")
	}
	n, err := func() (int, error) {
		drop := fmt.Sprintf("DROP TABLE IF EXISTS %v", st.Quoted())
		log.Debug(drop)
		if _, err := tx.ExecContext(ctx, drop); err != nil {
			return 0, errors.Wrapf(err, "error dropping %v", st.String())
		}
		log.Debug(ddl)
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return 0, errors.Wrapf(err, "error creating %v", st.String())
		}
		return insertBatches(ctx, log, tx, st, ds, batchSize)
	}()
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	return n, errors.Wrapf(tx.Commit(), "error committing replace of %v", st.String())
}

func insertBatches(ctx context.Context, log logger.Logger, tx *sql.Tx, st SchemaTable, ds *table.Dataset, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = constants.DefaultInsertBatch
	}
	cols := ds.Columns()
	stmt := NewInsertStatement(st.Quoted(), cols)
	total := 0
	for start := 0; start < ds.Len(); start += batchSize {
		end := start + batchSize
		if end > ds.Len() {
			end = ds.Len()
		}
		values := make([]interface{}, 0, (end-start)*len(cols))
		for i := start; i < end; i++ {
			for _, c := range cols {
				values = append(values, ds.Value(i, c))
			}
		}
		if _, err := tx.ExecContext(ctx, stmt.GetStatement(end-start), values...); err != nil {
			return total, errors.Wrapf(err, "error inserting rows %v to %v into %v", start, end-1, st.String())
		}
		total += end - start
		log.Debug("inserted ", total, " rows into ", st.String())
	}
	return total, nil
}
