package rdbms

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/relloyd/starpipe/logger"
	"github.com/relloyd/starpipe/table"
)

// LastUpdatedColumn is the change tracking column present on every source table.
const LastUpdatedColumn = "last_updated"

// SqlQuery runs sqltext with args and collects the result set into a Dataset.
// Scanned values are normalised to the Dataset value types.
func SqlQuery(ctx context.Context, log logger.Logger, db Connector, sqltext string, args ...interface{}) (*table.Dataset, error) {
	rows, err := db.QueryContext(ctx, sqltext, args...)
	if err != nil {
		return nil, fmt.Errorf("error during database query using SQL: '%v': %w", sqltext, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "error fetching column names")
	}
	log.Debug("query returned columns: ", cols)
	// Scan the values dynamically.
	scanPtrs := make([]interface{}, len(cols))
	scanVals := make([]interface{}, len(cols))
	for idx := range cols { // for each column...
		scanPtrs[idx] = &scanVals[idx]
	}
	b := table.NewBuilder(cols...)
	for rows.Next() {
		if err := ctx.Err(); err != nil { // quit if asked to.
			return nil, err
		}
		if err := rows.Scan(scanPtrs...); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		row := make([]interface{}, len(cols))
		for idx := range scanVals { // for each value...
			row[idx] = normaliseValue(scanVals[idx])
		}
		if err := b.Append(row...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading rows")
	}
	return b.Build()
}

// QueryChanged returns the rows of st whose last_updated is after since and not after until.
func QueryChanged(ctx context.Context, log logger.Logger, db Connector, st SchemaTable, since time.Time, until time.Time) (*table.Dataset, error) {
	q := fmt.Sprintf("SELECT * FROM %v WHERE %v > $1 AND %v <= $2", st.Quoted(), LastUpdatedColumn, LastUpdatedColumn)
	log.Debug("querying changed rows: ", q, "; since = ", since, "; until = ", until)
	ds, err := SqlQuery(ctx, log, db, q, since, until)
	return ds, errors.Wrapf(err, "error querying changes from %v", st.String())
}

// QueryAll returns every row of st.
func QueryAll(ctx context.Context, log logger.Logger, db Connector, st SchemaTable) (*table.Dataset, error) {
	q := fmt.Sprintf("SELECT * FROM %v", st.Quoted())
	ds, err := SqlQuery(ctx, log, db, q)
	return ds, errors.Wrapf(err, "error querying %v", st.String())
}

func normaliseValue(v interface{}) interface{} {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.UTC()
	}
	return v
}
