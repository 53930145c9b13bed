package actions

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang/mock/gomock"
	. "github.com/onsi/gomega"
	"github.com/relloyd/starpipe/aws/s3/mocks"
	"github.com/relloyd/starpipe/file"
)

func TestRunIngest(t *testing.T) {
	g := NewGomegaWithT(t)
	clk := &clock{now: time.Date(2025, 3, 5, 18, 30, 12, 0, time.UTC)}
	rt := newTestRuntime(clk)
	rt.Cfg.Tables = []string{"sales_order", "staff", "design"}
	ingest := rt.IngestStore.(*memStore)
	ingest.putAt("2025/03/05/17/00/staff.csv", []byte("staff_id\n1\n"), clk.Now().Add(-time.Hour))
	ingest.putAt("2025/03/04/09/00/design.csv", []byte("design_id\n1\n"), clk.Now().Add(-24*time.Hour))

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	g.Expect(err).To(BeNil())
	defer db.Close()
	mock.MatchExpectationsInOrder(false)
	rt.Source = db
	// Each table is queried from its own latest key up to the minute of this run.
	until := time.Date(2025, 3, 5, 18, 30, 0, 0, time.UTC)
	staffSince := time.Date(2025, 3, 5, 17, 0, 0, 0, time.UTC)
	designSince := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT * FROM "sales_order" WHERE last_updated > $1 AND last_updated <= $2`).WithArgs(time.Time{}, until).
		WillReturnRows(sqlmock.NewRows([]string{"sales_order_id", "units_sold"}).AddRow(int64(7), int64(100)))
	mock.ExpectQuery(`SELECT * FROM "staff" WHERE last_updated > $1 AND last_updated <= $2`).WithArgs(staffSince, until).
		WillReturnRows(sqlmock.NewRows([]string{"staff_id", "first_name"}).AddRow(int64(2), "Deron"))
	mock.ExpectQuery(`SELECT * FROM "staff"`).
		WillReturnRows(sqlmock.NewRows([]string{"staff_id", "first_name"}).AddRow(int64(1), "Jeremie").AddRow(int64(2), "Deron"))
	mock.ExpectQuery(`SELECT * FROM "design" WHERE last_updated > $1 AND last_updated <= $2`).WithArgs(designSince, until).
		WillReturnRows(sqlmock.NewRows([]string{"design_id"}))

	summary, err := RunIngest(WithRunID(context.Background(), "run-1"), rt)
	g.Expect(err).To(BeNil())
	g.Expect(mock.ExpectationsWereMet()).To(BeNil())
	g.Expect(summary.RunID).To(Equal("run-1"))
	g.Expect(summary.Keys).To(Equal(map[string]string{
		"sales_order": "2025/03/05/18/30/sales_order.csv",
		"staff":       "2025/03/05/18/30/staff.csv",
	}))
	g.Expect(summary.Skipped).To(HaveKeyWithValue("design", "no changes"))
	g.Expect(summary.Stats).To(HaveLen(3))

	// Non-incremental tables are written whole.
	data, err := ingest.Get(context.Background(), "2025/03/05/18/30/staff.csv")
	g.Expect(err).To(BeNil())
	ds, err := file.ReadCSV(bytes.NewReader(data))
	g.Expect(err).To(BeNil())
	g.Expect(ds.Len()).To(Equal(2))
	g.Expect(ds.Value(0, "first_name")).To(Equal("Jeremie"))
}

func TestRunIngestCollectsTableErrors(t *testing.T) {
	g := NewGomegaWithT(t)
	clk := &clock{now: time.Date(2025, 3, 5, 18, 30, 0, 0, time.UTC)}
	rt := newTestRuntime(clk)
	rt.Cfg.Tables = []string{"payment", "transaction"}
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	g.Expect(err).To(BeNil())
	defer db.Close()
	mock.MatchExpectationsInOrder(false)
	rt.Source = db
	mock.ExpectQuery(`SELECT * FROM "payment" WHERE last_updated > $1 AND last_updated <= $2`).WillReturnError(errors.New("relation does not exist"))
	mock.ExpectQuery(`SELECT * FROM "transaction" WHERE last_updated > $1 AND last_updated <= $2`).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT * FROM "transaction"`).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow(int64(1)))

	summary, err := RunIngest(context.Background(), rt)
	g.Expect(err).NotTo(BeNil())
	g.Expect(err.Error()).To(ContainSubstring("relation does not exist"))
	g.Expect(summary.Errors).To(HaveLen(1))
	g.Expect(summary.Errors[0]).To(HavePrefix("payment: "))
	g.Expect(summary.Keys).To(HaveKey("transaction"))
	g.Expect(summary.RunID).NotTo(BeEmpty())
}

func TestRunIngestKeepsWatermarkOfFailedTable(t *testing.T) {
	g := NewGomegaWithT(t)
	clk := &clock{now: time.Date(2025, 3, 5, 18, 0, 0, 0, time.UTC)}
	rt := newTestRuntime(clk)
	rt.Cfg.Tables = []string{"sales_order", "staff"}
	ingest := rt.IngestStore.(*memStore)
	// sales_order failed in the 17:30 run while staff was written.
	ingest.putAt("2025/03/05/17/00/sales_order.csv", []byte("sales_order_id\n1\n"), clk.Now().Add(-time.Hour))
	ingest.putAt("2025/03/05/17/00/staff.csv", []byte("staff_id\n1\n"), clk.Now().Add(-time.Hour))
	ingest.putAt("2025/03/05/17/30/staff.csv", []byte("staff_id\n1\n"), clk.Now().Add(-30*time.Minute))

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	g.Expect(err).To(BeNil())
	defer db.Close()
	mock.MatchExpectationsInOrder(false)
	rt.Source = db
	until := clk.Now()
	mock.ExpectQuery(`SELECT * FROM "sales_order" WHERE last_updated > $1 AND last_updated <= $2`).
		WithArgs(time.Date(2025, 3, 5, 17, 0, 0, 0, time.UTC), until).
		WillReturnRows(sqlmock.NewRows([]string{"sales_order_id"}).AddRow(int64(2)))
	mock.ExpectQuery(`SELECT * FROM "staff" WHERE last_updated > $1 AND last_updated <= $2`).
		WithArgs(time.Date(2025, 3, 5, 17, 30, 0, 0, time.UTC), until).
		WillReturnRows(sqlmock.NewRows([]string{"staff_id"}))

	summary, err := RunIngest(context.Background(), rt)
	g.Expect(err).To(BeNil())
	g.Expect(mock.ExpectationsWereMet()).To(BeNil())
	g.Expect(summary.Keys).To(HaveKeyWithValue("sales_order", "2025/03/05/18/00/sales_order.csv"))
	g.Expect(summary.Skipped).To(HaveKey("staff"))
}

func TestRunIngestListError(t *testing.T) {
	g := NewGomegaWithT(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockBasicClient(ctrl)
	store.EXPECT().List(gomock.Any(), "").Return(nil, errors.New("access denied"))
	rt := newTestRuntime(&clock{now: time.Now()})
	rt.IngestStore = store

	_, err := RunIngest(context.Background(), rt)
	g.Expect(err).NotTo(BeNil())
	g.Expect(err.Error()).To(ContainSubstring("access denied"))
}
