package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type telemetryRow struct {
	ID   uint
	Name string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&telemetryRow{}))
	return db
}

func TestRegisterDB_RecordsQueries(t *testing.T) {
	db := openTestDB(t)
	tel, reader := newTestTelemetry(t)

	dbt, err := RegisterDB(db, tel.Meter("db.client"), DBConfig{TraceEnabled: true, SlowQuery: time.Nanosecond}, nil)
	require.NoError(t, err)
	defer dbt.Stop()

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&telemetryRow{Name: "a"}).Error)
	var rows []telemetryRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)

	data := collect(t, reader)

	total, ok := data["db_query_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	ops := map[string]int64{}
	for _, dp := range total.DataPoints {
		op, _ := dp.Attributes.Value(AttrDBOperation)
		ops[op.AsString()] += dp.Value
	}
	assert.Equal(t, int64(1), ops["INSERT"])
	assert.Equal(t, int64(1), ops["SELECT"])

	slow, ok := data["db_slow_query_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.NotEmpty(t, slow.DataPoints)
}

func TestRegisterDB_PoolStats(t *testing.T) {
	db := openTestDB(t)
	tel, reader := newTestTelemetry(t)

	dbt, err := RegisterDB(db, tel.Meter("db.client"), DBConfig{PoolStatsEvery: time.Hour}, nil)
	require.NoError(t, err)

	dbt.StartPoolStats(context.Background())
	require.Eventually(t, func() bool {
		_, ok := collect(t, reader)["db_pool_connections"]
		return ok
	}, time.Second, 10*time.Millisecond)

	dbt.Stop()
	dbt.Stop()
}

func TestRegisterDB_WithoutMetrics(t *testing.T) {
	db := openTestDB(t)

	dbt, err := RegisterDB(db, nil, DBConfig{}, nil)
	require.NoError(t, err)
	defer dbt.Stop()

	dbt.StartPoolStats(context.Background())
	assert.NoError(t, db.Create(&telemetryRow{Name: "b"}).Error)
}

func TestOperationOf(t *testing.T) {
	assert.Equal(t, "SELECT", operationOf(" select * from invoices"))
	assert.Equal(t, "INSERT", operationOf("INSERT INTO invoices"))
	assert.Equal(t, "UPDATE", operationOf("UPDATE invoices SET"))
	assert.Equal(t, "DELETE", operationOf("DELETE FROM invoices"))
	assert.Equal(t, "OTHER", operationOf("WITH x AS (SELECT 1)"))
}
