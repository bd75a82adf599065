package test

import (
	"github.com/jmoiron/sqlx"

	"github.com/brocaar/moca-monitor/internal/storage"
)

// DatabaseTestSuiteBase provides the setup and teardown of the database
// for every test-run.
type DatabaseTestSuiteBase struct {
	tx *storage.TxLogger
}

// SetupSuite is called once before starting the test-suite.
func (b *DatabaseTestSuiteBase) SetupSuite() {
	conf := GetConfig()
	if err := storage.Setup(conf); err != nil {
		panic(err)
	}
	MustResetDB(storage.DB().DB)
}

// SetupTest is called before every test.
func (b *DatabaseTestSuiteBase) SetupTest() {
	tx, err := storage.DB().Beginx()
	if err != nil {
		panic(err)
	}
	b.tx = tx

	MustFlushRedis(storage.RedisClient())
}

// TearDownTest is called after every test.
func (b *DatabaseTestSuiteBase) TearDownTest() {
	if err := b.tx.Rollback(); err != nil {
		panic(err)
	}
}

// Tx returns a database transaction (which is rolled back after every
// test).
func (b *DatabaseTestSuiteBase) Tx() sqlx.Ext {
	return b.tx
}
