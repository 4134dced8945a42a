package testutil

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN_Unique(t *testing.T) {
	assert.NotEqual(t, SQLiteDSN(), SQLiteDSN())
}

func TestNewSQLiteDatabase_Ping(t *testing.T) {
	db := NewSQLiteDatabase(t)
	require.NoError(t, db.Ping(context.Background()))
}

func TestNewMockDB(t *testing.T) {
	m := NewMockDB(t)
	m.Mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	var n int
	require.NoError(t, m.DB.Raw("SELECT 1").Scan(&n).Error)
	assert.Equal(t, 1, n)
}
