package sqlstore

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	q := "UPDATE users SET a = ?, b = ? WHERE id = ?"

	assert.Equal(t, q, Dialect{Bindvar: Question}.Rebind(q))
	assert.Equal(t,
		"UPDATE users SET a = $1, b = $2 WHERE id = $3",
		Dialect{Bindvar: Dollar}.Rebind(q))
	assert.Equal(t, "SELECT 1", Dialect{Bindvar: Dollar}.Rebind("SELECT 1"))
}

func TestInsertQueryPlaceholdersMatchArgs(t *testing.T) {
	got := Dialect{Bindvar: Dollar}.Rebind(insertQuery)
	assert.Contains(t, got, "$8)")
	assert.NotContains(t, got, "$9")
}

func TestBindvarMatchesSqlx(t *testing.T) {
	assert.Equal(t, sqlx.QUESTION, int(Question))
	assert.Equal(t, sqlx.DOLLAR, int(Dollar))
	assert.Equal(t, sqlx.BindType("postgres"), int(Dollar))
	assert.Equal(t, sqlx.BindType("sqlite3"), int(Question))
}
