package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhereBuildsPlaceholders(t *testing.T) {
	var w Where
	assert.Equal(t, "", w.SQL())

	w.Add("s.company_id = ?", int64(3))
	w.Add("(s.customer_name ILIKE ? OR s.unique_id ILIKE ?)", Like("doe"), Like("doe"))
	assert.Equal(t, " WHERE s.company_id = $1 AND (s.customer_name ILIKE $2 OR s.unique_id ILIKE $3)", w.SQL())

	countArgs := w.Args()
	limit := w.Next(20)
	assert.Equal(t, "$4", limit)
	assert.Len(t, countArgs, 3)
	assert.Equal(t, []any{int64(3), "%doe%", "%doe%", 20}, w.Args())
}
