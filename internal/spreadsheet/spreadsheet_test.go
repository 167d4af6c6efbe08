package spreadsheet_test

import (
	"bytes"
	"testing"

	"github.com/formula-lab/crm-api/internal/spreadsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenRead(t *testing.T) {
	var buf bytes.Buffer
	err := spreadsheet.Write(&buf, "Contacts", []string{"Name", "Email", "Priority"}, [][]interface{}{
		{"Ayşe Yılmaz", "ayse@example.com", "acil"},
		{"", "", ""},
		{"Mehmet Kaya", "mehmet@example.com", 3},
	})
	require.NoError(t, err)

	table, err := spreadsheet.Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "email", "priority"}, table.Headers)
	assert.True(t, table.HasColumn("EMAIL"))
	assert.False(t, table.HasColumn("phone"))
	require.Len(t, table.Rows, 2, "blank rows are skipped")

	first := table.Rows[0]
	assert.Equal(t, 2, first.Number)
	assert.Equal(t, "Ayşe Yılmaz", first.Get("name"))
	assert.Equal(t, "acil", first.Get("Priority"))
	assert.Equal(t, "", first.Get("phone"))

	second := table.Rows[1]
	assert.Equal(t, 4, second.Number)
	assert.Equal(t, "3", second.Get("priority"))
}

func TestRead_Invalid(t *testing.T) {
	_, err := spreadsheet.Read(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)
}

func TestRead_HeaderOnlyIsEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, spreadsheet.Write(&buf, "Sheet1", []string{"name"}, nil))

	table, err := spreadsheet.Read(&buf)
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}
