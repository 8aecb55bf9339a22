package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    Mapping
	}{
		{
			name:    "portuguese headers",
			headers: []string{"Nome Completo", "CPF", "Celular"},
			want:    Mapping{Name: "Nome Completo", NationalID: "CPF", Phone: "Celular"},
		},
		{
			name:    "exact match beats earlier substring match",
			headers: []string{"Nome do Cliente", "Nome", "Documento", "WhatsApp"},
			want:    Mapping{Name: "Nome", NationalID: "Documento", Phone: "WhatsApp"},
		},
		{
			name:    "separators are ignored",
			headers: []string{"full_name", "c.p.f", "tel-1"},
			want:    Mapping{Name: "full_name", NationalID: "c.p.f", Phone: "tel-1"},
		},
		{
			name:    "nothing matches",
			headers: []string{"Cidade Natal", "Idade"},
			want:    Mapping{NationalID: "Cidade Natal"},
		},
		{
			name:    "blank headers are skipped",
			headers: []string{"", "Guest", "Phone"},
			want:    Mapping{Name: "Guest", Phone: "Phone"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectColumns(tt.headers))
		})
	}
}

func TestExtractRowsDropsBlankRows(t *testing.T) {
	table := &Table{
		Headers: []string{"Nome", "CPF", "Telefone"},
		Rows: []Row{
			{"Nome": StringCell("  Ana  "), "CPF": NumberCell(12345678900), "Telefone": StringCell("11 9999")},
			{"Nome": EmptyCell(), "CPF": StringCell("   "), "Telefone": EmptyCell()},
			{"Nome": EmptyCell(), "CPF": StringCell("555"), "Telefone": EmptyCell()},
		},
	}

	got := ExtractRows(table, DetectColumns(table.Headers))
	assert.Equal(t, 3, got.Read)
	assert.Equal(t, 1, got.Skipped)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "Ana", got.Rows[0].Name)
	assert.Equal(t, "12345678900", got.Rows[0].NationalID)
	assert.Equal(t, "11 9999", got.Rows[0].Phone)
	assert.Equal(t, "555", got.Rows[1].NationalID)
}

func TestParseCSV(t *testing.T) {
	data := "\xef\xbb\xbfNome;CPF;Celular\nAna;123;111\n;;\nBia;456\n"

	table, err := NewFileReader().Parse("guests.csv", strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"Nome", "CPF", "Celular"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Ana", table.Rows[0].Text("Nome"))
	assert.Equal(t, CellString, table.Rows[0]["CPF"].Kind())
	assert.True(t, table.Rows[1]["Celular"].IsEmpty())
}

func TestParseXLSXKeepsNumbers(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Nome Completo", "CPF", "Celular", "Nome Completo"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Ana Souza", 12345678900, "11 98888-7777", "dup"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"Bia", "987.654.321-00", nil, nil}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := NewFileReader().Parse("guests.xlsx", &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nome Completo", "CPF", "Celular", "Nome Completo_1"}, table.Headers)
	require.Len(t, table.Rows, 2)

	cpf := table.Rows[0]["CPF"]
	assert.Equal(t, CellNumber, cpf.Kind())
	assert.Equal(t, "12345678900", cpf.String())
	assert.Equal(t, "dup", table.Rows[0].Text("Nome Completo_1"))
	assert.Equal(t, "987.654.321-00", table.Rows[1].Text("CPF"))
	assert.True(t, table.Rows[1]["Celular"].IsEmpty())
}

func TestParseRejectsUnknownExtension(t *testing.T) {
	_, err := NewFileReader().Parse("guests.pdf", strings.NewReader("%PDF"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "", EmptyCell().String())
	assert.Equal(t, "3.5", NumberCell(3.5).String())
	assert.Equal(t, "42", NumberCell(42).String())
	assert.True(t, StringCell("  ").IsEmpty())
}
