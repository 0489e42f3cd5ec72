package importer

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llazzari/personal-finance/internal/errs"
)

func TestDecode(t *testing.T) {
	s, err := Decode([]byte{'H', 'i', 's', 't', 0xF3, 'r', 'i', 'c', 'o'}, "latin-1")
	require.NoError(t, err)
	assert.Equal(t, "Histórico", s)

	s, err = Decode([]byte{'S', 0xE3, 'o'}, "ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "São", s)

	s, err = Decode([]byte("\xef\xbb\xbfData"), "utf-8")
	require.NoError(t, err)
	assert.Equal(t, "Data", s)

	s, err = Decode([]byte{'a', 0xFF, 'b'}, "")
	require.NoError(t, err)
	assert.Equal(t, "a\uFFFDb", s)

	s, err = Decode([]byte{0x80}, "windows-1252")
	require.NoError(t, err)
	assert.Equal(t, "€", s)

	_, err = Decode([]byte("x"), "ebcdic")
	require.Error(t, err)
}

func TestRead(t *testing.T) {
	text := "Extrato\nConta;1\nData;Descrição;Valor;Saldo\n01/03/2024;Padaria;-1.234,56;0\n02/03/2024;Salário;;0\nTotal\nrodapé\n"
	f, err := Read(text, ReaderOptions{
		Delimiter:      ';',
		SkipRows:       2,
		SkipFooter:     1,
		DateLayout:     "02/01/2006",
		Decimal:        ",",
		Thousands:      ".",
		UseColumns:     []string{"Data", "Descrição", "Valor"},
		DateColumns:    []string{"Data"},
		NumericColumns: []string{"Valor"},
		SkipBadLines:   true,
	})
	require.NoError(t, err)
	require.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"Data", "Descrição", "Valor"}, f.Columns())

	d, ok := f.Time(0, "Data")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), d)
	assert.True(t, decimal.RequireFromString("-1234.56").Equal(f.Get(0, "Valor").(decimal.Decimal)))
	assert.Equal(t, "Salário", f.Get(1, "Descrição"))
	assert.Nil(t, f.Get(1, "Valor"))
}

func TestReadKeepsAllColumnsByDefault(t *testing.T) {
	f, err := Read("a,b\n1,2\n", ReaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, f.Columns())
	assert.Equal(t, "2", f.Get(0, "b"))
}

func TestReadCRLF(t *testing.T) {
	f, err := Read("a,b\r\n1,2\r\n3,4\r\n", ReaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, "4", f.Get(1, "b"))
}

func TestReadMissingColumn(t *testing.T) {
	_, err := Read("Data,Valor\n01/01/2024,1\n", ReaderOptions{UseColumns: []string{"Data", "Histórico"}})
	var pe *errs.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Histórico", pe.Column)
}

func TestReadBadDateReportsSourceLine(t *testing.T) {
	text := "preamble\nData,Valor\n01/01/2024,1\nontem,2\n"
	_, err := Read(text, ReaderOptions{SkipRows: 1, DateColumns: []string{"Data"}})
	var pe *errs.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 4, pe.Row)
	assert.Equal(t, "Data", pe.Column)
	assert.Contains(t, err.Error(), "parsing date")
}

func TestReadBadAmount(t *testing.T) {
	_, err := Read("Valor\nabc\n", ReaderOptions{NumericColumns: []string{"Valor"}})
	var pe *errs.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, err.Error(), "parsing amount")
}

func TestReadBadLine(t *testing.T) {
	text := "a,b\n1,2\n3\n4,5\n"

	_, err := Read(text, ReaderOptions{})
	var pe *errs.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Row)

	f, err := Read(text, ReaderOptions{SkipBadLines: true})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
}

func TestReadEmpty(t *testing.T) {
	_, err := Read("", ReaderOptions{})
	var pe *errs.ParseError
	require.True(t, errors.As(err, &pe))

	_, err = Read("a\nb\n", ReaderOptions{SkipRows: 5})
	require.True(t, errors.As(err, &pe))
}

func TestReadHeaderOnly(t *testing.T) {
	f, err := Read("Data,Valor\n", ReaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
}
