package files

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateLayouts(t *testing.T) {
	d, err := parseDate("05/03/2024 10:20:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC), d)

	d, err = parseDate("05/03/2024")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), d)

	_, err = parseDate("2024/03/05")
	assert.Error(t, err)
	_, err = parseDate(nil)
	assert.Error(t, err)
}

func TestCurrency(t *testing.T) {
	cases := map[any]float64{
		"R$ 1.234,56": 1234.56,
		"R$0,50":      0.5,
		"":            0,
		float64(12.5): 12.5,
	}
	for in, want := range cases {
		got, err := currency(in)
		require.NoError(t, err, "%v", in)
		assert.InDelta(t, want, got, 1e-9, "%v", in)
	}
	_, err := currency("abc")
	assert.Error(t, err)
}

func TestIntegerTreatsEmptyAsZero(t *testing.T) {
	for in, want := range map[any]int64{"": 0, "12": 12, float64(3): 3, "4,0": 4} {
		got, err := integer(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := integer("doze")
	assert.Error(t, err)
	got, err := integer(nil)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestCoerceByDataType(t *testing.T) {
	v, err := coerce("42", "integer")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = coerce("1,5", "double precision")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	v, err = coerce("sim", "boolean")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = coerce("01/02/2024", "date")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), v)

	v, err = coerce(float64(7), "character varying")
	require.NoError(t, err)
	assert.Equal(t, "7", v)

	v, err = coerce("  ", "integer")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = coerce("x", "numeric")
	assert.Error(t, err)
}

func TestNewsFromItemMatchesAccentedHeaders(t *testing.T) {
	item := Item{
		"CÓDIGO DA NOTÍCIA": "N-1",
		"DATA":              "10/01/2024",
		"VEÍCULO":           "Folha",
		"TÍTULO":            "Manchete",
		"MICROTEMA":         "eleicoes",
		"TIPO VEÍCULO":      "online",
		"TIER":              "2",
		"ALCANCE":           "",
		"LINK ORIGINAL":     "https://example.com/n1",
		"VALORAÇÃO":         "R$ 1.000,00",
	}
	n, err := newsFromItem(item, 9)
	require.NoError(t, err)
	assert.Equal(t, "N-1", n.NewsCode)
	assert.Equal(t, "Folha", n.Vehicle)
	assert.Equal(t, "Manchete", n.Title)
	assert.Equal(t, "eleicoes", n.SubjectNameSlug)
	assert.Equal(t, "online", n.MediaType)
	assert.Equal(t, 2, n.Tier)
	assert.Zero(t, n.Readers)
	assert.Equal(t, "https://example.com/n1", n.OriginalLink)
	assert.Equal(t, 1000.0, n.Valuation)
	assert.Equal(t, 9, n.CompanyID)

	delete(item, "CÓDIGO DA NOTÍCIA")
	_, err = newsFromItem(item, 9)
	assert.Error(t, err)
}

func TestDynamicRowKeepsOnlyKnownColumns(t *testing.T) {
	columns := map[string]string{"id": "integer", "date": "date", "tier": "integer", "titulo": "character varying"}
	row, err := dynamicRow(Item{"ID": "99", "Título": "A", "TIER": "3", "extra": "x", "DATE": "01/01/2024"}, columns)
	require.NoError(t, err)
	assert.Equal(t, Row{"titulo": "A", "tier": int64(3)}, row)

	_, err = dynamicRow(Item{"tier": "três"}, columns)
	assert.Error(t, err)
}
