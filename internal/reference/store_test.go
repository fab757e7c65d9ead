package reference

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Reference Number,First Name,Last Name,School Name
R1,Jane,Doe,Acme High
  R2 ,John,Smith,Springfield Elementary
`

func TestLoad(t *testing.T) {
	store, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	rec, ok := store.Lookup("R1")
	require.True(t, ok)
	assert.Equal(t, "jane doe", rec.FullName)
	assert.Equal(t, "acme high", rec.School)
	assert.Equal(t, "Jane Doe", rec.DisplayName)
	assert.Equal(t, "Acme High", rec.DisplaySchool)
}

func TestLoad_TrimsReferenceNumber(t *testing.T) {
	store, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	rec, ok := store.Lookup("R2")
	require.True(t, ok, "reference numbers are trimmed")
	assert.Equal(t, "john smith", rec.FullName)

	_, ok = store.Lookup("  R2 ")
	assert.False(t, ok, "lookups are exact")
	_, ok = store.Lookup("r2")
	assert.False(t, ok, "lookups are case sensitive")
}

func TestLoad_ColumnOrderIndependent(t *testing.T) {
	csv := "School Name,Last Name,Reference Number,Extra,First Name\nAcme High,Doe,R1,x,Jane\n"
	store, err := Load(strings.NewReader(csv))
	require.NoError(t, err)

	rec, ok := store.Lookup("R1")
	require.True(t, ok)
	assert.Equal(t, "jane doe", rec.FullName)
	assert.Equal(t, "acme high", rec.School)
}

func TestLoad_MissingColumn(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no reference", "First Name,Last Name,School Name", ColumnReferenceNumber},
		{"no first name", "Reference Number,Last Name,School Name", ColumnFirstName},
		{"no last name", "Reference Number,First Name,School Name", ColumnLastName},
		{"no school", "Reference Number,First Name,Last Name", ColumnSchoolName},
		{"first missing reported", "Last Name", ColumnReferenceNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Load(strings.NewReader(tt.header + "\n"))
			require.Error(t, err)
			assert.Nil(t, store)

			var formatErr *FormatError
			require.True(t, errors.As(err, &formatErr))
			assert.Equal(t, tt.want, formatErr.Column)
			assert.Equal(t, "Missing column: "+tt.want, err.Error())
		})
	}
}

func TestLoad_Empty(t *testing.T) {
	_, err := Load(strings.NewReader(""))
	var formatErr *FormatError
	require.True(t, errors.As(err, &formatErr))
}

func TestLoad_ShortRowAbortsLoad(t *testing.T) {
	csv := "Reference Number,First Name,Last Name,School Name\nR1,Jane,Doe,Acme High\nR2,John\n"
	store, err := Load(strings.NewReader(csv))
	require.Error(t, err)
	assert.Nil(t, store, "no partial store on format errors")

	var formatErr *FormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, 3, formatErr.Line)
}

func TestLoad_OptionalTrailingColumnMissing(t *testing.T) {
	csv := "Reference Number,First Name,Last Name,School Name,Notes\nR1,Jane,Doe,Acme High\nR2,John,Smith,Springfield Elementary,late\n"
	store, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	rec, ok := store.Lookup("R1")
	require.True(t, ok)
	assert.Equal(t, "jane doe", rec.FullName)
	assert.Equal(t, "acme high", rec.School)
}

func TestLoad_ShortRowMissingRequiredColumn(t *testing.T) {
	csv := "Reference Number,Notes,First Name,Last Name,School Name\nR1,,Jane,Doe\n"
	store, err := Load(strings.NewReader(csv))
	require.Error(t, err)
	assert.Nil(t, store)

	var formatErr *FormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, 2, formatErr.Line)
}

func TestLoad_BareQuotesInUnquotedField(t *testing.T) {
	csv := "Reference Number,First Name,Last Name,School Name\nR1,Robert \"Bob\",Doe,Acme High\n"
	store, err := Load(strings.NewReader(csv))
	require.NoError(t, err)

	rec, ok := store.Lookup("R1")
	require.True(t, ok)
	assert.Equal(t, `robert "bob" doe`, rec.FullName)
	assert.Equal(t, `Robert "Bob" Doe`, rec.DisplayName)
}

func TestLoad_StripsBOM(t *testing.T) {
	store, err := Load(strings.NewReader("\uFEFF" + sampleCSV))
	require.NoError(t, err)
	_, ok := store.Lookup("R1")
	assert.True(t, ok)
}

func TestLoad_DuplicateLastWins(t *testing.T) {
	csv := "Reference Number,First Name,Last Name,School Name\nR1,Jane,Doe,Acme High\nR1,Janet,Roe,Beta School\n"
	store, err := Load(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
	assert.Len(t, store.Rows(), 2, "listing keeps every row")

	rec, _ := store.Lookup("R1")
	assert.Equal(t, "janet roe", rec.FullName)
	assert.Equal(t, "beta school", rec.School)
}

func TestLoad_UnicodeLowercase(t *testing.T) {
	csv := "Reference Number,First Name,Last Name,School Name\nR9,ÉLODIE,MÜLLER,ÉCOLE SAINT-JEAN\n"
	store, err := Load(strings.NewReader(csv))
	require.NoError(t, err)

	rec, _ := store.Lookup("R9")
	assert.Equal(t, "élodie müller", rec.FullName)
	assert.Equal(t, "école saint-jean", rec.School)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	store, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestStore_NilSafe(t *testing.T) {
	var s *Store
	_, ok := s.Lookup("R1")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
	assert.Nil(t, s.Rows())
}
