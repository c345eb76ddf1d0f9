package groupxml

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"student-records/models"
)

func sampleGroup() models.Group {
	return models.Group{
		ID:   4,
		Name: "GRUPOA",
		Students: []models.Student{
			{
				NIA: 10, FirstName: "ANA", LastName: "GARCÍA", Gender: models.GenderFemale,
				BirthDate: time.Date(2003, 1, 2, 0, 0, 0, 0, time.UTC), Program: "DAM", Course: "1",
			},
			{
				NIA: 11, FirstName: "LUIS", LastName: "PÉREZ", Gender: models.GenderMale,
				BirthDate: time.Date(2002, 11, 30, 0, 0, 0, 0, time.UTC), Program: "DAM", Course: "1",
			},
		},
	}
}

func TestEncodeOne(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeOne(&buf, sampleGroup()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<grupo numeroGrupo="4" nombreGrupo="GRUPOA">`)
	assert.Contains(t, out,
		`<alumno nia="10" nombre="ANA" apellidos="GARCÍA" genero="F" fechaNacimiento="2003-01-02" ciclo="DAM" curso="1"></alumno>`)
	assert.NotContains(t, out, "<grupos>")
}

func TestEncodeAll(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeAll(&buf, []models.Group{sampleGroup(), {ID: 5, Name: "GRUPOB"}}))

	out := buf.String()
	assert.Contains(t, out, "<grupos>")
	assert.Contains(t, out, `<grupo numeroGrupo="5" nombreGrupo="GRUPOB"></grupo>`)
}

func TestEncodeOneDecodeRoundTrip(t *testing.T) {
	in := sampleGroup()

	var buf bytes.Buffer
	require.NoError(t, EncodeOne(&buf, in))

	doc, err := Decode(&buf)
	require.NoError(t, err)
	assert.NoError(t, doc.Skipped)
	require.Len(t, doc.Groups, 1)

	got := doc.Groups[0]
	assert.Equal(t, in.Name, got.Name)
	require.Len(t, got.Students, len(in.Students))
	for i := range in.Students {
		assert.Equal(t, in.Students[i].FirstName, got.Students[i].FirstName)
		assert.Equal(t, in.Students[i].LastName, got.Students[i].LastName)
		assert.Equal(t, in.Students[i].Gender, got.Students[i].Gender)
		assert.Equal(t, in.Students[i].BirthDate, got.Students[i].BirthDate)
	}
}

func TestDecodeSkipsMalformedElements(t *testing.T) {
	in := `<?xml version="1.0" encoding="UTF-8"?>
<grupos>
  <grupo numeroGrupo="1" nombreGrupo="grupoa">
    <alumno nia="1" nombre="ana" apellidos="garcía" genero="F" fechaNacimiento="2003-01-02" ciclo="DAM" curso="1"/>
    <alumno nia="2" nombre="luis" apellidos="pérez" genero="M" fechaNacimiento="02-01-2003" ciclo="DAM" curso="1"/>
    <alumno nia="3" nombre="" apellidos="ruiz" genero="M" fechaNacimiento="2003-01-02" ciclo="DAM" curso="1"/>
  </grupo>
  <grupo numeroGrupo="2" nombreGrupo="  ">
    <alumno nia="4" nombre="eva" apellidos="gil" genero="F" fechaNacimiento="2003-01-02" ciclo="DAM" curso="1"/>
  </grupo>
  <grupo numeroGrupo="3" nombreGrupo="grupoc"/>
</grupos>`

	doc, err := Decode(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, doc.Groups, 2)
	assert.Equal(t, "GRUPOA", doc.Groups[0].Name)
	require.Len(t, doc.Groups[0].Students, 1)
	assert.Equal(t, "ANA", doc.Groups[0].Students[0].FirstName)
	assert.Equal(t, "GRUPOC", doc.Groups[1].Name)
	assert.Empty(t, doc.Groups[1].Students)

	skipped := multierr.Errors(doc.Skipped)
	require.Len(t, skipped, 3)
	assert.ErrorIs(t, skipped[0], models.ErrInvalidBirthDate)
	assert.ErrorIs(t, skipped[1], models.ErrEmptyName)
	assert.ErrorIs(t, skipped[2], ErrEmptyGroupName)
}

func TestDecodeUnknownRoot(t *testing.T) {
	_, err := Decode(strings.NewReader(`<alumnos></alumnos>`))
	assert.ErrorIs(t, err, ErrUnknownRoot)

	_, err = Decode(strings.NewReader(``))
	assert.ErrorIs(t, err, ErrUnknownRoot)
}
