// Package groupjson тот же документ групп, что и groupxml, в JSON.
package groupjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"student-records/codec"
	"student-records/models"
)

var ErrEmptyGroupName = errors.New("group without nombreGrupo")

type alumno struct {
	NIA             int    `json:"nia"`
	Nombre          string `json:"nombre"`
	Apellidos       string `json:"apellidos"`
	Genero          string `json:"genero"`
	FechaNacimiento string `json:"fechaNacimiento"`
	Ciclo           string `json:"ciclo"`
	Curso           string `json:"curso"`
}

type grupo struct {
	NumeroGrupo int      `json:"numeroGrupo"`
	NombreGrupo string   `json:"nombreGrupo"`
	Alumnos     []alumno `json:"alumnos"`
}

type document struct {
	Grupos []grupo `json:"grupos"`
}

func Encode(w io.Writer, groups []models.Group) error {
	doc := document{Grupos: make([]grupo, 0, len(groups))}
	for _, g := range groups {
		out := grupo{NumeroGrupo: g.ID, NombreGrupo: g.Name, Alumnos: make([]alumno, 0, len(g.Students))}
		for _, st := range g.Students {
			f := codec.FieldsOf(st, models.ISODateLayout)
			out.Alumnos = append(out.Alumnos, alumno{
				NIA:             st.NIA,
				Nombre:          f.FirstName,
				Apellidos:       f.LastName,
				Genero:          f.Gender,
				FechaNacimiento: f.BirthDate,
				Ciclo:           f.Program,
				Curso:           f.Course,
			})
		}
		doc.Grupos = append(doc.Grupos, out)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Decode пропускает группы без названия и учеников с неверными полями
func Decode(r io.Reader) (codec.Document, error) {
	var in document
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return codec.Document{}, fmt.Errorf("decode json: %w", err)
	}

	var doc codec.Document
	for i, g := range in.Grupos {
		name := models.NormalizeName(g.NombreGrupo)
		if name == "" {
			doc.Skipped = multierr.Append(doc.Skipped, &codec.SkipError{
				Where: fmt.Sprintf("grupos[%d]", i),
				Err:   ErrEmptyGroupName,
			})
			continue
		}

		group := codec.Group{Name: name}
		for j, a := range g.Alumnos {
			st, err := codec.StudentFields{
				FirstName: a.Nombre,
				LastName:  a.Apellidos,
				Gender:    a.Genero,
				BirthDate: a.FechaNacimiento,
				Program:   a.Ciclo,
				Course:    a.Curso,
			}.Student(models.ISODateLayout)
			if err != nil {
				doc.Skipped = multierr.Append(doc.Skipped, &codec.SkipError{
					Where: fmt.Sprintf("grupos[%d].alumnos[%d]", i, j),
					Err:   err,
				})
				continue
			}
			group.Students = append(group.Students, st)
		}
		doc.Groups = append(doc.Groups, group)
	}
	return doc, nil
}
