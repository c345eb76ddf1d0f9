// Package groupxml документ групп в XML: корень <grupos> со всеми группами или
// <grupo> с одной группой, ученики вложены элементами <alumno>.
package groupxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"student-records/codec"
	"student-records/models"
)

var (
	ErrUnknownRoot    = errors.New("root element must be <grupos> or <grupo>")
	ErrEmptyGroupName = errors.New("group without nombreGrupo")
)

type alumno struct {
	NIA             string `xml:"nia,attr"`
	Nombre          string `xml:"nombre,attr"`
	Apellidos       string `xml:"apellidos,attr"`
	Genero          string `xml:"genero,attr"`
	FechaNacimiento string `xml:"fechaNacimiento,attr"`
	Ciclo           string `xml:"ciclo,attr"`
	Curso           string `xml:"curso,attr"`
}

type grupo struct {
	XMLName     xml.Name `xml:"grupo"`
	NumeroGrupo string   `xml:"numeroGrupo,attr"`
	NombreGrupo string   `xml:"nombreGrupo,attr"`
	Alumnos     []alumno `xml:"alumno"`
}

type grupos struct {
	XMLName xml.Name `xml:"grupos"`
	Grupos  []grupo  `xml:"grupo"`
}

func toXML(g models.Group) grupo {
	out := grupo{
		NumeroGrupo: strconv.Itoa(g.ID),
		NombreGrupo: g.Name,
		Alumnos:     make([]alumno, 0, len(g.Students)),
	}
	for _, st := range g.Students {
		f := codec.FieldsOf(st, models.ISODateLayout)
		out.Alumnos = append(out.Alumnos, alumno{
			NIA:             strconv.Itoa(st.NIA),
			Nombre:          f.FirstName,
			Apellidos:       f.LastName,
			Genero:          f.Gender,
			FechaNacimiento: f.BirthDate,
			Ciclo:           f.Program,
			Curso:           f.Course,
		})
	}
	return out
}

func encode(w io.Writer, v interface{}) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// EncodeAll пишет документ <grupos> со всеми группами и их учениками
func EncodeAll(w io.Writer, groups []models.Group) error {
	doc := grupos{Grupos: make([]grupo, 0, len(groups))}
	for _, g := range groups {
		doc.Grupos = append(doc.Grupos, toXML(g))
	}
	return encode(w, doc)
}

// EncodeOne пишет документ с корнем <grupo> для одной группы
func EncodeOne(w io.Writer, g models.Group) error {
	return encode(w, toXML(g))
}

// readRoot находит корневой элемент и разбирает его в список групп
func readRoot(dec *xml.Decoder) ([]grupo, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, ErrUnknownRoot
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "grupos":
			var doc grupos
			if err := dec.DecodeElement(&doc, &start); err != nil {
				return nil, err
			}
			return doc.Grupos, nil
		case "grupo":
			var g grupo
			if err := dec.DecodeElement(&g, &start); err != nil {
				return nil, err
			}
			return []grupo{g}, nil
		default:
			return nil, fmt.Errorf("<%s>: %w", start.Name.Local, ErrUnknownRoot)
		}
	}
}

// Decode принимает любой из двух корней. Группа без названия и ученик с
// неверными атрибутами пропускаются и попадают в Skipped.
func Decode(r io.Reader) (codec.Document, error) {
	raw, err := readRoot(xml.NewDecoder(r))
	if err != nil {
		return codec.Document{}, fmt.Errorf("decode xml: %w", err)
	}

	var doc codec.Document
	for i, g := range raw {
		name := models.NormalizeName(g.NombreGrupo)
		if name == "" {
			doc.Skipped = multierr.Append(doc.Skipped, &codec.SkipError{
				Where: fmt.Sprintf("grupo #%d", i+1),
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
					Where: fmt.Sprintf("grupo %s alumno #%d %s", name, j+1, strings.TrimSpace(a.NIA)),
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
