// Package codec содержит общие типы форматов обмена: текстового файла,
// XML и JSON. Разбор каждого формата лежит в своём подпакете.
package codec

import (
	"fmt"
	"strings"
	"time"

	"student-records/models"
)

// Group группа, прочитанная из файла, с учениками, прошедшими проверку
type Group struct {
	Name     string
	Students []models.Student
}

// Document результат разбора документа с группами. Skipped собирает через
// multierr ошибки по каждому пропущенному элементу.
type Document struct {
	Groups  []Group
	Skipped error
}

// SkipError элемент файла, который не удалось разобрать
type SkipError struct {
	Where string
	Err   error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("%s: %v", e.Where, e.Err)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

// StudentFields текстовые поля ученика в том виде, в каком они лежат в файле
type StudentFields struct {
	FirstName string
	LastName  string
	Gender    string
	BirthDate string
	Program   string
	Course    string
}

// Student проверяет поля и собирает ученика; дата разбирается по dateLayout
func (f StudentFields) Student(dateLayout string) (models.Student, error) {
	gender, err := models.ParseGender(f.Gender)
	if err != nil {
		return models.Student{}, err
	}
	born, err := time.Parse(dateLayout, strings.TrimSpace(f.BirthDate))
	if err != nil {
		return models.Student{}, fmt.Errorf("%w: %q", models.ErrInvalidBirthDate, f.BirthDate)
	}

	st := models.Student{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Gender:    gender,
		BirthDate: born,
		Program:   f.Program,
		Course:    f.Course,
	}
	st.Normalize()
	if err := st.Validate(); err != nil {
		return models.Student{}, err
	}
	return st, nil
}

// FieldsOf обратная операция для экспорта
func FieldsOf(st models.Student, dateLayout string) StudentFields {
	return StudentFields{
		FirstName: st.FirstName,
		LastName:  st.LastName,
		Gender:    string(st.Gender),
		BirthDate: st.BirthDate.Format(dateLayout),
		Program:   st.Program,
		Course:    st.Course,
	}
}
