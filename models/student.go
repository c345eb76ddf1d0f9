package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Форматы дат: ввод с консоли и текстовый файл используют дд-мм-гггг,
// XML и база данных хранят ISO-дату.
const (
	DateLayout    = "02-01-2006"
	ISODateLayout = "2006-01-02"
)

// Gender пол ученика, допустимы только "M" и "F"
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

var (
	ErrInvalidGender    = errors.New("gender must be M or F")
	ErrInvalidBirthDate = errors.New("birth date must be dd-MM-yyyy")
	ErrEmptyName        = errors.New("first name and last name are required")
)

// ParseGender принимает "m", " F " и т.п.
func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToUpper(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGender, s)
}

// ParseBirthDate строго разбирает дату в формате дд-мм-гггг
func ParseBirthDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBirthDate, s)
	}
	return t, nil
}

// NormalizeName приводит имена, фамилии и названия групп к верхнему регистру
func NormalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Student ученик (таблица alumnos). NIA назначается базой данных.
type Student struct {
	NIA       int       `json:"nia" db:"nia" gorm:"column:nia;primaryKey;autoIncrement"`
	FirstName string    `json:"nombre" db:"nombre" gorm:"column:nombre;not null;size:100"`
	LastName  string    `json:"apellidos" db:"apellidos" gorm:"column:apellidos;not null;size:150"`
	Gender    Gender    `json:"genero" db:"genero" gorm:"column:genero;not null;size:1"`
	BirthDate time.Time `json:"fechaNacimiento" db:"fechanacimiento" gorm:"column:fechanacimiento;type:date;not null"`
	Program   string    `json:"ciclo" db:"ciclo" gorm:"column:ciclo;size:50"`
	Course    string    `json:"curso" db:"curso" gorm:"column:curso;size:50"`
	GroupID   *int      `json:"numeroGrupo,omitempty" db:"numerogrupo" gorm:"column:numerogrupo;index"`
	Group     *Group    `json:"grupo,omitempty" db:"-" gorm:"foreignKey:GroupID;references:ID"`
}

func (Student) TableName() string {
	return "alumnos"
}

// Normalize обрезает пробелы и переводит текстовые поля в верхний регистр
func (s *Student) Normalize() {
	s.FirstName = NormalizeName(s.FirstName)
	s.LastName = NormalizeName(s.LastName)
	s.Gender = Gender(NormalizeName(string(s.Gender)))
	s.Program = NormalizeName(s.Program)
	s.Course = NormalizeName(s.Course)
	if s.Group != nil {
		s.Group.Name = NormalizeName(s.Group.Name)
	}
}

// Validate проверяет инварианты ученика
func (s *Student) Validate() error {
	if s.FirstName == "" || s.LastName == "" {
		return ErrEmptyName
	}
	if _, err := ParseGender(string(s.Gender)); err != nil {
		return err
	}
	if s.BirthDate.IsZero() {
		return ErrInvalidBirthDate
	}
	return nil
}

// GroupName возвращает название группы или пустую строку, если группы нет
func (s *Student) GroupName() string {
	if s.Group == nil {
		return ""
	}
	return s.Group.Name
}
