// Package flatfile читает и пишет текстовый файл учеников: строка заголовка и
// по одной записи через запятую на ученика.
package flatfile

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"student-records/codec"
	"student-records/models"
)

// NoGroup пишется вместо названия группы, если у ученика её нет
const NoGroup = "Sin grupo"

var Header = []string{
	"NIA", "Nombre", "Apellidos", "Género", "Fecha Nacimiento", "Ciclo", "Curso", "Nombre del Grupo",
}

var ErrFieldCount = fmt.Errorf("expected %d fields", len(Header))

// Line разобранная строка файла. GroupName ещё не проверено на существование.
type Line struct {
	Number    int
	Student   models.Student
	GroupName string
}

// Result строки, годные для вставки, и ошибки по пропущенным строкам
type Result struct {
	Lines   []Line
	Skipped error
}

// Encode пишет заголовок и учеников в порядке среза
func Encode(w io.Writer, students []models.Student) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	for _, st := range students {
		f := codec.FieldsOf(st, models.DateLayout)
		group := st.GroupName()
		if group == "" {
			group = NoGroup
		}
		record := []string{
			strconv.Itoa(st.NIA), f.FirstName, f.LastName, f.Gender, f.BirthDate, f.Program, f.Course, group,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Decode пропускает первую строку как заголовок. Строка с неверным числом полей,
// неверной датой или полом попадает в Skipped и не прерывает чтение.
// Каждая строка файла разбирается отдельно, поэтому незакрытая кавычка
// портит только свою строку. Пустые строки пропускаются молча.
// NIA из файла игнорируется: его назначает хранилище.
func Decode(r io.Reader) (Result, error) {
	sc := bufio.NewScanner(r)

	var res Result
	n := 0
	for sc.Scan() {
		n++
		if n == 1 {
			continue
		}
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		record, err := splitLine(line)
		if err != nil {
			res.Skipped = multierr.Append(res.Skipped, skip(n, err))
			continue
		}
		if len(record) != len(Header) {
			res.Skipped = multierr.Append(res.Skipped, skip(n, fmt.Errorf("%w, got %d", ErrFieldCount, len(record))))
			continue
		}

		st, err := codec.StudentFields{
			FirstName: record[1],
			LastName:  record[2],
			Gender:    record[3],
			BirthDate: record[4],
			Program:   record[5],
			Course:    record[6],
		}.Student(models.DateLayout)
		if err != nil {
			res.Skipped = multierr.Append(res.Skipped, skip(n, err))
			continue
		}

		res.Lines = append(res.Lines, Line{
			Number:    n,
			Student:   st,
			GroupName: models.NormalizeName(record[7]),
		})
	}
	if err := sc.Err(); err != nil {
		return Result{}, fmt.Errorf("read line %d: %w", n+1, err)
	}
	return res, nil
}

// splitLine разбирает одну строку; поля в кавычках могут содержать запятые
func splitLine(line string) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(line))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr.Read()
}

func skip(line int, err error) error {
	return &codec.SkipError{Where: fmt.Sprintf("line %d", line), Err: err}
}
