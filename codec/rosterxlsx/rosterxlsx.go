// Package rosterxlsx выгружает списки учеников по группам в книгу Excel,
// по листу на группу.
package rosterxlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"student-records/codec/flatfile"
	"student-records/models"
)

// Excel ограничивает имя листа 31 символом
const maxSheetName = 31

var columnWidths = []float64{8, 18, 26, 8, 16, 10, 8}

// SheetName приводит название группы к допустимому имени листа
func SheetName(group string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, group)
	if name == "" {
		name = flatfile.NoGroup
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

func Encode(w io.Writer, groups []models.Group) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	first := f.GetSheetName(0)
	used := make(map[string]int)
	for i, g := range groups {
		sheet := SheetName(g.Name)
		key := strings.ToUpper(sheet)
		if n := used[key]; n > 0 {
			suffix := fmt.Sprintf("~%d", n+1)
			if r := []rune(sheet); len(r)+len(suffix) > maxSheetName {
				sheet = string(r[:maxSheetName-len(suffix)])
			}
			sheet += suffix
		}
		used[key]++

		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return fmt.Errorf("sheet %q: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet %q: %w", sheet, err)
		}

		if err := writeGroup(f, sheet, g, headerStyle); err != nil {
			return fmt.Errorf("sheet %q: %w", sheet, err)
		}
	}

	return f.Write(w)
}

func writeGroup(f *excelize.File, sheet string, g models.Group, headerStyle int) error {
	header := make([]interface{}, 0, len(columnWidths))
	for _, h := range flatfile.Header[:len(columnWidths)] {
		header = append(header, h)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(columnWidths))
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}
	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	for i, st := range g.Students {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			st.NIA,
			st.FirstName,
			st.LastName,
			string(st.Gender),
			st.BirthDate.Format(models.DateLayout),
			st.Program,
			st.Course,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
