// Package service массовый обмен данными между хранилищем и файлами:
// текстовый файл, XML, JSON и книга Excel.
package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/uber-go/tally/v4"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"student-records/codec"
	"student-records/codec/flatfile"
	"student-records/codec/groupjson"
	"student-records/codec/groupxml"
	"student-records/codec/rosterxlsx"
	"student-records/models"
	"student-records/repository"
)

var (
	ErrNothingToExport = errors.New("nothing to export")
	ErrNothingImported = errors.New("nothing imported")
	ErrCancelled       = errors.New("cancelled")
)

const (
	formatText = "text"
	formatXML  = "xml"
	formatJSON = "json"
	formatXLSX = "xlsx"
)

// Confirm спрашивает, можно ли перезаписать существующий файл
type Confirm func(path string) bool

// Config пути файлов обмена. GroupXMLPattern содержит один %s для названия группы.
type Config struct {
	TextFile        string
	XMLFile         string
	GroupXMLPattern string
	JSONFile        string
	XLSXFile        string
	// CreateMissingGroups при импорте текстового файла создаёт неизвестные группы
	// вместо пропуска строки
	CreateMissingGroups bool
}

// ImportReport итог импорта. Skipped содержит по ошибке на каждую пропущенную
// строку или элемент.
type ImportReport struct {
	Inserted      int
	GroupsCreated int
	Skipped       error
}

func (r ImportReport) SkippedCount() int {
	return len(multierr.Errors(r.Skipped))
}

type Transfer struct {
	store      repository.Store
	cfg        Config
	confirm    Confirm
	general    *zap.Logger
	exceptions *zap.Logger
	scope      tally.Scope
}

func NewTransfer(store repository.Store, cfg Config, confirm Confirm, logger *zap.Logger, scope tally.Scope) *Transfer {
	if confirm == nil {
		confirm = func(string) bool { return true }
	}
	return &Transfer{
		store:      store,
		cfg:        cfg,
		confirm:    confirm,
		general:    logger.Named("general"),
		exceptions: logger.Named("exceptions"),
		scope:      scope.SubScope("transfer"),
	}
}

func (t *Transfer) counter(format, name string) tally.Counter {
	return t.scope.Tagged(map[string]string{"format": format}).Counter(name)
}

// GroupXMLPath путь файла выгрузки одной группы
func (t *Transfer) GroupXMLPath(name string) string {
	return fmt.Sprintf(t.cfg.GroupXMLPattern, models.NormalizeName(name))
}

// writeFile спрашивает подтверждение, если файл уже есть, и пишет его через write
func (t *Transfer) writeFile(path string, write func(io.Writer) error) error {
	if _, err := os.Stat(path); err == nil {
		if !t.confirm(path) {
			t.general.Info("Export cancelled, file kept", zap.String("path", path))
			return ErrCancelled
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.exceptions.Error("❌ Error creating file", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	err = write(w)
	if err == nil {
		err = w.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		t.exceptions.Error("❌ Error writing file", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("write %s: %w", path, err)
	}
	t.general.Info("📝 File written", zap.String("path", path))
	return nil
}

func (t *Transfer) readFile(path string, read func(io.Reader) (ImportReport, error)) (ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		t.exceptions.Error("❌ Error opening file", zap.String("path", path), zap.Error(err))
		return ImportReport{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return read(bufio.NewReader(f))
}

func (t *Transfer) students(ctx context.Context) ([]models.Student, error) {
	students, err := t.store.ListStudents(ctx)
	if errors.Is(err, repository.ErrNoStudents) {
		return nil, ErrNothingToExport
	}
	return students, err
}

func (t *Transfer) groups(ctx context.Context) ([]models.Group, error) {
	groups, err := t.store.ListGroupsWithStudents(ctx)
	if errors.Is(err, repository.ErrNoGroups) {
		return nil, ErrNothingToExport
	}
	return groups, err
}

func countStudents(groups []models.Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Students)
	}
	return n
}

// ExportText пишет всех учеников в текстовый файл. Если учеников нет,
// файл не создаётся и не перезаписывается.
func (t *Transfer) ExportText(ctx context.Context) (int, error) {
	students, err := t.students(ctx)
	if err != nil {
		return 0, err
	}
	err = t.writeFile(t.cfg.TextFile, func(w io.Writer) error {
		return flatfile.Encode(w, students)
	})
	if err != nil {
		return 0, err
	}
	t.counter(formatText, "exported").Inc(int64(len(students)))
	return len(students), nil
}

func (t *Transfer) WriteText(ctx context.Context, w io.Writer) (int, error) {
	students, err := t.students(ctx)
	if err != nil {
		return 0, err
	}
	if err := flatfile.Encode(w, students); err != nil {
		return 0, err
	}
	t.counter(formatText, "exported").Inc(int64(len(students)))
	return len(students), nil
}

func (t *Transfer) ImportText(ctx context.Context) (ImportReport, error) {
	return t.readFile(t.cfg.TextFile, func(r io.Reader) (ImportReport, error) {
		return t.ReadText(ctx, r)
	})
}

// ReadText вставляет строки текстового файла в одной транзакции. Строки с
// ошибками формата и неизвестной группой пропускаются; ошибка хранилища
// откатывает весь импорт.
func (t *Transfer) ReadText(ctx context.Context, r io.Reader) (ImportReport, error) {
	res, err := flatfile.Decode(r)
	if err != nil {
		t.exceptions.Error("❌ Error reading text file", zap.Error(err))
		return ImportReport{}, err
	}

	var report ImportReport
	err = t.store.InTx(ctx, func(tx repository.Store) error {
		report = ImportReport{Skipped: res.Skipped}
		for _, line := range res.Lines {
			st := line.Student
			st.Group = &models.Group{Name: line.GroupName}

			if t.cfg.CreateMissingGroups {
				created, err := ensureGroup(ctx, tx, line.GroupName)
				if err != nil {
					return err
				}
				if created {
					report.GroupsCreated++
				}
			}

			err := tx.InsertStudent(ctx, &st)
			if errors.Is(err, repository.ErrGroupNotFound) {
				report.Skipped = multierr.Append(report.Skipped, &codec.SkipError{
					Where: fmt.Sprintf("line %d", line.Number),
					Err:   err,
				})
				continue
			}
			if err != nil {
				return err
			}
			report.Inserted++
		}
		if report.Inserted == 0 {
			return ErrNothingImported
		}
		return nil
	})
	return t.finishImport(formatText, report, err)
}

// ensureGroup создаёт группу, если её нет
func ensureGroup(ctx context.Context, tx repository.Store, name string) (bool, error) {
	if name == "" || name == models.NormalizeName(flatfile.NoGroup) {
		return false, nil
	}
	exists, err := tx.GroupExists(ctx, name)
	if err != nil || exists {
		return false, err
	}
	if err := tx.InsertGroup(ctx, &models.Group{Name: name}); err != nil {
		return false, err
	}
	return true, nil
}

func (t *Transfer) finishImport(format string, report ImportReport, err error) (ImportReport, error) {
	for _, skipped := range multierr.Errors(report.Skipped) {
		t.general.Warn("⚠️ Skipped", zap.String("format", format), zap.Error(skipped))
	}
	t.counter(format, "skipped").Inc(int64(report.SkippedCount()))

	if err != nil {
		if errors.Is(err, ErrNothingImported) {
			t.general.Warn("⚠️ Nothing imported", zap.String("format", format))
		} else {
			t.exceptions.Error("❌ Import rolled back", zap.String("format", format), zap.Error(err))
		}
		return ImportReport{Skipped: report.Skipped}, err
	}

	t.counter(format, "imported").Inc(int64(report.Inserted))
	t.general.Info("✅ Import finished", zap.String("format", format),
		zap.Int("inserted", report.Inserted),
		zap.Int("groups_created", report.GroupsCreated),
		zap.Int("skipped", report.SkippedCount()))
	return report, nil
}

// importDocument создаёт отсутствующие группы и вставляет их учеников
func (t *Transfer) importDocument(ctx context.Context, format string, doc codec.Document) (ImportReport, error) {
	var report ImportReport
	err := t.store.InTx(ctx, func(tx repository.Store) error {
		report = ImportReport{Skipped: doc.Skipped}
		for _, g := range doc.Groups {
			group, found, err := tx.FindGroupByName(ctx, g.Name)
			if err != nil {
				return err
			}
			if !found {
				group = models.Group{Name: g.Name}
				if err := tx.InsertGroup(ctx, &group); err != nil {
					return err
				}
				report.GroupsCreated++
			}

			for _, st := range g.Students {
				st := st
				st.Group = &models.Group{ID: group.ID, Name: group.Name}
				if err := tx.InsertStudent(ctx, &st); err != nil {
					return err
				}
				report.Inserted++
			}
		}
		if report.Inserted == 0 && report.GroupsCreated == 0 {
			return ErrNothingImported
		}
		return nil
	})
	return t.finishImport(format, report, err)
}

// ExportXML пишет все группы с учениками в документ <grupos>
func (t *Transfer) ExportXML(ctx context.Context) (int, error) {
	groups, err := t.groups(ctx)
	if err != nil {
		return 0, err
	}
	err = t.writeFile(t.cfg.XMLFile, func(w io.Writer) error {
		return groupxml.EncodeAll(w, groups)
	})
	if err != nil {
		return 0, err
	}
	t.counter(formatXML, "exported").Inc(int64(countStudents(groups)))
	return len(groups), nil
}

func (t *Transfer) WriteXML(ctx context.Context, w io.Writer) (int, error) {
	groups, err := t.groups(ctx)
	if err != nil {
		return 0, err
	}
	if err := groupxml.EncodeAll(w, groups); err != nil {
		return 0, err
	}
	t.counter(formatXML, "exported").Inc(int64(countStudents(groups)))
	return len(groups), nil
}

func (t *Transfer) group(ctx context.Context, name string) (models.Group, error) {
	g, found, err := t.store.GetGroupWithStudents(ctx, name)
	if err != nil {
		return models.Group{}, err
	}
	if !found {
		t.general.Warn("⚠️ Group not found", zap.String("group", name))
		return models.Group{}, fmt.Errorf("export group %q: %w", name, repository.ErrGroupNotFound)
	}
	return g, nil
}

// ExportGroupXML пишет одну группу в файл grupo_<NOMBRE>.xml и возвращает его путь
func (t *Transfer) ExportGroupXML(ctx context.Context, name string) (string, error) {
	g, err := t.group(ctx, name)
	if err != nil {
		return "", err
	}
	path := t.GroupXMLPath(g.Name)
	err = t.writeFile(path, func(w io.Writer) error {
		return groupxml.EncodeOne(w, g)
	})
	if err != nil {
		return "", err
	}
	t.counter(formatXML, "exported").Inc(int64(len(g.Students)))
	return path, nil
}

func (t *Transfer) WriteGroupXML(ctx context.Context, name string, w io.Writer) error {
	g, err := t.group(ctx, name)
	if err != nil {
		return err
	}
	if err := groupxml.EncodeOne(w, g); err != nil {
		return err
	}
	t.counter(formatXML, "exported").Inc(int64(len(g.Students)))
	return nil
}

// ImportXML читает документ с корнем <grupos> или <grupo>. Пустой path
// означает файл всех групп из конфигурации.
func (t *Transfer) ImportXML(ctx context.Context, path string) (ImportReport, error) {
	if path == "" {
		path = t.cfg.XMLFile
	}
	return t.readFile(path, func(r io.Reader) (ImportReport, error) {
		return t.ReadXML(ctx, r)
	})
}

func (t *Transfer) ReadXML(ctx context.Context, r io.Reader) (ImportReport, error) {
	doc, err := groupxml.Decode(r)
	if err != nil {
		t.exceptions.Error("❌ Error parsing XML", zap.Error(err))
		return ImportReport{}, err
	}
	return t.importDocument(ctx, formatXML, doc)
}

func (t *Transfer) ExportJSON(ctx context.Context) (int, error) {
	groups, err := t.groups(ctx)
	if err != nil {
		return 0, err
	}
	err = t.writeFile(t.cfg.JSONFile, func(w io.Writer) error {
		return groupjson.Encode(w, groups)
	})
	if err != nil {
		return 0, err
	}
	t.counter(formatJSON, "exported").Inc(int64(countStudents(groups)))
	return len(groups), nil
}

func (t *Transfer) WriteJSON(ctx context.Context, w io.Writer) (int, error) {
	groups, err := t.groups(ctx)
	if err != nil {
		return 0, err
	}
	if err := groupjson.Encode(w, groups); err != nil {
		return 0, err
	}
	t.counter(formatJSON, "exported").Inc(int64(countStudents(groups)))
	return len(groups), nil
}

func (t *Transfer) ImportJSON(ctx context.Context, path string) (ImportReport, error) {
	if path == "" {
		path = t.cfg.JSONFile
	}
	return t.readFile(path, func(r io.Reader) (ImportReport, error) {
		return t.ReadJSON(ctx, r)
	})
}

func (t *Transfer) ReadJSON(ctx context.Context, r io.Reader) (ImportReport, error) {
	doc, err := groupjson.Decode(r)
	if err != nil {
		t.exceptions.Error("❌ Error parsing JSON", zap.Error(err))
		return ImportReport{}, err
	}
	return t.importDocument(ctx, formatJSON, doc)
}

// ExportXLSX пишет книгу Excel с листом на каждую группу
func (t *Transfer) ExportXLSX(ctx context.Context) (int, error) {
	groups, err := t.groups(ctx)
	if err != nil {
		return 0, err
	}
	err = t.writeFile(t.cfg.XLSXFile, func(w io.Writer) error {
		return rosterxlsx.Encode(w, groups)
	})
	if err != nil {
		return 0, err
	}
	t.counter(formatXLSX, "exported").Inc(int64(countStudents(groups)))
	return len(groups), nil
}

func (t *Transfer) WriteXLSX(ctx context.Context, w io.Writer) (int, error) {
	groups, err := t.groups(ctx)
	if err != nil {
		return 0, err
	}
	if err := rosterxlsx.Encode(w, groups); err != nil {
		return 0, err
	}
	t.counter(formatXLSX, "exported").Inc(int64(countStudents(groups)))
	return len(groups), nil
}
