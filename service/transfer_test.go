package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"

	"student-records/models"
	"student-records/repository"
	"student-records/repository/memstore"
	"student-records/repository/mocks"
)

func testConfig(dir string) Config {
	return Config{
		TextFile:        filepath.Join(dir, "alumnos.txt"),
		XMLFile:         filepath.Join(dir, "grupos.xml"),
		GroupXMLPattern: filepath.Join(dir, "grupo_%s.xml"),
		JSONFile:        filepath.Join(dir, "grupos.json"),
		XLSXFile:        filepath.Join(dir, "alumnos.xlsx"),
	}
}

func newStore(t *testing.T, groups ...string) *memstore.Store {
	t.Helper()
	s := memstore.New(zap.NewNop(), tally.NoopScope)
	for _, g := range groups {
		require.NoError(t, s.InsertGroup(context.Background(), &models.Group{Name: g}))
	}
	return s
}

func addStudent(t *testing.T, s repository.Store, first, last, group string) {
	t.Helper()
	st := &models.Student{
		FirstName: first,
		LastName:  last,
		Gender:    models.GenderFemale,
		BirthDate: time.Date(2003, 4, 5, 0, 0, 0, 0, time.UTC),
		Program:   "DAM",
		Course:    "1",
		Group:     &models.Group{Name: group},
	}
	require.NoError(t, s.InsertStudent(context.Background(), st))
}

type tuple struct {
	First, Last, Gender, Born, Program, Course, Group string
}

func tuples(t *testing.T, s repository.Store) []tuple {
	t.Helper()
	students, err := s.ListStudents(context.Background())
	require.NoError(t, err)
	out := make([]tuple, 0, len(students))
	for _, st := range students {
		out = append(out, tuple{
			st.FirstName, st.LastName, string(st.Gender), st.BirthDate.Format(models.DateLayout),
			st.Program, st.Course, st.GroupName(),
		})
	}
	return out
}

func TestTextExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t.TempDir())

	src := newStore(t, "GRUPOA", "GRUPOB")
	addStudent(t, src, "ana", "garcía", "GRUPOA")
	addStudent(t, src, "eva", "pérez, ruiz", "GRUPOB")
	addStudent(t, src, "sara", "gil", "GRUPOA")

	n, err := NewTransfer(src, cfg, nil, zap.NewNop(), tally.NoopScope).ExportText(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	dst := newStore(t, "GRUPOA", "GRUPOB")
	report, err := NewTransfer(dst, cfg, nil, zap.NewNop(), tally.NoopScope).ImportText(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Inserted)
	assert.Zero(t, report.SkippedCount())

	assert.Equal(t, tuples(t, src), tuples(t, dst))
}

func TestImportTextSkipsBadLines(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t.TempDir())
	content := strings.Join([]string{
		"NIA,Nombre,Apellidos,Género,Fecha Nacimiento,Ciclo,Curso,Nombre del Grupo",
		"1,ana,garcía,F,02-01-2003,DAM,1,GRUPOA",
		"2,luis,pérez,M,31-02-2003,DAM,1,GRUPOA",
		"3,eva,gil,F,02-01-2003,DAM,1,GRUPOZ",
		"4,sara,ruiz,F,02-01-2003,DAM",
		"5,marta,soler,F,02-01-2003,DAM,1,Sin grupo",
		"6,pablo,vidal,M,10-10-2002,DAW,2,grupoa",
	}, "\n")
	require.NoError(t, os.WriteFile(cfg.TextFile, []byte(content), 0o644))

	scope := tally.NewTestScope("", nil)
	store := newStore(t, "GRUPOA")
	report, err := NewTransfer(store, cfg, nil, zap.NewNop(), scope).ImportText(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 4, report.SkippedCount())
	assert.ErrorIs(t, report.Skipped, repository.ErrGroupNotFound)

	students, err := store.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 2)

	counters := scope.Snapshot().Counters()
	imported := counters["transfer.imported+format=text"]
	require.NotNil(t, imported)
	assert.EqualValues(t, 2, imported.Value())
	skipped := counters["transfer.skipped+format=text"]
	require.NotNil(t, skipped)
	assert.EqualValues(t, 4, skipped.Value())
}

func TestImportTextCreatesMissingGroups(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t.TempDir())
	cfg.CreateMissingGroups = true
	content := "header\n1,ana,garcía,F,02-01-2003,DAM,1,grupoz\n2,eva,gil,F,02-01-2003,DAM,1,GRUPOZ\n"
	require.NoError(t, os.WriteFile(cfg.TextFile, []byte(content), 0o644))

	store := newStore(t)
	report, err := NewTransfer(store, cfg, nil, zap.NewNop(), tally.NoopScope).ImportText(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 1, report.GroupsCreated)

	exists, err := store.GroupExists(ctx, "grupoz")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestImportTextNothingImported(t *testing.T) {
	cfg := testConfig(t.TempDir())
	require.NoError(t, os.WriteFile(cfg.TextFile, []byte("header\n1,ana,garcía,F,02-01-2003,DAM,1,GRUPOZ\n"), 0o644))

	report, err := NewTransfer(newStore(t, "GRUPOA"), cfg, nil, zap.NewNop(), tally.NoopScope).
		ImportText(context.Background())
	assert.ErrorIs(t, err, ErrNothingImported)
	assert.Equal(t, 1, report.SkippedCount())
}

func TestExportTextWithoutStudentsKeepsFile(t *testing.T) {
	cfg := testConfig(t.TempDir())
	tr := NewTransfer(newStore(t, "GRUPOA"), cfg, nil, zap.NewNop(), tally.NoopScope)

	_, err := tr.ExportText(context.Background())
	assert.ErrorIs(t, err, ErrNothingToExport)
	_, statErr := os.Stat(cfg.TextFile)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	require.NoError(t, os.WriteFile(cfg.TextFile, []byte("previous"), 0o644))
	_, err = tr.ExportText(context.Background())
	assert.ErrorIs(t, err, ErrNothingToExport)
	data, err := os.ReadFile(cfg.TextFile)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestExportOverwriteDeclined(t *testing.T) {
	cfg := testConfig(t.TempDir())
	require.NoError(t, os.WriteFile(cfg.TextFile, []byte("previous"), 0o644))

	store := newStore(t, "GRUPOA")
	addStudent(t, store, "ana", "gil", "GRUPOA")

	var asked string
	decline := func(path string) bool {
		asked = path
		return false
	}
	_, err := NewTransfer(store, cfg, decline, zap.NewNop(), tally.NoopScope).ExportText(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, cfg.TextFile, asked)

	data, err := os.ReadFile(cfg.TextFile)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestGroupXMLExportImport(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t.TempDir())

	src := newStore(t, "GRUPOA", "GRUPOB")
	addStudent(t, src, "ana", "garcía", "GRUPOA")
	addStudent(t, src, "eva", "gil", "GRUPOA")
	addStudent(t, src, "sara", "ruiz", "GRUPOB")

	path, err := NewTransfer(src, cfg, nil, zap.NewNop(), tally.NoopScope).ExportGroupXML(ctx, "grupoa")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(cfg.XMLFile), "grupo_GRUPOA.xml"), path)

	dst := newStore(t)
	report, err := NewTransfer(dst, cfg, nil, zap.NewNop(), tally.NoopScope).ImportXML(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 1, report.GroupsCreated)

	g, found, err := dst.GetGroupWithStudents(ctx, "GRUPOA")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, g.Students, 2)
	assert.Equal(t, "ANA", g.Students[0].FirstName)
	assert.Equal(t, "EVA", g.Students[1].FirstName)
}

func TestExportGroupXMLUnknownGroup(t *testing.T) {
	cfg := testConfig(t.TempDir())
	_, err := NewTransfer(newStore(t, "GRUPOA"), cfg, nil, zap.NewNop(), tally.NoopScope).
		ExportGroupXML(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrGroupNotFound)
}

func TestXMLAndJSONImportIntoExistingGroups(t *testing.T) {
	ctx := context.Background()
	src := newStore(t, "GRUPOA", "GRUPOB")
	addStudent(t, src, "ana", "garcía", "GRUPOA")
	addStudent(t, src, "sara", "ruiz", "GRUPOB")
	tr := NewTransfer(src, testConfig(t.TempDir()), nil, zap.NewNop(), tally.NoopScope)

	var xmlDoc, jsonDoc bytes.Buffer
	_, err := tr.WriteXML(ctx, &xmlDoc)
	require.NoError(t, err)
	_, err = tr.WriteJSON(ctx, &jsonDoc)
	require.NoError(t, err)

	dst := newStore(t, "GRUPOA")
	dstTr := NewTransfer(dst, testConfig(t.TempDir()), nil, zap.NewNop(), tally.NoopScope)

	report, err := dstTr.ReadXML(ctx, &xmlDoc)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 1, report.GroupsCreated)

	report, err = dstTr.ReadJSON(ctx, &jsonDoc)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
	assert.Zero(t, report.GroupsCreated)

	students, err := dst.ListStudentsByGroup(ctx, "GRUPOB")
	require.NoError(t, err)
	assert.Len(t, students, 2)
}

func TestExportXLSX(t *testing.T) {
	cfg := testConfig(t.TempDir())
	store := newStore(t, "GRUPOA")
	addStudent(t, store, "ana", "garcía", "GRUPOA")

	n, err := NewTransfer(store, cfg, nil, zap.NewNop(), tally.NoopScope).ExportXLSX(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	info, err := os.Stat(cfg.XLSXFile)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestImportRollsBackOnStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockStore(ctrl)
	boom := errors.New("connection reset")
	ctx := context.Background()

	store.EXPECT().InTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(repository.Store) error) error {
			return fn(store)
		})
	gomock.InOrder(
		store.EXPECT().InsertStudent(gomock.Any(), gomock.Any()).Return(nil),
		store.EXPECT().InsertStudent(gomock.Any(), gomock.Any()).Return(boom),
	)

	in := "header\n1,ana,garcía,F,02-01-2003,DAM,1,GRUPOA\n2,eva,gil,F,02-01-2003,DAM,1,GRUPOA\n3,sara,ruiz,F,02-01-2003,DAM,1,GRUPOA\n"
	report, err := NewTransfer(store, testConfig(t.TempDir()), nil, zap.NewNop(), tally.NoopScope).
		ReadText(ctx, strings.NewReader(in))
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, report.Inserted)
}
