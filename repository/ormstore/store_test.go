package ormstore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"student-records/models"
	"student-records/repository"
)

var (
	selectGroupByName = regexp.QuoteMeta(`SELECT * FROM "grupos" WHERE nombregrupo = $1`)
	insertGroup       = regexp.QuoteMeta(`INSERT INTO "grupos" ("nombregrupo") VALUES ($1) RETURNING "numerogrupo"`)
	insertStudent     = regexp.QuoteMeta(`INSERT INTO "alumnos"`)
	deleteStudent     = regexp.QuoteMeta(`DELETE FROM "alumnos"`)
	listGroups        = regexp.QuoteMeta(`SELECT * FROM "grupos" ORDER BY numerogrupo`)

	listStudents        = regexp.QuoteMeta(`SELECT * FROM "alumnos" ORDER BY nia`)
	getStudent          = regexp.QuoteMeta(`SELECT * FROM "alumnos" WHERE "alumnos"."nia" = $1`)
	preloadGroup        = regexp.QuoteMeta(`SELECT * FROM "grupos" WHERE "grupos"."numerogrupo"`)
	preloadStudents     = regexp.QuoteMeta(`SELECT * FROM "alumnos" WHERE "alumnos"."numerogrupo"`)
	selectStudentGroup  = `SELECT .* FROM "alumnos" WHERE nia = \$1`
	updateStudentName   = regexp.QuoteMeta(`UPDATE "alumnos" SET "nombre"=$1 WHERE nia = $2`)
	updateStudentGroup  = regexp.QuoteMeta(`UPDATE "alumnos" SET "numerogrupo"=$1 WHERE nia = $2`)
	countGroupStudents  = regexp.QuoteMeta(`SELECT count(*) FROM "alumnos" WHERE numerogrupo = $1`)
	deleteGroupStudents = regexp.QuoteMeta(`DELETE FROM "alumnos" WHERE numerogrupo = $1`)
)

var studentColumns = []string{
	"nia", "nombre", "apellidos", "genero", "fechanacimiento", "ciclo", "curso", "numerogrupo",
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows(studentColumns)
}

var born = time.Date(2003, 1, 2, 0, 0, 0, 0, time.UTC)

type ORMStoreTestSuite struct {
	suite.Suite

	mock  sqlmock.Sqlmock
	store *Store
	ctx   context.Context
}

func TestORMStoreTestSuite(t *testing.T) {
	suite.Run(t, new(ORMStoreTestSuite))
}

func (s *ORMStoreTestSuite) SetupTest() {
	sqlDB, mock, err := sqlmock.New()
	s.Require().NoError(err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	s.mock = mock
	s.store = New(db, zap.NewNop(), tally.NoopScope)
	s.ctx = context.Background()
}

func (s *ORMStoreTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func groupRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"numerogrupo", "nombregrupo"})
}

func (s *ORMStoreTestSuite) TestInsertGroup() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(selectGroupByName).WillReturnRows(groupRows())
	s.mock.ExpectQuery(insertGroup).
		WithArgs("GRUPOA").
		WillReturnRows(sqlmock.NewRows([]string{"numerogrupo"}).AddRow(5))
	s.mock.ExpectCommit()

	g := &models.Group{Name: "grupoa"}
	s.Require().NoError(s.store.InsertGroup(s.ctx, g))
	s.Equal(5, g.ID)
	s.Equal("GRUPOA", g.Name)
}

func (s *ORMStoreTestSuite) TestInsertGroupDuplicate() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(selectGroupByName).WillReturnRows(groupRows().AddRow(1, "GRUPOA"))
	s.mock.ExpectRollback()

	err := s.store.InsertGroup(s.ctx, &models.Group{Name: "GRUPOA"})
	s.ErrorIs(err, repository.ErrGroupExists)
}

func (s *ORMStoreTestSuite) TestInsertStudent() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(selectGroupByName).WillReturnRows(groupRows().AddRow(2, "GRUPOA"))
	s.mock.ExpectQuery(insertStudent).
		WillReturnRows(sqlmock.NewRows([]string{"nia"}).AddRow(11))
	s.mock.ExpectCommit()

	st := &models.Student{
		FirstName: "luis",
		LastName:  "pérez",
		Gender:    models.GenderMale,
		BirthDate: time.Date(2001, 3, 5, 0, 0, 0, 0, time.UTC),
		Program:   "DAW",
		Course:    "2",
		Group:     &models.Group{Name: "grupoa"},
	}
	s.Require().NoError(s.store.InsertStudent(s.ctx, st))
	s.Equal(11, st.NIA)
	s.Require().NotNil(st.GroupID)
	s.Equal(2, *st.GroupID)
	s.Equal("GRUPOA", st.GroupName())
}

func (s *ORMStoreTestSuite) TestInsertStudentUnknownGroup() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(selectGroupByName).WillReturnRows(groupRows())
	s.mock.ExpectRollback()

	st := &models.Student{
		FirstName: "luis",
		LastName:  "pérez",
		Gender:    models.GenderMale,
		BirthDate: time.Date(2001, 3, 5, 0, 0, 0, 0, time.UTC),
		Group:     &models.Group{Name: "nope"},
	}
	s.ErrorIs(s.store.InsertStudent(s.ctx, st), repository.ErrGroupNotFound)
	s.Zero(st.NIA)
}

func (s *ORMStoreTestSuite) TestDeleteStudentNotFound() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(deleteStudent).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	s.ErrorIs(s.store.DeleteStudent(s.ctx, 42), repository.ErrStudentNotFound)
}

func (s *ORMStoreTestSuite) TestListGroupsEmpty() {
	s.mock.ExpectQuery(listGroups).WillReturnRows(groupRows())

	_, err := s.store.ListGroups(s.ctx)
	s.ErrorIs(err, repository.ErrNoGroups)
}

func (s *ORMStoreTestSuite) TestDeleteStudentsByLastNameUnsupported() {
	_, err := s.store.DeleteStudentsByLastName(s.ctx, "PÉREZ")
	s.ErrorIs(err, repository.ErrUnsupported)
}

func (s *ORMStoreTestSuite) TestInTxSharesOneTransaction() {
	boom := errors.New("boom")

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(selectGroupByName).WillReturnRows(groupRows())
	s.mock.ExpectQuery(insertGroup).
		WithArgs("GRUPOA").
		WillReturnRows(sqlmock.NewRows([]string{"numerogrupo"}).AddRow(1))
	s.mock.ExpectRollback()

	err := s.store.InTx(s.ctx, func(tx repository.Store) error {
		if err := tx.InsertGroup(s.ctx, &models.Group{Name: "GRUPOA"}); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)
}

func (s *ORMStoreTestSuite) TestListStudentsPreloadsGroup() {
	s.mock.ExpectQuery(listStudents).WillReturnRows(studentRows().
		AddRow(1, "ANA", "GARCÍA", "F", born, "DAM", "1", 2).
		AddRow(2, "LUIS", "PÉREZ", "M", born, "DAW", "2", 2))
	s.mock.ExpectQuery(preloadGroup).WillReturnRows(groupRows().AddRow(2, "GRUPOA"))

	students, err := s.store.ListStudents(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(students, 2)
	s.Equal(1, students[0].NIA)
	s.Equal("GRUPOA", students[0].GroupName())
	s.Equal("GRUPOA", students[1].GroupName())
	s.Equal(born, students[1].BirthDate)
}

func (s *ORMStoreTestSuite) TestListStudentsEmpty() {
	s.mock.ExpectQuery(listStudents).WillReturnRows(studentRows())

	_, err := s.store.ListStudents(s.ctx)
	s.ErrorIs(err, repository.ErrNoStudents)
}

func (s *ORMStoreTestSuite) TestGetStudent() {
	s.mock.ExpectQuery(getStudent).WillReturnRows(studentRows().
		AddRow(7, "EVA", "RUIZ", "F", born, "SMR", "1", 3))
	s.mock.ExpectQuery(preloadGroup).WillReturnRows(groupRows().AddRow(3, "GRUPOB"))

	st, found, err := s.store.GetStudent(s.ctx, 7)
	s.Require().NoError(err)
	s.True(found)
	s.Equal("EVA", st.FirstName)
	s.Equal("GRUPOB", st.GroupName())
}

func (s *ORMStoreTestSuite) TestGetStudentNotFound() {
	s.mock.ExpectQuery(getStudent).WillReturnRows(studentRows())

	_, found, err := s.store.GetStudent(s.ctx, 99)
	s.NoError(err)
	s.False(found)
}

func (s *ORMStoreTestSuite) TestUpdateStudentName() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(updateStudentName).
		WithArgs("MARÍA", 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	s.NoError(s.store.UpdateStudentName(s.ctx, 4, " maría "))
}

func (s *ORMStoreTestSuite) TestUpdateStudentNameNotFound() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(updateStudentName).
		WithArgs("MARÍA", 42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	s.ErrorIs(s.store.UpdateStudentName(s.ctx, 42, "maría"), repository.ErrStudentNotFound)
}

func (s *ORMStoreTestSuite) TestUpdateStudentNameEmpty() {
	s.ErrorIs(s.store.UpdateStudentName(s.ctx, 4, "  "), models.ErrEmptyName)
}

func (s *ORMStoreTestSuite) TestChangeStudentGroup() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(selectStudentGroup).
		WillReturnRows(sqlmock.NewRows([]string{"nia", "numerogrupo"}).AddRow(1, 2))
	s.mock.ExpectQuery(selectGroupByName).WillReturnRows(groupRows().AddRow(3, "GRUPOB"))
	s.mock.ExpectExec(updateStudentGroup).
		WithArgs(3, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	s.NoError(s.store.ChangeStudentGroup(s.ctx, 1, "grupob"))
}

func (s *ORMStoreTestSuite) TestChangeStudentGroupSameGroup() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(selectStudentGroup).
		WillReturnRows(sqlmock.NewRows([]string{"nia", "numerogrupo"}).AddRow(1, 2))
	s.mock.ExpectQuery(selectGroupByName).WillReturnRows(groupRows().AddRow(2, "GRUPOA"))
	s.mock.ExpectRollback()

	s.ErrorIs(s.store.ChangeStudentGroup(s.ctx, 1, "GRUPOA"), repository.ErrSameGroup)
}

func (s *ORMStoreTestSuite) TestChangeStudentGroupUnknownGroup() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(selectStudentGroup).
		WillReturnRows(sqlmock.NewRows([]string{"nia", "numerogrupo"}).AddRow(1, 2))
	s.mock.ExpectQuery(selectGroupByName).WillReturnRows(groupRows())
	s.mock.ExpectRollback()

	s.ErrorIs(s.store.ChangeStudentGroup(s.ctx, 1, "NOPE"), repository.ErrGroupNotFound)
}

func (s *ORMStoreTestSuite) TestChangeStudentGroupUnknownStudent() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(selectStudentGroup).
		WillReturnRows(sqlmock.NewRows([]string{"nia", "numerogrupo"}))
	s.mock.ExpectRollback()

	s.ErrorIs(s.store.ChangeStudentGroup(s.ctx, 9, "GRUPOA"), repository.ErrStudentNotFound)
}

func (s *ORMStoreTestSuite) TestDeleteStudentsByGroup() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(selectGroupByName).WillReturnRows(groupRows().AddRow(2, "GRUPOA"))
	s.mock.ExpectQuery(countGroupStudents).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	s.mock.ExpectExec(deleteGroupStudents).
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	s.mock.ExpectCommit()

	n, err := s.store.DeleteStudentsByGroup(s.ctx, "grupoa")
	s.Require().NoError(err)
	s.EqualValues(2, n)
}

func (s *ORMStoreTestSuite) TestDeleteStudentsByGroupEmpty() {
	// без DELETE: пустая группа откатывает транзакцию
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(selectGroupByName).WillReturnRows(groupRows().AddRow(2, "GRUPOA"))
	s.mock.ExpectQuery(countGroupStudents).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	s.mock.ExpectRollback()

	n, err := s.store.DeleteStudentsByGroup(s.ctx, "GRUPOA")
	s.ErrorIs(err, repository.ErrGroupEmpty)
	s.Zero(n)
}

func (s *ORMStoreTestSuite) TestDeleteStudentsByGroupUnknown() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(selectGroupByName).WillReturnRows(groupRows())
	s.mock.ExpectRollback()

	_, err := s.store.DeleteStudentsByGroup(s.ctx, "NOPE")
	s.ErrorIs(err, repository.ErrGroupEmpty)
}

func (s *ORMStoreTestSuite) TestListGroupsWithStudents() {
	s.mock.ExpectQuery(listGroups).WillReturnRows(groupRows().
		AddRow(1, "GRUPOA").
		AddRow(2, "GRUPOB"))
	s.mock.ExpectQuery(preloadStudents).WillReturnRows(studentRows().
		AddRow(3, "ANA", "GARCÍA", "F", born, "DAM", "1", 1).
		AddRow(5, "LUIS", "PÉREZ", "M", born, "DAM", "1", 1))

	groups, err := s.store.ListGroupsWithStudents(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(groups, 2)
	s.Require().Len(groups[0].Students, 2)
	s.Equal(3, groups[0].Students[0].NIA)
	s.Equal("GRUPOA", groups[0].Students[1].GroupName())
	s.Empty(groups[1].Students)
}
