// Package sqlstore реализует repository.Store параметризованными SQL-запросами
// через sqlx поверх драйвера lib/pq.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"

	"student-records/models"
	"student-records/repository"
)

const (
	// группы
	selectGroupIDStmt = `SELECT numeroGrupo FROM grupos WHERE nombreGrupo = $1`
	groupExistsStmt   = `SELECT EXISTS(SELECT 1 FROM grupos WHERE nombreGrupo = $1)`
	getGroupStmt      = `SELECT numeroGrupo, nombreGrupo FROM grupos WHERE nombreGrupo = $1`
	listGroupsStmt    = `SELECT numeroGrupo, nombreGrupo FROM grupos ORDER BY numeroGrupo`
	insertGroupStmt   = `INSERT INTO grupos (nombreGrupo) VALUES ($1) RETURNING numeroGrupo`

	countGroupStudentsStmt  = `SELECT COUNT(*) FROM alumnos WHERE numeroGrupo = (SELECT numeroGrupo FROM grupos WHERE nombreGrupo = $1)`
	deleteGroupStudentsStmt = `DELETE FROM alumnos WHERE numeroGrupo = (SELECT numeroGrupo FROM grupos WHERE nombreGrupo = $1)`

	// ученики
	insertStudentStmt = `INSERT INTO alumnos (nombre, apellidos, genero, fechaNacimiento, ciclo, curso, numeroGrupo)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING nia`
	selectStudentsStmt = `SELECT a.nia, a.nombre, a.apellidos, a.genero, a.fechaNacimiento,
		a.ciclo, a.curso, a.numeroGrupo, g.nombreGrupo
		FROM alumnos a
		LEFT JOIN grupos g ON a.numeroGrupo = g.numeroGrupo`
	listStudentsStmt          = selectStudentsStmt + ` ORDER BY a.nia`
	getStudentStmt            = selectStudentsStmt + ` WHERE a.nia = $1`
	listStudentsByGroupIDStmt = selectStudentsStmt + ` WHERE a.numeroGrupo = $1 ORDER BY a.nia`
	studentGroupStmt          = `SELECT numeroGrupo FROM alumnos WHERE nia = $1`
	updateStudentNameStmt     = `UPDATE alumnos SET nombre = $1 WHERE nia = $2`
	updateStudentGroupStmt    = `UPDATE alumnos SET numeroGrupo = $1 WHERE nia = $2`
	deleteStudentStmt         = `DELETE FROM alumnos WHERE nia = $1`
)

// unique_violation
const uniqueViolation pq.ErrorCode = "23505"

// studentRow строка выборки ученика с названием группы из LEFT JOIN
type studentRow struct {
	models.Student
	GroupName sql.NullString `db:"nombregrupo"`
}

func (r studentRow) toStudent() models.Student {
	st := r.Student
	if r.GroupName.Valid && st.GroupID != nil {
		st.Group = &models.Group{ID: *st.GroupID, Name: r.GroupName.String}
	}
	return st
}

// Store реляционный бэкенд. Вне транзакции db != nil и q == db,
// внутри InTx q это *sqlx.Tx, а db == nil.
type Store struct {
	db         *sqlx.DB
	q          sqlx.ExtContext
	general    *zap.Logger
	exceptions *zap.Logger
	metrics    *repository.Metrics
}

var _ repository.Store = (*Store)(nil)

// New создаёт Store поверх пула соединений db
func New(db *sqlx.DB, logger *zap.Logger, scope tally.Scope) *Store {
	return &Store{
		db:         db,
		q:          db,
		general:    logger.Named("general"),
		exceptions: logger.Named("exceptions"),
		metrics:    repository.NewMetrics(scope),
	}
}

// InTx открывает транзакцию и передаёт fn хранилище, привязанное к ней.
// Вложенный вызов переиспользует текущую транзакцию.
func (s *Store) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.exceptions.Error("❌ Error starting transaction", zap.Error(err))
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := &Store{
		q:          tx,
		general:    s.general,
		exceptions: s.exceptions,
		metrics:    s.metrics,
	}

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.exceptions.Error("❌ Error rolling back transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		s.exceptions.Error("❌ Error committing transaction", zap.Error(err))
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// execAffecting выполняет изменяющий запрос и возвращает число затронутых строк.
// Все изменения по NIA (переименование, удаление, смена группы) идут через него.
func (s *Store) execAffecting(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		s.exceptions.Error("❌ Error executing statement", zap.String("sql", query), zap.Error(err))
		return 0, fmt.Errorf("execute statement: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		s.exceptions.Error("❌ Error reading affected rows", zap.String("sql", query), zap.Error(err))
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		s.general.Warn("⚠️ Statement affected no rows", zap.String("sql", query))
	} else {
		s.general.Info("✅ Statement executed", zap.String("sql", query), zap.Int64("rows", n))
	}
	return n, nil
}

// groupID разрешает название группы в её номер
func (s *Store) groupID(ctx context.Context, name string) (int, bool, error) {
	var id int
	err := sqlx.GetContext(ctx, s.q, &id, selectGroupIDStmt, models.NormalizeName(name))
	if errors.Is(err, sql.ErrNoRows) {
		s.metrics.GroupNotFound.Inc(1)
		return 0, false, nil
	}
	if err != nil {
		s.exceptions.Error("❌ Error resolving group", zap.String("group", name), zap.Error(err))
		return 0, false, fmt.Errorf("resolve group %q: %w", name, err)
	}
	return id, true, nil
}

func (s *Store) InsertStudent(ctx context.Context, st *models.Student) error {
	st.Normalize()
	if err := st.Validate(); err != nil {
		s.metrics.StudentCreateFail.Inc(1)
		return err
	}

	groupName := st.GroupName()
	id, found, err := s.groupID(ctx, groupName)
	if err != nil {
		s.metrics.StudentCreateFail.Inc(1)
		return err
	}
	if !found {
		s.metrics.StudentCreateFail.Inc(1)
		s.exceptions.Error("❌ Group does not exist", zap.String("group", groupName))
		return fmt.Errorf("insert student %s %s: %w", st.FirstName, st.LastName, repository.ErrGroupNotFound)
	}

	err = sqlx.GetContext(ctx, s.q, &st.NIA, insertStudentStmt,
		st.FirstName, st.LastName, string(st.Gender), st.BirthDate, st.Program, st.Course, id)
	if err != nil {
		s.metrics.StudentCreateFail.Inc(1)
		s.exceptions.Error("❌ Error inserting student",
			zap.String("first_name", st.FirstName), zap.String("last_name", st.LastName), zap.Error(err))
		return fmt.Errorf("insert student: %w", err)
	}

	st.GroupID = &id
	st.Group = &models.Group{ID: id, Name: models.NormalizeName(groupName)}
	s.metrics.StudentCreate.Inc(1)
	s.general.Info("✅ Student inserted", zap.Int("nia", st.NIA),
		zap.String("first_name", st.FirstName), zap.String("last_name", st.LastName))
	return nil
}

func (s *Store) ListStudents(ctx context.Context) ([]models.Student, error) {
	var rows []studentRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, listStudentsStmt); err != nil {
		s.exceptions.Error("❌ Error fetching students", zap.Error(err))
		return nil, fmt.Errorf("list students: %w", err)
	}
	if len(rows) == 0 {
		return nil, repository.ErrNoStudents
	}

	students := make([]models.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toStudent())
	}
	return students, nil
}

func (s *Store) GetStudent(ctx context.Context, nia int) (models.Student, bool, error) {
	var row studentRow
	err := sqlx.GetContext(ctx, s.q, &row, getStudentStmt, nia)
	if errors.Is(err, sql.ErrNoRows) {
		s.metrics.StudentNotFound.Inc(1)
		s.general.Warn("⚠️ Student not found", zap.Int("nia", nia))
		return models.Student{}, false, nil
	}
	if err != nil {
		s.metrics.StudentGetFail.Inc(1)
		s.exceptions.Error("❌ Error fetching student", zap.Int("nia", nia), zap.Error(err))
		return models.Student{}, false, fmt.Errorf("get student %d: %w", nia, err)
	}
	s.metrics.StudentGet.Inc(1)
	return row.toStudent(), true, nil
}

func (s *Store) UpdateStudentName(ctx context.Context, nia int, name string) error {
	name = models.NormalizeName(name)
	if name == "" {
		return models.ErrEmptyName
	}

	n, err := s.execAffecting(ctx, updateStudentNameStmt, name, nia)
	if err != nil {
		s.metrics.StudentUpdateFail.Inc(1)
		return err
	}
	if n == 0 {
		s.metrics.StudentNotFound.Inc(1)
		return fmt.Errorf("rename student %d: %w", nia, repository.ErrStudentNotFound)
	}
	s.metrics.StudentUpdate.Inc(1)
	return nil
}

func (s *Store) DeleteStudent(ctx context.Context, nia int) error {
	n, err := s.execAffecting(ctx, deleteStudentStmt, nia)
	if err != nil {
		s.metrics.StudentDeleteFail.Inc(1)
		return err
	}
	if n == 0 {
		s.metrics.StudentNotFound.Inc(1)
		return fmt.Errorf("delete student %d: %w", nia, repository.ErrStudentNotFound)
	}
	s.metrics.StudentDelete.Inc(1)
	return nil
}

func (s *Store) DeleteStudentsByLastName(_ context.Context, lastName string) (int64, error) {
	s.general.Warn("⚠️ Delete by last name is not supported", zap.String("last_name", lastName))
	return 0, repository.ErrUnsupported
}

func (s *Store) StudentGroupID(ctx context.Context, nia int) (*int, bool, error) {
	var id sql.NullInt64
	err := sqlx.GetContext(ctx, s.q, &id, studentGroupStmt, nia)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		s.exceptions.Error("❌ Error fetching student group", zap.Int("nia", nia), zap.Error(err))
		return nil, false, fmt.Errorf("student %d group: %w", nia, err)
	}
	if !id.Valid {
		return nil, true, nil
	}
	v := int(id.Int64)
	return &v, true, nil
}

func (s *Store) ChangeStudentGroup(ctx context.Context, nia int, groupName string) error {
	current, found, err := s.StudentGroupID(ctx, nia)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("change group of %d: %w", nia, repository.ErrStudentNotFound)
	}

	id, found, err := s.groupID(ctx, groupName)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("change group of %d to %q: %w", nia, groupName, repository.ErrGroupNotFound)
	}
	if current != nil && *current == id {
		return fmt.Errorf("change group of %d to %q: %w", nia, groupName, repository.ErrSameGroup)
	}

	n, err := s.execAffecting(ctx, updateStudentGroupStmt, id, nia)
	if err != nil {
		s.metrics.StudentUpdateFail.Inc(1)
		return err
	}
	if n == 0 {
		return fmt.Errorf("change group of %d: %w", nia, repository.ErrStudentNotFound)
	}
	s.metrics.StudentUpdate.Inc(1)
	return nil
}

func (s *Store) InsertGroup(ctx context.Context, g *models.Group) error {
	g.Name = models.NormalizeName(g.Name)
	if g.Name == "" {
		s.metrics.GroupCreateFail.Inc(1)
		return models.ErrEmptyGroupName
	}

	err := sqlx.GetContext(ctx, s.q, &g.ID, insertGroupStmt, g.Name)
	switch {
	case err == nil:
	case isUniqueViolation(err):
		s.metrics.GroupCreateFail.Inc(1)
		s.general.Warn("⚠️ Group already exists", zap.String("group", g.Name))
		return fmt.Errorf("insert group %q: %w", g.Name, repository.ErrGroupExists)
	case errors.Is(err, sql.ErrNoRows):
		s.metrics.GroupCreateFail.Inc(1)
		return fmt.Errorf("insert group %q: %w", g.Name, repository.ErrNoRowsAffected)
	default:
		s.metrics.GroupCreateFail.Inc(1)
		s.exceptions.Error("❌ Error inserting group", zap.String("group", g.Name), zap.Error(err))
		return fmt.Errorf("insert group %q: %w", g.Name, err)
	}

	s.metrics.GroupCreate.Inc(1)
	s.general.Info("✅ Group inserted", zap.String("group", g.Name), zap.Int("id", g.ID))
	return nil
}

func (s *Store) FindGroupByName(ctx context.Context, name string) (models.Group, bool, error) {
	var g models.Group
	err := sqlx.GetContext(ctx, s.q, &g, getGroupStmt, models.NormalizeName(name))
	if errors.Is(err, sql.ErrNoRows) {
		s.metrics.GroupNotFound.Inc(1)
		return models.Group{}, false, nil
	}
	if err != nil {
		s.exceptions.Error("❌ Error fetching group", zap.String("group", name), zap.Error(err))
		return models.Group{}, false, fmt.Errorf("find group %q: %w", name, err)
	}
	return g, true, nil
}

// GroupExists отдельная проверка существования для валидации ввода
func (s *Store) GroupExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := sqlx.GetContext(ctx, s.q, &exists, groupExistsStmt, models.NormalizeName(name)); err != nil {
		s.exceptions.Error("❌ Error validating group", zap.String("group", name), zap.Error(err))
		return false, fmt.Errorf("validate group %q: %w", name, err)
	}
	return exists, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := sqlx.SelectContext(ctx, s.q, &groups, listGroupsStmt); err != nil {
		s.exceptions.Error("❌ Error fetching groups", zap.Error(err))
		return nil, fmt.Errorf("list groups: %w", err)
	}
	if len(groups) == 0 {
		s.general.Warn("⚠️ No groups found")
		return nil, repository.ErrNoGroups
	}
	return groups, nil
}

func (s *Store) ListGroupsWithStudents(ctx context.Context) ([]models.Group, error) {
	groups, err := s.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		students, err := s.studentsByGroupID(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Students = students
	}
	return groups, nil
}

func (s *Store) GetGroupWithStudents(ctx context.Context, name string) (models.Group, bool, error) {
	g, found, err := s.FindGroupByName(ctx, name)
	if err != nil || !found {
		return models.Group{}, found, err
	}
	g.Students, err = s.studentsByGroupID(ctx, g.ID)
	if err != nil {
		return models.Group{}, false, err
	}
	return g, true, nil
}

func (s *Store) ListStudentsByGroup(ctx context.Context, name string) ([]models.Student, error) {
	g, found, err := s.FindGroupByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("students of %q: %w", name, repository.ErrGroupNotFound)
	}
	return s.studentsByGroupID(ctx, g.ID)
}

func (s *Store) studentsByGroupID(ctx context.Context, id int) ([]models.Student, error) {
	var rows []studentRow
	if err := sqlx.SelectContext(ctx, s.q, &rows, listStudentsByGroupIDStmt, id); err != nil {
		s.exceptions.Error("❌ Error fetching group students", zap.Int("group_id", id), zap.Error(err))
		return nil, fmt.Errorf("students of group %d: %w", id, err)
	}
	students := make([]models.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toStudent())
	}
	return students, nil
}

func (s *Store) DeleteStudentsByGroup(ctx context.Context, name string) (int64, error) {
	name = models.NormalizeName(name)

	var count int64
	if err := sqlx.GetContext(ctx, s.q, &count, countGroupStudentsStmt, name); err != nil {
		s.exceptions.Error("❌ Error counting group students", zap.String("group", name), zap.Error(err))
		return 0, fmt.Errorf("count students of %q: %w", name, err)
	}
	if count == 0 {
		s.general.Info("No students found in group", zap.String("group", name))
		return 0, fmt.Errorf("delete students of %q: %w", name, repository.ErrGroupEmpty)
	}

	n, err := s.execAffecting(ctx, deleteGroupStudentsStmt, name)
	if err != nil {
		s.metrics.StudentDeleteFail.Inc(1)
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("delete students of %q: %w", name, repository.ErrNoRowsAffected)
	}
	s.metrics.StudentDelete.Inc(n)
	s.general.Info("🗑️ Group students deleted", zap.String("group", name), zap.Int64("rows", n))
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
