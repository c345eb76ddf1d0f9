// Package memstore хранит учеников и группы в памяти процесса.
// Используется бэкендом "memory" и в тестах сервисов.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"

	"student-records/models"
	"student-records/repository"
)

type state struct {
	students    map[int]models.Student
	groups      map[int]models.Group
	nextNIA     int
	nextGroupID int
}

func (st *state) clone() *state {
	c := &state{
		students:    make(map[int]models.Student, len(st.students)),
		groups:      make(map[int]models.Group, len(st.groups)),
		nextNIA:     st.nextNIA,
		nextGroupID: st.nextGroupID,
	}
	for k, v := range st.students {
		c.students[k] = v
	}
	for k, v := range st.groups {
		c.groups[k] = v
	}
	return c
}

type Store struct {
	mu      *sync.Mutex
	data    *state
	inTx    bool
	logger  *zap.Logger
	metrics *repository.Metrics
}

var _ repository.Store = (*Store)(nil)

func New(logger *zap.Logger, scope tally.Scope) *Store {
	return &Store{
		mu: &sync.Mutex{},
		data: &state{
			students:    make(map[int]models.Student),
			groups:      make(map[int]models.Group),
			nextNIA:     1,
			nextGroupID: 1,
		},
		logger:  logger.Named("general"),
		metrics: repository.NewMetrics(scope),
	}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// InTx держит блокировку на всё время fn и восстанавливает снимок при ошибке
func (s *Store) InTx(_ context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &Store{mu: s.mu, data: s.data, inTx: true, logger: s.logger, metrics: s.metrics}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		s.logger.Warn("🔄 Transaction rolled back", zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) groupByName(name string) (models.Group, bool) {
	name = models.NormalizeName(name)
	for _, g := range s.data.groups {
		if g.Name == name {
			return models.Group{ID: g.ID, Name: g.Name}, true
		}
	}
	return models.Group{}, false
}

// withGroup возвращает копию ученика со ссылкой на его группу
func (s *Store) withGroup(st models.Student) models.Student {
	st.Group = nil
	if st.GroupID != nil {
		if g, ok := s.data.groups[*st.GroupID]; ok {
			st.Group = &models.Group{ID: g.ID, Name: g.Name}
		}
	}
	return st
}

func (s *Store) sortedStudents(filter func(models.Student) bool) []models.Student {
	students := make([]models.Student, 0, len(s.data.students))
	for _, st := range s.data.students {
		if filter == nil || filter(st) {
			students = append(students, s.withGroup(st))
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].NIA < students[j].NIA })
	return students
}

func (s *Store) InsertStudent(_ context.Context, st *models.Student) error {
	defer s.lock()()

	st.Normalize()
	if err := st.Validate(); err != nil {
		s.metrics.StudentCreateFail.Inc(1)
		return err
	}
	g, ok := s.groupByName(st.GroupName())
	if !ok {
		s.metrics.GroupNotFound.Inc(1)
		s.metrics.StudentCreateFail.Inc(1)
		return fmt.Errorf("insert student %s %s: %w", st.FirstName, st.LastName, repository.ErrGroupNotFound)
	}

	st.NIA = s.data.nextNIA
	s.data.nextNIA++
	id := g.ID
	st.GroupID = &id
	st.Group = &g

	stored := *st
	stored.Group = nil
	s.data.students[st.NIA] = stored
	s.metrics.StudentCreate.Inc(1)
	s.logger.Info("✅ Student inserted", zap.Int("nia", st.NIA))
	return nil
}

func (s *Store) ListStudents(_ context.Context) ([]models.Student, error) {
	defer s.lock()()

	students := s.sortedStudents(nil)
	if len(students) == 0 {
		return nil, repository.ErrNoStudents
	}
	return students, nil
}

func (s *Store) GetStudent(_ context.Context, nia int) (models.Student, bool, error) {
	defer s.lock()()

	st, ok := s.data.students[nia]
	if !ok {
		s.metrics.StudentNotFound.Inc(1)
		return models.Student{}, false, nil
	}
	s.metrics.StudentGet.Inc(1)
	return s.withGroup(st), true, nil
}

func (s *Store) UpdateStudentName(_ context.Context, nia int, name string) error {
	defer s.lock()()

	name = models.NormalizeName(name)
	if name == "" {
		return models.ErrEmptyName
	}
	st, ok := s.data.students[nia]
	if !ok {
		s.metrics.StudentNotFound.Inc(1)
		return fmt.Errorf("rename student %d: %w", nia, repository.ErrStudentNotFound)
	}
	st.FirstName = name
	s.data.students[nia] = st
	s.metrics.StudentUpdate.Inc(1)
	return nil
}

func (s *Store) DeleteStudent(_ context.Context, nia int) error {
	defer s.lock()()

	if _, ok := s.data.students[nia]; !ok {
		s.metrics.StudentNotFound.Inc(1)
		return fmt.Errorf("delete student %d: %w", nia, repository.ErrStudentNotFound)
	}
	delete(s.data.students, nia)
	s.metrics.StudentDelete.Inc(1)
	return nil
}

func (s *Store) DeleteStudentsByLastName(_ context.Context, _ string) (int64, error) {
	return 0, repository.ErrUnsupported
}

func (s *Store) StudentGroupID(_ context.Context, nia int) (*int, bool, error) {
	defer s.lock()()

	st, ok := s.data.students[nia]
	if !ok {
		return nil, false, nil
	}
	return st.GroupID, true, nil
}

func (s *Store) ChangeStudentGroup(_ context.Context, nia int, groupName string) error {
	defer s.lock()()

	st, ok := s.data.students[nia]
	if !ok {
		return fmt.Errorf("change group of %d: %w", nia, repository.ErrStudentNotFound)
	}
	g, ok := s.groupByName(groupName)
	if !ok {
		s.metrics.GroupNotFound.Inc(1)
		return fmt.Errorf("change group of %d to %q: %w", nia, groupName, repository.ErrGroupNotFound)
	}
	if st.GroupID != nil && *st.GroupID == g.ID {
		return fmt.Errorf("change group of %d to %q: %w", nia, groupName, repository.ErrSameGroup)
	}

	id := g.ID
	st.GroupID = &id
	s.data.students[nia] = st
	s.metrics.StudentUpdate.Inc(1)
	return nil
}

func (s *Store) InsertGroup(_ context.Context, g *models.Group) error {
	defer s.lock()()

	g.Name = models.NormalizeName(g.Name)
	if g.Name == "" {
		s.metrics.GroupCreateFail.Inc(1)
		return models.ErrEmptyGroupName
	}
	if _, ok := s.groupByName(g.Name); ok {
		s.metrics.GroupCreateFail.Inc(1)
		return fmt.Errorf("insert group %q: %w", g.Name, repository.ErrGroupExists)
	}

	g.ID = s.data.nextGroupID
	s.data.nextGroupID++
	s.data.groups[g.ID] = models.Group{ID: g.ID, Name: g.Name}
	s.metrics.GroupCreate.Inc(1)
	return nil
}

func (s *Store) FindGroupByName(_ context.Context, name string) (models.Group, bool, error) {
	defer s.lock()()

	g, ok := s.groupByName(name)
	if !ok {
		s.metrics.GroupNotFound.Inc(1)
	}
	return g, ok, nil
}

func (s *Store) GroupExists(_ context.Context, name string) (bool, error) {
	defer s.lock()()

	_, ok := s.groupByName(name)
	return ok, nil
}

func (s *Store) sortedGroups() []models.Group {
	groups := make([]models.Group, 0, len(s.data.groups))
	for _, g := range s.data.groups {
		groups = append(groups, models.Group{ID: g.ID, Name: g.Name})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups
}

func (s *Store) ListGroups(_ context.Context) ([]models.Group, error) {
	defer s.lock()()

	groups := s.sortedGroups()
	if len(groups) == 0 {
		return nil, repository.ErrNoGroups
	}
	return groups, nil
}

func (s *Store) studentsOf(id int) []models.Student {
	return s.sortedStudents(func(st models.Student) bool {
		return st.GroupID != nil && *st.GroupID == id
	})
}

func (s *Store) ListGroupsWithStudents(_ context.Context) ([]models.Group, error) {
	defer s.lock()()

	groups := s.sortedGroups()
	if len(groups) == 0 {
		return nil, repository.ErrNoGroups
	}
	for i := range groups {
		groups[i].Students = s.studentsOf(groups[i].ID)
	}
	return groups, nil
}

func (s *Store) GetGroupWithStudents(_ context.Context, name string) (models.Group, bool, error) {
	defer s.lock()()

	g, ok := s.groupByName(name)
	if !ok {
		return models.Group{}, false, nil
	}
	g.Students = s.studentsOf(g.ID)
	return g, true, nil
}

func (s *Store) ListStudentsByGroup(_ context.Context, name string) ([]models.Student, error) {
	defer s.lock()()

	g, ok := s.groupByName(name)
	if !ok {
		return nil, fmt.Errorf("students of %q: %w", name, repository.ErrGroupNotFound)
	}
	return s.studentsOf(g.ID), nil
}

func (s *Store) DeleteStudentsByGroup(_ context.Context, name string) (int64, error) {
	defer s.lock()()

	g, ok := s.groupByName(name)
	if !ok {
		return 0, fmt.Errorf("delete students of %q: %w", name, repository.ErrGroupEmpty)
	}
	var n int64
	for nia, st := range s.data.students {
		if st.GroupID != nil && *st.GroupID == g.ID {
			delete(s.data.students, nia)
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("delete students of %q: %w", name, repository.ErrGroupEmpty)
	}
	s.metrics.StudentDelete.Inc(n)
	return n, nil
}
