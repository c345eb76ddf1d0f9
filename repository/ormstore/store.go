// Package ormstore реализует repository.Store через gorm. Каждая изменяющая
// операция выполняется в собственной транзакции, если вызывающий не открыл
// общую через InTx.
package ormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"student-records/models"
	"student-records/repository"
)

type Store struct {
	db         *gorm.DB
	inTx       bool
	general    *zap.Logger
	exceptions *zap.Logger
	metrics    *repository.Metrics
}

var _ repository.Store = (*Store)(nil)

func New(db *gorm.DB, logger *zap.Logger, scope tally.Scope) *Store {
	return &Store{
		db:         db,
		general:    logger.Named("general"),
		exceptions: logger.Named("exceptions"),
		metrics:    repository.NewMetrics(scope),
	}
}

// transaction запускает fn в новой транзакции или в уже открытой через InTx
func (s *Store) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db := s.db.WithContext(ctx)
	if s.inTx {
		return fn(db)
	}
	return db.Transaction(fn)
}

func (s *Store) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{
			db:         tx,
			inTx:       true,
			general:    s.general,
			exceptions: s.exceptions,
			metrics:    s.metrics,
		})
	})
}

// findGroup ищет группу по названию внутри tx
func findGroup(tx *gorm.DB, name string) (models.Group, bool, error) {
	var g models.Group
	err := tx.Where("nombregrupo = ?", models.NormalizeName(name)).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Group{}, false, nil
	}
	if err != nil {
		return models.Group{}, false, err
	}
	return g, true, nil
}

// attachGroup проставляет ученикам ссылку на группу без её списка учеников
func attachGroup(g models.Group, students []models.Student) {
	ref := &models.Group{ID: g.ID, Name: g.Name}
	for i := range students {
		students[i].Group = ref
	}
}

func (s *Store) InsertStudent(ctx context.Context, st *models.Student) error {
	st.Normalize()
	if err := st.Validate(); err != nil {
		s.metrics.StudentCreateFail.Inc(1)
		return err
	}
	groupName := st.GroupName()

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		g, found, err := findGroup(tx, groupName)
		if err != nil {
			return fmt.Errorf("resolve group %q: %w", groupName, err)
		}
		if !found {
			s.metrics.GroupNotFound.Inc(1)
			return fmt.Errorf("insert student %s %s: %w", st.FirstName, st.LastName, repository.ErrGroupNotFound)
		}

		st.GroupID = &g.ID
		if err := tx.Omit(clause.Associations).Create(st).Error; err != nil {
			return fmt.Errorf("insert student: %w", err)
		}
		st.Group = &g
		return nil
	})
	if err != nil {
		s.metrics.StudentCreateFail.Inc(1)
		s.exceptions.Error("❌ Error inserting student",
			zap.String("first_name", st.FirstName), zap.String("group", groupName), zap.Error(err))
		return err
	}

	s.metrics.StudentCreate.Inc(1)
	s.general.Info("✅ Student inserted", zap.Int("nia", st.NIA),
		zap.String("first_name", st.FirstName), zap.String("last_name", st.LastName))
	return nil
}

func (s *Store) ListStudents(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := s.db.WithContext(ctx).Preload("Group").Order("nia").Find(&students).Error; err != nil {
		s.exceptions.Error("❌ Error fetching students", zap.Error(err))
		return nil, fmt.Errorf("list students: %w", err)
	}
	if len(students) == 0 {
		return nil, repository.ErrNoStudents
	}
	return students, nil
}

func (s *Store) GetStudent(ctx context.Context, nia int) (models.Student, bool, error) {
	var st models.Student
	err := s.db.WithContext(ctx).Preload("Group").First(&st, nia).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
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
	return st, true, nil
}

func (s *Store) UpdateStudentName(ctx context.Context, nia int, name string) error {
	name = models.NormalizeName(name)
	if name == "" {
		return models.ErrEmptyName
	}

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Student{}).Where("nia = ?", nia).Update("nombre", name)
		if res.Error != nil {
			return fmt.Errorf("rename student %d: %w", nia, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("rename student %d: %w", nia, repository.ErrStudentNotFound)
		}
		return nil
	})
	if err != nil {
		s.metrics.StudentUpdateFail.Inc(1)
		s.general.Warn("⚠️ Student name not updated", zap.Int("nia", nia), zap.Error(err))
		return err
	}
	s.metrics.StudentUpdate.Inc(1)
	s.general.Info("🔄 Student renamed", zap.Int("nia", nia), zap.String("first_name", name))
	return nil
}

func (s *Store) DeleteStudent(ctx context.Context, nia int) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&models.Student{}, nia)
		if res.Error != nil {
			return fmt.Errorf("delete student %d: %w", nia, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete student %d: %w", nia, repository.ErrStudentNotFound)
		}
		return nil
	})
	if err != nil {
		s.metrics.StudentDeleteFail.Inc(1)
		s.general.Warn("⚠️ Student not deleted", zap.Int("nia", nia), zap.Error(err))
		return err
	}
	s.metrics.StudentDelete.Inc(1)
	s.general.Info("🗑️ Student deleted", zap.Int("nia", nia))
	return nil
}

func (s *Store) DeleteStudentsByLastName(_ context.Context, lastName string) (int64, error) {
	s.general.Warn("⚠️ Delete by last name is not supported", zap.String("last_name", lastName))
	return 0, repository.ErrUnsupported
}

func (s *Store) StudentGroupID(ctx context.Context, nia int) (*int, bool, error) {
	var st models.Student
	err := s.db.WithContext(ctx).Select("nia", "numerogrupo").Take(&st, "nia = ?", nia).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		s.exceptions.Error("❌ Error fetching student group", zap.Int("nia", nia), zap.Error(err))
		return nil, false, fmt.Errorf("student %d group: %w", nia, err)
	}
	return st.GroupID, true, nil
}

func (s *Store) ChangeStudentGroup(ctx context.Context, nia int, groupName string) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var st models.Student
		err := tx.Select("nia", "numerogrupo").Take(&st, "nia = ?", nia).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("change group of %d: %w", nia, repository.ErrStudentNotFound)
		}
		if err != nil {
			return err
		}

		g, found, err := findGroup(tx, groupName)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("change group of %d to %q: %w", nia, groupName, repository.ErrGroupNotFound)
		}
		if st.GroupID != nil && *st.GroupID == g.ID {
			return fmt.Errorf("change group of %d to %q: %w", nia, groupName, repository.ErrSameGroup)
		}

		return tx.Model(&models.Student{}).Where("nia = ?", nia).Update("numerogrupo", g.ID).Error
	})
	if err != nil {
		s.metrics.StudentUpdateFail.Inc(1)
		s.general.Warn("⚠️ Student group not changed", zap.Int("nia", nia), zap.Error(err))
		return err
	}
	s.metrics.StudentUpdate.Inc(1)
	s.general.Info("🔄 Student group changed", zap.Int("nia", nia), zap.String("group", groupName))
	return nil
}

func (s *Store) InsertGroup(ctx context.Context, g *models.Group) error {
	g.Name = models.NormalizeName(g.Name)
	if g.Name == "" {
		s.metrics.GroupCreateFail.Inc(1)
		return models.ErrEmptyGroupName
	}

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		_, found, err := findGroup(tx, g.Name)
		if err != nil {
			return err
		}
		if found {
			return fmt.Errorf("insert group %q: %w", g.Name, repository.ErrGroupExists)
		}

		err = tx.Omit(clause.Associations).Create(g).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("insert group %q: %w", g.Name, repository.ErrGroupExists)
		}
		return err
	})
	if err != nil {
		s.metrics.GroupCreateFail.Inc(1)
		s.general.Warn("⚠️ Group not inserted", zap.String("group", g.Name), zap.Error(err))
		return err
	}

	s.metrics.GroupCreate.Inc(1)
	s.general.Info("✅ Group inserted", zap.String("group", g.Name), zap.Int("id", g.ID))
	return nil
}

func (s *Store) FindGroupByName(ctx context.Context, name string) (models.Group, bool, error) {
	g, found, err := findGroup(s.db.WithContext(ctx), name)
	if err != nil {
		s.exceptions.Error("❌ Error fetching group", zap.String("group", name), zap.Error(err))
		return models.Group{}, false, fmt.Errorf("find group %q: %w", name, err)
	}
	if !found {
		s.metrics.GroupNotFound.Inc(1)
	}
	return g, found, nil
}

func (s *Store) GroupExists(ctx context.Context, name string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Group{}).
		Where("nombregrupo = ?", models.NormalizeName(name)).
		Count(&n).Error
	if err != nil {
		s.exceptions.Error("❌ Error validating group", zap.String("group", name), zap.Error(err))
		return false, fmt.Errorf("validate group %q: %w", name, err)
	}
	return n > 0, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.WithContext(ctx).Order("numerogrupo").Find(&groups).Error; err != nil {
		s.exceptions.Error("❌ Error fetching groups", zap.Error(err))
		return nil, fmt.Errorf("list groups: %w", err)
	}
	if len(groups) == 0 {
		s.general.Warn("⚠️ No groups found")
		return nil, repository.ErrNoGroups
	}
	return groups, nil
}

func orderByNIA(db *gorm.DB) *gorm.DB {
	return db.Order("nia")
}

func (s *Store) ListGroupsWithStudents(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := s.db.WithContext(ctx).
		Preload("Students", orderByNIA).
		Order("numerogrupo").
		Find(&groups).Error
	if err != nil {
		s.exceptions.Error("❌ Error fetching groups", zap.Error(err))
		return nil, fmt.Errorf("list groups with students: %w", err)
	}
	if len(groups) == 0 {
		return nil, repository.ErrNoGroups
	}
	for i := range groups {
		attachGroup(groups[i], groups[i].Students)
	}
	return groups, nil
}

func (s *Store) GetGroupWithStudents(ctx context.Context, name string) (models.Group, bool, error) {
	var g models.Group
	err := s.db.WithContext(ctx).
		Preload("Students", orderByNIA).
		Where("nombregrupo = ?", models.NormalizeName(name)).
		First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.metrics.GroupNotFound.Inc(1)
		return models.Group{}, false, nil
	}
	if err != nil {
		s.exceptions.Error("❌ Error fetching group", zap.String("group", name), zap.Error(err))
		return models.Group{}, false, fmt.Errorf("get group %q: %w", name, err)
	}
	attachGroup(g, g.Students)
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

	var students []models.Student
	if err := s.db.WithContext(ctx).Where("numerogrupo = ?", g.ID).Order("nia").Find(&students).Error; err != nil {
		s.exceptions.Error("❌ Error fetching group students", zap.String("group", name), zap.Error(err))
		return nil, fmt.Errorf("students of %q: %w", name, err)
	}
	attachGroup(g, students)
	return students, nil
}

func (s *Store) DeleteStudentsByGroup(ctx context.Context, name string) (int64, error) {
	name = models.NormalizeName(name)

	var deleted int64
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		g, found, err := findGroup(tx, name)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("delete students of %q: %w", name, repository.ErrGroupEmpty)
		}

		var count int64
		if err := tx.Model(&models.Student{}).Where("numerogrupo = ?", g.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("delete students of %q: %w", name, repository.ErrGroupEmpty)
		}

		res := tx.Where("numerogrupo = ?", g.ID).Delete(&models.Student{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		s.metrics.StudentDeleteFail.Inc(1)
		s.general.Warn("⚠️ Group students not deleted", zap.String("group", name), zap.Error(err))
		return 0, err
	}

	s.metrics.StudentDelete.Inc(deleted)
	s.general.Info("🗑️ Group students deleted", zap.String("group", name), zap.Int64("rows", deleted))
	return deleted, nil
}
