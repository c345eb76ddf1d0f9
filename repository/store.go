// Package repository описывает порт хранения учеников и групп, общий для
// реляционного (sqlx) и ORM (gorm) бэкендов.
package repository

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks student-records/repository Store

import (
	"context"

	"student-records/models"
)

// Store операции над учениками и группами, которые обязан поддерживать каждый бэкенд.
//
// Методы возвращают ошибки из errors.go; "не найдено" для поиска возвращается
// флагом found, а не ошибкой.
type Store interface {
	// InsertStudent разрешает группу ученика по названию; если группы нет,
	// ничего не пишет и возвращает ErrGroupNotFound. Заполняет st.NIA.
	InsertStudent(ctx context.Context, st *models.Student) error
	// ListStudents все ученики по возрастанию NIA вместе с названием группы.
	ListStudents(ctx context.Context) ([]models.Student, error)
	GetStudent(ctx context.Context, nia int) (models.Student, bool, error)
	UpdateStudentName(ctx context.Context, nia int, name string) error
	DeleteStudent(ctx context.Context, nia int) error
	// DeleteStudentsByLastName всегда возвращает ErrUnsupported.
	DeleteStudentsByLastName(ctx context.Context, lastName string) (int64, error)
	// StudentGroupID текущая группа ученика; nil если ученик без группы.
	StudentGroupID(ctx context.Context, nia int) (*int, bool, error)
	ChangeStudentGroup(ctx context.Context, nia int, groupName string) error

	// InsertGroup сохраняет группу с названием в верхнем регистре и заполняет g.ID.
	InsertGroup(ctx context.Context, g *models.Group) error
	FindGroupByName(ctx context.Context, name string) (models.Group, bool, error)
	GroupExists(ctx context.Context, name string) (bool, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	ListGroupsWithStudents(ctx context.Context) ([]models.Group, error)
	GetGroupWithStudents(ctx context.Context, name string) (models.Group, bool, error)
	ListStudentsByGroup(ctx context.Context, name string) ([]models.Student, error)
	// DeleteStudentsByGroup удаляет учеников группы, саму группу не трогает.
	DeleteStudentsByGroup(ctx context.Context, name string) (int64, error)

	// InTx выполняет fn в одной транзакции; fn получает Store, привязанный к ней.
	// Ошибка fn откатывает транзакцию.
	InTx(ctx context.Context, fn func(Store) error) error
}
