package repository

import "errors"

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrGroupExists     = errors.New("group already exists")
	ErrGroupEmpty      = errors.New("group has no students")
	ErrSameGroup       = errors.New("student already belongs to that group")
	ErrNoStudents      = errors.New("no students registered")
	ErrNoGroups        = errors.New("no groups registered")
	ErrNoRowsAffected  = errors.New("no rows affected")
	// ErrUnsupported операция объявлена, но поведение не определено
	ErrUnsupported = errors.New("operation not supported")
)
