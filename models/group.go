package models

import "errors"

var ErrEmptyGroupName = errors.New("group name is required")

// Group группа (таблица grupos). Students заполняется только при явной загрузке.
type Group struct {
	ID       int       `json:"numeroGrupo" db:"numerogrupo" gorm:"column:numerogrupo;primaryKey;autoIncrement"`
	Name     string    `json:"nombreGrupo" db:"nombregrupo" gorm:"column:nombregrupo;uniqueIndex;not null;size:100"`
	Students []Student `json:"alumnos,omitempty" db:"-" gorm:"foreignKey:GroupID;references:ID"`
}

func (Group) TableName() string {
	return "grupos"
}
