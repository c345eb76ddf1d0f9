package repository

import (
	"github.com/uber-go/tally/v4"
)

// Metrics счётчики слоя хранения: сколько учеников и групп создано,
// изменено и удалено, и сколько операций завершилось ошибкой.
type Metrics struct {
	StudentCreate     tally.Counter
	StudentCreateFail tally.Counter

	StudentGet      tally.Counter
	StudentGetFail  tally.Counter
	StudentNotFound tally.Counter

	StudentUpdate     tally.Counter
	StudentUpdateFail tally.Counter

	StudentDelete     tally.Counter
	StudentDeleteFail tally.Counter

	GroupCreate     tally.Counter
	GroupCreateFail tally.Counter
	GroupNotFound   tally.Counter
}

// NewMetrics создаёт Metrics в под-скоупе "store" переданного scope
func NewMetrics(scope tally.Scope) *Metrics {
	storeScope := scope.SubScope("store")

	studentScope := storeScope.SubScope("student")
	studentSuccess := studentScope.Tagged(map[string]string{"type": "success"})
	studentFail := studentScope.Tagged(map[string]string{"type": "fail"})
	studentNotFound := studentScope.Tagged(map[string]string{"type": "not_found"})

	groupScope := storeScope.SubScope("group")
	groupSuccess := groupScope.Tagged(map[string]string{"type": "success"})
	groupFail := groupScope.Tagged(map[string]string{"type": "fail"})
	groupNotFound := groupScope.Tagged(map[string]string{"type": "not_found"})

	return &Metrics{
		StudentCreate:     studentSuccess.Counter("create"),
		StudentCreateFail: studentFail.Counter("create"),

		StudentGet:      studentSuccess.Counter("get"),
		StudentGetFail:  studentFail.Counter("get"),
		StudentNotFound: studentNotFound.Counter("get"),

		StudentUpdate:     studentSuccess.Counter("update"),
		StudentUpdateFail: studentFail.Counter("update"),

		StudentDelete:     studentSuccess.Counter("delete"),
		StudentDeleteFail: studentFail.Counter("delete"),

		GroupCreate:     groupSuccess.Counter("create"),
		GroupCreateFail: groupFail.Counter("create"),
		GroupNotFound:   groupNotFound.Counter("lookup"),
	}
}
