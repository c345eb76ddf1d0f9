package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"student-records/models"
	"student-records/repository"
	"student-records/service"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("❌ Error encoding response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	http.Error(w, fmt.Sprintf(`{"error": %q}`, msg), status)
}

// statusFor переводит ошибки хранилища и обмена в код ответа
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrStudentNotFound),
		errors.Is(err, repository.ErrGroupNotFound),
		errors.Is(err, repository.ErrNoStudents),
		errors.Is(err, repository.ErrNoGroups),
		errors.Is(err, repository.ErrGroupEmpty),
		errors.Is(err, service.ErrNothingToExport):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrGroupExists),
		errors.Is(err, repository.ErrSameGroup):
		return http.StatusConflict
	case errors.Is(err, repository.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, models.ErrEmptyName),
		errors.Is(err, models.ErrEmptyGroupName),
		errors.Is(err, models.ErrInvalidGender),
		errors.Is(err, models.ErrInvalidBirthDate),
		errors.Is(err, service.ErrNothingImported):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// fail пишет ответ по ошибке; неожиданные ошибки логируются
func fail(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("❌ Request failed", zap.Error(err))
		writeError(w, status, "Internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func niaVar(r *http.Request) (int, error) {
	nia, err := strconv.Atoi(mux.Vars(r)["nia"])
	if err != nil || nia <= 0 {
		return 0, fmt.Errorf("invalid student NIA %q", mux.Vars(r)["nia"])
	}
	return nia, nil
}
