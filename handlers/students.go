package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"student-records/models"
	"student-records/repository"
)

type StudentHandler struct {
	store  repository.Store
	logger *zap.Logger
}

func NewStudentHandler(store repository.Store, logger *zap.Logger) *StudentHandler {
	return &StudentHandler{store: store, logger: logger}
}

// studentRequest тело POST /api/students, дата в формате дд-мм-гггг
type studentRequest struct {
	FirstName string `json:"nombre"`
	LastName  string `json:"apellidos"`
	Gender    string `json:"genero"`
	BirthDate string `json:"fechaNacimiento"`
	Program   string `json:"ciclo"`
	Course    string `json:"curso"`
	GroupName string `json:"grupo"`
}

func (req studentRequest) student() (models.Student, error) {
	gender, err := models.ParseGender(req.Gender)
	if err != nil {
		return models.Student{}, err
	}
	born, err := models.ParseBirthDate(req.BirthDate)
	if err != nil {
		return models.Student{}, err
	}
	return models.Student{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Gender:    gender,
		BirthDate: born,
		Program:   req.Program,
		Course:    req.Course,
		Group:     &models.Group{Name: req.GroupName},
	}, nil
}

// updateRequest тело PATCH /api/students/{nia}; пустые поля не меняются
type updateRequest struct {
	FirstName string `json:"nombre"`
	GroupName string `json:"grupo"`
}

// GetStudents все ученики или, с параметром group, ученики одной группы
func (h *StudentHandler) GetStudents(w http.ResponseWriter, r *http.Request) {
	var (
		students []models.Student
		err      error
	)
	if group := r.URL.Query().Get("group"); group != "" {
		students, err = h.store.ListStudentsByGroup(r.Context(), group)
	} else {
		students, err = h.store.ListStudents(r.Context())
	}
	if errors.Is(err, repository.ErrNoStudents) {
		students, err = []models.Student{}, nil
	}
	if err != nil {
		fail(w, err, h.logger)
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	writeJSON(w, http.StatusOK, students, h.logger)
}

func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	nia, err := niaVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, found, err := h.store.GetStudent(r.Context(), nia)
	if err != nil {
		fail(w, err, h.logger)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	writeJSON(w, http.StatusOK, st, h.logger)
}

func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("⚠️ Invalid JSON body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	st, err := req.student()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.InsertStudent(r.Context(), &st); err != nil {
		fail(w, err, h.logger)
		return
	}

	h.logger.Info("✅ Student created", zap.Int("nia", st.NIA), zap.String("group", st.GroupName()))
	writeJSON(w, http.StatusCreated, st, h.logger)
}

// UpdateStudent меняет имя и/или группу ученика в одной транзакции
func (h *StudentHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	nia, err := niaVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FirstName == "" && req.GroupName == "" {
		writeError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	ctx := r.Context()
	var updated models.Student
	err = h.store.InTx(ctx, func(tx repository.Store) error {
		if req.FirstName != "" {
			if err := tx.UpdateStudentName(ctx, nia, req.FirstName); err != nil {
				return err
			}
		}
		if req.GroupName != "" {
			if err := tx.ChangeStudentGroup(ctx, nia, req.GroupName); err != nil {
				return err
			}
		}
		st, found, err := tx.GetStudent(ctx, nia)
		if err != nil {
			return err
		}
		if !found {
			return repository.ErrStudentNotFound
		}
		updated = st
		return nil
	})
	if err != nil {
		fail(w, err, h.logger)
		return
	}

	h.logger.Info("✅ Student updated", zap.Int("nia", nia))
	writeJSON(w, http.StatusOK, updated, h.logger)
}

func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	nia, err := niaVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.DeleteStudent(r.Context(), nia); err != nil {
		fail(w, err, h.logger)
		return
	}

	h.logger.Info("🗑️ Student deleted", zap.Int("nia", nia))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteStudentsByLastName DELETE /api/students?lastName=...
func (h *StudentHandler) DeleteStudentsByLastName(w http.ResponseWriter, r *http.Request) {
	lastName := r.URL.Query().Get("lastName")
	if lastName == "" {
		writeError(w, http.StatusBadRequest, "lastName is required")
		return
	}
	if _, err := h.store.DeleteStudentsByLastName(r.Context(), lastName); err != nil {
		fail(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterRoutes маршруты учеников под /api
func (h *StudentHandler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/students", h.GetStudents).Methods("GET")
	api.HandleFunc("/students", h.CreateStudent).Methods("POST")
	api.HandleFunc("/students", h.DeleteStudentsByLastName).Methods("DELETE")
	api.HandleFunc("/students/{nia:[0-9]+}", h.GetStudent).Methods("GET")
	api.HandleFunc("/students/{nia:[0-9]+}", h.UpdateStudent).Methods("PUT", "PATCH")
	api.HandleFunc("/students/{nia:[0-9]+}", h.DeleteStudent).Methods("DELETE")
}
