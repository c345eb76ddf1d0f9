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

type GroupHandler struct {
	store  repository.Store
	logger *zap.Logger
}

func NewGroupHandler(store repository.Store, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{store: store, logger: logger}
}

// GetGroups список групп; ?students=true добавляет учеников каждой группы
func (h *GroupHandler) GetGroups(w http.ResponseWriter, r *http.Request) {
	var (
		groups []models.Group
		err    error
	)
	if r.URL.Query().Get("students") == "true" {
		groups, err = h.store.ListGroupsWithStudents(r.Context())
	} else {
		groups, err = h.store.ListGroups(r.Context())
	}
	if errors.Is(err, repository.ErrNoGroups) {
		groups, err = []models.Group{}, nil
	}
	if err != nil {
		fail(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, groups, h.logger)
}

func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	g, found, err := h.store.GetGroupWithStudents(r.Context(), name)
	if err != nil {
		fail(w, err, h.logger)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Group not found")
		return
	}
	writeJSON(w, http.StatusOK, g, h.logger)
}

func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var createReq struct {
		Name string `json:"nombreGrupo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
		h.logger.Warn("⚠️ Invalid JSON body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	g := models.Group{Name: createReq.Name}
	if err := h.store.InsertGroup(r.Context(), &g); err != nil {
		fail(w, err, h.logger)
		return
	}

	h.logger.Info("✅ Group created", zap.Int("id", g.ID), zap.String("group", g.Name))
	writeJSON(w, http.StatusCreated, g, h.logger)
}

// DeleteGroupStudents удаляет учеников группы, сама группа остаётся
func (h *GroupHandler) DeleteGroupStudents(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	n, err := h.store.DeleteStudentsByGroup(r.Context(), name)
	if err != nil {
		fail(w, err, h.logger)
		return
	}

	h.logger.Info("🗑️ Group students deleted", zap.String("group", name), zap.Int64("deleted", n))
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n}, h.logger)
}

func (h *GroupHandler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/groups", h.GetGroups).Methods("GET")
	api.HandleFunc("/groups", h.CreateGroup).Methods("POST")
	api.HandleFunc("/groups/{name}", h.GetGroup).Methods("GET")
	api.HandleFunc("/groups/{name}/students", h.DeleteGroupStudents).Methods("DELETE")
}
