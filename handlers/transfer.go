package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"student-records/codec/groupxml"
	"student-records/service"
)

// maxImportSize ограничение тела запроса импорта
const maxImportSize = 10 << 20

type exportFormat struct {
	contentType string
	filename    string
	write       func(t *service.Transfer, ctx context.Context, w io.Writer) error
}

var exportFormats = map[string]exportFormat{
	"text": {"text/plain; charset=utf-8", "alumnos.txt", func(t *service.Transfer, ctx context.Context, w io.Writer) error {
		_, err := t.WriteText(ctx, w)
		return err
	}},
	"xml": {"application/xml", "grupos.xml", func(t *service.Transfer, ctx context.Context, w io.Writer) error {
		_, err := t.WriteXML(ctx, w)
		return err
	}},
	"json": {"application/json", "grupos.json", func(t *service.Transfer, ctx context.Context, w io.Writer) error {
		_, err := t.WriteJSON(ctx, w)
		return err
	}},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "alumnos.xlsx", func(t *service.Transfer, ctx context.Context, w io.Writer) error {
		_, err := t.WriteXLSX(ctx, w)
		return err
	}},
}

type importReport struct {
	Inserted      int      `json:"inserted"`
	GroupsCreated int      `json:"groupsCreated"`
	Skipped       []string `json:"skipped"`
}

func newImportReport(r service.ImportReport) importReport {
	out := importReport{
		Inserted:      r.Inserted,
		GroupsCreated: r.GroupsCreated,
		Skipped:       []string{},
	}
	for _, err := range multierr.Errors(r.Skipped) {
		out.Skipped = append(out.Skipped, err.Error())
	}
	return out
}

// TransferHandler выгрузка и загрузка файлов обмена через HTTP
type TransferHandler struct {
	transfer *service.Transfer
	logger   *zap.Logger
}

func NewTransferHandler(transfer *service.Transfer, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{transfer: transfer, logger: logger}
}

// send пишет документ в буфер, чтобы ошибка не оставила оборванный ответ
func (h *TransferHandler) send(w http.ResponseWriter, contentType, filename string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		fail(w, err, h.logger)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("❌ Error writing export", zap.Error(err))
	}
}

func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["format"]
	format, ok := exportFormats[name]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown format")
		return
	}
	h.send(w, format.contentType, format.filename, func(out io.Writer) error {
		return format.write(h.transfer, r.Context(), out)
	})
}

func (h *TransferHandler) ExportGroup(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	h.send(w, "application/xml", filepath.Base(h.transfer.GroupXMLPath(name)), func(out io.Writer) error {
		return h.transfer.WriteGroupXML(r.Context(), name, out)
	})
}

func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportSize)

	var (
		report service.ImportReport
		err    error
	)
	switch mux.Vars(r)["format"] {
	case "text":
		report, err = h.transfer.ReadText(r.Context(), body)
	case "xml":
		report, err = h.transfer.ReadXML(r.Context(), body)
	case "json":
		report, err = h.transfer.ReadJSON(r.Context(), body)
	default:
		writeError(w, http.StatusBadRequest, "Unknown format")
		return
	}

	if err != nil {
		if malformed(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, service.ErrNothingImported) {
			writeJSON(w, http.StatusUnprocessableEntity, newImportReport(report), h.logger)
			return
		}
		fail(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, newImportReport(report), h.logger)
}

// malformed ошибка разбора самого документа, а не хранилища
func malformed(err error) bool {
	var (
		xmlErr  *xml.SyntaxError
		jsonErr *json.SyntaxError
		typeErr *json.UnmarshalTypeError
		sizeErr *http.MaxBytesError
	)
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, groupxml.ErrUnknownRoot) ||
		errors.As(err, &xmlErr) ||
		errors.As(err, &jsonErr) ||
		errors.As(err, &typeErr) ||
		errors.As(err, &sizeErr)
}

func (h *TransferHandler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/export/xml/{name}", h.ExportGroup).Methods("GET")
	api.HandleFunc("/export/{format}", h.Export).Methods("GET")
	api.HandleFunc("/import/{format}", h.Import).Methods("POST")
}
