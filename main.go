package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/uber-go/tally/v4"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"

	"student-records/config"
	"student-records/console"
	"student-records/database"
	"student-records/handlers"
	"student-records/logger"
	"student-records/middleware"
	"student-records/repository"
	"student-records/repository/memstore"
	"student-records/repository/ormstore"
	"student-records/repository/sqlstore"
	"student-records/service"
)

var (
	app = kingpin.New("students", "Student and group records over PostgreSQL")

	configPath = app.Flag("config", "path to the YAML configuration file").
		Short('c').
		Envar("STUDENTS_CONFIG").
		String()
	backend = app.Flag("backend", "storage backend: sql, orm or memory (overrides the configuration)").
		Short('b').
		Enum(config.BackendSQL, config.BackendORM, config.BackendMemory)

	consoleCmd = app.Command("console", "interactive menu").Default()

	serveCmd  = app.Command("serve", "HTTP API")
	servePort = serveCmd.Flag("port", "port to listen on (overrides server.port)").Int()

	exportTextCmd = app.Command("export-text", "write all students to the text file")
	importTextCmd = app.Command("import-text", "read students from the text file")

	exportXMLCmd      = app.Command("export-xml", "write all groups to the XML file")
	exportGroupXMLCmd = app.Command("export-group-xml", "write one group to grupo_<NAME>.xml")
	exportGroupName   = exportGroupXMLCmd.Arg("group", "group name").Required().String()
	importXMLCmd      = app.Command("import-xml", "read groups and students from an XML file")
	importXMLPath     = importXMLCmd.Arg("file", "XML file, defaults to files.xml").String()

	exportJSONCmd  = app.Command("export-json", "write all groups to the JSON file")
	importJSONCmd  = app.Command("import-json", "read groups and students from a JSON file")
	importJSONPath = importJSONCmd.Arg("file", "JSON file, defaults to files.json").String()

	exportXLSXCmd = app.Command("export-xlsx", "write a spreadsheet with one sheet per group")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *servePort != 0 {
		cfg.Server.Port = *servePort
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, command, cfg, log); err != nil {
		log.Error("❌ Command failed", zap.String("command", command), zap.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, cfg *config.Config, log *zap.Logger) (err error) {
	scope, scopeCloser := tally.NewRootScope(tally.ScopeOptions{
		Prefix:   "students",
		Tags:     map[string]string{"backend": cfg.Backend},
		Reporter: tally.NullStatsReporter,
	}, time.Second)
	defer func() { err = multierr.Append(err, scopeCloser.Close()) }()

	store, closeStore, err := openStore(ctx, cfg, log, scope)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeStore()) }()

	if _, err := database.SeedGroups(ctx, store, cfg.SeedGroups, log); err != nil {
		return err
	}

	files := transferConfig(cfg.Files)
	transfer := service.NewTransfer(store, files, nil, log, scope)

	switch command {
	case consoleCmd.FullCommand():
		return console.New(store, files, os.Stdin, os.Stdout, log, scope).Run(ctx)
	case serveCmd.FullCommand():
		return serve(ctx, cfg.Server, store, transfer, log, scope)
	case exportTextCmd.FullCommand():
		n, err := transfer.ExportText(ctx)
		return done(log, "✅ Text file written", err, zap.String("file", files.TextFile), zap.Int("students", n))
	case importTextCmd.FullCommand():
		report, err := transfer.ImportText(ctx)
		return imported(log, files.TextFile, report, err)
	case exportXMLCmd.FullCommand():
		n, err := transfer.ExportXML(ctx)
		return done(log, "✅ XML file written", err, zap.String("file", files.XMLFile), zap.Int("groups", n))
	case exportGroupXMLCmd.FullCommand():
		path, err := transfer.ExportGroupXML(ctx, *exportGroupName)
		return done(log, "✅ Group XML file written", err, zap.String("file", path))
	case importXMLCmd.FullCommand():
		path := orDefault(*importXMLPath, files.XMLFile)
		report, err := transfer.ImportXML(ctx, path)
		return imported(log, path, report, err)
	case exportJSONCmd.FullCommand():
		n, err := transfer.ExportJSON(ctx)
		return done(log, "✅ JSON file written", err, zap.String("file", files.JSONFile), zap.Int("groups", n))
	case importJSONCmd.FullCommand():
		path := orDefault(*importJSONPath, files.JSONFile)
		report, err := transfer.ImportJSON(ctx, path)
		return imported(log, path, report, err)
	case exportXLSXCmd.FullCommand():
		n, err := transfer.ExportXLSX(ctx)
		return done(log, "✅ Spreadsheet written", err, zap.String("file", files.XLSXFile), zap.Int("groups", n))
	}
	return fmt.Errorf("unknown command %q", command)
}

// openStore подключает выбранный бэкенд и готовит схему
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger, scope tally.Scope) (repository.Store, func() error, error) {
	switch cfg.Backend {
	case config.BackendSQL:
		db, err := database.OpenSQL(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureSchema(ctx, db, log); err != nil {
			return nil, nil, multierr.Append(err, db.Close())
		}
		return sqlstore.New(db, log, scope), db.Close, nil

	case config.BackendORM:
		db, err := database.OpenGORM(cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db.WithContext(ctx), log); err != nil {
			return nil, nil, multierr.Append(err, sqlDB.Close())
		}
		return ormstore.New(db, log, scope), sqlDB.Close, nil

	case config.BackendMemory:
		log.Warn("⚠️ Using in-memory storage, data is lost on exit")
		return memstore.New(log, scope), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func transferConfig(files config.FilesConfig) service.Config {
	return service.Config{
		TextFile:            files.Text,
		XMLFile:             files.XML,
		GroupXMLPattern:     files.XMLGroupPattern,
		JSONFile:            files.JSON,
		XLSXFile:            files.XLSX,
		CreateMissingGroups: files.CreateMissingGroups,
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func done(log *zap.Logger, msg string, err error, fields ...zap.Field) error {
	if err != nil {
		return err
	}
	log.Info(msg, fields...)
	return nil
}

func imported(log *zap.Logger, path string, report service.ImportReport, err error) error {
	if err != nil {
		return err
	}
	log.Info("✅ Import finished",
		zap.String("file", path),
		zap.Int("inserted", report.Inserted),
		zap.Int("groups_created", report.GroupsCreated),
		zap.Int("skipped", report.SkippedCount()))
	return nil
}

func serve(ctx context.Context, cfg config.ServerConfig, store repository.Store, transfer *service.Transfer, log *zap.Logger, scope tally.Scope) error {
	r := mux.NewRouter()
	r.Use(middleware.CORS(log))
	r.Use(middleware.Logging(log, scope))

	api := r.PathPrefix("/api").Subrouter()
	handlers.NewStudentHandler(store, log).RegisterRoutes(api)
	handlers.NewGroupHandler(store, log).RegisterRoutes(api)
	handlers.NewTransferHandler(transfer, log).RegisterRoutes(api)

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("✅ Server started", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "student-records", "timestamp": %q}`, time.Now().Format(time.RFC3339))
}
