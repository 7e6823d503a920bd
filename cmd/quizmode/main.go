package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/quizmode/internal/client"
	"github.com/pavelanni/quizmode/internal/handler"
	appI18n "github.com/pavelanni/quizmode/internal/i18n"
	"github.com/pavelanni/quizmode/internal/llm"
	"github.com/pavelanni/quizmode/internal/llm/prompts"
	"github.com/pavelanni/quizmode/internal/model"
	"github.com/pavelanni/quizmode/internal/quiz"
	"github.com/pavelanni/quizmode/internal/quizfile"
	"github.com/pavelanni/quizmode/internal/store"
	"github.com/pavelanni/quizmode/internal/tui"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizmode",
		Short: "Quiz sets with a flip-card practice mode",
	}

	serve := serveCmd()
	root.AddCommand(serve, importCmd(), takeCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addStoreFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db-driver", string(store.DriverSQLite), "Database driver (sqlite, postgres)")
	f.String("db", "quizmode.db", "SQLite path or PostgreSQL connection string")
}

func addLogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz backend",
		RunE:  runServe,
	}
	addStoreFlags(cmd)
	addLogFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringSliceP("quiz-files", "q", nil, "Quiz set files to import on start (.json, .xlsx)")
	f.StringP("lang", "l", "en", "Default message language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /quiz)")
	f.StringSlice("allowed-origins", []string{"*"}, "CORS allowed origins")
	f.Int64("max-upload-size", 10<<20, "Maximum quiz file upload size in bytes")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty disables explanations)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("prompt-variant", string(prompts.PromptStandard), "Explanation prompt variant (brief, standard, detailed)")
	f.String("admin-password", "", "Initial admin password (or set QUIZMODE_ADMIN_PASSWORD)")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import quiz sets from .json or .xlsx files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	addStoreFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take <quiz-set-id>",
		Short: "Take a quiz in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runTake,
	}
	addLogFlags(cmd)
	f := cmd.Flags()
	f.StringP("server", "s", "http://localhost:8080", "Backend base URL, including any base path")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.String("filter", string(quiz.FilterAll), "Initial view (all, favorites, answered, unanswered, incorrect)")
	f.String("log-file", filepath.Join(os.TempDir(), "quizmode-take.log"), "Log file (the terminal is used by the UI)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export quiz set results as JSON",
		RunE:  runExport,
	}
	addStoreFlags(cmd)
	addLogFlags(cmd)
	cmd.Flags().StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func setupLogging(v *viper.Viper, w io.Writer) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(w, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(w, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QUIZMODE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizmode")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizmode")
	v.AddConfigPath("/etc/quizmode")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func openStore(v *viper.Viper) (*store.Store, error) {
	driver := store.Driver(strings.ToLower(v.GetString("db-driver")))
	db, err := store.Open(context.Background(), driver, v.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v, os.Stderr)
	ctx := context.Background()

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := seedAdmin(ctx, db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := importFiles(ctx, db, v.GetStringSlice("quiz-files")); err != nil {
		return err
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// A nil interface, not a nil *llm.Client, disables explanations.
	var explainer handler.Explainer
	if url := v.GetString("llm-url"); url != "" {
		llmClient, err := llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"), v.GetString("prompt-variant"))
		if err != nil {
			return fmt.Errorf("create LLM client: %w", err)
		}
		if err := llmClient.Ping(ctx); err != nil {
			slog.Warn("LLM health check failed, explanations may fail", "url", url, "error", err)
		} else {
			slog.Info("LLM endpoint OK", "url", url, "model", v.GetString("llm-model"))
		}
		explainer = llmClient
	} else {
		slog.Info("no LLM configured, explanations disabled")
	}

	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.ServerConfig{
		BasePath:      basePath,
		AllowedOrigin: v.GetStringSlice("allowed-origins"),
		MaxUploadSize: v.GetInt64("max-upload-size"),
	}
	h := handler.New(db, explainer, cfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigin,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Accept-Language"},
		MaxAge:         300,
	}))
	r.Use(appI18n.Middleware)

	if basePath != "" {
		r.Route(basePath, h.Routes)
	} else {
		h.Routes(r)
	}

	count, err := db.QuestionCount(ctx)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"questions", count,
		"addr", addr,
		"db_driver", v.GetString("db-driver"),
		"lang", lang,
		"languages", appI18n.Languages(),
		"base_path", basePath,
		"llm", explainer != nil,
	)
	return http.ListenAndServe(addr, r)
}

func runImport(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)
	setupLogging(v, os.Stderr)
	ctx := context.Background()

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	return importFiles(ctx, db, args)
}

// importFiles loads quiz set files. Unchanged files are skipped; changed ones
// are refused so existing progress stays consistent.
func importFiles(ctx context.Context, db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		imp, err := quizfile.Parse(path, data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		id, created, err := db.ImportQuizSet(ctx, path, store.FileHash(data), imp)
		if errors.Is(err, store.ErrFileChanged) {
			slog.Warn("quiz file changed since last import, skipping to avoid breaking progress", "path", path)
			continue
		}
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		if !created {
			slog.Info("quiz file unchanged, skipping", "path", path, "quiz_set_id", id)
			continue
		}
		slog.Info("imported quiz set", "path", path, "quiz_set_id", id, "questions", len(imp.Questions))
	}
	return nil
}

func runTake(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)

	quizSetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || quizSetID <= 0 {
		return fmt.Errorf("invalid quiz set id %q", args[0])
	}

	logFile, err := os.OpenFile(v.GetString("log-file"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	setupLogging(v, logFile)

	filter, err := quiz.ParseFilter(v.GetString("filter"))
	if err != nil {
		return err
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	c := client.New(strings.TrimRight(v.GetString("server"), "/"))
	if _, err := c.GetQuizSet(context.Background(), quizSetID); err != nil {
		return fmt.Errorf("quiz set %d: %w", quizSetID, err)
	}
	slog.Info("starting quiz", "server", v.GetString("server"), "quiz_set_id", quizSetID)
	return tui.Run(c, quizSetID, lang, filter)
}

func runExport(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v, os.Stderr)

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	export, err := db.ExportResults(context.Background())
	if err != nil {
		return fmt.Errorf("export results: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

func seedAdmin(ctx context.Context, db *store.Store, password string) error {
	count, err := db.UserCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		slog.Warn("no users and no admin password set; admin routes are unusable until --admin-password is given")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(ctx, model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
