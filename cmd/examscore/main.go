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
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/examscore/internal/advisory"
	"github.com/pavelanni/examscore/internal/examfile"
	"github.com/pavelanni/examscore/internal/handler"
	appI18n "github.com/pavelanni/examscore/internal/i18n"
	"github.com/pavelanni/examscore/internal/llm"
	"github.com/pavelanni/examscore/internal/llm/prompts"
	"github.com/pavelanni/examscore/internal/model"
	"github.com/pavelanni/examscore/internal/scoring"
	"github.com/pavelanni/examscore/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examscore",
		Short: "Exam scoring and answer review service",
	}

	serve := serveCmd()
	root.AddCommand(serve, importCmd(), scoreCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `examscore --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addStoreFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db-driver", string(store.DriverSQLite), "Database driver (sqlite, postgres)")
	f.String("db", "examscore.db", "SQLite database path or Postgres DSN")
}

func addLogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP scoring API",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringSliceP("exams", "e", nil, "Exam definition files (JSON or YAML) to import on start (repeatable)")
	f.StringP("lang", "l", "en", "Default language for rendered answers (en, ru)")
	f.StringSlice("cors-origins", nil, "Allowed CORS origins (repeatable; empty disables CORS)")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "", "LLM model name (empty disables AI grade suggestions)")
	f.String("prompt-variant", string(prompts.PromptStandard), "Grading prompt variant (strict, standard, lenient)")
	addStoreFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import exam definition files into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	cmd.Flags().Bool("force", false, "Replace questions of exams that already have results")
	addStoreFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an answers file against a stored exam",
		RunE:  runScore,
	}
	f := cmd.Flags()
	f.String("exam-id", "", "Exam to score against (required)")
	f.String("examinee", "", "Examinee identifier recorded with the result")
	f.StringP("answers", "i", "-", "Answers JSON file, an object keyed by question id (- for stdin)")
	addStoreFlags(cmd)
	addLogFlags(cmd)

	_ = cmd.MarkFlagRequired("exam-id")

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reviewed exam results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("exam-id", "", "Exam whose results are exported (required)")
	f.StringP("lang", "l", "en", "Language for rendered answers (en, ru)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addStoreFlags(cmd)
	addLogFlags(cmd)

	_ = cmd.MarkFlagRequired("exam-id")

	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

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
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examscore")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examscore")
	v.AddConfigPath("/etc/examscore")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func openStore(ctx context.Context, v *viper.Viper) (*store.Store, error) {
	driver := store.Driver(strings.ToLower(v.GetString("db-driver")))
	db, err := store.Open(ctx, driver, v.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer db.Close()

	if paths := v.GetStringSlice("exams"); len(paths) > 0 {
		if _, err := examfile.Import(ctx, db, paths, false); err != nil {
			return fmt.Errorf("import exams: %w", err)
		}
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	promptVariant := strings.ToLower(strings.TrimSpace(v.GetString("prompt-variant")))
	if !prompts.IsValidVariant(promptVariant) {
		slog.Warn("invalid prompt-variant, using standard", "variant", promptVariant)
		promptVariant = string(prompts.PromptStandard)
	}

	var suggester advisory.Suggester
	if modelName := v.GetString("llm-model"); modelName != "" {
		llmClient, err := llm.New(v.GetString("llm-url"), v.GetString("llm-key"), modelName, promptVariant)
		if err != nil {
			return fmt.Errorf("create LLM client: %w", err)
		}
		if err := llmClient.Ping(ctx); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", modelName)
		suggester = llmClient
	} else {
		slog.Info("no LLM model configured, AI grade suggestions disabled")
	}

	cfg := model.ServerConfig{
		Lang:          lang,
		CORSOrigins:   v.GetStringSlice("cors-origins"),
		PromptVariant: promptVariant,
	}
	h, err := handler.New(db, suggester, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"db_driver", v.GetString("db-driver"),
			"lang", lang,
			"llm_model", v.GetString("llm-model"),
			"prompt_variant", promptVariant,
			"cors_origins", cfg.CORSOrigins,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	db, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := examfile.Import(ctx, db, args, v.GetBool("force"))
	if err != nil {
		return err
	}
	slog.Info("import finished", "files", len(args), "imported", n)
	return nil
}

func runScore(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	data, err := readInput(v.GetString("answers"))
	if err != nil {
		return fmt.Errorf("read answers: %w", err)
	}
	var answers model.SubmittedAnswers
	if err := json.Unmarshal(data, &answers); err != nil {
		return fmt.Errorf("parse answers: %w", err)
	}

	db, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := scoring.New(db).ScoreSubmission(ctx, v.GetString("exam-id"), v.GetString("examinee"), answers)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), "-", result)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	ctx := appI18n.WithLang(cmd.Context(), lang)

	db, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer db.Close()

	export, err := db.ExportExam(ctx, v.GetString("exam-id"))
	if err != nil {
		return fmt.Errorf("export results: %w", err)
	}

	if err := writeOutput(cmd.OutOrStdout(), v.GetString("output"), export); err != nil {
		return err
	}
	slog.Info(appI18n.Tp(ctx, "ResultsExported", export.NumResults), "exam", export.ExamID)
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(stdout io.Writer, outPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	w := stdout
	if outPath != "" && outPath != "-" {
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
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}
