package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/schollz/progressbar/v3"

	"github.com/zombor/invoice-renamer/internal/invoice"
	"github.com/zombor/invoice-renamer/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	fs := ff.NewFlagSet("rename-invoices")
	var (
		visionType    = fs.StringLong("vision", "openai", "Vision provider: 'openai', 'gemini' or 'ollama'")
		openaiKey     = fs.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openaiURL     = fs.StringLong("openai-url", scanning.DefaultOpenAIBaseURL, "OpenAI-compatible API base URL")
		openaiModel   = fs.StringLong("openai-model", scanning.DefaultOpenAIModel, "OpenAI model name")
		maxTokens     = fs.IntLong("max-tokens", scanning.DefaultOpenAIMaxTokens, "Generation cap for the vision model")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		tesseractBin  = fs.StringLong("tesseract", "tesseract", "Tesseract binary used for the OCR fallback")
		tesseractLang = fs.StringLong("tesseract-lang", "eng", "Tesseract language")
		dbPath        = fs.StringLong("db", "", "History database path (default <folder>/"+invoice.ProcessedDir+"/"+invoice.HistoryFile+")")
		timeout       = fs.DurationLong("timeout", 0, "Timeout per vision request (0 for none)")
		showHistory   = fs.BoolLong("history", "Print the run history of the folder and exit")
		quiet         = fs.BoolLong("quiet", "Don't show the progress bar")
		debug         = fs.BoolLong("debug", "Enable debug logging")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RENAME_INVOICES"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	args := fs.GetArgs()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs, "rename-invoices [FLAGS] <folder>"))
		fmt.Fprintf(os.Stderr, "error: expected exactly one folder argument, got %d\n", len(args))
		os.Exit(1)
	}
	folder := args[0]

	if *debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if *dbPath == "" {
		*dbPath = invoice.HistoryPath(folder)
	}

	if *showHistory {
		if err := showRunHistory(*dbPath); err != nil {
			slog.Error("Failed to read history", "path", *dbPath, "error", err)
			os.Exit(1)
		}
		return
	}

	// Initialize folder layout
	layout, err := invoice.NewLayout(folder)
	if err != nil {
		slog.Error("Failed to initialize folder layout", "folder", folder, "error", err)
		os.Exit(1)
	}

	// Initialize history
	db, err := invoice.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize history database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize vision provider based on type
	var vision scanning.Vision
	switch *visionType {
	case "openai":
		apiKey := *openaiKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			slog.Warn("No OpenAI API key set; requests will fail and fall back to OCR")
		}
		slog.Debug("Initializing OpenAI vision...", "model", *openaiModel, "url", *openaiURL)
		vision = scanning.NewOpenAI(scanning.OpenAIConfig{
			APIKey:    apiKey,
			BaseURL:   *openaiURL,
			Model:     *openaiModel,
			MaxTokens: *maxTokens,
			Timeout:   *timeout,
		})
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Debug("Initializing Gemini vision...", "model", *geminiModel)
		vision, err = scanning.NewGemini(apiKey, *geminiModel, *maxTokens, *timeout)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Debug("Initializing Ollama vision...", "url", *ollamaURL, "model", *ollamaModel)
		vision = scanning.NewOllama(*ollamaURL, *ollamaModel, *maxTokens, *timeout)
	default:
		slog.Error("Invalid vision type", "type", *visionType, "valid", "openai, gemini or ollama")
		os.Exit(1)
	}
	defer vision.Close()

	ocr := scanning.NewOCR(scanning.NewTesseract(*tesseractBin, *tesseractLang), "")
	pipeline := scanning.NewPipeline(vision, ocr, "")
	service := invoice.NewService(pipeline, layout, db)

	if !*quiet {
		service.WithProgress(progressbar.NewOptions(0,
			progressbar.OptionSetDescription("Processing invoices"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := service.ProcessFolder(ctx)
	if summary == nil {
		slog.Error("Failed to process folder", "folder", folder, "error", err)
		os.Exit(1)
	}
	if err != nil {
		slog.Warn("Stopped before all files were processed", "error", err)
	}

	printSummary(summary)
}

func printSummary(summary *invoice.Summary) {
	if len(summary.Failed) == 0 {
		fmt.Println("\nAll files processed successfully!")
		return
	}

	fmt.Println("\nThe following files encountered errors and need examination:")
	for _, path := range summary.Failed {
		fmt.Println(path)
	}
}

// showRunHistory prints the saved runs without touching the folder.
// A folder that was never processed has no history yet.
func showRunHistory(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		printHistory(nil)
		return nil
	}

	db, err := invoice.NewBoltDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := invoice.NewService(nil, nil, db).History()
	if err != nil {
		return err
	}
	printHistory(records)
	return nil
}

func printHistory(records []*invoice.Record) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSTATUS\tSOURCE FILE\tPROCESSED FILE\tEXTRACTOR\tERROR")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Status,
			r.SourceFile,
			r.ProcessedFile,
			r.Source,
			r.Error,
		)
	}
	w.Flush()
}
