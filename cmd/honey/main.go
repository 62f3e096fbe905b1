package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dooshek/honey/internal/archive"
	"github.com/dooshek/honey/internal/audio"
	"github.com/dooshek/honey/internal/bolt"
	"github.com/dooshek/honey/internal/config"
	"github.com/dooshek/honey/internal/fileops"
	"github.com/dooshek/honey/internal/generation"
	"github.com/dooshek/honey/internal/llm"
	"github.com/dooshek/honey/internal/logger"
	"github.com/dooshek/honey/internal/prompt"
	"github.com/dooshek/honey/internal/storage"
	"github.com/dooshek/honey/internal/store"
	"github.com/dooshek/honey/internal/tts"
	"github.com/dooshek/honey/internal/types"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

func init() {
	// Set custom usage message to show -- prefix
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(out, "  --%s", f.Name)
			name, usage := flag.UnquoteUsage(f)
			if len(name) > 0 {
				fmt.Fprintf(out, " %s", name)
			}
			fmt.Fprintf(out, "\n    \t%s", usage)
			if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
				fmt.Fprintf(out, " (default %q)", f.DefValue)
			}
			fmt.Fprintf(out, "\n")
		})
	}
}

func main() {
	runWizard := flag.Bool("wizard", false, "Run the configuration wizard")
	history := flag.Int("history", 0, "Print the last `N` generations and exit")
	logLevel := flag.String("log-level", "info", "Set log level (debug|info|warn|error)")
	logFilename := flag.String("log-filename", "", "Log to file instead of stderr")
	flag.Parse()

	if flag.NArg() > 0 || *history < 0 {
		flag.Usage()
		os.Exit(exitUsage)
	}

	logger.SetLevel(*logLevel)
	if *logFilename != "" {
		if err := logger.SetOutputFile(*logFilename); err != nil {
			fmt.Printf("Error setting log file: %v\n", err)
			os.Exit(exitFailure)
		}
		defer logger.CloseLogFile()
	}

	if err := config.LoadEnv(".env"); err != nil {
		logger.Error("Error loading .env", err)
		os.Exit(exitFailure)
	}

	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		logger.Error("Failed to initialize file operations", err)
		os.Exit(exitFailure)
	}

	if *runWizard {
		if err := config.RunWizard(fileOps, os.Stdin, os.Stdout); err != nil {
			logger.Error("Error running wizard", err)
			os.Exit(exitFailure)
		}
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(fileOps)
	if err != nil {
		logger.Error("Error loading config", err)
		os.Exit(exitFailure)
	}
	if cfg == nil {
		logger.Info("No configuration found, using defaults. Run `honey --wizard` to change them")
		cfg = &types.Config{}
	}
	config.ApplyEnv(cfg)
	fileOps.WithDataDir(cfg.GetStoreConfig().DataDir)

	if err := fileOps.EnsureDirectories(); err != nil {
		logger.Error("Failed to create necessary directories", err)
		os.Exit(exitFailure)
	}

	if err := fileOps.CheckPID(); err != nil {
		if errors.Is(err, fileops.ErrProcessAlreadyRunning) {
			logger.Error("Another instance of honey is already running", err)
			os.Exit(exitFailure)
		}
	}
	if err := fileOps.SavePID(); err != nil {
		logger.Error("Failed to save PID file", err)
		os.Exit(exitFailure)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	if *history > 0 {
		err = showHistory(cfg, fileOps, *history, os.Stdout)
	} else {
		err = generate(ctx, cfg, fileOps, os.Stdin, os.Stdout)
	}

	stop()
	if cerr := fileOps.CleanupPID(); cerr != nil {
		logger.Error("Failed to cleanup PID file", cerr)
	}

	if err != nil {
		logger.Error("Generation failed", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a failed run to the process exit status
func exitCode(err error) int {
	if errors.Is(err, prompt.ErrCategoryRequired) {
		return exitUsage
	}
	return exitFailure
}

// openStore opens the configured record store. The returned close function
// is never nil.
func openStore(cfg *types.Config, fileOps *fileops.DefaultFileOps) (*store.Store, func(), error) {
	backend := cfg.GetStoreConfig().Backend
	path := fileOps.DatabasePath(backend)

	switch types.StoreBackend(backend) {
	case types.StoreBolt:
		db := bolt.NewDB(path)
		if err := db.Open(); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", generation.ErrStore, err)
		}
		st, err := store.Open(db)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("%w: %w", generation.ErrStore, err)
		}
		return st, func() { db.Close() }, nil

	case types.StoreJSON:
		st, err := store.Open(store.NewFilePersister(path))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", generation.ErrStore, err)
		}
		return st, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store backend: %s (supported: json, bolt)", backend)
	}
}

func generate(ctx context.Context, cfg *types.Config, fileOps *fileops.DefaultFileOps, in io.Reader, out io.Writer) error {
	answers, err := prompt.New(in, out).Collect()
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(cfg, fileOps)
	if err != nil {
		return err
	}
	defer closeStore()

	httpClient := &http.Client{Timeout: time.Duration(cfg.GetHTTPTimeoutSeconds()) * time.Second}

	llmConfig := cfg.GetLLMConfig()
	provider, err := llm.NewProvider(llmConfig, cfg.Credentials, httpClient)
	if err != nil {
		return err
	}

	ttsConfig := cfg.GetTTSConfig()
	speech, err := tts.NewManager(ttsConfig, cfg.Credentials, httpClient)
	if err != nil {
		return err
	}

	storageConfig := cfg.GetStorageConfig()
	audioStore, closeStorage, err := storage.New(ctx, storageConfig, cfg.Credentials, fileOps.GetAudioDir())
	if err != nil {
		return err
	}
	defer closeStorage()

	svc := generation.New(st, archive.New(fileOps.TextsPath()), llm.NewGenerator(provider, llmConfig), speech, audioStore).
		WithTranscoder(audio.NewTranscoder(), tts.AudioFormat(ttsConfig.Format)).
		WithKeyFunc(func(ext string) string {
			return storage.ObjectKey(storageConfig.Prefix, ext)
		})

	logger.Debugf("Generating with %s text and %s speech, storing to %s", llmConfig.Provider, speech.ProviderName(), storageConfig.Backend)

	res, err := svc.Generate(ctx, generation.Request{
		Language:    answers.Language,
		VoiceGender: answers.VoiceGender,
		UserName:    answers.UserName,
		UserGender:  answers.UserGender,
		Category:    answers.Category,
	})
	if err != nil {
		return err
	}

	printResult(out, res)
	return nil
}

func showHistory(cfg *types.Config, fileOps *fileops.DefaultFileOps, n int, out io.Writer) error {
	st, closeStore, err := openStore(cfg, fileOps)
	if err != nil {
		return err
	}
	defer closeStore()

	return printHistory(out, st, archive.New(fileOps.TextsPath()), n)
}
