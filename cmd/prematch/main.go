package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/username/prematch/internal/config"
	"github.com/username/prematch/internal/provider"
	"github.com/username/prematch/internal/schedule"
	"github.com/username/prematch/internal/store"
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "prematch",
		Short: "School block schedule calendar",
		Long:  "Resolve rotating block schedules, look up teachers and keep daily briefings scheduled",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Daemon.LogFile != "" {
				logger = initFileLogger(cfg.Daemon.LogFile, cfg.Daemon.GetLogLevel())
			} else {
				logger = initLogger(cfg.Daemon.GetLogLevel())
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")

	root.AddCommand(
		importCalendarCmd(),
		importScheduleCmd(),
		dayCmd(),
		nextCmd(),
		teacherCmd(),
		nowCmd(),
		briefingCmd(),
		pendingCmd(),
		renewCmd(),
		exportCmd(),
		daemonCmd(),
	)
	return root
}

// app is everything a command needs, opened from the loaded config.
type app struct {
	store    store.Store
	provider *provider.Provider
}

func openApp(ctx context.Context) (*app, error) {
	loc, err := cfg.Calendar.GetLocation()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store.GetType(), cfg.Store.Path, cfg.Store.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	p := provider.New(st, loc, logger)

	err = p.Load(ctx)
	if errors.Is(err, provider.ErrNoCalendar) && cfg.Calendar.DefinitionFile != "" {
		err = seed(ctx, p)
	}
	if err != nil && !errors.Is(err, provider.ErrNoCalendar) {
		st.Close()
		return nil, err
	}

	return &app{store: st, provider: p}, nil
}

// seed imports the configured definition and schedule files into an empty store.
func seed(ctx context.Context, p *provider.Provider) error {
	logger.Info("Store is empty, importing configured definition",
		zap.String("file", cfg.Calendar.DefinitionFile))

	data, err := os.ReadFile(cfg.Calendar.DefinitionFile)
	if err != nil {
		return fmt.Errorf("failed to read definition: %w", err)
	}
	cal, err := p.StoreCalendar(ctx, data)
	if err != nil {
		return err
	}

	if cfg.Calendar.ScheduleFile == "" {
		return nil
	}
	data, err = os.ReadFile(cfg.Calendar.ScheduleFile)
	if err != nil {
		return fmt.Errorf("failed to read schedule: %w", err)
	}
	sched, err := schedule.FromJSON(data, cal)
	if err != nil {
		return err
	}
	_, err = p.StoreSchedule(ctx, sched.Mapping())
	return err
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) resources() (provider.Resources, error) {
	res, err := a.provider.Current()
	if errors.Is(err, provider.ErrNoCalendar) {
		return res, fmt.Errorf("%w: run import-calendar first", err)
	}
	return res, err
}

func initLogger(level zapcore.Level) *zap.Logger {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	return l
}

func initFileLogger(logFile string, level zapcore.Level) *zap.Logger {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		level,
	)
	return zap.New(core)
}

func printf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(w, format, a...)
}
