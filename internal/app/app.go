package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voiceflow/voiceflow/internal/cli"
	"github.com/voiceflow/voiceflow/internal/clock"
	"github.com/voiceflow/voiceflow/internal/config"
	"github.com/voiceflow/voiceflow/internal/doctor"
	"github.com/voiceflow/voiceflow/internal/identity"
	"github.com/voiceflow/voiceflow/internal/indicator"
	"github.com/voiceflow/voiceflow/internal/ipc"
	"github.com/voiceflow/voiceflow/internal/logging"
	"github.com/voiceflow/voiceflow/internal/output"
	"github.com/voiceflow/voiceflow/internal/segment"
	"github.com/voiceflow/voiceflow/internal/session"
	"github.com/voiceflow/voiceflow/internal/source"
	"github.com/voiceflow/voiceflow/internal/tui"
	"github.com/voiceflow/voiceflow/internal/version"
)

const forwardTimeout = 220 * time.Millisecond

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
	// Clipboard replaces the system clipboard for exports when set.
	Clipboard output.ClipboardFunc
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args, r.Stdout)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("voiceflow"))
		return 2
	}

	if parsed.ShowHelp {
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logRuntime, err := logging.New(cfgLoaded.Config.Log.Level)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", zap.String("message", w.Message))
	}

	logger.Info("command start",
		zap.String("command", string(parsed.Command)),
		zap.String("config", cfgLoaded.Path),
		zap.String("log", logRuntime.Path),
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandServe:
		return r.commandServe(ctx, cfgLoaded.Config, parsed.Script, logger)
	case cli.CommandTUI:
		return r.commandTUI(ctx, cfgLoaded.Config, parsed, logger)
	case cli.CommandStatus:
		return r.commandStatus(ctx, cfgLoaded.Config)
	case cli.CommandStart:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandStart})
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandStop})
	case cli.CommandTranscribe:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandTranscribe})
	case cli.CommandAttach:
		return r.commandAttach(ctx, parsed.File)
	case cli.CommandSegments:
		return r.commandSegments(ctx)
	case cli.CommandExport:
		return r.commandExport(ctx, cfgLoaded.Config, parsed.OutputDir, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// buildController wires the session controller from config.
func buildController(cfg config.Config, scriptOverride string, observer session.Observer, logger *zap.Logger) (*session.Controller, error) {
	script := source.DemoScript()
	scriptPath := strings.TrimSpace(scriptOverride)
	if scriptPath == "" {
		scriptPath = strings.TrimSpace(cfg.Live.Script)
	}
	if scriptPath != "" {
		loaded, err := source.LoadScript(scriptPath)
		if err != nil {
			return nil, err
		}
		script = loaded
	}

	sched := clock.Real{}
	return session.NewController(session.Options{
		Scheduler:    sched,
		TickInterval: cfg.TickInterval(),
		Live:         source.NewLive(sched, script),
		Batch: source.NewBatch(sched, script, source.BatchOptions{
			ProcessingDelay: cfg.ProcessingDelay(),
			MaxBytes:        cfg.Upload.MaxBytes,
			Formats:         cfg.Upload.Formats,
		}),
		NameTemplate: cfg.Export.FilenameTemplate,
		Observer:     observer,
		Logger:       logger,
	}), nil
}

func (r Runner) commandServe(ctx context.Context, cfg config.Config, script string, logger *zap.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	controller, err := buildController(cfg, script, indicator.NewNotifier(r.Stderr, logger), logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	fmt.Fprintf(r.Stdout, "serving on %s\n", socketPath)
	logger.Info("session server started", zap.String("socket", socketPath))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ipc.Serve(gctx, listener, controller)
	})
	g.Go(func() error {
		<-gctx.Done()
		controller.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("session server failed", zap.Error(err))
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", err)
		return 1
	}

	snap := controller.Snapshot()
	logger.Info("session server stopped",
		zap.String("state", string(snap.State)),
		zap.Int("elapsed", snap.Elapsed),
		zap.Int("segments", len(snap.Segments)),
		zap.Int("stale_drops", snap.StaleDrops),
	)
	return 0
}

func (r Runner) commandTUI(ctx context.Context, cfg config.Config, parsed cli.Parsed, logger *zap.Logger) int {
	controller, err := buildController(cfg, parsed.Script, indicator.NewNotifier(nil, logger), logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer controller.Shutdown()

	if parsed.File != "" {
		meta, err := statUpload(parsed.File)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if err := controller.AttachUpload(meta); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
	}

	writer := output.NewWriter(cfg.Export, r.Clipboard, logger)
	model := tui.New(ctx, controller, writer, identity.FromConfig(cfg.User))
	if err := tui.Run(ctx, model); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (r Runner) commandStatus(ctx context.Context, cfg config.Config) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, err := ipc.Call(ctx, socketPath, ipc.Request{Command: ipc.CommandStatus}, forwardTimeout)
	if errors.Is(err, ipc.ErrNoServer) {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if resp.State == "" {
		resp.State = "idle"
	}
	fmt.Fprintln(r.Stdout, resp.State)
	fmt.Fprintf(r.Stdout, "elapsed: %s\n", tui.FormatElapsed(resp.Elapsed))
	fmt.Fprintf(r.Stdout, "segments: %d\n", len(resp.Segments))
	if resp.Upload != nil {
		fmt.Fprintf(r.Stdout, "file: %s (%s)\n", resp.Upload.Name, humanize.IBytes(uint64(resp.Upload.Size)))
	}
	if resp.Message != "" {
		fmt.Fprintf(r.Stdout, "last error: %s\n", resp.Message)
	}
	if user, ok := identity.FromConfig(cfg.User).CurrentUser(ctx); ok {
		fmt.Fprintf(r.Stdout, "user: %s\n", user.Label())
	}
	return 0
}

func (r Runner) commandAttach(ctx context.Context, path string) int {
	meta, err := statUpload(path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandAttach, Upload: &meta}, func(ipc.Response) {
		fmt.Fprintf(r.Stdout, "size: %s\n", humanize.IBytes(uint64(meta.Size)))
	})
}

func (r Runner) commandSegments(ctx context.Context) int {
	return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandSegments}, func(resp ipc.Response) {
		for _, seg := range resp.Segments {
			fmt.Fprintln(r.Stdout, formatSegment(seg))
		}
	})
}

func (r Runner) commandExport(ctx context.Context, cfg config.Config, outputDir string, logger *zap.Logger) int {
	writer := output.NewWriter(cfg.Export, r.Clipboard, logger).WithDir(outputDir)
	exitCode := 0
	code := r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandExport}, func(resp ipc.Response) {
		if resp.Artifact == nil {
			fmt.Fprintln(r.Stderr, "error: export returned no artifact")
			exitCode = 1
			return
		}
		path, err := writer.Write(*resp.Artifact)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			exitCode = 1
			return
		}
		fmt.Fprintln(r.Stdout, path)
	})
	if code != 0 {
		return code
	}
	return exitCode
}

// forwardOrFail sends req to the active session and prints its message.
// onOK runs after a successful response.
func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request, onOK ...func(ipc.Response)) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, err := ipc.Call(ctx, socketPath, req, forwardTimeout)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	for _, fn := range onOK {
		fn(resp)
	}
	return 0
}

// statUpload reads the metadata of a local audio file; contents are never read.
func statUpload(path string) (source.FileMeta, error) {
	info, err := os.Stat(path)
	if err != nil {
		return source.FileMeta{}, fmt.Errorf("attach %q: %w", path, err)
	}
	if info.IsDir() {
		return source.FileMeta{}, fmt.Errorf("attach %q: is a directory", path)
	}
	return source.FileMeta{Name: filepath.Base(path), Size: info.Size()}, nil
}

func formatSegment(seg segment.Segment) string {
	line := fmt.Sprintf("[%s] %s\n    %s · %.1f%%", seg.Timestamp, seg.Text, seg.Emotion, seg.Confidence)
	if len(seg.Keywords) > 0 {
		line += " · " + strings.Join(seg.Keywords, ", ")
	}
	return line
}
