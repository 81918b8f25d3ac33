// recover 从原始存储镜像中按 512 字节块恢复 JPEG 文件.
//
// 用法: recover <image>
// 恢复的文件写入当前目录下的 recovered_images/, 依次命名为 000.jpg, 001.jpg, ...
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/kisun-bit/drcarve/carve"
	"github.com/kisun-bit/drcarve/manifest"
	"github.com/kisun-bit/drcarve/util"
	"github.com/kisun-bit/drcarve/util/basic"
	"github.com/kisun-bit/drcarve/util/logger"
	"github.com/kisun-bit/drcarve/volume"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"
)

const (
	AppVersion = "0.3.0"

	DefaultOutputDir = "recovered_images"
)

const (
	exitOK = iota
	exitUsage
	exitSource
	exitDirectory
	exitScan
)

var logLevels = []string{"debug", "info", "warn", "error"}

type CLI struct {
	Image     string           `arg:"" name:"image" help:"Raw forensic image (or block device) to recover JPEGs from"`
	Out       string           `short:"o" default:"${outdir}" env:"DRCARVE_OUT" help:"Directory the recovered images are written to"`
	Offset    int64            `default:"0" help:"Byte offset in the image where scanning starts"`
	Length    int64            `default:"0" help:"Number of bytes to scan from the offset (0 = to the end)"`
	Partition int              `default:"0" help:"Scan only this MBR/GPT partition of the image (1-based, 0 = whole image)"`
	Report    string           `env:"DRCARVE_REPORT" help:"Write a JSON manifest of the carved files to this path"`
	Verify    string           `placeholder:"MANIFEST" help:"Compare the carved files with a manifest saved by an earlier --report run"`
	HashCores int              `default:"4" help:"Concurrent workers used to hash carved files"`
	Progress  time.Duration    `default:"5s" help:"Interval between progress lines (0 disables)"`
	LogLevel  string           `default:"info" env:"DRCARVE_LOG_LEVEL" help:"One of debug, info, warn, error"`
	PprofPort int              `default:"0" env:"DRCARVE_PPROF_PORT" help:"Serve pprof on this port while scanning (0 disables)"`
	Version   kong.VersionFlag `help:"Show version information"`
}

type exitCode int

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) (code int) {
	var cli CLI
	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	parser, err := kong.New(&cli,
		kong.Name("recover"),
		kong.Description("Recover JPEG images from a raw storage dump by carving block-aligned runs"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
		kong.Vars{
			"version": AppVersion,
			"outdir":  DefaultOutputDir,
		},
	)
	if err != nil {
		fmt.Fprintf(stderr, "recover: %v\n", err)
		return exitUsage
	}
	if _, err = parser.Parse(args); err != nil {
		parser.Errorf("%s", err)
		fmt.Fprintln(stderr, "Usage: recover <image>")
		return exitUsage
	}
	if !funk.ContainsString(logLevels, strings.ToLower(cli.LogLevel)) {
		parser.Errorf("invalid --log-level %q, expected one of %v", cli.LogLevel, logLevels)
		return exitUsage
	}
	if cli.Offset < 0 || cli.Length < 0 || cli.Partition < 0 {
		parser.Errorf("--offset, --length and --partition must not be negative")
		return exitUsage
	}
	if cli.Partition > 0 && (cli.Offset != 0 || cli.Length != 0) {
		parser.Errorf("--partition cannot be combined with --offset or --length")
		return exitUsage
	}

	level, _ := logger.ParseLevel(cli.LogLevel)
	l := logger.NewLogger("recover", level, stderr)
	logger.SetupDefaultLogger(l)
	defer func() {
		_ = l.Sync()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if cli.PprofPort > 0 {
		if _, err = basic.StartPProfServe(ctx, cli.PprofPort, l); err != nil {
			l.Warnf("pprof disabled: %v", err)
		}
	}
	return recoverImages(ctx, l, &cli, stdout)
}

func recoverImages(ctx context.Context, l *zap.SugaredLogger, cli *CLI, stdout io.Writer) int {
	image := util.ExpandEnv(cli.Image)
	out := util.ExpandEnv(cli.Out)

	var src volume.Reader
	var err error
	if cli.Partition > 0 {
		src, err = volume.OpenPartition(image, cli.Partition)
	} else {
		src, err = volume.Open(image, cli.Offset, cli.Length)
	}
	if err != nil {
		l.Errorf("Forensic image cannot be opened for reading: %v", err)
		return exitSource
	}
	defer func() {
		_ = src.Close()
	}()
	l.Debugf("source %s", src.Repr())

	if err = carve.EnsureDir(out); err != nil {
		l.Errorf("%v", err)
		return exitDirectory
	}
	checkFreeSpace(l, out, src.Size())

	var reader io.Reader = src
	if cli.Progress > 0 {
		pr, stop := util.NewProgressReader(ctx, func(n int64, d time.Duration) {
			l.Infof("scanned %s of %s (%s/s)", humanize.IBytes(uint64(n)), humanize.IBytes(uint64(src.Size())),
				humanize.IBytes(util.BytesPerSecond(n, d)))
		}, src, cli.Progress)
		defer stop()
		reader = pr
	}

	start := time.Now()
	report, err := carve.ScanDir(ctx, reader, out, carve.WithLogger(l))
	if err != nil {
		var de *carve.DirectoryError
		if errors.As(err, &de) {
			l.Errorf("%v", err)
			return exitDirectory
		}
		if report != nil {
			l.Errorf("scan aborted after %v blocks, %v files: %v", report.BlocksRead, report.Count(), err)
		} else {
			l.Errorf("scan aborted: %v", err)
		}
		return exitScan
	}
	for _, f := range report.Failures() {
		l.Warnf("image %s was not fully recovered: %v", f.Name, f.Err)
	}
	elapsed := time.Since(start)
	l.Infof("recovered %v of %v images into %s, scanned %s in %v (%s/s)",
		report.Count(), report.Sequences(), out, humanize.IBytes(uint64(report.BytesRead())),
		elapsed.Round(time.Millisecond), humanize.IBytes(util.BytesPerSecond(report.BytesRead(), elapsed)))
	fmt.Fprintf(stdout, "%d\n", report.Count())

	if cli.Verify != "" {
		if n := verifyAgainst(ctx, l, out, util.ExpandEnv(cli.Verify), report, cli.HashCores); n != 0 {
			l.Errorf("verify against %s failed, %v mismatches", cli.Verify, n)
			return exitScan
		}
		l.Infof("verified %v images against %s", report.Count(), cli.Verify)
	}
	if cli.Report != "" {
		m, err := manifest.Build(ctx, l, out, image, report, cli.HashCores)
		if err != nil {
			l.Errorf("manifest: %v", err)
			return exitScan
		}
		if err = m.Save(util.ExpandEnv(cli.Report)); err != nil {
			l.Errorf("%v", err)
			return exitScan
		}
		l.Infof("manifest written to %s, signature %s", cli.Report, m.Signature)
	}
	return exitOK
}

// verifyAgainst 用之前保存的清单校验本次切割结果, 返回不一致项数量, 清单无法读取时计为 1.
// 清单中的文件按哈希比较, 本次新增而清单中没有的文件同样计为不一致.
func verifyAgainst(ctx context.Context, l *zap.SugaredLogger, dir, path string, report *carve.Report, cores int) int {
	saved, err := manifest.Load(path)
	if err != nil {
		l.Errorf("verify: %v", err)
		return 1
	}
	mismatches, err := manifest.Verify(ctx, l, dir, saved, cores)
	if err != nil {
		l.Errorf("verify: %v", err)
		return 1
	}
	for _, mm := range mismatches {
		l.Errorf("verify mismatch %s", mm)
	}
	n := len(mismatches)
	for _, f := range report.Files {
		if e, ok := saved.Get(f.Name); f.Opened && (!ok || !e.Opened) {
			l.Errorf("verify mismatch %s: not in manifest", f.Name)
			n++
		}
	}
	return n
}

// checkFreeSpace 输出目录所在文件系统的剩余空间不足以容纳整个源时给出警告.
func checkFreeSpace(l *zap.SugaredLogger, dir string, need int64) {
	usage, err := disk.Usage(dir)
	if err != nil {
		l.Debugf("checkFreeSpace disk.Usage(%s) ERR=%v", dir, err)
		return
	}
	l.Debugf("free space in %s: %s", dir, humanize.IBytes(usage.Free))
	if need > 0 && usage.Free < uint64(need) {
		l.Warnf("only %s free in %s, source is %s; recovery may fail part way",
			humanize.IBytes(usage.Free), dir, humanize.IBytes(uint64(need)))
	}
}
