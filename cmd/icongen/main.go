package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cfgpkg "icongen/internal/config"
	"icongen/internal/diag"
	"icongen/internal/pipeline"
)

var pipelineRun = pipeline.Run

// 退出码：0 成功；1 至少一个源失败；3 配置/装配错误。
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 3
)

// exitError 携带退出码，由 execute 统一转换。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func configErr(err error) error { return &exitError{code: exitConfig, err: err} }

// defaultConfigNames: 未指定配置文件时在工作目录按顺序查找。
var defaultConfigNames = []string{"icongen.yaml", "icongen.yml", "icongen.toml", "icongen.json"}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute 构建命令树并运行，返回进程退出码。
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// 旗标/参数解析错误
	fprintf(stderr, "参数错误: %v\n", err)
	return exitConfig
}

type runFlags struct {
	config         string
	outDir         string
	ext            string
	failFast       bool
	strict         bool
	keepDuplicates bool
	manifest       bool
	metricsFile    string
	logLevel       string
	logDir         string
	status         bool
}

func newRootCmd() *cobra.Command {
	var rf runFlags
	root := &cobra.Command{
		Use:   "icongen [file:marker ...]",
		Short: "从图标字体头文件生成 ImGui 图标表格代码",
		Long: "扫描图标字体 C/C++ 头文件中命中标记的行，抽取宏名，\n" +
			"为每个 (头文件, 标记) 生成一个 <base>.code ImGui 窗口 + 5 列表格代码块。\n" +
			"优先级：CLI > ENV(.env) > 配置文件 > 默认值。",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runE(cmd, args, &rf)
		},
	}
	bindRunFlags(root, &rf)

	run := &cobra.Command{
		Use:           "run [file:marker ...]",
		Short:         "生成代码（默认子命令）",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runE(cmd, args, &rf)
		},
	}
	bindRunFlags(run, &rf)

	initCmd := &cobra.Command{
		Use:           "init-config [dir]",
		Short:         "在目录中生成 icongen.yaml 与 .env 模板（已存在则跳过）",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				dir = strings.TrimSpace(args[0])
			}
			return initConfig(cmd, dir)
		},
	}
	root.AddCommand(run, initCmd)
	return root
}

func bindRunFlags(cmd *cobra.Command, rf *runFlags) {
	f := cmd.Flags()
	f.StringVar(&rf.config, "config", "", "配置文件路径（.json/.yaml/.toml）；缺省读取 ICONGEN_CONFIG_FILE 或 ./icongen.yaml 等")
	f.StringVar(&rf.outDir, "out-dir", "", "输出目录（覆盖配置）")
	f.StringVar(&rf.ext, "ext", "", "输出扩展名（默认 code）")
	f.BoolVar(&rf.failFast, "fail-fast", false, "首个源失败即停止")
	f.BoolVar(&rf.strict, "strict", false, "命中标记但缺少宏名的行视为错误")
	f.BoolVar(&rf.keepDuplicates, "keep-duplicates", false, "保留重复宏名（与历史产物逐字节一致）")
	f.BoolVar(&rf.manifest, "manifest", false, "为每个源额外写出 <base>.icons.toml 清单")
	f.StringVar(&rf.metricsFile, "metrics-file", "", "运行结束后以 textfile 格式写出指标")
	f.StringVar(&rf.logLevel, "log-level", "", "日志等级 debug|info|warn|error（覆盖配置）")
	f.StringVar(&rf.logDir, "log-dir", "logs", "日志目录；\"-\" 表示不写日志文件")
	f.BoolVar(&rf.status, "status", true, "终端状态提示（stderr）")
}

func runE(cmd *cobra.Command, args []string, rf *runFlags) error {
	start := time.Now()
	stderr := cmd.ErrOrStderr()
	corrID := genCorrID()
	// 在任何 ENV 读取前加载工作目录下的 .env（不覆盖已有 ENV）。
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fprintf(stderr, "提示：.env 读取失败（已跳过）：%v\n", err)
	}
	flags := cmd.Flags()

	cfg, err := resolveConfig(flags.Changed, args, rf)
	if err != nil {
		fprintf(stderr, "配置解析失败: %v\n", err)
		return configErr(err)
	}
	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(stderr, "配置校验失败: %v\n", err)
		dumpConfig(stderr, cfg)
		return configErr(err)
	}

	logger := diag.NewLoggerWith(diag.LoggerOptions{CorrID: corrID, Level: cfg.Logging.Level, Dir: rf.logDir, Console: stderr})
	defer logger.Close()

	if err := preflightCheckOutputDir(cfg); err != nil {
		fprintf(stderr, "输出目录不可写或无法创建: %v\n", err)
		logger.Error("pipeline", string(diag.Classify(err)), "preflight failed", &start)
		return configErr(err)
	}

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf(stderr, "装配失败: %v\n", err)
		logger.Error("pipeline", string(diag.Classify(err)), "assemble failed", &start)
		return configErr(err)
	}

	logger.DebugStart("config", "effective", "", map[string]string{
		"sources":   fmt.Sprintf("%d", len(cfg.Sources)),
		"output":    cfg.Output.Dir,
		"ext":       set.OutputExt,
		"fail_fast": fmt.Sprintf("%v", set.FailFast),
		"manifest":  fmt.Sprintf("%v", comp.Manifest != nil),
		"extractor": cfg.Components.Extractor,
		"emitter":   cfg.Components.Emitter,
	})

	term := diag.NewTerminal(stderr, rf.status)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)
	term.RunStart(len(set.Sources))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	t := logger.Start("pipeline", "run")
	rep, runErr := pipelineRun(ctx, comp, set, logger)
	diag.ObserveDuration("pipeline", "run", time.Since(start).Milliseconds())
	if runErr != nil {
		code := string(diag.Classify(runErr))
		logger.Error("pipeline", code, "run failed", &start)
		diag.IncOp("pipeline", "error", "error")
		if code != string(diag.CodeUnknown) {
			diag.IncError("pipeline", code)
		}
		for _, s := range rep.Sources {
			if s.Err != nil {
				fprintf(stderr, "失败: %s: %v\n", s.Source.File, s.Err)
			}
		}
		if len(rep.Sources) == 0 || errors.Is(runErr, context.Canceled) {
			fprintf(stderr, "运行失败: %v\n", runErr)
		}
	} else {
		t.Finish("run", int64(len(rep.Sources)))
		diag.IncOp("pipeline", "finish", "success")
	}
	term.RunFinish(runErr == nil)

	if rf.metricsFile != "" {
		if err := diag.WriteTextfile(rf.metricsFile); err != nil {
			fprintf(stderr, "提示：指标写出失败：%v\n", err)
		}
	}
	if runErr != nil {
		return &exitError{code: exitFailed, err: runErr}
	}
	return nil
}

// resolveConfig 按 默认值 < 配置文件 < ENV < CLI 合并。
func resolveConfig(changed func(string) bool, args []string, rf *runFlags) (cfgpkg.Config, error) {
	cfg := cfgpkg.Defaults()

	path := strings.TrimSpace(rf.config)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE"))
	}
	if path == "" {
		for _, name := range defaultConfigNames {
			if st, err := os.Stat(name); err == nil && !st.IsDir() {
				path = name
				break
			}
		}
	}
	if path != "" {
		base, err := cfgpkg.LoadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	overEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return cfg, err
	}
	cfg = cfgpkg.Merge(cfg, overEnv)

	var over cfgpkg.Config
	for _, a := range args {
		src, err := cfgpkg.ParseSourceArg(a)
		if err != nil {
			return cfg, err
		}
		over.Sources = append(over.Sources, src)
	}
	over.Output = cfgpkg.Output{Dir: rf.outDir, Ext: rf.ext}
	over.Logging.Level = rf.logLevel
	if changed("fail-fast") {
		v := rf.failFast
		over.FailFast = &v
	}
	if changed("manifest") {
		v := rf.manifest
		over.Manifest = &v
	}
	cfg = cfgpkg.Merge(cfg, over)

	// 抽取器开关直接写入 options.extractor
	if changed("strict") {
		if cfg.Options.Extractor, err = cfgpkg.SetOption(cfg.Options.Extractor, "strict", rf.strict); err != nil {
			return cfg, err
		}
	}
	if changed("keep-duplicates") {
		if cfg.Options.Extractor, err = cfgpkg.SetOption(cfg.Options.Extractor, "keep_duplicates", rf.keepDuplicates); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// initConfig 在 dir 中生成 icongen.yaml 与 .env（均不覆盖已存在文件）。
func initConfig(cmd *cobra.Command, dir string) error {
	out := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fprintf(stderr, "生成默认配置失败: %v\n", err)
		return configErr(err)
	}
	b, err := cfgpkg.EncodeYAML(cfgpkg.DefaultTemplateConfig())
	if err != nil {
		fprintf(stderr, "生成默认配置失败: %v\n", err)
		return configErr(err)
	}
	cfgPath := filepath.Join(dir, "icongen.yaml")
	created, err := writeExclusive(cfgPath, b)
	if err != nil {
		fprintf(stderr, "生成默认配置失败: %v\n", err)
		return configErr(err)
	}
	reportCreated(out, cfgPath, created)

	envPath := filepath.Join(dir, ".env")
	created, err = writeExclusive(envPath, []byte(cfgpkg.DotEnvTemplate()))
	if err != nil {
		fprintf(stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
		return nil
	}
	reportCreated(out, envPath, created)
	return nil
}

func reportCreated(w io.Writer, path string, created bool) {
	if created {
		fprintf(w, "已生成 %s\n", path)
		return
	}
	fprintf(w, "已存在，跳过 %s\n", path)
}

// writeExclusive 仅在文件不存在时创建并写入；已存在返回 created=false。
func writeExclusive(path string, b []byte) (created bool, err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(b); err != nil {
		return false, err
	}
	return true, nil
}

func fprintf(w io.Writer, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func dumpConfig(w io.Writer, c cfgpkg.Config) {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return
	}
	fprintf(w, "有效配置:\n%s\n", b)
}

func genCorrID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}

// preflightCheckOutputDir: 当 Writer 使用文件系统实现(fs)时，启动前检查输出目录可写性。
// - 若目录已存在：尝试创建并删除临时文件；
// - 若目录不存在：检查最近的已存在祖先目录可写（尝试创建并删除临时目录）。
func preflightCheckOutputDir(cfg cfgpkg.Config) error {
	writerName := strings.TrimSpace(cfg.Components.Writer)
	if writerName == "" {
		writerName = cfgpkg.Defaults().Components.Writer
	}
	if writerName != "fs" {
		return nil
	}
	dir := strings.TrimSpace(cfg.Output.Dir)
	if dir == "" && len(cfg.Options.Writer) > 0 {
		var wopts struct {
			OutputDir string `json:"output_dir"`
		}
		_ = json.Unmarshal(cfg.Options.Writer, &wopts)
		dir = strings.TrimSpace(wopts.OutputDir)
	}
	if dir == "" {
		dir = "."
	}
	st, err := os.Stat(dir)
	switch {
	case err == nil && st.IsDir():
		f, err := os.CreateTemp(dir, ".wcheck-*")
		if err != nil {
			return err
		}
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)
		return nil
	case err == nil:
		return fmt.Errorf("路径存在但不是目录: %s", dir)
	case !os.IsNotExist(err):
		return err
	}
	// 目录不存在：向上找到首个已存在的祖先
	parent := filepath.Dir(filepath.Clean(dir))
	for {
		pst, err := os.Stat(parent)
		if err == nil {
			if !pst.IsDir() {
				return fmt.Errorf("父路径不是目录: %s", parent)
			}
			break
		}
		if !os.IsNotExist(err) {
			return err
		}
		next := filepath.Dir(parent)
		if next == parent {
			return fmt.Errorf("无法确定父目录: %s", dir)
		}
		parent = next
	}
	tmpd, err := os.MkdirTemp(parent, ".wcheck-*")
	if err != nil {
		return err
	}
	_ = os.RemoveAll(tmpd)
	return nil
}
