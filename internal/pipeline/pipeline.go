package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"icongen/internal/diag"
	"icongen/pkg/contract"
)

// - 严格顺序：按 Sources 顺序逐个处理，组件均为同步实现，无并发。
// - 每个源：打开 → 抽取 → 关闭输入 → 生成 → 写出（→ 清单）。输入在输出写出前关闭。
// - 失败策略：默认记录并跳过失败源，结束时聚合返回；FailFast 时首错即停。
// - 取消：ctx 取消后不再开始新的源，无论 FailFast。

// Components 聚合运行所需的原子组件。
type Components struct {
	Reader    contract.Reader
	Extractor contract.Extractor
	Emitter   contract.Emitter
	Writer    contract.Writer
	// Manifest 可选；nil 表示不写清单边车。
	Manifest contract.Manifest
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	Sources []contract.Source
	// OutputExt: 工件扩展名（不含前导点亦可），默认 "code"。
	OutputExt string
	FailFast  bool
}

// SourceReport 为单个源的处理结果。
type SourceReport struct {
	Source     contract.Source
	Output     contract.ArtifactID
	Manifest   contract.ArtifactID
	Macros     int
	Skipped    []contract.SkippedLine
	Duplicates int
	Err        error
}

// OK 报告该源是否成功写出。
func (r SourceReport) OK() bool { return r.Err == nil }

// Report 汇总一次运行；Sources 与已尝试的源一一对应（FailFast/取消时可能少于配置数）。
type Report struct {
	Sources []SourceReport
}

// Failed 返回失败源数量。
func (r Report) Failed() int {
	n := 0
	for _, s := range r.Sources {
		if s.Err != nil {
			n++
		}
	}
	return n
}

// Run 执行完整流水线：Reader → Extractor → Emitter → Writer (→ Manifest)。
// 返回的 error 为全部失败源的聚合（*multierror.Error），可用 errors.Is 匹配哨兵。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (Report, error) {
	var rep Report
	if err := sanity(comp, set); err != nil {
		return rep, fmt.Errorf("sanity: %w", err)
	}
	ext := strings.TrimSpace(set.OutputExt)
	if ext == "" {
		ext = "code"
	}

	var merr *multierror.Error
	for _, src := range set.Sources {
		if err := ctx.Err(); err != nil {
			merr = multierror.Append(merr, err)
			break
		}
		sr := runSource(ctx, comp, src, ext, logger)
		rep.Sources = append(rep.Sources, sr)
		if sr.Err == nil {
			continue
		}
		merr = multierror.Append(merr, fmt.Errorf("%s: %w", src.File, sr.Err))
		if set.FailFast || errors.Is(sr.Err, context.Canceled) || errors.Is(sr.Err, context.DeadlineExceeded) {
			break
		}
	}
	return rep, merr.ErrorOrNil()
}

func runSource(ctx context.Context, comp Components, src contract.Source, ext string, logger *diag.Logger) (sr SourceReport) {
	sr = SourceReport{Source: src, Output: src.ArtifactFor(ext)}
	fileID := src.File
	start := time.Now()
	if t := diag.GetTerminal(); t != nil {
		t.SourceStart(fileID)
	}
	defer func() {
		if t := diag.GetTerminal(); t != nil {
			t.SourceFinish(sr.Err == nil, sr.Macros, time.Since(start))
		}
		diag.ObserveDuration("pipeline", "source", time.Since(start).Milliseconds())
	}()

	// 打开
	rtimer := logger.StartWith("reader", "open", fileID)
	rc, err := comp.Reader.Open(ctx, src)
	if err != nil {
		sr.Err = fail(logger, "reader", "open failed", fileID, fmt.Errorf("reader open: %w", err))
		return sr
	}
	rtimer.Finish("open", 0)
	diag.IncOp("reader", "finish", "success")

	// 抽取；输入在写出前关闭
	etimer := logger.StartWith("extractor", "extract", fileID)
	res, err := comp.Extractor.Extract(ctx, rc, src.Marker)
	if cerr := rc.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: close: %w", contract.ErrSourceUnavailable, cerr)
	}
	if err != nil {
		sr.Err = fail(logger, "extractor", "extract failed", fileID, fmt.Errorf("extractor extract: %w", err))
		return sr
	}
	etimer.Finish("extract", int64(len(res.Macros)))
	diag.IncOp("extractor", "finish", "success")
	diag.AddExtracted(fileID, len(res.Macros), len(res.Skipped))
	sr.Macros = len(res.Macros)
	sr.Skipped = res.Skipped
	sr.Duplicates = res.Duplicates
	for _, sk := range res.Skipped {
		logger.Warn("extractor", string(diag.CodeMalformedLine), "matching line lacks macro token; skipped", fileID, map[string]string{
			"line": strconv.Itoa(sk.LineNo),
			"text": sk.Text,
		})
	}
	if res.Duplicates > 0 {
		logger.DebugStart("extractor", "duplicates dropped", fileID, map[string]string{"count": strconv.Itoa(res.Duplicates)})
	}

	// 生成
	mtimer := logger.StartWith("emitter", "emit", fileID)
	blk, err := comp.Emitter.Emit(ctx, src.DisplayTitle(), res.Macros)
	if err != nil {
		sr.Err = fail(logger, "emitter", "emit failed", fileID, fmt.Errorf("emitter emit: %w", err))
		return sr
	}
	if err := contract.ValidateBlock(blk, res.Macros); err != nil {
		sr.Err = fail(logger, "emitter", "block rejected", fileID, fmt.Errorf("emitter emit: %w", err))
		return sr
	}
	mtimer.Finish("emit", int64(len(blk.Lines)))
	diag.IncOp("emitter", "finish", "success")

	// 写出（覆盖已存在工件）
	wtimer := logger.StartWith("writer", "write", string(sr.Output))
	if err := comp.Writer.Write(ctx, sr.Output, strings.NewReader(blk.Render())); err != nil {
		sr.Err = fail(logger, "writer", "write failed", string(sr.Output), fmt.Errorf("writer write: %w", err))
		return sr
	}
	wtimer.Finish("write", int64(sr.Macros))
	diag.IncOp("writer", "finish", "success")

	if comp.Manifest == nil {
		return sr
	}
	id := src.ArtifactFor(comp.Manifest.Ext())
	ftimer := logger.StartWith("manifest", "write", string(id))
	mr, err := comp.Manifest.Encode(ctx, src, res)
	if err != nil {
		sr.Err = fail(logger, "manifest", "encode failed", fileID, fmt.Errorf("manifest encode: %w", err))
		return sr
	}
	if err := comp.Writer.Write(ctx, id, mr); err != nil {
		sr.Err = fail(logger, "manifest", "write failed", string(id), fmt.Errorf("writer write(manifest): %w", err))
		return sr
	}
	ftimer.Finish("write", int64(sr.Macros))
	diag.IncOp("manifest", "finish", "success")
	sr.Manifest = id
	return sr
}

// fail 记录错误事件与指标并原样返回 err。
func fail(logger *diag.Logger, comp, msg, fileID string, err error) error {
	code := diag.Classify(err)
	logger.ErrorWith(comp, string(code), msg, nil, fileID, map[string]string{"error": err.Error()})
	diag.IncOp(comp, "error", "error")
	if code != diag.CodeUnknown {
		diag.IncError(comp, string(code))
	}
	return err
}

func sanity(comp Components, set Settings) error {
	if comp.Reader == nil || comp.Extractor == nil || comp.Emitter == nil || comp.Writer == nil {
		return fmt.Errorf("%w: missing component", contract.ErrInvalidInput)
	}
	if len(set.Sources) == 0 {
		return fmt.Errorf("%w: no sources", contract.ErrInvalidInput)
	}
	return nil
}
