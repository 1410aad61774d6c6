package macro

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"icongen/pkg/contract"
)

// Options 为宏抽取器的可选配置（最小必要）。
type Options struct {
	// Strict: 命中标记但缺少第二个 token 时返回 ErrMalformedLine；
	// 默认 false：跳过该行并记录到 ExtractResult.Skipped。
	Strict bool `json:"strict"`
	// KeepDuplicates: 保留重复宏名（与历史产物逐字节一致）；默认按首次出现去重。
	KeepDuplicates bool `json:"keep_duplicates"`
	// RequirePrefix: 要求第二个 token 本身以 marker 开头；
	// 仅在注释/取值中出现 marker 的行视为未命中。
	RequirePrefix bool `json:"require_prefix"`
}

// Extractor 实现按行扫描的宏名抽取。
type Extractor struct {
	strict        bool
	keepDup       bool
	requirePrefix bool
}

// New 创建宏抽取器。
func New(opts *Options) *Extractor {
	e := &Extractor{}
	if opts != nil {
		e.strict = opts.Strict
		e.keepDup = opts.KeepDuplicates
		e.requirePrefix = opts.RequirePrefix
	}
	return e
}

var _ contract.Extractor = (*Extractor)(nil)

const bom = "\uFEFF"

// Extract 单遍扫描 r：对包含 marker 的行按空白切分并取下标 1 的 token。
func (e *Extractor) Extract(ctx context.Context, r io.Reader, marker string) (contract.ExtractResult, error) {
	var res contract.ExtractResult
	if marker == "" {
		return res, fmt.Errorf("%w: empty marker", contract.ErrInvalidInput)
	}
	var capture *regexp.Regexp
	if e.requirePrefix {
		capture = regexp.MustCompile(`^\s*\S+\s+(` + regexp.QuoteMeta(marker) + `\S*)`)
	}
	var seen map[contract.MacroName]struct{}
	if !e.keepDup {
		seen = make(map[contract.MacroName]struct{})
	}

	br := bufio.NewReader(r)
	lineNo := 0
	for {
		if err := ctxErr(ctx); err != nil {
			return contract.ExtractResult{}, err
		}
		line, eof, err := readTrimmedLine(br)
		if err != nil {
			return contract.ExtractResult{}, fmt.Errorf("%w: %w", contract.ErrSourceUnavailable, err)
		}
		if eof {
			break
		}
		lineNo++
		if lineNo == 1 {
			line = strings.TrimPrefix(line, bom)
		}
		if !utf8.ValidString(line) {
			return contract.ExtractResult{}, fmt.Errorf("%w: decode error: invalid UTF-8 at line %d", contract.ErrSourceUnavailable, lineNo)
		}
		if !strings.Contains(line, marker) {
			continue
		}

		name, ok := pick(line, capture)
		if !ok {
			if capture != nil && len(strings.Fields(line)) >= 2 {
				// marker 仅出现在注释/取值中：未命中
				continue
			}
			if e.strict {
				return contract.ExtractResult{}, fmt.Errorf("%w: line %d: %q", contract.ErrMalformedLine, lineNo, line)
			}
			res.Skipped = append(res.Skipped, contract.SkippedLine{LineNo: lineNo, Text: line})
			continue
		}
		if seen != nil {
			if _, dup := seen[name]; dup {
				res.Duplicates++
				continue
			}
			seen[name] = struct{}{}
		}
		res.Macros = append(res.Macros, name)
	}
	return res, nil
}

// pick 返回行内宏名；capture 非空时使用捕获组，否则取第二个空白分隔 token。
func pick(line string, capture *regexp.Regexp) (contract.MacroName, bool) {
	if capture != nil {
		m := capture.FindStringSubmatch(line)
		if len(m) < 2 {
			return "", false
		}
		return contract.MacroName(m[1]), true
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}
	return contract.MacroName(fields[1]), true
}

// readTrimmedLine 读取一行并去除行尾；"\n"、"\r\n" 与单独的 "\r" 均视为换行。
// 仅当无剩余内容时 eof 为真。
func readTrimmedLine(br *bufio.Reader) (string, bool, error) {
	var buf []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return string(buf), len(buf) == 0, nil
			}
			return "", false, err
		}
		switch c {
		case '\n':
			return string(buf), false, nil
		case '\r':
			next, perr := br.Peek(1)
			if perr != nil && !errors.Is(perr, io.EOF) {
				return "", false, perr
			}
			if len(next) == 1 && next[0] == '\n' {
				_, _ = br.ReadByte()
			}
			return string(buf), false, nil
		}
		buf = append(buf, c)
	}
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
