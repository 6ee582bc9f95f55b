// Package tgrep queries bracketed treebanks through the external tgrep2
// program. Source files are compiled to tgrep2's ".t2c.gz" format once and
// every query runs one tgrep2 process per file.
package tgrep

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/standardbeagle/treesearch/internal/debug"
	"github.com/standardbeagle/treesearch/internal/dispatch"
	"github.com/standardbeagle/treesearch/internal/errors"
	"github.com/standardbeagle/treesearch/internal/metrics"
	"github.com/standardbeagle/treesearch/internal/searchtypes"
	"github.com/standardbeagle/treesearch/internal/treebank"
)

// Kind is the backend name.
const Kind = "tgrep2"

// CompiledSuffix is appended to a source file to name its compiled index.
const CompiledSuffix = ".t2c.gz"

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "tgrep2"

const (
	// sentence number, complete tree, matched subtree
	matchFormat = `%s:::%w:::%h\n`
	// sentence number only
	countFormat = `%s:::\n`

	fieldSep = ":::"

	// how long Wait keeps reading pipes after the process was killed
	waitDelay = time.Second
)

var outputLine = regexp.MustCompile(`^([0-9]+):::(.*)$`)

// maxLineSize bounds one line of tgrep2 output.
var maxLineSize = 64 * 1024 * 1024

// Options configure a Backend.
type Options struct {
	// Binary is the tgrep2 executable; DefaultBinary when empty.
	Binary string
	// Macros is passed to tgrep2 before the query when non-empty.
	Macros string
	// CheckStale recompiles sources newer than their compiled index.
	CheckStale bool
	// Dispatcher runs compilations; a synchronous one when nil.
	Dispatcher *dispatch.Dispatcher
	Metrics    *metrics.Recorder
}

// Backend implements interfaces.Backend with tgrep2.
type Backend struct {
	binary   string
	macros   string
	compiled map[string]string
	metrics  *metrics.Recorder
}

// CompiledPath returns the compiled index path for a corpus file.
func CompiledPath(file string) string {
	if strings.HasSuffix(file, CompiledSuffix) {
		return file
	}
	return file + CompiledSuffix
}

// New resolves the tgrep2 binary and compiles every file that lacks an
// up-to-date index.
func New(ctx context.Context, files []string, opts Options) (*Backend, error) {
	name := opts.Binary
	if name == "" {
		name = DefaultBinary
	}
	binary, err := exec.LookPath(name)
	if err != nil {
		return nil, errors.NewConfigError("tgrep.binary", name, err)
	}

	b := &Backend{
		binary:   binary,
		macros:   opts.Macros,
		compiled: make(map[string]string, len(files)),
		metrics:  opts.Metrics,
	}

	d := opts.Dispatcher
	if d == nil {
		d = dispatch.New(1)
	}
	var futures []dispatch.Future[struct{}]
	for _, f := range files {
		b.compiled[f] = CompiledPath(f)
		if !needsCompile(f, opts.CheckStale) {
			continue
		}
		futures = append(futures, dispatch.Submit(ctx, d, f, b.compile))
	}
	var result *multierror.Error
	for fut := range dispatch.Collect(d, futures) {
		if _, err := fut.Result(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return b, nil
}

// needsCompile reports whether file has no compiled index, or a stale one.
func needsCompile(file string, checkStale bool) bool {
	if strings.HasSuffix(file, CompiledSuffix) {
		return false
	}
	dst, err := os.Stat(CompiledPath(file))
	if err != nil {
		return true
	}
	if !checkStale {
		return false
	}
	src, err := os.Stat(file)
	if err != nil {
		return false
	}
	return src.ModTime().After(dst.ModTime())
}

func (b *Backend) compile(ctx context.Context, file string) (struct{}, error) {
	dst := CompiledPath(file)
	debug.LogBackend("tgrep2: compiling %s -> %s", file, dst)

	cmd := exec.CommandContext(ctx, b.binary, "-p", file, dst)
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		b.metrics.ProcessFinished("compile", metrics.ProcessFailed)
		os.Remove(dst)
		return struct{}{}, errors.NewProcessError("tgrep2 compile", file, exitCode(err), stderr.String(), err)
	}
	b.metrics.ProcessFinished("compile", metrics.ProcessCompleted)
	return struct{}{}, nil
}

func (b *Backend) Kind() string { return Kind }

// Close is a no-op; compiled indexes stay on disk for later runs.
func (b *Backend) Close() error { return nil }

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// errStop ends a query early without an error.
var errStop = stderrors.New("stop")

// query runs tgrep2 on file and calls fn with each (sentence number,
// payload) line. fn may return errStop to end the query; the process is
// then killed and no error is reported. A positive limit ends the query at
// the first sentence beyond it.
func (b *Backend) query(ctx context.Context, op, file, format, query string, limit int, fn func(sentNo int, payload string) error) error {
	compiled, ok := b.compiled[file]
	if !ok {
		return errors.NewFileError("open", file, os.ErrNotExist)
	}
	args := []string{"-a", "-m", format, "-c", compiled}
	if b.macros != "" {
		args = append(args, b.macros)
	}
	args = append(args, query)

	procCtx, kill := context.WithCancel(ctx)
	defer kill()
	cmd := exec.CommandContext(procCtx, b.binary, args...)
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.NewProcessError("tgrep2 "+op, file, -1, "", err)
	}
	if err := cmd.Start(); err != nil {
		return errors.NewProcessError("tgrep2 "+op, file, -1, "", err)
	}

	var stopped bool
	var failure error
	lineNo := 0
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		m := outputLine.FindStringSubmatch(line)
		if m == nil {
			failure = errors.NewParseError(file, lineNo, line, fmt.Errorf("unexpected tgrep2 output"))
			break
		}
		sentNo, err := strconv.Atoi(m[1])
		if err != nil {
			failure = errors.NewParseError(file, lineNo, line, err)
			break
		}
		// sentences 1..limit are scanned, as in the other backends
		if limit > 0 && sentNo > limit {
			stopped = true
			break
		}
		if err := fn(sentNo, m[2]); err != nil {
			if err == errStop {
				stopped = true
			} else {
				failure = err
			}
			break
		}
	}
	scanErr := scanner.Err()

	// a reader that gave up leaves the process blocked on a full pipe
	if stopped || failure != nil || scanErr != nil {
		kill()
	}
	waitErr := cmd.Wait()

	switch {
	case failure != nil:
		b.metrics.ProcessFinished(op, metrics.ProcessTerminated)
		return failure
	case stopped:
		debug.LogBackend("tgrep2: terminated %s query on %s after %d lines", op, file, lineNo)
		b.metrics.ProcessFinished(op, metrics.ProcessTerminated)
		return nil
	case scanErr != nil:
		b.metrics.ProcessFinished(op, metrics.ProcessTerminated)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.NewParseError(file, lineNo+1, "", fmt.Errorf("reading tgrep2 output: %w", scanErr))
	case waitErr != nil:
		b.metrics.ProcessFinished(op, metrics.ProcessFailed)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.NewProcessError("tgrep2 "+op, file, exitCode(waitErr), stderr.String(), waitErr)
	}
	b.metrics.ProcessFinished(op, metrics.ProcessCompleted)
	return nil
}

// splitMatch separates the "tree:::match" payload of matchFormat.
func splitMatch(file string, sentNo int, payload string) (string, string, error) {
	tree, match, ok := strings.Cut(payload, fieldSep)
	if !ok {
		return "", "", errors.NewParseError(file, sentNo, payload, fmt.Errorf("missing match field"))
	}
	return tree, match, nil
}

// Count returns the number of matches in file.
func (b *Backend) Count(ctx context.Context, file, query string, p searchtypes.CountParams) (searchtypes.FileCount, error) {
	result := searchtypes.FileCount{File: file}
	if p.Indices {
		result.Indices = make(map[int]int)
	}
	err := b.query(ctx, "counts", file, countFormat, query, p.Limit, func(sentNo int, _ string) error {
		result.Count++
		if p.Indices {
			result.Indices[sentNo]++
		}
		return nil
	})
	if err != nil {
		return searchtypes.FileCount{}, err
	}
	return result, nil
}

// Sents returns matching sentences. In token mode the sentence is the
// space-joined terminals and Highlight the matched terminal indices; in
// bracket mode the raw tree and matched subtree are returned.
func (b *Backend) Sents(ctx context.Context, file, query string, p searchtypes.SentsParams) ([]searchtypes.SentMatch, error) {
	var results []searchtypes.SentMatch
	err := b.query(ctx, "sents", file, matchFormat, query, 0, func(sentNo int, payload string) error {
		tree, match, err := splitMatch(file, sentNo, payload)
		if err != nil {
			return err
		}
		m := searchtypes.SentMatch{File: file, SentNo: sentNo}
		if p.Brackets {
			m.Sentence, m.Match = tree, match
		} else {
			tokens, high := treebank.MatchTokens(tree, match)
			m.Sentence, m.Highlight = strings.Join(tokens, " "), high
		}
		results = append(results, m)
		if p.MaxResults > 0 && len(results) >= p.MaxResults {
			return errStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Trees returns matching trees with the matched subtree highlighted.
func (b *Backend) Trees(ctx context.Context, file, query string, p searchtypes.TreesParams) ([]searchtypes.TreeMatch, error) {
	var results []searchtypes.TreeMatch
	err := b.query(ctx, "trees", file, matchFormat, query, 0, func(sentNo int, payload string) error {
		treeStr, match, err := splitMatch(file, sentNo, payload)
		if err != nil {
			return err
		}
		treeStr = treebank.FilterLabels(treeStr, p.NoFunc, p.NoMorph)
		match = treebank.FilterLabels(match, p.NoFunc, p.NoMorph)
		tree, tokens, high, err := treebank.ParseMatch(treeStr, match)
		if err != nil {
			return withLocation(err, file, sentNo)
		}
		results = append(results, searchtypes.TreeMatch{
			File:      file,
			SentNo:    sentNo,
			Tree:      tree,
			Tokens:    tokens,
			Highlight: high,
		})
		if p.MaxResults > 0 && len(results) >= p.MaxResults {
			return errStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func withLocation(err error, file string, line int) error {
	var pe *errors.ParseError
	if stderrors.As(err, &pe) {
		return pe.WithLocation(file, line)
	}
	return err
}

// Extract reads trees [start, end) of file by position.
func (b *Backend) Extract(ctx context.Context, file string, start, end int, p searchtypes.ExtractParams) ([]searchtypes.Extracted, error) {
	compiled, ok := b.compiled[file]
	if !ok {
		return nil, errors.NewFileError("open", file, os.ErrNotExist)
	}
	if start < 0 {
		start = 0
	}
	if end <= start {
		return nil, nil
	}

	args := []string{"-e", "-", "-c", compiled}
	if p.Sents {
		args = append(args, "-t")
	}
	var stdin strings.Builder
	for n := start + 1; n <= end; n++ {
		fmt.Fprintf(&stdin, "%d:1\n", n)
	}

	cmd := exec.CommandContext(ctx, b.binary, args...)
	cmd.WaitDelay = waitDelay
	cmd.Stdin = strings.NewReader(stdin.String())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		b.metrics.ProcessFinished("extract", metrics.ProcessFailed)
		return nil, errors.NewProcessError("tgrep2 extract", file, exitCode(err), stderr.String(), err)
	}
	b.metrics.ProcessFinished("extract", metrics.ProcessCompleted)

	out := strings.TrimRight(stdout.String(), "\n")
	if out == "" {
		return nil, nil
	}
	var results []searchtypes.Extracted
	for i, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if p.Sents {
			results = append(results, searchtypes.Extracted{Sentence: line})
			continue
		}
		tree, tokens, err := treebank.Parse(treebank.FilterLabels(line, p.NoFunc, p.NoMorph))
		if err != nil {
			return nil, withLocation(err, file, start+i+1)
		}
		results = append(results, searchtypes.Extracted{Tree: treebank.MergeDiscNodes(tree), Tokens: tokens})
	}
	return results, nil
}
