package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BerylCAtieno/document-assistant/internal/utils"
)

// PageRenderer rasterizes a page range of a PDF into JPEG images.
type PageRenderer interface {
	RenderPages(ctx context.Context, path string, first, last, dpi int) ([][]byte, error)
}

// Runner lets tests stub external commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *utils.Logger
}

func NewExecRunner(logger *utils.Logger) Runner {
	return execRunner{logger: logger}
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		r.logger.Error("Command failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
			"stderr", errb.String())
	} else {
		r.logger.Debug("Command finished",
			"cmd", name,
			"duration_ms", time.Since(start).Milliseconds())
	}

	return out.Bytes(), errb.Bytes(), err
}

type pdftoppmRenderer struct {
	binary string
	runner Runner
}

// NewPdftoppmRenderer renders pages with poppler's pdftoppm.
func NewPdftoppmRenderer(binary string, runner Runner) PageRenderer {
	if binary == "" {
		binary = "pdftoppm"
	}
	return &pdftoppmRenderer{binary: binary, runner: runner}
}

func (p *pdftoppmRenderer) RenderPages(ctx context.Context, path string, first, last, dpi int) ([][]byte, error) {
	tmpDir, err := os.MkdirTemp("", "docassist-pages-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -jpeg -f <first> -l <last> <in.pdf> <tmp/page>
	_, errb, err := p.runner.Run(ctx, p.binary,
		"-r", strconv.Itoa(dpi),
		"-jpeg",
		"-f", strconv.Itoa(first),
		"-l", strconv.Itoa(last),
		path, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(errb)))
	}

	// pdftoppm zero-pads page numbers to a common width, so lexical order is page order.
	matches, _ := filepath.Glob(prefix + "-*.jpg")
	sort.Strings(matches)

	pages := make([][]byte, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			return nil, fmt.Errorf("failed to read rendered page: %w", err)
		}
		pages = append(pages, data)
	}

	return pages, nil
}
