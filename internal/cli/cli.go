// Package cli implements Transfuse's unified command line: one binary
// operating in extract, inject, or clean (extract-then-inject) mode,
// built on alecthomas/kong.
package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/transfuse/transfuse/core/adapter"
	"github.com/transfuse/transfuse/core/hasher"
	"github.com/transfuse/transfuse/core/inject"
	"github.com/transfuse/transfuse/core/pipeline"
	"github.com/transfuse/transfuse/core/stream"
	"github.com/transfuse/transfuse/core/stylestore"
	"github.com/transfuse/transfuse/core/tagset"
	"github.com/transfuse/transfuse/core/xmldoc"
	"github.com/transfuse/transfuse/internal/errs"
	"github.com/transfuse/transfuse/internal/logging"
	"github.com/transfuse/transfuse/internal/workdir"
)

// CLI is the full flag set transfuse exposes, parsed directly by
// kong.Parse(&CLI, ...) in cmd/transfuse and the tf-* thin mains.
type CLI struct {
	Format string `short:"f" name:"format" default:"auto" help:"Input format: text, html, html-fragment, line, odt, odp, docx, pptx, tei, auto"`
	Stream string `short:"s" name:"stream" default:"detect" help:"Stream dialect: apertium, visl, cg, detect"`
	Mode   string `short:"m" name:"mode" default:"" help:"extract, inject, clean"`
	Dir    string `short:"d" name:"dir" type:"path" default:"" help:"Work directory (implies --keep)"`
	Keep   bool   `short:"k" name:"keep" help:"Don't delete work dir"`
	NoKeep bool   `short:"K" name:"no-keep" help:"Wipe work dir before extract, delete after inject"`
	Input  string `short:"i" name:"input" default:"-" help:"Input file; - = stdin"`
	Output string `short:"o" name:"output" default:"-" help:"Output file; - = stdout"`

	MarkHeaders bool `short:"H" name:"mark-headers" help:"Append U+2761 to header blocks"`
	Verbose     bool `short:"v" name:"verbose" help:"Progress on stderr"`

	ApertiumN  bool   `name:"apertium-n" help:"Suppress the .[] terminator"`
	InjectRaw  bool   `name:"inject-raw" help:"Splice translations verbatim, no entity re-escape"`
	NoExtend   bool   `name:"no-extend" help:"Disable alphanumeric absorption"`
	HookInject string `name:"hook-inject" default:"" help:"Program to invoke post-inject with the output filename"`

	TagsProt          []string `name:"tags-prot" sep:"," help:"Override/extend (leading +) tags_prot"`
	TagsProtInline    []string `name:"tags-prot-inline" sep:"," help:"Override/extend tags_prot_inline"`
	TagsRaw           []string `name:"tags-raw" sep:"," help:"Override/extend tags_raw"`
	TagsInline        []string `name:"tags-inline" sep:"," help:"Override/extend tags_inline"`
	TagsParentsAllow  []string `name:"tags-parents-allow" sep:"," help:"Override/extend tags_parents_allow"`
	TagsParentsDirect []string `name:"tags-parents-direct" sep:"," help:"Override/extend tags_parents_direct"`
	TagsAttrs         []string `name:"tags-attrs" sep:"," help:"Override/extend tag_attrs"`
	TagsSemantic      []string `name:"tags-semantic" sep:"," help:"Override/extend tags_semantic"`
	TagsUnique        []string `name:"tags-unique" sep:"," help:"Override/extend tags_unique"`
	TagsHeaders       []string `name:"tags-headers" sep:"," help:"Override/extend tags_headers"`
	TagsAttrsHeaders  []string `name:"tags-attrs-headers" sep:"," help:"Override/extend attrs_headers"`

	URL64  string `name:"url64" default:"" help:"Diagnostic: print base64-url of arg, exit"`
	Hash32 string `name:"hash32" default:"" help:"Diagnostic: print base64-url of 32-bit hash of arg"`
	Hash64 string `name:"hash64" default:"" help:"Diagnostic: print base64-url of 64-bit hash of arg"`
}

// tagOverrides lists each --tags-<set> flag alongside the tagset name it
// overrides, keyed by the set name tagset.Sets.Override expects.
func (c *CLI) tagOverrides() map[string][]string {
	return map[string][]string{
		"prot":           c.TagsProt,
		"prot_inline":    c.TagsProtInline,
		"raw":            c.TagsRaw,
		"inline":         c.TagsInline,
		"parents_allow":  c.TagsParentsAllow,
		"parents_direct": c.TagsParentsDirect,
		"attrs":          c.TagsAttrs,
		"semantic":       c.TagsSemantic,
		"unique":         c.TagsUnique,
		"headers":        c.TagsHeaders,
		"attrs_headers":  c.TagsAttrsHeaders,
	}
}

// applyTagOverrides mutates sets per every non-empty --tags-<set> flag. A
// set whose first value starts with '+' is extended rather than replaced.
func (c *CLI) applyTagOverrides(sets *tagset.Sets) error {
	for name, values := range c.tagOverrides() {
		if len(values) == 0 {
			continue
		}
		extend := false
		if strings.HasPrefix(values[0], "+") {
			extend = true
			values = append([]string{}, values...)
			values[0] = strings.TrimPrefix(values[0], "+")
		}
		if err := sets.Override(name, values, extend); err != nil {
			return err
		}
	}
	return nil
}

// Diagnostic reports whether one of --url64/--hash32/--hash64 was given,
// printing its result and reporting true so the caller can exit early
// without touching any input/work dir.
func (c *CLI) Diagnostic(stdout io.Writer) bool {
	switch {
	case c.URL64 != "":
		fmt.Fprintln(stdout, hasher.EncodeURL64([]byte(c.URL64)))
		return true
	case c.Hash32 != "":
		fmt.Fprintln(stdout, hasher.EncodeURL64(hasher.Uint32Bytes(hasher.Hash32([]byte(c.Hash32)))))
		return true
	case c.Hash64 != "":
		fmt.Fprintln(stdout, hasher.EncodeURL64(hasher.Uint64Bytes(hasher.Hash64([]byte(c.Hash64)))))
		return true
	}
	return false
}

// ResolveMode derives the operating mode: --mode wins, else the invoked
// program name (tf-extract, tf-inject, tf-clean), else "clean".
func ResolveMode(explicit, programName string) string {
	if explicit != "" {
		return explicit
	}
	switch {
	case strings.Contains(programName, "tf-extract"):
		return "extract"
	case strings.Contains(programName, "tf-inject"):
		return "inject"
	case strings.Contains(programName, "tf-clean"):
		return "clean"
	default:
		return "clean"
	}
}

func parseDialect(s string) (stream.Dialect, bool) {
	switch s {
	case "apertium":
		return stream.Apertium, true
	case "visl":
		return stream.VISL, true
	case "cg":
		return stream.CG, true
	default:
		return stream.Apertium, false
	}
}

// Run executes the resolved mode against real files, stdin/stdout
// inherited from the process unless overridden for testing.
func (c *CLI) Run(programName string, stdin io.Reader, stdout, stderr io.Writer) error {
	if c.Diagnostic(stdout) {
		return nil
	}

	level := logging.LevelInfo
	if c.Verbose {
		level = logging.LevelDebug
	}
	logging.InitLogger(level, logging.FormatText)

	mode := ResolveMode(c.Mode, programName)

	keep := c.Keep || c.Dir != ""
	wipe := c.NoKeep

	dirPath := c.Dir
	var dir *workdir.Dir
	var err error
	if dirPath == "" {
		dir, err = workdir.NewTemp()
	} else {
		dir, err = workdir.Open(dirPath, wipe && mode != "inject")
	}
	if err != nil {
		return err
	}
	if !keep || (wipe && mode != "extract") {
		defer dir.Remove()
	}

	switch mode {
	case "extract":
		return c.runExtract(dir, stdin, stdout)
	case "inject":
		return c.runInject(dir, stdin, stdout)
	case "clean":
		return c.runClean(dir, stdin, stdout)
	default:
		return fmt.Errorf("unrecognized mode %q", mode)
	}
}

func (c *CLI) readInput(stdin io.Reader) ([]byte, error) {
	if c.Input == "" || c.Input == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(c.Input)
	if err != nil {
		return nil, errs.Fatal(errs.ErrInputMissing, "read input", c.Input, err)
	}
	return data, nil
}

func (c *CLI) writeOutput(stdout io.Writer, data []byte, defaultName string) (string, error) {
	if c.Output == "" || c.Output == "-" {
		_, err := stdout.Write(data)
		return defaultName, err
	}
	if err := os.WriteFile(c.Output, data, 0o644); err != nil {
		return "", errs.Fatal(errs.ErrWorkDirUnavailable, "write output", c.Output, err)
	}
	return c.Output, nil
}

func (c *CLI) resolveAdapter(input []byte) (adapter.Adapter, adapter.Format, error) {
	format := adapter.Format(c.Format)
	if format == "" || format == adapter.Auto {
		var err error
		format, err = adapter.Detect(input)
		if err != nil {
			return nil, "", err
		}
	}
	a, err := adapter.New(format)
	if err != nil {
		return nil, "", err
	}
	return a, format, nil
}

func (c *CLI) dialect() stream.Dialect {
	d, ok := parseDialect(c.Stream)
	if !ok {
		d = stream.Apertium
	}
	return d
}

func (c *CLI) runExtract(dir *workdir.Dir, stdin io.Reader, stdout io.Writer) error {
	input, err := c.readInput(stdin)
	if err != nil {
		return err
	}
	if err := dir.SaveOriginal(strings.NewReader(string(input))); err != nil {
		return err
	}

	a, _, err := c.resolveAdapter(input)
	if err != nil {
		return err
	}

	store, err := stylestore.Open(dir.State(), false)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, sets, err := a.Extract(input, store)
	if err != nil {
		return err
	}
	if err := c.applyTagOverrides(&sets); err != nil {
		return err
	}

	res, err := c.extractWith(doc, sets, store, dir)
	if err != nil {
		return err
	}

	if _, err := c.writeOutput(stdout, []byte(res.Stream), "extracted"); err != nil {
		return err
	}
	return nil
}

func (c *CLI) extractWith(doc *xmldoc.Document, sets tagset.Sets, store *stylestore.Store, dir *workdir.Dir) (*pipeline.ExtractResult, error) {
	res, err := pipeline.Extract(doc, sets, store, c.dialect(), dir.Path, c.MarkHeaders, c.ApertiumN)
	if err != nil {
		return nil, err
	}
	if err := dir.WriteString(workdir.StyledFile, res.StyledXML); err != nil {
		return nil, err
	}
	if err := dir.WriteString(workdir.ContentFile, res.ContentXML); err != nil {
		return nil, err
	}
	if err := dir.WriteString(workdir.ExtractedFile, res.Stream); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *CLI) runInject(dir *workdir.Dir, stdin io.Reader, stdout io.Writer) error {
	if !dir.Ready() {
		return errs.Fatal(errs.ErrStateMissing, "inject", dir.Path, nil)
	}

	translated, err := c.readInput(stdin)
	if err != nil {
		return err
	}

	content, err := dir.ReadString(workdir.ContentFile)
	if err != nil {
		return err
	}
	original, err := os.ReadFile(dir.Original())
	if err != nil {
		return errs.Fatal(errs.ErrStateMissing, "read original", dir.Original(), err)
	}

	store, err := stylestore.Open(dir.State(), true)
	if err != nil {
		return err
	}
	defer store.Close()

	formatStr, ok, err := store.GetInfo("format")
	if err != nil {
		return err
	}
	var a adapter.Adapter
	if ok {
		a, err = adapter.New(adapter.Format(formatStr))
	} else {
		a, _, err = c.resolveAdapter(original)
	}
	if err != nil {
		return err
	}

	outputPath, err := c.finishInject(store, a, content, translated, original, stdout)
	if err != nil {
		return err
	}

	if c.HookInject != "" {
		if err := runHook(c.HookInject, outputPath); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLI) finishInject(store *stylestore.Store, a adapter.Adapter, content string, translated, original []byte, stdout io.Writer) (string, error) {
	dialect := c.dialect()
	if d, ok := stream.DetectDialect(firstLine(string(translated))); ok {
		dialect = d
	}

	r := stream.NewReader(string(translated), dialect)
	doc, warnings, err := pipeline.Inject(content, r, store, injectOptions(c))
	if err != nil {
		return "", err
	}
	for _, w := range warnings {
		logging.Block("inject", "", w)
	}

	out, filename, err := a.Inject(doc, original)
	if err != nil {
		return "", err
	}

	outPath := filename
	if c.Output != "" && c.Output != "-" {
		outPath = c.Output
	}
	return c.writeOutput(stdout, out, outPath)
}

func (c *CLI) runClean(dir *workdir.Dir, stdin io.Reader, stdout io.Writer) error {
	input, err := c.readInput(stdin)
	if err != nil {
		return err
	}
	if err := dir.SaveOriginal(strings.NewReader(string(input))); err != nil {
		return err
	}

	a, format, err := c.resolveAdapter(input)
	if err != nil {
		return err
	}

	store, err := stylestore.Open(dir.State(), false)
	if err != nil {
		return err
	}

	doc, sets, err := a.Extract(input, store)
	if err != nil {
		store.Close()
		return err
	}
	if err := c.applyTagOverrides(&sets); err != nil {
		store.Close()
		return err
	}

	if err := store.PutInfo("format", string(format)); err != nil {
		store.Close()
		return err
	}

	res, err := c.extractWith(doc, sets, store, dir)
	if err != nil {
		store.Close()
		return err
	}

	outputPath, err := c.finishInject(store, a, res.ContentXML, []byte(res.Stream), input, stdout)
	store.Close()
	if err != nil {
		return err
	}

	if c.HookInject != "" {
		return runHook(c.HookInject, outputPath)
	}
	return nil
}

func injectOptions(c *CLI) inject.Options {
	return inject.Options{Raw: c.InjectRaw, Extend: !c.NoExtend}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func runHook(cmdline, outputPath string) error {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil
	}
	args := append(append([]string{}, fields[1:]...), outputPath)
	cmd := exec.Command(fields[0], args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
