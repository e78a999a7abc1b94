package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/agentx-labs/agentdir/internal/directory"
	"github.com/agentx-labs/agentdir/internal/discovery"
	"github.com/agentx-labs/agentdir/internal/platform"
	"github.com/agentx-labs/agentdir/internal/registry"
	"go.uber.org/zap"
)

// Options locates what to check.
type Options struct {
	HomeDir      string
	StoreDriver  string
	StorePath    string
	RegistryPath string
	// Fix creates missing directories and tightens permissions.
	Fix bool
}

// Report counts findings by severity.
type Report struct {
	Failures int
	Warnings int
}

// OK reports whether no check failed.
func (r Report) OK() bool { return r.Failures == 0 }

type checker struct {
	w      io.Writer
	opts   Options
	logger *zap.Logger
	report Report
}

func (c *checker) ok(format string, args ...any) {
	fmt.Fprintf(c.w, "  [ OK ] "+format+"\n", args...)
}

func (c *checker) warn(format string, args ...any) {
	c.report.Warnings++
	fmt.Fprintf(c.w, "  [WARN] "+format+"\n", args...)
}

func (c *checker) fail(format string, args ...any) {
	c.report.Failures++
	fmt.Fprintf(c.w, "  [FAIL] "+format+"\n", args...)
}

func (c *checker) fixed(format string, args ...any) {
	fmt.Fprintf(c.w, "  [FIX ] "+format+"\n", args...)
}

// Run executes every check and writes findings to w.
func Run(ctx context.Context, w io.Writer, opts Options, logger *zap.Logger) Report {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &checker{w: w, opts: opts, logger: logger}

	fmt.Fprintln(w, "Home directory:")
	c.checkDirPerm(opts.HomeDir, platform.DirPermSecure)

	fmt.Fprintln(w, "Agent store:")
	entries := c.checkStore(ctx)

	fmt.Fprintln(w, "Service registry:")
	functions := c.checkRegistry()

	fmt.Fprintln(w, "Agent references:")
	c.checkReferences(entries, functions)

	return c.report
}

func (c *checker) checkDirPerm(path string, expected os.FileMode) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if !c.opts.Fix {
			c.warn("%s does not exist", path)
			return
		}
		if err := os.MkdirAll(path, expected); err != nil {
			c.fail("could not create %s: %v", path, err)
			return
		}
		_ = platform.Chmod(path, expected)
		c.fixed("created %s with %o", path, expected)
		return
	}
	if err != nil {
		c.fail("%s: %v", path, err)
		return
	}
	c.checkPerm(path, info, expected)
}

func (c *checker) checkPerm(path string, info os.FileInfo, expected os.FileMode) {
	actual := info.Mode().Perm()
	if actual == expected {
		c.ok("%s (permissions %o)", path, actual)
		return
	}
	if !c.opts.Fix {
		c.warn("%s has permissions %o (expected %o)", path, actual, expected)
		return
	}
	if err := platform.Chmod(path, expected); err != nil {
		c.fail("could not fix permissions on %s: %v", path, err)
		return
	}
	c.fixed("fixed permissions on %s to %o", path, expected)
}

func (c *checker) checkStore(ctx context.Context) []directory.Entry {
	if c.opts.StoreDriver != directory.DriverMemory {
		info, err := os.Stat(c.opts.StorePath)
		switch {
		case os.IsNotExist(err):
			// Opening would create the file.
			c.ok("%s not created yet (no agents)", c.opts.StorePath)
			return []directory.Entry{}
		case err != nil:
			c.fail("%s: %v", c.opts.StorePath, err)
			return nil
		default:
			c.checkPerm(c.opts.StorePath, info, platform.FilePermSecure)
		}
	}

	store, err := directory.Open(ctx, directory.Options{Driver: c.opts.StoreDriver, Path: c.opts.StorePath}, c.logger)
	if err != nil {
		c.fail("cannot open %s store: %v", c.opts.StoreDriver, err)
		return nil
	}
	defer store.Close()

	entries, err := store.GetAll(ctx)
	if err != nil {
		c.fail("cannot read agents: %v", err)
		return nil
	}
	c.ok("%s store holds %d agent(s)", c.opts.StoreDriver, len(entries))
	return entries
}

// checkRegistry returns the catalog's function names, or nil if the registry
// could not be used.
func (c *checker) checkRegistry() map[string]bool {
	if _, err := os.Stat(c.opts.RegistryPath); os.IsNotExist(err) {
		c.warn("%s does not exist; the function catalog is empty", c.opts.RegistryPath)
		return map[string]bool{}
	}
	reg, err := registry.LoadFile(c.opts.RegistryPath)
	if err != nil {
		c.fail("%v", err)
		return nil
	}

	fns, err := registry.ListFunctions(reg)
	var ce *registry.ConfigurationError
	if errors.As(err, &ce) {
		c.fail("%v", ce)
		return nil
	}
	for _, issue := range registry.Check(reg) {
		name := issue.Service
		if issue.Function != "" {
			name = issue.Function
		}
		c.fail("%s: %s", name, issue.Message)
	}
	c.ok("%d service(s), %d function(s)", reg.Len(), len(fns))
	return discovery.KeySet(registry.Names(fns))
}

func (c *checker) checkReferences(entries []directory.Entry, functions map[string]bool) {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	agents := discovery.KeySet(keys)

	dangling := 0
	for _, e := range entries {
		if err := discovery.CheckAssignments(e.Config, agents, functions); err != nil {
			c.warn("%s: %v", e.Key, err)
			dangling++
		}
	}
	if dangling == 0 {
		c.ok("all assignments resolve")
	}
}
