package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledgerfold/beancore/ast"
)

// runDocumentsPrePlugin implements the `documents` pre-plugin: for every
// directory named by a `documents` option, it walks subpaths that mirror an
// account's colon-separated hierarchy (e.g. "Assets/Checking" under the
// configured root maps to account "Assets:Checking") and emits a Document
// directive for each file whose basename starts with a YYYY-MM-DD date.
// Returns the synthesized directives; it performs no ledger mutation itself.
func runDocumentsPrePlugin(cfg *Config) []ast.Directive {
	var out []ast.Directive
	for _, root := range cfg.DocumentsDirs {
		out = append(out, scanDocumentsDir(root, root)...)
	}
	return out
}

// scanDocumentsDir recursively walks dir, deriving the account name for each
// file from its path relative to root.
func scanDocumentsDir(root, dir string) []ast.Directive {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []ast.Directive
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			out = append(out, scanDocumentsDir(root, full)...)
			continue
		}

		date, ok := dateFromFilename(entry.Name())
		if !ok {
			continue
		}

		rel, err := filepath.Rel(root, dir)
		if err != nil || rel == "." {
			continue
		}
		account := ast.Account(strings.ReplaceAll(rel, string(filepath.Separator), ":"))

		out = append(out, &ast.Document{
			Date:           date,
			Account:        account,
			PathToDocument: ast.NewRawString(full),
		})
	}
	return out
}

// dateFromFilename parses a leading "YYYY-MM-DD" prefix off a basename,
// the convention the documents pre-plugin uses to find dated statements.
func dateFromFilename(name string) (*ast.Date, bool) {
	if len(name) < len("2006-01-02") {
		return nil, false
	}
	prefix := name[:len("2006-01-02")]
	parts := strings.Split(prefix, "-")
	if len(parts) != 3 {
		return nil, false
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return nil, false
		}
	}
	date := &ast.Date{}
	if err := date.Capture([]string{prefix}); err != nil {
		return nil, false
	}
	return date, true
}

// nativePlugins holds the host's built-in plugin transforms, keyed by the
// name a `plugin "name"` directive references. None are registered by
// default: the contract exists so embedders can add their own via
// RegisterPlugin without forking the ledger package.
var nativePlugins = map[string]func(ctx context.Context, l *Ledger) bool{}

// RegisterPlugin installs a native plugin transform under name, overwriting
// any previous registration. Intended for embedders; not safe to call
// concurrently with RunPlugin.
func RegisterPlugin(name string, fn func(ctx context.Context, l *Ledger) bool) {
	nativePlugins[name] = fn
}

// RunPlugin invokes the native plugin registered under name against this
// ledger, returning false if the host has no handler for it — the signal
// callers use to fall back to an external plugin runtime, per the plugin
// contract in the external interfaces.
func (l *Ledger) RunPlugin(ctx context.Context, name string) bool {
	fn, ok := nativePlugins[name]
	if !ok {
		l.errors = append(l.errors, &UnknownPluginError{Name: name})
		return false
	}
	return fn(ctx, l)
}
