// Command sqllint enforces the SQL audit convention: every string constant
// that carries a SQL statement must start with a `--sql <uuid>` line, and no
// two statements may share a uuid. The markers travel with the query into
// server logs, so a slow statement in production can be traced back to the
// exact constant that produced it.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlKeywordPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	auditMarkerLine   = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
)

type finding struct {
	file    string
	name    string
	line    int
	message string
}

type marker struct {
	file string
	name string
	line int
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}

	var findings []finding
	seen := make(map[string]marker)

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
		if info.IsDir() {
			err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					if strings.HasPrefix(d.Name(), ".") || d.Name() == "vendor" || d.Name() == "node_modules" {
						return filepath.SkipDir
					}
					return nil
				}
				if filepath.Ext(path) != ".go" {
					return nil
				}
				findings = append(findings, lintFile(path, seen)...)
				return nil
			})
		} else if filepath.Ext(target) == ".go" {
			findings = append(findings, lintFile(target, seen)...)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
	}

	if len(findings) > 0 {
		fmt.Fprintln(os.Stderr, "sqllint: SQL audit marker violations")
		for _, f := range findings {
			fmt.Fprintf(os.Stderr, "  %s:%d %s (%s)\n", f.file, f.line, f.message, f.name)
		}
		os.Exit(1)
	}
}

// lintFile inspects every string-valued const and var spec. Strings that look
// like SQL must open with a marker line; markers must be unique across the
// whole run, with seen carrying the cross-file state.
func lintFile(path string, seen map[string]marker) []finding {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
		os.Exit(1)
	}
	var findings []finding
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for _, value := range vs.Values {
			bl, ok := value.(*ast.BasicLit)
			if !ok || bl.Kind != token.STRING {
				continue
			}
			raw, err := unquote(bl.Value)
			if err != nil {
				continue
			}
			if !sqlKeywordPattern.MatchString(raw) {
				continue
			}
			pos := fset.Position(bl.Pos())
			name := joinNames(vs.Names)
			m := auditMarkerLine.FindStringSubmatch(firstLine(raw))
			if m == nil {
				findings = append(findings, finding{
					file:    path,
					line:    pos.Line,
					name:    name,
					message: "missing or invalid --sql <uuid> marker",
				})
				continue
			}
			id := m[1]
			if prev, dup := seen[id]; dup {
				findings = append(findings, finding{
					file:    path,
					line:    pos.Line,
					name:    name,
					message: fmt.Sprintf("marker %s already used by %s at %s:%d", id, prev.name, prev.file, prev.line),
				})
				continue
			}
			seen[id] = marker{file: path, name: name, line: pos.Line}
		}
		return true
	})
	return findings
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}

func joinNames(idents []*ast.Ident) string {
	parts := make([]string, 0, len(idents))
	for _, ident := range idents {
		if ident == nil {
			continue
		}
		parts = append(parts, ident.Name)
	}
	return strings.Join(parts, ",")
}
