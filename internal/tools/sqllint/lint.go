package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	sqlKeywordPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	markerPattern     = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
)

type violation struct {
	file    string
	line    int
	name    string
	message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.file, v.line, v.message, v.name)
}

type markerUse struct {
	file string
	line int
	name string
}

type linter struct {
	fset       *token.FileSet
	violations []violation
	markers    map[string][]markerUse
	checked    int
}

func newLinter() *linter {
	return &linter{fset: token.NewFileSet(), markers: make(map[string][]markerUse)}
}

func (l *linter) lintPath(target string) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if filepath.Ext(target) != ".go" {
			return nil
		}
		return l.lintFile(target)
	}
	return filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != target && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") || d.Name() == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		return l.lintFile(path)
	})
}

func (l *linter) lintFile(path string) error {
	file, err := parser.ParseFile(l.fset, path, nil, 0)
	if err != nil {
		return err
	}
	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range spec.Values {
			lit, ok := value.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			raw, err := unquote(lit.Value)
			if err != nil || !sqlKeywordPattern.MatchString(raw) {
				continue
			}
			name := "_"
			if i < len(spec.Names) {
				name = spec.Names[i].Name
			}
			l.checkQuery(path, l.fset.Position(lit.Pos()).Line, name, raw)
		}
		return true
	})
	return nil
}

func (l *linter) checkQuery(path string, line int, name, raw string) {
	l.checked++
	m := markerPattern.FindStringSubmatch(firstLine(raw))
	if m == nil {
		l.violations = append(l.violations, violation{file: path, line: line, name: name, message: "missing or invalid --sql <uuid> marker"})
		return
	}
	l.markers[m[1]] = append(l.markers[m[1]], markerUse{file: path, line: line, name: name})
}

// finish adds duplicate-marker violations and returns everything sorted by position.
func (l *linter) finish() []violation {
	out := append([]violation(nil), l.violations...)
	for marker, uses := range l.markers {
		if len(uses) < 2 {
			continue
		}
		for _, use := range uses[1:] {
			out = append(out, violation{
				file:    use.file,
				line:    use.line,
				name:    use.name,
				message: fmt.Sprintf("marker %s already used by %s", marker, uses[0].name),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].file != out[j].file {
			return out[i].file < out[j].file
		}
		return out[i].line < out[j].line
	})
	return out
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) >= 2 && v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}
