// Command check_boundaries enforces the layering of every bounded context:
// domain and application code stay free of adapters and runtime
// infrastructure, and no context reaches into another.
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "prizeforge"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what one layer may import besides the standard library.
type layerRule struct {
	name     string
	allowed  func(servicePrefix string) []string
	external []string
}

// Pure libraries the core layers may use. Anything touching I/O belongs in an
// adapter.
var pureExternal = []string{
	"golang.org/x/crypto/nacl",
	"golang.org/x/crypto/sha3",
}

var layerRules = map[string]layerRule{
	"domain": {
		name: "domain",
		allowed: func(servicePrefix string) []string {
			return []string{servicePrefix + "/domain"}
		},
		external: pureExternal,
	},
	"application": {
		name: "application",
		allowed: func(servicePrefix string) []string {
			return []string{
				servicePrefix + "/application",
				servicePrefix + "/domain",
				servicePrefix + "/ports",
				modulePath + "/contracts",
			}
		},
		external: pureExternal,
	},
	"ports": {
		name: "ports",
		allowed: func(servicePrefix string) []string {
			return []string{
				servicePrefix + "/domain",
				modulePath + "/contracts",
			}
		},
	},
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

// collectViolations walks root and returns violations sorted by position.
func collectViolations(root string) []violation {
	var violations []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(filepath.Dir(root), path)
		if err != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}
		servicePrefix := strings.Join([]string{modulePath, "contexts", parts[1], parts[2]}, "/")
		violations = append(violations, validateFile(path, filepath.ToSlash(rel), parts[3], servicePrefix)...)
		return nil
	})

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})
	return violations
}

func validateFile(path string, rel string, layer string, servicePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: rel, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	rule, layered := layerRules[layer]
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		at := violation{File: rel, Line: fset.Position(imp.Pos()).Line, Import: importPath}

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, servicePrefix) {
			at.Rule = "cross-context imports are forbidden"
			violations = append(violations, at)
			continue
		}
		if !layered {
			continue
		}
		switch {
		case strings.Contains(importPath, "/adapters/"):
			at.Rule = rule.name + " must not import adapters"
		case hasPrefix(importPath, modulePath+"/internal"):
			at.Rule = rule.name + " must not import runtime infrastructure"
		case isStdlib(importPath):
			continue
		case isAllowed(importPath, rule.allowed(servicePrefix)) || isAllowed(importPath, rule.external):
			continue
		default:
			at.Rule = rule.name + " import is outside explicit allowlist"
		}
		violations = append(violations, at)
	}
	return violations
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
