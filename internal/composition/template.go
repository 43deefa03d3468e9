package composition

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Diagnostic is a non-fatal note the Template Engine records while
// rendering: missing variable, missing include, rejected path.
type Diagnostic struct {
	Kind   string
	Detail string
}

// IncludeProvider resolves an {{include-section:path#section}} reference.
// It owns its own sandboxing; a false second return means
// "leave placeholder, record diagnostic".
type IncludeProvider interface {
	Resolve(ref string) (string, bool)
}

// Engine renders {{...}} constructs against a context map.
type Engine struct {
	Include  IncludeProvider
	SafeRoot string
	Strict   bool
}

// NewEngine builds an Engine. safeRoot bounds {{safe_include}}; include may
// be nil if {{include-section}} is not used by the caller.
func NewEngine(include IncludeProvider, safeRoot string) *Engine {
	return &Engine{Include: include, SafeRoot: safeRoot}
}

// Render resolves every construct in template against vars.
func (e *Engine) Render(template string, vars map[string]any) (string, []Diagnostic, error) {
	tokens, err := tokenizeTemplate(template)
	if err != nil {
		return "", nil, err
	}
	nodes, _, _, err := parseTemplateBlock(tokens, 0, nil)
	if err != nil {
		return "", nil, err
	}
	var sb strings.Builder
	var diags []Diagnostic
	if err := e.renderNodes(nodes, vars, &sb, &diags); err != nil {
		return "", diags, err
	}
	return sb.String(), diags, nil
}

// --- tokenizer ---

type tokenKind int

const (
	tokText tokenKind = iota
	tokTag
)

type rawToken struct {
	kind  tokenKind
	value string
}

func tokenizeTemplate(template string) ([]rawToken, error) {
	var tokens []rawToken
	rest := template
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			if rest != "" {
				tokens = append(tokens, rawToken{kind: tokText, value: rest})
			}
			return tokens, nil
		}
		if start > 0 {
			tokens = append(tokens, rawToken{kind: tokText, value: rest[:start]})
		}
		end := strings.Index(rest[start:], "}}")
		if end == -1 {
			return nil, &CompositionError{Reason: "unterminated {{ tag"}
		}
		tag := rest[start+2 : start+end]
		tokens = append(tokens, rawToken{kind: tokTag, value: strings.TrimSpace(tag)})
		rest = rest[start+end+2:]
	}
}

// --- AST ---

type templateNode any

type textNode struct{ text string }
type varNode struct{ path string }
type ifNode struct {
	expr       string
	thenNodes  []templateNode
	elseNodes  []templateNode
}
type eachNode struct {
	list      string
	body      []templateNode
	elseNodes []templateNode
}
type includeSectionNode struct{ ref string }
type safeIncludeNode struct {
	relPath  string
	fallback string
}

// parseTemplateBlock consumes tokens from start, recursing into #if/#each
// bodies, until it hits a tag in stopTags (or EOF when stopTags is nil).
func parseTemplateBlock(tokens []rawToken, start int, stopTags map[string]bool) (nodes []templateNode, next int, stoppedAt string, err error) {
	i := start
	for i < len(tokens) {
		tok := tokens[i]
		if tok.kind == tokText {
			nodes = append(nodes, textNode{text: tok.value})
			i++
			continue
		}

		tag := tok.value
		if stopTags != nil && stopTags[tag] {
			return nodes, i + 1, tag, nil
		}

		switch {
		case strings.HasPrefix(tag, "#if "):
			expr := strings.TrimSpace(strings.TrimPrefix(tag, "#if "))
			thenNodes, next1, stop1, err1 := parseTemplateBlock(tokens, i+1, map[string]bool{"else": true, "/if": true})
			if err1 != nil {
				return nil, 0, "", err1
			}
			var elseNodes []templateNode
			nextIdx := next1
			if stop1 == "else" {
				elseNodes, nextIdx, _, err1 = parseTemplateBlock(tokens, next1, map[string]bool{"/if": true})
				if err1 != nil {
					return nil, 0, "", err1
				}
			}
			nodes = append(nodes, ifNode{expr: expr, thenNodes: thenNodes, elseNodes: elseNodes})
			i = nextIdx

		case strings.HasPrefix(tag, "#each "):
			listExpr := strings.TrimSpace(strings.TrimPrefix(tag, "#each "))
			body, next1, stop1, err1 := parseTemplateBlock(tokens, i+1, map[string]bool{"else": true, "/each": true})
			if err1 != nil {
				return nil, 0, "", err1
			}
			var elseNodes []templateNode
			nextIdx := next1
			if stop1 == "else" {
				elseNodes, nextIdx, _, err1 = parseTemplateBlock(tokens, next1, map[string]bool{"/each": true})
				if err1 != nil {
					return nil, 0, "", err1
				}
			}
			nodes = append(nodes, eachNode{list: listExpr, body: body, elseNodes: elseNodes})
			i = nextIdx

		case strings.HasPrefix(tag, "include-section:"):
			ref := strings.TrimPrefix(tag, "include-section:")
			nodes = append(nodes, includeSectionNode{ref: ref})
			i++

		case strings.HasPrefix(tag, "safe_include("):
			relPath, fallback, perr := parseSafeIncludeArgs(tag)
			if perr != nil {
				return nil, 0, "", perr
			}
			nodes = append(nodes, safeIncludeNode{relPath: relPath, fallback: fallback})
			i++

		default:
			nodes = append(nodes, varNode{path: tag})
			i++
		}
	}

	if stopTags != nil {
		return nil, 0, "", &CompositionError{Reason: fmt.Sprintf("unterminated template block, expected one of %v", stopTagNames(stopTags))}
	}
	return nodes, i, "", nil
}

func stopTagNames(stopTags map[string]bool) []string {
	names := make([]string, 0, len(stopTags))
	for name := range stopTags {
		names = append(names, name)
	}
	return names
}

var safeIncludeArgsRe = regexp.MustCompile(`^safe_include\(\s*"?([^",)]+)"?\s*(?:,\s*fallback\s*=\s*"([^"]*)")?\s*\)$`)

func parseSafeIncludeArgs(tag string) (relPath, fallback string, err error) {
	m := safeIncludeArgsRe.FindStringSubmatch(tag)
	if m == nil {
		return "", "", &CompositionError{Reason: "malformed safe_include(...) tag: " + tag}
	}
	return m[1], m[2], nil
}

// --- rendering ---

func (e *Engine) renderNodes(nodes []templateNode, vars map[string]any, sb *strings.Builder, diags *[]Diagnostic) error {
	for _, n := range nodes {
		switch node := n.(type) {
		case textNode:
			sb.WriteString(node.text)

		case varNode:
			val, ok := lookupPath(vars, node.path)
			if !ok {
				*diags = append(*diags, Diagnostic{Kind: "missing-var", Detail: node.path})
				if e.Strict {
					sb.WriteString("{{" + node.path + "}}")
				}
				continue
			}
			sb.WriteString(stringifyValue(val))

		case ifNode:
			val, _ := lookupPath(vars, node.expr)
			if truthy(val) {
				if err := e.renderNodes(node.thenNodes, vars, sb, diags); err != nil {
					return err
				}
			} else if err := e.renderNodes(node.elseNodes, vars, sb, diags); err != nil {
				return err
			}

		case eachNode:
			val, ok := lookupPath(vars, node.list)
			items, isList := toSlice(val)
			if !ok || !isList || len(items) == 0 {
				if err := e.renderNodes(node.elseNodes, vars, sb, diags); err != nil {
					return err
				}
				continue
			}
			for idx, item := range items {
				iterVars := make(map[string]any, len(vars)+2)
				for k, v := range vars {
					iterVars[k] = v
				}
				iterVars["this"] = item
				iterVars["@index"] = idx
				if err := e.renderNodes(node.body, iterVars, sb, diags); err != nil {
					return err
				}
			}

		case includeSectionNode:
			if e.Include != nil {
				if resolved, ok := e.Include.Resolve(node.ref); ok {
					sb.WriteString(resolved)
					continue
				}
			}
			*diags = append(*diags, Diagnostic{Kind: "missing-include", Detail: node.ref})
			sb.WriteString("{{include-section:" + node.ref + "}}")

		case safeIncludeNode:
			text, diag := e.resolveSafeInclude(node.relPath, node.fallback)
			sb.WriteString(text)
			if diag != nil {
				*diags = append(*diags, *diag)
			}
		}
	}
	return nil
}

func (e *Engine) resolveSafeInclude(relPath, fallback string) (string, *Diagnostic) {
	if filepath.IsAbs(relPath) || strings.Contains(filepath.ToSlash(filepath.Clean(relPath)), "..") {
		return fallback, &Diagnostic{Kind: "unsafe-include-path", Detail: relPath}
	}
	full := filepath.Join(e.SafeRoot, filepath.Clean(relPath))
	rel, err := filepath.Rel(e.SafeRoot, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fallback, &Diagnostic{Kind: "unsafe-include-path", Detail: relPath}
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return fallback, &Diagnostic{Kind: "missing-include-file", Detail: relPath}
	}
	return string(data), nil
}

// lookupPath resolves a dotted path ("this.field", "@index", "name") into
// vars, which may itself be a map[string]any or any nested map[string]any.
func lookupPath(vars map[string]any, path string) (any, bool) {
	var cur any = vars
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		val, exists := m[seg]
		if !exists {
			return nil, false
		}
		cur = val
	}
	return cur, true
}

func toSlice(val any) ([]any, bool) {
	switch v := val.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

func truthy(val any) bool {
	switch v := val.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func stringifyValue(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
