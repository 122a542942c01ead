package workflow

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// workflowFrontmatter is the YAML header of a workflow definition file.
// Only files declaring `type: kanban-workflow` are treated as
// workflow definitions; everything else in the directory is ignored.
type workflowFrontmatter struct {
	ID        string `yaml:"id"`
	Type      string `yaml:"type"`
	AppliesTo string `yaml:"applies_to"`
	Version   int    `yaml:"version"`
}

var turtleBlockPattern = regexp.MustCompile("(?s)```turtle\n(.*?)```")

// ParseFile parses a single workflow definition file. It returns
// (nil, nil) when the file is not a workflow definition.
func ParseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workflow: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("workflow: parse %s: %w", path, err)
	}
	if cfg != nil {
		if cfg.ID == "" {
			cfg.ID = strings.TrimSuffix(filepath.Base(path), ".md")
		}
		cfg.Source = path
	}
	return cfg, nil
}

// Parse parses workflow definition markdown: YAML frontmatter, a title
// heading, and fenced turtle blocks declaring State and Rule nodes.
// Returns (nil, nil) for markdown that is not a workflow definition.
func Parse(data []byte) (*Config, error) {
	content := string(data)
	front, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	var fm workflowFrontmatter
	if err := yaml.Unmarshal([]byte(front), &fm); err != nil {
		return nil, fmt.Errorf("frontmatter: %w", err)
	}
	if fm.Type != "kanban-workflow" {
		return nil, nil
	}
	if fm.AppliesTo == "" {
		fm.AppliesTo = "feature"
	}
	if fm.Version == 0 {
		fm.Version = 1
	}

	cfg := &Config{
		ID:        fm.ID,
		Name:      firstHeading(body),
		AppliesTo: fm.AppliesTo,
		Version:   fm.Version,
	}
	if cfg.Name == "" {
		cfg.Name = fm.ID
	}

	for _, block := range turtleBlockPattern.FindAllStringSubmatch(content, -1) {
		states, rules, err := parseTurtleBlock(block[1])
		if err != nil {
			log.Printf("workflow: skipping malformed turtle block: %v", err)
			continue
		}
		cfg.States = append(cfg.States, states...)
		cfg.Rules = append(cfg.Rules, rules...)
	}

	return cfg, nil
}

// splitFrontmatter separates the leading "---" delimited YAML header
// from the markdown body.
func splitFrontmatter(content string) (front, body string, err error) {
	if !strings.HasPrefix(content, "---") {
		return "", content, nil
	}
	rest := content[3:]
	end := strings.Index(rest, "\n---")
	if end == -1 {
		return "", "", fmt.Errorf("unterminated frontmatter")
	}
	front = rest[:end]
	body = rest[end+4:]
	return front, body, nil
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

// turtleStatement is one subject with its predicate/object pairs, as
// produced by the line-oriented micro-parser. This is deliberately not
// a triple store: workflow files only ever use the flat
// subject-predicates-period shape.
type turtleStatement struct {
	subject string
	typ     string
	props   map[string]string
}

// parseTurtleBlock extracts State and Rule declarations from one
// fenced turtle block.
func parseTurtleBlock(block string) ([]StateConfig, []TransitionRule, error) {
	statements, err := parseStatements(block)
	if err != nil {
		return nil, nil, err
	}

	var states []StateConfig
	var rules []TransitionRule
	for _, st := range statements {
		switch st.typ {
		case "State":
			states = append(states, StateConfig{
				ID:                 localID(st.subject),
				Name:               orDefault(st.props["name"], localID(st.subject)),
				IsInitial:          st.props["isInitial"] == "true",
				IsTerminal:         st.props["isTerminal"] == "true",
				AllowedTransitions: splitRefs(st.props["transitions"]),
				Description:        st.props["description"],
			})
		case "Rule":
			rules = append(rules, TransitionRule{
				ID:        localID(st.subject),
				AppliesTo: localID(st.props["appliesTo"]),
				Condition: ParseCondition(st.props["condition"]),
				Message:   st.props["message"],
			})
		}
	}
	return states, rules, nil
}

// parseStatements splits a turtle block into statements. Each
// statement starts with a `<subject> a prefix:Type ;` line and is
// terminated by a line ending in `.`.
func parseStatements(block string) ([]turtleStatement, error) {
	var statements []turtleStatement
	var current *turtleStatement

	for _, raw := range strings.Split(block, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "@prefix") || strings.HasPrefix(line, "#") {
			continue
		}

		if current == nil {
			subject, typ, ok := parseSubjectLine(line)
			if !ok {
				return nil, fmt.Errorf("expected subject declaration, got %q", line)
			}
			current = &turtleStatement{subject: subject, typ: typ, props: map[string]string{}}
		} else {
			pred, obj, ok := parsePredicateLine(line)
			if ok {
				current.props[pred] = obj
			}
		}

		if strings.HasSuffix(line, ".") {
			statements = append(statements, *current)
			current = nil
		}
	}
	if current != nil {
		return nil, fmt.Errorf("unterminated statement for %s", current.subject)
	}
	return statements, nil
}

// parseSubjectLine matches `<subject> a ns:Type ;`.
func parseSubjectLine(line string) (subject, typ string, ok bool) {
	fields := strings.Fields(strings.TrimRight(line, " ;."))
	if len(fields) < 3 || fields[1] != "a" {
		return "", "", false
	}
	return strings.Trim(fields[0], "<>"), localID(fields[2]), true
}

// parsePredicateLine matches `ns:predicate object ;` where object is a
// quoted string, a <ref>, or a bare token.
func parsePredicateLine(line string) (pred, obj string, ok bool) {
	line = strings.TrimRight(strings.TrimSpace(line), " ;.")
	space := strings.IndexAny(line, " \t")
	if space == -1 {
		return "", "", false
	}
	pred = localName(line[:space])
	obj = strings.TrimSpace(line[space+1:])

	if strings.HasPrefix(obj, `"`) {
		// Strip quotes and any trailing ^^xsd:type annotation.
		if end := strings.LastIndex(obj[1:], `"`); end != -1 {
			obj = obj[1 : end+1]
		}
	} else {
		obj = strings.Trim(obj, "<>")
	}
	return pred, obj, true
}

// localName strips a namespace prefix: "wf:name" -> "name".
func localName(token string) string {
	if i := strings.Index(token, ":"); i != -1 {
		return token[i+1:]
	}
	return token
}

// localID extracts the trailing path segment of a URI or prefixed
// name: "<state/in_progress>" -> "in_progress".
func localID(uri string) string {
	uri = strings.Trim(uri, "<>")
	if i := strings.LastIndex(uri, "/"); i != -1 {
		return uri[i+1:]
	}
	if i := strings.LastIndex(uri, "#"); i != -1 {
		return uri[i+1:]
	}
	return localName(uri)
}

// splitRefs parses a comma-separated transitions value:
// "<state/ready>, <state/blocked>" -> ["ready", "blocked"].
func splitRefs(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.Trim(strings.TrimSpace(part), "<>")
		if part != "" {
			out = append(out, localID(part))
		}
	}
	return out
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
