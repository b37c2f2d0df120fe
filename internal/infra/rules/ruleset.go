package rules

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/saringan/internal/domain/triage"
)

// Rule is one compiled signature. Any pattern hit makes the rule match;
// every pattern that hit is reported back.
type Rule struct {
	Name        string
	Description string
	Strings     [][]byte
	Regexes     []*regexp.Regexp
	Source      string
}

// ruleFile is the on-disk YAML shape.
type ruleFile struct {
	Rules []struct {
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Strings     []string `yaml:"strings"`
		Regexes     []string `yaml:"regexes"`
	} `yaml:"rules"`
}

// Engine matches a compiled ruleset against files, CGO-free.
type Engine struct {
	rules    []Rule
	maxBytes int64
	log      *logrus.Entry
}

// Load walks dir recursively and compiles every .yml/.yaml rule file.
// Files that fail to compile are logged and skipped, never fatal. When
// nothing loads the builtin set keeps the pipeline useful out of the box.
func Load(dir string, maxBytes int64, log *logrus.Entry) *Engine {
	e := &Engine{maxBytes: maxBytes, log: log}
	if dir != "" {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".yml" && ext != ".yaml" {
				return nil
			}
			compiled, cerr := compileFile(path)
			if cerr != nil {
				log.WithError(cerr).WithField("rule_file", path).Warn("skipping rule file")
				return nil
			}
			e.rules = append(e.rules, compiled...)
			return nil
		})
	}
	if len(e.rules) == 0 {
		e.rules = builtinRules()
		log.Infof("no rule files loaded, using %d builtin rules", len(e.rules))
	} else {
		log.Infof("loaded %d signature rules", len(e.rules))
	}
	return e
}

// Rules exposes the compiled set (read-only by convention).
func (e *Engine) Rules() []Rule { return e.rules }

func compileFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	var out []Rule
	for _, r := range rf.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule without name in %s", path)
		}
		rule := Rule{Name: r.Name, Description: r.Description, Source: path}
		for _, s := range r.Strings {
			rule.Strings = append(rule.Strings, []byte(s))
		}
		for _, expr := range r.Regexes {
			re, rerr := regexp.Compile(expr)
			if rerr != nil {
				return nil, fmt.Errorf("rule %s: %w", r.Name, rerr)
			}
			rule.Regexes = append(rule.Regexes, re)
		}
		if len(rule.Strings) == 0 && len(rule.Regexes) == 0 {
			return nil, fmt.Errorf("rule %s has no patterns", r.Name)
		}
		out = append(out, rule)
	}
	return out, nil
}

// Match scans one file against every rule. The per-file read is capped;
// a sample larger than the cap is matched on its head only.
func (e *Engine) Match(path string) ([]triage.SignatureMatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if e.maxBytes > 0 {
		r = io.LimitReader(f, e.maxBytes)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	matches := []triage.SignatureMatch{}
	for _, rule := range e.rules {
		hits := []string{}
		for _, sig := range rule.Strings {
			if bytes.Contains(data, sig) {
				hits = append(hits, string(sig))
			}
		}
		for _, re := range rule.Regexes {
			if m := re.Find(data); m != nil {
				hits = append(hits, string(m))
			}
		}
		if len(hits) > 0 {
			matches = append(matches, triage.SignatureMatch{
				RuleName:       rule.Name,
				Severity:       triage.DeriveSeverity(rule.Name),
				MatchedStrings: hits,
				SourceRule:     rule.Source,
			})
		}
	}
	return matches, nil
}
