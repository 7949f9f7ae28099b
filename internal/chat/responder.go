package chat

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

const usernamePlaceholder = "{username}"

//go:embed responder.yaml
var defaultRulesYAML []byte

// Rule matches a message when any keyword occurs in its lowercased text or
// any marker occurs in the text as written.
type Rule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Markers  []string `yaml:"markers"`
	Template string   `yaml:"template"`
}

func (rule Rule) matches(text, lowered string) bool {
	for _, keyword := range rule.Keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	for _, marker := range rule.Markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

type Reply struct {
	Rule string
	Text string
}

// Responder produces the bot reply for a message. Rules are tried in order and
// the fallback answers when none match.
type Responder struct {
	rules    []Rule
	fallback Rule
}

func ParseResponderRules(data []byte) (*Responder, error) {
	raw := struct {
		Rules    []Rule `yaml:"rules"`
		Fallback Rule   `yaml:"fallback"`
	}{}

	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing responder rules: %w", err)
	}

	if raw.Fallback.Template == "" {
		return nil, fmt.Errorf("responder rules must define a fallback template")
	}
	if raw.Fallback.Name == "" {
		raw.Fallback.Name = "generic"
	}

	rules := make([]Rule, 0, len(raw.Rules))
	for i, rule := range raw.Rules {
		if rule.Name == "" {
			return nil, fmt.Errorf("responder rule %d has no name", i)
		}
		if rule.Template == "" {
			return nil, fmt.Errorf("responder rule '%s' has no template", rule.Name)
		}
		if len(rule.Keywords) == 0 && len(rule.Markers) == 0 {
			return nil, fmt.Errorf("responder rule '%s' needs at least one keyword or marker", rule.Name)
		}

		keywords := make([]string, 0, len(rule.Keywords))
		for _, keyword := range rule.Keywords {
			if keyword = strings.ToLower(strings.TrimSpace(keyword)); keyword != "" {
				keywords = append(keywords, keyword)
			}
		}
		rule.Keywords = keywords
		rules = append(rules, rule)
	}

	return &Responder{rules: rules, fallback: raw.Fallback}, nil
}

func LoadResponderRules(path string) (*Responder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading responder rules file '%s': %w", path, err)
	}
	return ParseResponderRules(data)
}

// NewDefaultResponder uses the built in greeting/question/generic rules.
func NewDefaultResponder() *Responder {
	responder, err := ParseResponderRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("invalid built in responder rules: %v", err))
	}
	return responder
}

func (r *Responder) Respond(text, username string) Reply {
	lowered := strings.ToLower(text)

	rule := r.fallback
	for _, candidate := range r.rules {
		if candidate.matches(text, lowered) {
			rule = candidate
			break
		}
	}

	return Reply{
		Rule: rule.Name,
		Text: strings.ReplaceAll(rule.Template, usernamePlaceholder, username),
	}
}
