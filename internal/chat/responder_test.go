package chat_test

import (
	"os"
	"path/filepath"
	"testing"

	"lilith-backend/internal/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultResponder(t *testing.T) {
	responder := chat.NewDefaultResponder()

	cases := []struct {
		text string
		rule string
	}{
		{"Hello", "greeting"},
		{"HELLO there", "greeting"},
		{"Привет, Лилит", "greeting"},
		{"ну здравствуй", "greeting"},
		{"хай!", "greeting"},
		{"Why is the sky blue?", "question"},
		{"hello, how are you?", "greeting"},
		{"just chatting", "generic"},
		{"Это утверждение.", "generic"},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			reply := responder.Respond(tc.text, "alice")
			assert.Equal(t, tc.rule, reply.Rule)
			assert.Contains(t, reply.Text, "alice")
			assert.NotContains(t, reply.Text, "{username}")
		})
	}
}

func TestResponderIsDeterministic(t *testing.T) {
	responder := chat.NewDefaultResponder()
	first := responder.Respond("what now?", "bob")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, responder.Respond("what now?", "bob"))
	}
	assert.Equal(t, "Лилит: Хм, интересный вопрос, bob. Давай разберёмся вместе...", first.Text)
}

func TestResponderUsernameVerbatim(t *testing.T) {
	responder := chat.NewDefaultResponder()
	reply := responder.Respond("hello", "Ann {username} O'Neil")
	assert.Equal(t, "Лилит: Привет, Ann {username} O'Neil! Что привело тебя ко мне сегодня?", reply.Text)
}

func TestParseResponderRules(t *testing.T) {
	responder, err := chat.ParseResponderRules([]byte(`
rules:
  - name: farewell
    keywords: [" BYE "]
    template: "bye {username}"
  - name: exclaim
    markers: ["!"]
    template: "calm down {username}"
fallback:
  template: "ok {username}"
`))
	require.NoError(t, err)

	assert.Equal(t, chat.Reply{Rule: "farewell", Text: "bye carol"}, responder.Respond("Bye now!", "carol"))
	assert.Equal(t, chat.Reply{Rule: "exclaim", Text: "calm down carol"}, responder.Respond("wow!", "carol"))
	assert.Equal(t, chat.Reply{Rule: "generic", Text: "ok carol"}, responder.Respond("hello?", "carol"))
}

func TestParseResponderRulesInvalid(t *testing.T) {
	cases := map[string]string{
		"no fallback":           "rules:\n  - name: a\n    keywords: [x]\n    template: t\n",
		"rule without name":     "rules:\n  - keywords: [x]\n    template: t\nfallback:\n  template: f\n",
		"rule without template": "rules:\n  - name: a\n    keywords: [x]\nfallback:\n  template: f\n",
		"rule without matchers": "rules:\n  - name: a\n    template: t\nfallback:\n  template: f\n",
		"unknown field":         "fallback:\n  template: f\n  colour: red\n",
		"not yaml":              "rules: [",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := chat.ParseResponderRules([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadResponderRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fallback:\n  name: echo\n  template: \"{username} said something\"\n"), 0644))

	responder, err := chat.LoadResponderRules(path)
	require.NoError(t, err)
	assert.Equal(t, chat.Reply{Rule: "echo", Text: "dave said something"}, responder.Respond("hello", "dave"))

	_, err = chat.LoadResponderRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
