package action

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreator(t *testing.T) {
	search := NewCreator[string]("search/request")

	a := search.New("gophers")
	assert.Equal(t, Action{Type: "search/request", Payload: "gophers"}, a)
	assert.Equal(t, "search/request", search.Type())
	assert.True(t, search.Match(a))
	assert.False(t, search.Match(Action{Type: "search/next"}))

	p, ok := search.Payload(a)
	require.True(t, ok)
	assert.Equal(t, "gophers", p)

	_, ok = search.Payload(Action{Type: "search/request", Payload: 3})
	assert.False(t, ok)
	_, ok = search.Payload(Action{Type: "other", Payload: "x"})
	assert.False(t, ok)

	p, ok = search.Payload(Action{Type: "search/request"})
	assert.True(t, ok)
	assert.Empty(t, p)
}

func TestErrorCreator(t *testing.T) {
	failed := NewErrorCreator("search/error")
	errBoom := errors.New("boom")

	a := failed.New(errBoom)
	assert.True(t, a.Error)
	assert.Equal(t, "search/error", a.Type)

	err, ok := failed.Payload(a)
	require.True(t, ok)
	assert.ErrorIs(t, err, errBoom)
}

func TestSignal(t *testing.T) {
	cancel := NewSignal("search/cancel")

	assert.Equal(t, Action{Type: "search/cancel"}, cancel.New())
	assert.True(t, cancel.Match(cancel.New()))
	assert.False(t, cancel.Match(Action{Type: "search/cancelled"}))
	assert.Equal(t, "search/cancel", cancel.Type())
}

func TestAction_NamespaceAndMeta(t *testing.T) {
	a := Action{Type: "ui/search/request"}
	assert.Equal(t, "ui/search", a.Namespace())
	assert.Equal(t, "", Action{Type: "bare"}.Namespace())

	b := a.WithMeta("request_id", "r1")
	assert.Nil(t, a.Meta)
	id, ok := b.MetaString("request_id")
	assert.True(t, ok)
	assert.Equal(t, "r1", id)

	c := b.WithMeta("generation", int64(2))
	assert.Len(t, b.Meta, 1)
	assert.Len(t, c.Meta, 2)

	_, ok = c.MetaString("generation")
	assert.False(t, ok)
}

func TestMatchers(t *testing.T) {
	req := Action{Type: "s/request"}
	next := Action{Type: "s/next"}
	fail := Action{Type: "s/error", Error: true}
	other := Action{Type: "t/request"}

	byType := MatchType("s/request", "s/next")
	assert.True(t, byType(req))
	assert.True(t, byType(next))
	assert.False(t, byType(fail))

	anyOf := MatchAny(NewSignal("s/request").Match, MatchErrors)
	assert.True(t, anyOf(req))
	assert.True(t, anyOf(fail))
	assert.False(t, anyOf(next))
	assert.False(t, MatchAny()(req))

	ns := MatchNamespace("s")
	assert.True(t, ns(req))
	assert.False(t, ns(other))
}

func TestCompile(t *testing.T) {
	type hit struct {
		Title string `json:"title"`
		Score int    `json:"score"`
	}

	tests := []struct {
		name   string
		expr   string
		action Action
		want   bool
	}{
		{"empty matches all", "", Action{Type: "x"}, true},
		{"type equality", `type == "search/next"`, Action{Type: "search/next"}, true},
		{"type prefix", `type.startsWith("counter/")`, Action{Type: "search/next"}, false},
		{"error flag", `error`, Action{Type: "s/error", Error: true}, true},
		{"map payload", `payload.name == "go"`, Action{Payload: map[string]any{"name": "go"}}, true},
		{"struct payload via json", `payload.score >= 3`, Action{Payload: hit{Title: "a", Score: 4}}, true},
		{"int payload", `payload > 1`, Action{Payload: 2}, true},
		{"error payload as message", `payload == "boom"`, Action{Payload: errors.New("boom")}, true},
		{"meta", `meta.source == "cli"`, Action{Meta: map[string]any{"source": "cli"}}, true},
		{"missing field is no match", `payload.missing == 1`, Action{Payload: map[string]any{}}, false},
		{"missing meta is no match", `meta.source == "cli"`, Action{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.Match(tt.action))
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, expr := range []string{
		`type ==`,
		`unknown == 1`,
		`type + "x"`,
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := Compile(expr)
			assert.Error(t, err)
		})
	}

	assert.Panics(t, func() { MustCompile(`type ==`) })
}

func TestExpression_IsAMatcher(t *testing.T) {
	expr := MustCompile(`type == "a"`)
	var m Matcher = expr.Match

	assert.True(t, m(Action{Type: "a"}))
	assert.Equal(t, `type == "a"`, expr.String())
}
