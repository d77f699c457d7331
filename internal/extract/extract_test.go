package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

const fixture = `{
	"objectClassName": "domain",
	"ldhName": "example.com",
	"status": ["client delete prohibited", "client transfer prohibited"],
	"events": [
		{"eventAction": "registration", "eventDate": "1995-08-14T04:00:00Z"},
		{"eventAction": "expiration", "eventDate": "2026-08-13T04:00:00Z"}
	],
	"nameservers": [
		{"objectClassName": "nameserver", "ldhName": "a.iana-servers.net"},
		{"objectClassName": "nameserver", "ldhName": "b.iana-servers.net"}
	],
	"entities": [
		{
			"handle": "REG-1",
			"roles": ["registrar"],
			"vcardArray": ["vcard", [
				["version", {}, "text", "4.0"],
				["fn", {}, "text", "Example Registrar Inc."],
				["email", {}, "text", "abuse@registrar.example"]
			]]
		}
	]
}`

func TestCompileRejectsMalformed(t *testing.T) {
	for _, expr := range []string{
		"",
		"$.",
		"$..",
		"$.a[",
		"$.a[x]",
		"$.a[?(@.f>'v')]",
		"$.a[?(@.f=='v'",
		"$.a[?(f=='v')]",
		"$.a[?(@.f==v)]",
	} {
		_, err := Compile(expr)
		require.Error(t, err, "expected compile failure for %q", expr)
	}
}

func TestDirectFieldAccess(t *testing.T) {
	doc := decode(t, fixture)
	require.Equal(t, "example.com", MustCompile("$.ldhName").First(doc))
	require.Nil(t, MustCompile("$.missing").First(doc))
}

func TestArrayIndexAndSlice(t *testing.T) {
	doc := decode(t, fixture)

	require.Equal(t, "client delete prohibited", MustCompile("$.status[0]").First(doc))
	require.Equal(t, "client transfer prohibited", MustCompile("$.status[-1]").First(doc))

	got := MustCompile("$.status[0:1]").EvalStrings(doc)
	require.Equal(t, []string{"client delete prohibited"}, got)

	require.Nil(t, MustCompile("$.status[5]").Eval(doc))
}

func TestWildcardPreservesDocumentOrder(t *testing.T) {
	doc := decode(t, fixture)
	got := MustCompile("$.nameservers[*].ldhName").EvalStrings(doc)
	require.Equal(t, []string{"a.iana-servers.net", "b.iana-servers.net"}, got)
}

func TestRecursiveDescent(t *testing.T) {
	doc := decode(t, fixture)
	got := MustCompile("$..handle").EvalStrings(doc)
	require.Equal(t, []string{"REG-1"}, got)

	// ldhName occurs at the top level and on each nameserver.
	names := MustCompile("$..ldhName").EvalStrings(doc)
	require.Len(t, names, 3)
	require.Contains(t, names, "example.com")
}

func TestObjectPredicateFilter(t *testing.T) {
	doc := decode(t, fixture)
	got := MustCompile("$.events[?(@.eventAction=='registration')].eventDate").EvalStrings(doc)
	require.Equal(t, []string{"1995-08-14T04:00:00Z"}, got)

	require.Nil(t, MustCompile("$.events[?(@.eventAction=='transfer')].eventDate").Eval(doc))
}

func TestPositionalPredicateFilterOnVCardRows(t *testing.T) {
	doc := decode(t, fixture)
	got := MustCompile("$.entities[0].vcardArray[1][?(@[0]=='email')][3]").EvalStrings(doc)
	require.Equal(t, []string{"abuse@registrar.example"}, got)
}

func TestEvalIsDeterministic(t *testing.T) {
	doc := decode(t, fixture)
	p := MustCompile("$..eventDate")
	first := p.EvalStrings(doc)
	for range 10 {
		require.Equal(t, first, p.EvalStrings(doc))
	}
}

func TestNoMatchIsEmptyNotError(t *testing.T) {
	doc := decode(t, `{"a": {"b": 1}}`)
	require.Empty(t, MustCompile("$.a.c").Eval(doc))
	require.Empty(t, MustCompile("$..zzz").Eval(doc))
}
