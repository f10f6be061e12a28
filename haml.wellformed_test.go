package haml_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/itsatony/go-haml"
)

// voidElements never receive a closing tag
var voidElements = map[string]bool{
	"area":   true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img":    true, "input": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

// assertBalanced tokenizes out and checks that every start tag is closed
// in order.
func assertBalanced(t *testing.T, out string) {
	t.Helper()

	var stack []string
	z := html.NewTokenizer(strings.NewReader(out))
	for {
		switch z.Next() {
		case html.ErrorToken:
			require.ErrorIs(t, z.Err(), io.EOF)
			assert.Empty(t, stack, "unclosed tags in %q", out)
			return
		case html.StartTagToken:
			name, _ := z.TagName()
			if !voidElements[string(name)] {
				stack = append(stack, string(name))
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			require.NotEmpty(t, stack, "unexpected </%s> in %q", name, out)
			assert.Equal(t, stack[len(stack)-1], string(name))
			stack = stack[:len(stack)-1]
		}
	}
}

func TestRender_WellFormed(t *testing.T) {
	data := map[string]any{
		"title": "Orders",
		"items": []any{"apples", "pears", "plums"},
		"user":  map[string]any{"admin": true, "name": "ann"},
	}

	tests := []struct {
		name   string
		format haml.Format
		source string
	}{
		{
			"document",
			haml.FormatHTML5,
			"!!!\n%html\n  %head\n    %title= title\n  %body\n    #main.content\n      %h1= title\n      %br\n      %ul\n        - for item in items\n          %li.item= item",
		},
		{
			"conditionals",
			haml.FormatHTML5,
			"- if user.admin\n  %p.admin admin\n- else\n  %p guest\n%div\n  %span= user.name",
		},
		{
			"attributes and self closing",
			haml.FormatXHTML,
			"%div{'data-id': 7}\n  %img{'src': 'a.png'}\n  %sandwich/\n  %p{'a' : 'b',\n     'c' : 'd'} text",
		},
		{
			"comments",
			haml.FormatHTML4,
			"/ note\n%div\n  /[if IE]\n    %p ie\n  %p all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := haml.MustNew(haml.WithFormat(tt.format))
			out, err := engine.Render(context.Background(), tt.source, data)
			require.NoError(t, err)
			assert.NotEmpty(t, out)
			assertBalanced(t, out)
		})
	}
}

func TestRender_ParsesAsDocument(t *testing.T) {
	engine := haml.MustNew()
	out, err := engine.Render(context.Background(), "!!!\n%html\n  %body\n    %p#greeting.lead Hello", nil)
	require.NoError(t, err)

	doc, err := html.Parse(strings.NewReader(out))
	require.NoError(t, err)

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	require.NotNil(t, found)
	attrs := map[string]string{}
	for _, a := range found.Attr {
		attrs[a.Key] = a.Val
	}
	assert.Equal(t, "greeting", attrs["id"])
	assert.Equal(t, "lead", attrs["class"])
	require.NotNil(t, found.FirstChild)
	assert.Equal(t, "Hello", found.FirstChild.Data)
}
