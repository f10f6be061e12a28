// Package haml compiles HAML templates into reusable programs and renders
// them to HTML.
//
// A template is an indentation-structured description of markup:
//
//	!!!
//	%html
//	  %body
//	    #content.main{'data-id': page.id}
//	      %h1= page.title
//	      - for item in page.items
//	        %p.item= item
//
// # Basic Usage
//
//	engine := haml.MustNew()
//	html, err := engine.Render(ctx, "%p= greeting", map[string]any{
//	    "greeting": "Hello",
//	})
//	// html: "<p>Hello</p>\n"
//
// Templates compiled once with Engine.Compile can be executed any number of
// times, concurrently, with different data.
//
// # Embedded Code
//
// Lines starting with "=" write the value of an expression, "&=" escapes it
// and "!=" writes it raw. Lines starting with "-" run a statement: for, if,
// elif, else, def, assignment, import, raise and pass. Statements that open
// a block own the lines nested beneath them.
//
// # Modules
//
// "- import partials.nav" loads the template named partials.nav from the
// engine's storage, runs it, and binds its top-level names under "nav":
//
//	engine := haml.MustNew(haml.WithStorage(haml.NewMemoryStorage()))
//
// # Errors
//
// Compile and render errors are *cuserr.CustomError values carrying the
// codes HAML_INDENT, HAML_SYNTAX, HAML_NESTING, HAML_RUNTIME, HAML_IMPORT,
// HAML_STORAGE or HAML_CONFIG, with line and column metadata where known.
//
// # Configuration
//
//	engine, _ := haml.New(
//	    haml.WithFormat(haml.FormatXHTML),
//	    haml.WithEscape(true),
//	    haml.WithLogger(logger),
//	)
package haml
