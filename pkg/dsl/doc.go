/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing block trees.

It allows developers to write documents with a type-safe, fluent builder instead of YAML or JSON
files. This is particularly useful for generated reports, unit testing, and leveraging IDE
autocompletion/type-checking.

Example usage:

	package main

	import (
		"github.com/aretw0/blockloom/pkg/dsl"
	)

	func main() {
		doc := dsl.New()

		doc.Heading(1, "Release notes")
		doc.Text("Shipped on ").Code("main").Text(".")

		doc.Bullet("Fixes").Children(func(b *dsl.Builder) {
			b.Bullet("retry on 409")
		})

		doc.Table(true,
			[]string{"Name", "Status"},
			[]string{"planner", "done"},
		)

		// The content can be passed to blockloom.Writer.Create.
		content := doc.Build()
		_ = content
	}
*/
package dsl
