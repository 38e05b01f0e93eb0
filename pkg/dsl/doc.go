/*
Package dsl provides a fluent builder for design trees.

It is useful for seeding a log in tests and examples without writing CREATE
events by hand. Fields left unset keep the defaults of the element's catalog
manifest when the events are applied.

	b := dsl.New()
	b.Add("card", "Container").Style("padding", "8px")
	b.Add("title", "Text").In("card").Prop("text", "Hello")

	log, err := b.Build()
	if err != nil {
		return err
	}
	editor, err := canopy.Open(ctx, log, memory.NewIDSource())
*/
package dsl
