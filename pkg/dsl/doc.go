/*
Package dsl builds content graph documents in Go instead of JSON or YAML files.

It is useful for generated documents and for tests:

	b := dsl.New("intro")

	b.Add("intro").
		Question("What is this?").
		Answer("A graph of questions.").
		Video("https://youtu.be/abc", "Overview").
		FollowUp("Tell me more", "more")

	b.Add("more").
		Question("More?").
		Answer("That is all.")

	doc, err := b.Build()
*/
package dsl
