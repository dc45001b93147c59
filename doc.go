/*
Package emergence presents a branching question-and-answer content graph.

A document is a set of nodes, each with a question, an answer, optional media and
follow-up choices that lead to other nodes. An Engine binds a document source to the
presentation runtime; every Session walks the graph through the phases

	intro -> emerging -> waiting -> bursting -> expanded

where the emerging and bursting phases play visual sequences supplied by a
ports.SequencePlayer. Navigation is only accepted once the session is expanded.
Follow-ups whose target does not exist are rejected at traversal time and leave the
view unchanged.

# Usage

	src := file.NewSource("content/data.json")
	eng, err := emergence.New(src)
	if err != nil {
		log.Fatal(err)
	}

	s := eng.NewSession("session-123")
	defer s.Close()

	ctx := context.Background()
	_ = s.Start(ctx)
	s.Wait()           // intro sequence
	_ = s.Activate(ctx)
	s.Wait()           // burst and reveal

	view, _ := s.DisplayModel()
	fmt.Println(view.Question)
	_ = s.Select(ctx, 0)

For terminal use, Runner reads commands line by line and renders each node.
*/
package emergence
