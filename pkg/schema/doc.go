// Package schema checks content documents against their structural contract.
//
// Validation works on the raw decoded payload (the result of parsing JSON or YAML into
// maps and slices), so malformed shapes are reported as rule violations instead of
// decoding failures. Only payloads that cannot be parsed at all produce a ParseError.
//
// Basic usage:
//
//	raw, err := schema.Parse(data)
//	if err != nil {
//	    // *domain.ParseError
//	}
//
//	res := schema.Validate(raw)
//	if !res.Valid() {
//	    for _, v := range res.Violations {
//	        fmt.Println(v.Rule, v.Reason)
//	    }
//	}
//
//	doc := res.Document // typed, decoded with mapstructure
//
// Follow-up targets are intentionally not resolved here. A followUp pointing to a missing
// node is accepted and fails later, at navigation time.
package schema
