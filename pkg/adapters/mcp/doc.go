// Package mcp exposes the content graph to Model Context Protocol clients.
//
// Tools: validate_document, get_graph and render_node. The loaded document is also
// published as the emergence://document resource.
package mcp
