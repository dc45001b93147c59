/*
Package http serves presentation sessions and the document editor over HTTP.

Routes:

	POST   /sessions                    create a session and start loading
	GET    /sessions/{id}               current view of a session
	DELETE /sessions/{id}               close and forget a session
	POST   /sessions/{id}/activate      leave the waiting phase
	POST   /sessions/{id}/select        follow {"index": n}
	POST   /sessions/{id}/return        return to origin
	POST   /sessions/{id}/retry         retry a failed load
	POST   /sessions/{id}/preview       preview a document (raw JSON body)
	POST   /sessions/{id}/commit        keep the previewed document
	POST   /sessions/{id}/revert        drop the previewed document
	POST   /editor/validate|format|stats
	GET    /document, /graph, /events, /health, /metrics

Session actions accept ?wait=true to respond after the triggered sequence finishes.
*/
package http
