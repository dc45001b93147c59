/*
Package domain contains the core models of the content graph engine.

It defines the authored Document (a singly rooted graph of question/answer Nodes joined by
FollowUp edges), the typed media references a Node may carry, the normalized Blocks the
renderer produces from them, and the Phases of the presentation state machine. This
package is kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Document: the start node identifier plus every Node keyed by identifier.
  - Node: one question/answer unit with optional media and follow-up edges.
  - FollowUp: a labeled directed edge to another Node.
  - MediaItem: a tagged union over video, link, image and audio references.
  - Block: a display-ready description of one MediaItem.
  - Phase: a state of the presentation state machine.
*/
package domain
