// Package media normalizes the media references attached to a node into display-ready
// blocks. Rendering is pure: the same input always yields the same blocks, in the same
// order, with one block per item.
package media
