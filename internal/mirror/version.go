// Package mirror holds cross-cutting identity of the mirror tool.
package mirror

// Version tags the running tool. It is persisted in each collection's sync
// metadata; a mismatch on the next run forces a full rebuild so behavior
// changes always take effect.
const Version = "1.2.0"
