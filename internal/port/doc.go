// Package port allocates dev-server ports for remote applications.
//
// When a host plan lists a remote without an entry URL, fedpatch gives it a
// port and derives the conventional entry:
//
//	http://localhost:<port>/remoteEntry.js
//
// The Allocator picks the first port at or above a base (5001 by default)
// that is neither used by an entry already in the config nor bound on the
// host. The Scanner answers the second question by asking the OS with
// net.Listen.
package port
