// Package urkeldb implements a persistent, append-only, segmented node
// store for an authenticated binary Merkle trie. It does not itself
// implement tree traversal or proof construction; it gives a tree layer a
// durable place to put Internal/Leaf node records and value payloads, a
// checkpoint protocol for naming a committed root, and crash-consistent
// recovery of that checkpoint after an unclean shutdown.
//
// A Store is opened against a directory of segment files via Open, written
// to with WriteNode/WriteValue/WriteNull and Commit, and read from with
// ReadNode/ReadNodeSync/Read and GetHistory. Exactly one goroutine may
// drive the write path at a time; reads may run concurrently with
// WriteNode/WriteValue/WriteNull and with each other, but a read issued
// while Commit is in progress is rejected with ErrStoreClosed.
package urkeldb
