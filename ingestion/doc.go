// Package ingestion turns source documents into passages for the embedding index.
//
// The Loader reads a file and decodes it by trying a list of text encodings in
// order. The Chunker splits the decoded text at heading lines and records the
// enclosing heading path on every passage. The Pipeline runs both over one or
// more source files and is the passage source the index builds from.
//
// Chunking is lossless: concatenating the contents of all passages produced for
// a document reproduces the decoded text exactly.
package ingestion
