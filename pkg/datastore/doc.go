// Package datastore is a client for Google Cloud Datastore. It models
// stored values as a closed recursive taxonomy, translates keys, entities,
// queries and mutations to and from the v1 wire protocol, and applies
// index-exclusion policy per property path during conversion.
//
// A Client is built from a Config carrying the project, a Service transport
// and a token source. Reads go through Get, GetAll and Run; writes through
// Put, Delete and their batch forms, directly or accumulated inside a
// Transaction. Go structs move in and out of entities via a reflection codec
// driven by `datastore` struct tags.
package datastore
