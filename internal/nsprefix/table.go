// Package nsprefix implements the closed, compile-time prefix<->URI
// table used to encode and decode well-known namespace prefixes.
package nsprefix

// entry is one (prefix, uri) pair in the well-known table. Order
// matters: Encode matches the first entry whose URI is a prefix of the
// input, so more specific URIs must precede more general ones.
type entry struct {
	prefix string
	uri    string
}

// table is the closed set of well-known namespace prefixes, carried
// over unchanged from the reference quad store's namespace table.
var table = []entry{
	{"skos", "http://www.w3.org/2004/02/skos/core#"},
	{"rdf", "http://www.w3.org/1999/02/22-rdf-syntax-ns#"},
	{"rdfs", "http://www.w3.org/2000/01/rdf-schema#"},
	{"owl", "http://www.w3.org/2002/07/owl#"},
	{"xmls", "http://www.w3.org/2001/XMLSchema#"},
	{"foaf", "http://xmlns.com/foaf/0.1/"},
	{"dcterms", "http://purl.org/dc/terms/"},
	{"dcelems", "http://purl.org/dc/elements/1.1/"},
	{"dctypes", "http://purl.org/dc/dcmitype/"},
	{"dbpedia", "http://dbpedia.org/resource/"},
}

// Entries returns the well-known table in its fixed match order, for
// callers (e.g. the storage engine's namespace bootstrap) that need to
// seed a fresh database with the default prefixes.
func Entries() []struct{ Prefix, URI string } {
	out := make([]struct{ Prefix, URI string }, len(table))
	for i, e := range table {
		out[i] = struct{ Prefix, URI string }{e.prefix, e.uri}
	}
	return out
}
