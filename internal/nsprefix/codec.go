package nsprefix

import "strings"

// Encode rewrites a full URI into its "prefix:localname" shorthand
// using the first well-known namespace whose URI is a prefix of iri,
// in table order. It reports false if no entry matches.
func Encode(iri string) (shorthand string, ok bool) {
	for _, e := range table {
		if strings.HasPrefix(iri, e.uri) {
			return e.prefix + ":" + iri[len(e.uri):], true
		}
	}
	return "", false
}

// Decode expands a "prefix:localname" shorthand back into its full
// URI using the well-known table. It reports false if the prefix is
// not registered.
func Decode(shorthand string) (iri string, ok bool) {
	colon := strings.IndexByte(shorthand, ':')
	if colon < 0 {
		return "", false
	}
	prefix, local := shorthand[:colon], shorthand[colon+1:]
	for _, e := range table {
		if e.prefix == prefix {
			return e.uri + local, true
		}
	}
	return "", false
}

// Lookup returns the URI registered for prefix, if any.
func Lookup(prefix string) (uri string, ok bool) {
	for _, e := range table {
		if e.prefix == prefix {
			return e.uri, true
		}
	}
	return "", false
}

// LookupURI returns the prefix registered for uri, if any.
func LookupURI(uri string) (prefix string, ok bool) {
	for _, e := range table {
		if e.uri == uri {
			return e.prefix, true
		}
	}
	return "", false
}
