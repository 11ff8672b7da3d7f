package splunk

import (
	"bytes"
	"net/url"
)

// Args is an ordered set of request parameters. Unlike url.Values it keeps
// insertion order, so encoded query strings are stable.
type Args struct {
	pairs []arg
}

type arg struct {
	key   string
	value string
}

// NewArgs builds Args from alternating key, value strings. A trailing key
// without a value is ignored.
func NewArgs(kv ...string) Args {
	var a Args
	for i := 0; i+1 < len(kv); i += 2 {
		a.Add(kv[i], kv[i+1])
	}
	return a
}

// Add appends a parameter; repeated keys are allowed.
func (a *Args) Add(key, value string) {
	a.pairs = append(a.pairs, arg{key, value})
}

// Set replaces every value of key with value, keeping the position of the
// first occurrence.
func (a *Args) Set(key, value string) {
	out := a.pairs[:0]
	found := false
	for _, p := range a.pairs {
		if p.key != key {
			out = append(out, p)
			continue
		}
		if !found {
			out = append(out, arg{key, value})
			found = true
		}
	}
	a.pairs = out
	if !found {
		a.Add(key, value)
	}
}

// Get returns the first value of key.
func (a Args) Get(key string) (string, bool) {
	for _, p := range a.pairs {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

func (a Args) clone() Args {
	return Args{pairs: append([]arg(nil), a.pairs...)}
}

func (a Args) Len() int {
	return len(a.pairs)
}

// Encode renders the parameters as "k1=v1&k2=v2" in insertion order.
func (a Args) Encode() string {
	var buf bytes.Buffer
	for i, p := range a.pairs {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(url.QueryEscape(p.key))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(p.value))
	}
	return buf.String()
}

// Values converts the parameters to url.Values for form bodies.
func (a Args) Values() url.Values {
	v := make(url.Values, len(a.pairs))
	for _, p := range a.pairs {
		v.Add(p.key, p.value)
	}
	return v
}

// withQuery appends an optional index parameter and args to path, placing
// "?" before the first parameter and "&" before the rest.
func withQuery(path string, indexName string, args Args) string {
	var buf bytes.Buffer
	buf.WriteString(path)
	sep := byte('?')
	if indexName != "" {
		buf.WriteString("?index=")
		buf.WriteString(url.QueryEscape(indexName))
		sep = '&'
	}
	if args.Len() > 0 {
		buf.WriteByte(sep)
		buf.WriteString(args.Encode())
	}
	return buf.String()
}
