package splunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgs_Encode(t *testing.T) {
	args := NewArgs(
		"source", "/var/log/app b.log",
		"sourcetype", "access&combined",
		"host", "web01")
	assert.Equal(t, 3, args.Len())
	assert.Equal(t, "source=%2Fvar%2Flog%2Fapp+b.log&sourcetype=access%26combined&host=web01", args.Encode())

	v, ok := args.Get("sourcetype")
	assert.True(t, ok)
	assert.Equal(t, "access&combined", v)
	_, ok = args.Get("index")
	assert.False(t, ok)
}

func TestArgs_Set(t *testing.T) {
	args := NewArgs("a", "1", "b", "2", "a", "3")
	args.Set("a", "x")
	assert.Equal(t, "a=x&b=2", args.Encode())

	args.Set("c", "y")
	assert.Equal(t, "a=x&b=2&c=y", args.Encode())
}

func TestArgs_OddPairs(t *testing.T) {
	args := NewArgs("host", "h1", "source")
	assert.Equal(t, "host=h1", args.Encode())
}

func TestArgs_Values(t *testing.T) {
	args := NewArgs("name", "/tmp/a.log", "index", "main")
	v := args.Values()
	assert.Equal(t, "/tmp/a.log", v.Get("name"))
	assert.Equal(t, "main", v.Get("index"))
}

func TestWithQuery(t *testing.T) {
	for _, tc := range []struct {
		index string
		args  Args
		want  string
	}{
		{"", Args{}, "/p"},
		{"main", Args{}, "/p?index=main"},
		{"", NewArgs("host", "h1"), "/p?host=h1"},
		{"main", NewArgs("host", "h1", "source", "s", "sourcetype", "st"), "/p?index=main&host=h1&source=s&sourcetype=st"},
		{"my index", Args{}, "/p?index=my+index"},
		{"a&b", NewArgs("source", "x=y"), "/p?index=a%26b&source=x%3Dy"},
	} {
		assert.Equal(t, tc.want, withQuery("/p", tc.index, tc.args), "index=%q", tc.index)
	}
}
