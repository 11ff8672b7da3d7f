package cmd

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	auth   string
	body   string
}

type fakeSplunkd struct {
	mtx      sync.Mutex
	requests []recordedRequest
}

func (f *fakeSplunkd) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mtx.Lock()
	f.requests = append(f.requests, recordedRequest{
		method: r.Method,
		path:   r.URL.Path,
		query:  r.URL.RawQuery,
		auth:   r.Header.Get("Authorization"),
		body:   string(body),
	})
	f.mtx.Unlock()

	switch r.URL.Path {
	case "/services/data/indexes/main":
		w.Write([]byte(`{"entry":[{"name":"main","content":{
			"totalEventCount":"1234567","currentDBSizeMB":"2048","maxTotalDataSizeMB":"500000",
			"frozenTimePeriodInSecs":"86400","homePath_expanded":"/opt/splunk/db","disabled":false}}]}`))
	case "/services/data/indexes":
		w.Write([]byte(`{"entry":[{"name":"main","content":{"totalEventCount":"42","currentDBSizeMB":"1"}}]}`))
	default:
		w.Write([]byte(`{}`))
	}
}

func (f *fakeSplunkd) last() recordedRequest {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.requests[len(f.requests)-1]
}

// runCmd executes splunkctl with connection flags for ts prepended.
func runCmd(t *testing.T, ts *httptest.Server, stdin string, args ...string) (string, error) {
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--scheme", "http", "--host", host, "--port", port, "--token", "Bearer t0k3n"}, args...))
	err = root.Execute()
	return out.String(), err
}

func TestSubmitCmd(t *testing.T) {
	f := &fakeSplunkd{}
	ts := httptest.NewServer(f)
	defer ts.Close()

	out, err := runCmd(t, ts, "", "submit", "--index", "main", "--sourcetype", "syslog", "hello world")
	require.NoError(t, err)
	assert.Contains(t, out, "submitted 11 B")

	r := f.last()
	assert.Equal(t, http.MethodPost, r.method)
	assert.Equal(t, "/services/receivers/simple", r.path)
	assert.Equal(t, "index=main&sourcetype=syslog", r.query)
	assert.Equal(t, "Bearer t0k3n", r.auth)
	assert.Equal(t, "hello world", r.body)
}

func TestSubmitCmd_Stdin(t *testing.T) {
	f := &fakeSplunkd{}
	ts := httptest.NewServer(f)
	defer ts.Close()

	_, err := runCmd(t, ts, "from stdin\n", "submit", "--event-host", "web01")
	require.NoError(t, err)

	r := f.last()
	assert.Equal(t, "host=web01", r.query)
	assert.Equal(t, "from stdin", r.body)
}

func TestIndexInfoCmd(t *testing.T) {
	f := &fakeSplunkd{}
	ts := httptest.NewServer(f)
	defer ts.Close()

	out, err := runCmd(t, ts, "", "index", "info", "main")
	require.NoError(t, err)
	assert.Contains(t, out, "events:         1,234,567")
	assert.Contains(t, out, "size:           2.0 GiB of 488 GiB")
	assert.Contains(t, out, "retention:      24h0m0s")
	assert.Contains(t, out, "/opt/splunk/db")
}

func TestIndexListCmd(t *testing.T) {
	f := &fakeSplunkd{}
	ts := httptest.NewServer(f)
	defer ts.Close()

	out, err := runCmd(t, ts, "", "index", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "1.0 MiB")
}

func TestIndexUploadCmd(t *testing.T) {
	f := &fakeSplunkd{}
	ts := httptest.NewServer(f)
	defer ts.Close()

	_, err := runCmd(t, ts, "", "index", "upload", "main", "/var/log/messages")
	require.NoError(t, err)

	r := f.last()
	assert.Equal(t, "/services/data/inputs/oneshot", r.path)
	v, err := url.ParseQuery(r.body)
	require.NoError(t, err)
	assert.Equal(t, "/var/log/messages", v.Get("name"))
	assert.Equal(t, "main", v.Get("index"))
}

func TestConfigFile(t *testing.T) {
	f := &fakeSplunkd{}
	ts := httptest.NewServer(f)
	defer ts.Close()

	fn := filepath.Join(t.TempDir(), "splunk.yaml")
	require.NoError(t, os.WriteFile(fn, []byte("token: Splunk from-file\nscheme: https\n"), 0644))

	// flags override the file: scheme and token come from runCmd
	_, err := runCmd(t, ts, "", "--config", fn, "submit", "x")
	require.NoError(t, err)
	assert.Equal(t, "Bearer t0k3n", f.last().auth)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "ERROR", parseLevel("ERROR").String())
	assert.Equal(t, "WARN", parseLevel("bogus").String())
}

func TestStreamCmd(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			got <- ""
			return
		}
		defer conn.Close()
		b, _ := io.ReadAll(conn)
		got <- string(b)
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader("line one\nline two\n"))
	root.SetArgs([]string{"--scheme", "http", "--host", host, "--port", port, "--token", "Bearer t0k3n",
		"stream", "--index", "main", "--source", "stdin"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "streamed 18 B")

	stream := <-got
	assert.True(t, strings.HasPrefix(stream, "POST /services/receivers/stream?index=main&source=stdin HTTP/1.1\r\n"))
	assert.Contains(t, stream, "Authorization: Bearer t0k3n\r\n")
	assert.True(t, strings.HasSuffix(stream, "\r\n\r\nline one\nline two\n"))
}
