package splunk

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	streamReceiverPath = "/services/receivers/stream"
	simpleReceiverPath = "receivers/simple"
)

// Receiver sends events to an index, either over a raw streaming connection
// or as one-shot HTTP submissions. An empty index name targets the server's
// default index.
//
// Args accepted by the receivers endpoints are "host", "host_regex",
// "source" and "sourcetype".
type Receiver struct {
	service *Service
}

// Attach opens a connection to receivers/stream and writes the request
// preamble. Everything written to the returned connection afterwards is
// indexed as raw event data; the caller must close it.
func (r *Receiver) Attach(ctx context.Context, indexName string, args Args) (net.Conn, error) {
	conn, err := r.attach(ctx, indexName, args)
	r.service.metrics.attached(indexName, err)
	return conn, err
}

func (r *Receiver) attach(ctx context.Context, indexName string, args Args) (net.Conn, error) {
	conn, err := r.service.Open(ctx)
	if err != nil {
		return nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(dl)
	}

	authName, authValue := r.service.authHeader()
	preamble := streamPreamble(indexName, args, r.service.cfg.Addr(), authName, authValue)

	w := bufio.NewWriter(conn)
	w.WriteString(preamble)
	if err := w.Flush(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "could not write stream preamble")
	}
	conn.SetWriteDeadline(time.Time{})

	r.service.logger.Debug("stream attached", "index", indexLabel(indexName), "remote", conn.RemoteAddr())
	return conn, nil
}

// streamPreamble renders the request line and headers that start a
// streaming input session, terminated by an empty line.
func streamPreamble(indexName string, args Args, addr, authName, authValue string) string {
	lines := []string{
		"POST " + withQuery(streamReceiverPath, indexName, args) + " HTTP/1.1",
		"Host: " + addr,
		"Accept-Encoding: identity",
		"X-Splunk-Input-Mode: Streaming",
		authName + ": " + authValue,
		"",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

// Submit posts data as a single submission to receivers/simple.
func (r *Receiver) Submit(ctx context.Context, indexName string, args Args, data string) error {
	path := withQuery(simpleReceiverPath, indexName, args)
	res, err := r.service.Send(ctx, http.MethodPost, path, strings.NewReader(data), nil)
	r.service.metrics.submitted(indexName, len(data), err)
	if err != nil {
		return errors.Wrapf(err, "submit to index %s", indexLabel(indexName))
	}
	discard(res)
	return nil
}

// Log is an alias for Submit.
func (r *Receiver) Log(ctx context.Context, indexName string, args Args, data string) error {
	return r.Submit(ctx, indexName, args, data)
}
