// Package splunk is a client for the splunkd REST API covering index
// management and event ingestion.
//
// A Service holds the connection settings and credentials. Events are sent
// through a Receiver, either as one-shot submissions to receivers/simple or
// over a raw connection to receivers/stream obtained with Attach:
//
//	svc, err := splunk.NewService(&splunk.Config{Host: "splunk.local", Token: "Bearer " + token})
//	...
//	conn, err := svc.Receiver().Attach(ctx, "main", splunk.NewArgs("sourcetype", "access_combined"))
//	...
//	defer conn.Close()
//	io.Copy(conn, logFile)
//
// Index exposes the settings of an index and the administrative operations
// on it: rolling hot buckets, cleaning all events and one-shot file uploads.
package splunk
