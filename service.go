package splunk

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	loginPath = "/services/auth/login"

	outputModeJSON = "json"
)

// Service is a connection to a splunkd management endpoint. It owns the
// authentication state (token or session cookies) and performs all HTTP and
// raw stream I/O for Index and Receiver.
type Service struct {
	cfg Config

	// HTTP Client for REST requests
	httpClient *http.Client

	// Dialer for raw stream connections
	dialer *net.Dialer

	logger  *slog.Logger
	metrics *Metrics

	mtx sync.Mutex
	// Authorization header value, used when no cookies are set
	token   string
	cookies map[string]string
}

// NewService creates a Service from cfg. A nil cfg means NewDefaultConfig().
func NewService(cfg *Config) (*Service, error) {
	c := NewDefaultConfig()
	c.Apply(cfg)
	if err := c.Check(); err != nil {
		return nil, errors.Wrap(err, "invalid service config")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Service{
		cfg: *c,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   c.Timeout,
		},
		dialer:  &net.Dialer{Timeout: c.Timeout},
		logger:  slog.Default().With("component", "splunk"),
		token:   c.Token,
		cookies: make(map[string]string),
	}, nil
}

func (s *Service) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

func (s *Service) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Service) SetMetrics(metrics *Metrics) {
	s.metrics = metrics
}

// SetToken sets the Authorization header value, e.g. "Splunk <key>".
func (s *Service) SetToken(token string) {
	s.mtx.Lock()
	s.token = token
	s.mtx.Unlock()
}

func (s *Service) Token() string {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.token
}

// AddCookie stores a session cookie. While any cookie is stored requests
// authenticate with the Cookie header instead of Authorization.
func (s *Service) AddCookie(name, value string) {
	s.mtx.Lock()
	s.cookies[name] = value
	s.mtx.Unlock()
}

func (s *Service) ClearCookies() {
	s.mtx.Lock()
	s.cookies = make(map[string]string)
	s.mtx.Unlock()
}

func (s *Service) HasCookies() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.cookies) > 0
}

// CookieHeader renders stored cookies as "a=1; b=2", sorted by name.
func (s *Service) CookieHeader() string {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	names := make([]string, 0, len(s.cookies))
	for name := range s.cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + s.cookies[name]
	}
	return strings.Join(parts, "; ")
}

// Config returns a copy of the service configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// authHeader returns the header that authenticates a request: Cookie when
// session cookies are present, Authorization otherwise.
func (s *Service) authHeader() (name, value string) {
	if s.HasCookies() {
		return "Cookie", s.CookieHeader()
	}
	return "Authorization", s.Token()
}

// Login authenticates with username and password and keeps the session key
// and any session cookies returned by the server.
func (s *Service) Login(ctx context.Context, username, password string) error {
	args := NewArgs("username", username, "password", password)
	res, err := s.Post(ctx, loginPath, args)
	if err != nil {
		return errors.Wrap(err, "login failed")
	}
	defer res.Body.Close()

	var body struct {
		SessionKey string `json:"sessionKey"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return errors.Wrap(err, "could not decode login response")
	}
	if body.SessionKey == "" {
		return ErrNotAuthenticated
	}

	s.SetToken("Splunk " + body.SessionKey)
	for _, c := range res.Cookies() {
		s.AddCookie(c.Name, c.Value)
	}
	s.logger.Info("logged in", "user", username, "cookies", len(res.Cookies()))
	return nil
}

// Open dials a raw connection to the management port, using TLS when the
// scheme is https. The caller owns the returned connection.
func (s *Service) Open(ctx context.Context) (net.Conn, error) {
	addr := s.cfg.Addr()
	var (
		conn net.Conn
		err  error
	)
	if s.cfg.Scheme == "https" {
		td := &tls.Dialer{
			NetDialer: s.dialer,
			Config: &tls.Config{
				ServerName:         s.cfg.Host,
				InsecureSkipVerify: s.cfg.InsecureSkipVerify,
			},
		}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = s.dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to %s", addr)
	}
	return conn, nil
}

// fullPath resolves a path against the service namespace. Absolute paths are
// returned unchanged.
func (s *Service) fullPath(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	if s.cfg.Owner != "" {
		return "/servicesNS/" + url.PathEscape(s.cfg.Owner) + "/" + url.PathEscape(s.cfg.App) + "/" + path
	}
	return "/services/" + path
}

func (s *Service) endpoint(path string) string {
	return s.cfg.Scheme + "://" + s.cfg.Addr() + s.fullPath(path)
}

// Send issues a request to path, which may carry an already encoded query
// string. Responses with status 400 and above are returned as *HTTPError
// with the body consumed; otherwise the caller must close the body.
func (s *Service) Send(ctx context.Context, method, path string, body io.Reader, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.endpoint(path), body)
	if err != nil {
		return nil, errors.Wrap(err, "could not build request")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if name, value := s.authHeader(); value != "" {
		req.Header.Set(name, value)
	}

	id := uuid.NewString()
	s.logger.Debug("request", "id", id, "method", method, "path", req.URL.Path)
	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, req.URL.Path)
	}
	s.logger.Debug("response", "id", id, "status", res.StatusCode)

	if res.StatusCode >= http.StatusBadRequest {
		data, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			return nil, errors.Wrap(err, "could not read error response")
		}
		return nil, httpErrorFrom(res.StatusCode, res.Status, data)
	}
	return res, nil
}

// Get sends a GET with args in the query string.
func (s *Service) Get(ctx context.Context, path string, args Args) (*http.Response, error) {
	args = args.clone()
	args.Set("output_mode", outputModeJSON)
	return s.Send(ctx, http.MethodGet, withQuery(path, "", args), nil, nil)
}

// Post sends a POST with args as a form body.
func (s *Service) Post(ctx context.Context, path string, args Args) (*http.Response, error) {
	args = args.clone()
	args.Set("output_mode", outputModeJSON)
	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.Send(ctx, http.MethodPost, path, strings.NewReader(args.Encode()), header)
}

// Receiver returns a Receiver bound to this service.
func (s *Service) Receiver() *Receiver {
	return &Receiver{service: s}
}

func discard(res *http.Response) {
	io.Copy(io.Discard, res.Body)
	// close errors carry no information the caller can act on
	res.Body.Close()
}
