package splunk

import (
	"context"
	"encoding/json"
	"io"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// feed is the JSON envelope of REST responses (output_mode=json).
type feed struct {
	Entry    []entry   `json:"entry"`
	Messages []Message `json:"messages"`
}

type entry struct {
	Name    string                 `json:"name"`
	ID      string                 `json:"id"`
	Content map[string]interface{} `json:"content"`
}

func decodeFeed(r io.Reader) (*feed, error) {
	var f feed
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "could not decode response feed")
	}
	return &f, nil
}

// Entity is a REST resource addressed by path. Its content is loaded by
// Refresh and goes stale after Update.
type Entity struct {
	service *Service
	path    string
	name    string
	content map[string]interface{}
	stale   bool
}

func newEntity(service *Service, path, name string) Entity {
	return Entity{service: service, path: path, name: name, stale: true}
}

func (e *Entity) Name() string {
	return e.name
}

func (e *Entity) Path() string {
	return e.path
}

// Stale reports whether the content may not reflect the server state.
func (e *Entity) Stale() bool {
	return e.stale
}

// Content returns a copy of the raw content of the last refresh.
func (e *Entity) Content() map[string]interface{} {
	c := make(map[string]interface{}, len(e.content))
	for k, v := range e.content {
		c[k] = v
	}
	return c
}

// Refresh reloads the entity content from the server.
func (e *Entity) Refresh(ctx context.Context) error {
	res, err := e.service.Get(ctx, e.path, Args{})
	if err != nil {
		return errors.Wrapf(err, "could not refresh %s", e.path)
	}
	defer discard(res)

	f, err := decodeFeed(res.Body)
	if err != nil {
		return err
	}
	if len(f.Entry) == 0 {
		return errors.Wrap(ErrNoEntry, e.path)
	}
	e.load(f.Entry[0])
	return nil
}

func (e *Entity) load(en entry) {
	if en.Name != "" {
		e.name = en.Name
	}
	e.content = en.Content
	e.stale = false
}

// Update posts args to the entity and marks its content stale.
func (e *Entity) Update(ctx context.Context, args Args) error {
	res, err := e.service.Post(ctx, e.path, args)
	if err != nil {
		return errors.Wrapf(err, "could not update %s", e.path)
	}
	discard(res)
	e.stale = true
	return nil
}

// decode converts the raw content into out. Values are weakly typed since
// splunkd renders many numbers and flags as strings.
func (e *Entity) decode(out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(timeHook),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return errors.Wrapf(dec.Decode(e.content), "could not decode content of %s", e.path)
}

var timeType = reflect.TypeOf(time.Time{})

// timeHook parses RFC 3339 strings into time.Time; empty strings give the
// zero time.
func timeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	s := reflect.ValueOf(data).String()
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
