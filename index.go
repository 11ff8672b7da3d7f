package splunk

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	indexesPath = "data/indexes"
	oneshotPath = "/services/data/inputs/oneshot"

	defaultPollInterval = 1 * time.Second

	// restoreTimeout bounds restoring index settings after Clean was
	// cancelled.
	restoreTimeout = 30 * time.Second
)

// IndexContent is the configuration and status of an index as reported by
// data/indexes. Paths that are unset on the server are empty strings; unset
// times are zero.
type IndexContent struct {
	AssureUTF8               bool      `mapstructure:"assureUTF8"`
	BlockSignatureDatabase   string    `mapstructure:"blockSignatureDatabase"`
	BlockSignSize            int       `mapstructure:"blockSignSize"`
	ColdPath                 string    `mapstructure:"coldPath"`
	ColdPathExpanded         string    `mapstructure:"coldPath_expanded"`
	ColdToFrozenDir          string    `mapstructure:"coldToFrozenDir"`
	ColdToFrozenScript       string    `mapstructure:"coldToFrozenScript"`
	CompressRawdata          bool      `mapstructure:"compressRawdata"`
	CurrentDBSizeMB          int       `mapstructure:"currentDBSizeMB"`
	DefaultDatabase          string    `mapstructure:"defaultDatabase"`
	EnableRealtimeSearch     bool      `mapstructure:"enableRealtimeSearch"`
	FrozenTimePeriodInSecs   int       `mapstructure:"frozenTimePeriodInSecs"`
	HomePath                 string    `mapstructure:"homePath"`
	HomePathExpanded         string    `mapstructure:"homePath_expanded"`
	IndexThreads             string    `mapstructure:"indexThreads"`
	LastInitTime             string    `mapstructure:"lastInitTime"`
	MaxConcurrentOptimizes   int       `mapstructure:"maxConcurrentOptimizes"`
	MaxDataSize              string    `mapstructure:"maxDataSize"`
	MaxHotBuckets            string    `mapstructure:"maxHotBuckets"` // a number or "auto"
	MaxHotIdleSecs           int       `mapstructure:"maxHotIdleSecs"`
	MaxHotSpanSecs           int       `mapstructure:"maxHotSpanSecs"`
	MaxMemMB                 int       `mapstructure:"maxMemMB"`
	MaxMetaEntries           int       `mapstructure:"maxMetaEntries"`
	MaxRunningProcessGroups  int       `mapstructure:"maxRunningProcessGroups"`
	MaxTime                  time.Time `mapstructure:"maxTime"`
	MaxTotalDataSizeMB       int       `mapstructure:"maxTotalDataSizeMB"`
	MaxWarmDBCount           int       `mapstructure:"maxWarmDBCount"`
	MemPoolMB                string    `mapstructure:"memPoolMB"`
	MinRawFileSyncSecs       string    `mapstructure:"minRawFileSyncSecs"`
	MinTime                  time.Time `mapstructure:"minTime"`
	PartialServiceMetaPeriod int       `mapstructure:"partialServiceMetaPeriod"`
	QuarantineFutureSecs     int       `mapstructure:"quarantineFutureSecs"`
	QuarantinePastSecs       int       `mapstructure:"quarantinePastSecs"`
	RawChunkSizeBytes        int       `mapstructure:"rawChunkSizeBytes"`
	RotatePeriodInSecs       int       `mapstructure:"rotatePeriodInSecs"`
	ServiceMetaPeriod        int       `mapstructure:"serviceMetaPeriod"`
	SuppressBannerList       string    `mapstructure:"suppressBannerList"`
	Sync                     bool      `mapstructure:"sync"`
	SyncMeta                 bool      `mapstructure:"syncMeta"`
	ThawedPath               string    `mapstructure:"thawedPath"`
	ThawedPathExpanded       string    `mapstructure:"thawedPath_expanded"`
	ThrottleCheckPeriod      int       `mapstructure:"throttleCheckPeriod"`
	TotalEventCount          int64     `mapstructure:"totalEventCount"`
	Disabled                 bool      `mapstructure:"disabled"`
	IsInternal               bool      `mapstructure:"isInternal"`
}

// Index is a named event partition on the server.
type Index struct {
	Entity

	content      IndexContent
	pollInterval time.Duration
}

func newIndex(service *Service, name string) *Index {
	return &Index{
		Entity:       newEntity(service, indexesPath+"/"+url.PathEscape(name), name),
		pollInterval: defaultPollInterval,
	}
}

// Index fetches the index called name.
func (s *Service) Index(ctx context.Context, name string) (*Index, error) {
	idx := newIndex(s, name)
	if err := idx.Refresh(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Indexes lists every index visible to the current user.
func (s *Service) Indexes(ctx context.Context) ([]*Index, error) {
	res, err := s.Get(ctx, indexesPath, NewArgs("count", "0"))
	if err != nil {
		return nil, errors.Wrap(err, "could not list indexes")
	}
	defer discard(res)

	f, err := decodeFeed(res.Body)
	if err != nil {
		return nil, err
	}
	indexes := make([]*Index, 0, len(f.Entry))
	for _, en := range f.Entry {
		idx := newIndex(s, en.Name)
		if err := idx.loadContent(en); err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

// CreateIndex creates an index; args may carry any index setting.
func (s *Service) CreateIndex(ctx context.Context, name string, args Args) (*Index, error) {
	args = args.clone()
	args.Set("name", name)
	res, err := s.Post(ctx, indexesPath, args)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create index %s", name)
	}
	defer discard(res)

	f, err := decodeFeed(res.Body)
	if err != nil {
		return nil, err
	}
	idx := newIndex(s, name)
	if len(f.Entry) == 0 {
		return idx, nil
	}
	if err := idx.loadContent(f.Entry[0]); err != nil {
		return nil, err
	}
	return idx, nil
}

// RemoveIndex deletes the index called name.
func (s *Service) RemoveIndex(ctx context.Context, name string) error {
	res, err := s.Send(ctx, http.MethodDelete, newIndex(s, name).Path(), nil, nil)
	if err != nil {
		return errors.Wrapf(err, "could not remove index %s", name)
	}
	discard(res)
	return nil
}

// SetPollInterval changes how often Clean checks the event count.
// Non-positive values restore the default of one second.
func (i *Index) SetPollInterval(d time.Duration) {
	if d <= 0 {
		d = defaultPollInterval
	}
	i.pollInterval = d
}

// Refresh reloads and decodes the index content.
func (i *Index) Refresh(ctx context.Context) error {
	if err := i.Entity.Refresh(ctx); err != nil {
		return err
	}
	var c IndexContent
	if err := i.decode(&c); err != nil {
		return err
	}
	i.content = c
	return nil
}

func (i *Index) loadContent(en entry) error {
	i.load(en)
	var c IndexContent
	if err := i.decode(&c); err != nil {
		return err
	}
	i.content = c
	return nil
}

// Content returns the index settings of the last refresh.
func (i *Index) Content() IndexContent {
	return i.content
}

// RollHotBuckets closes the hot buckets of the index so they become warm.
func (i *Index) RollHotBuckets(ctx context.Context) error {
	res, err := i.service.Post(ctx, i.path+"/roll-hot-buckets", Args{})
	if err != nil {
		return errors.Wrapf(err, "could not roll hot buckets of %s", i.name)
	}
	defer discard(res)
	if res.StatusCode != http.StatusOK {
		return &HTTPError{StatusCode: res.StatusCode, Status: res.Status}
	}
	return nil
}

// Clean removes every event from the index. It shrinks the size and
// retention limits to 1, rolls the hot buckets and waits until the event
// count drops to zero, then restores the original limits.
//
// The original limits are restored even if ctx is cancelled while waiting;
// ctx.Err() is returned in that case.
func (i *Index) Clean(ctx context.Context) error {
	if err := i.Refresh(ctx); err != nil {
		return err
	}
	saved := NewArgs(
		"maxTotalDataSizeMB", strconv.Itoa(i.content.MaxTotalDataSizeMB),
		"frozenTimePeriodInSecs", strconv.Itoa(i.content.FrozenTimePeriodInSecs))
	reset := NewArgs(
		"maxTotalDataSizeMB", "1",
		"frozenTimePeriodInSecs", "1")

	if err := i.Update(ctx, reset); err != nil {
		return err
	}
	i.service.logger.Info("cleaning index", "index", i.name, "events", i.content.TotalEventCount)

	err := i.drain(ctx)

	restoreCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		restoreCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
		defer cancel()
	}
	if rerr := i.Update(restoreCtx, saved); rerr != nil {
		if err != nil {
			i.service.logger.Error("could not restore index settings", "index", i.name, "err", rerr)
			return err
		}
		return rerr
	}
	if err != nil {
		return err
	}
	i.service.logger.Info("index cleaned", "index", i.name)
	return nil
}

// drain rolls the hot buckets and polls until the index reports no events.
func (i *Index) drain(ctx context.Context) error {
	if err := i.RollHotBuckets(ctx); err != nil {
		return err
	}
	t := time.NewTicker(i.pollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		if err := i.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if i.content.TotalEventCount == 0 {
			return nil
		}
		i.service.logger.Debug("waiting for index to drain", "index", i.name, "events", i.content.TotalEventCount)
	}
}

// Submit posts data to this index through receivers/simple.
func (i *Index) Submit(ctx context.Context, args Args, data string) error {
	return i.service.Receiver().Submit(ctx, i.name, args, data)
}

// Attach opens a streaming connection into this index. See Receiver.Attach.
func (i *Index) Attach(ctx context.Context, args Args) (net.Conn, error) {
	return i.service.Receiver().Attach(ctx, i.name, args)
}

// Upload indexes a file that already exists on the server, once.
func (i *Index) Upload(ctx context.Context, filename string) error {
	res, err := i.service.Post(ctx, oneshotPath, NewArgs("name", filename, "index", i.name))
	if err != nil {
		return errors.Wrapf(err, "could not upload %s to %s", filename, i.name)
	}
	discard(res)
	return nil
}
