package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/gaurav-prasanna/motopipe/core/extract"
)

type stubExtractor struct {
	name    string
	brand   string
	records []core.Record
	state   extract.State
	cause   error
	err     error
	panics  bool
	calls   atomic.Int32
}

func (s *stubExtractor) Name() string  { return s.name }
func (s *stubExtractor) Brand() string { return s.brand }

func (s *stubExtractor) Extract(context.Context) (*extract.Outcome, error) {
	s.calls.Add(1)
	if s.panics {
		panic("selector exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	state := s.state
	if state == extract.StateIdle {
		state = extract.StateValidated
	}
	return &extract.Outcome{Source: s.name, Brand: s.brand, Records: s.records, State: state, Cause: s.cause}, nil
}

func rec(brand, name string, price float64) core.Record {
	return core.Record{Brand: brand, Name: name, Year: 2025, Price: price}
}

func noWait(context.Context, time.Duration) error { return nil }

func TestRunAllIsolatesFailures(t *testing.T) {
	bmw := &stubExtractor{name: "bmw", brand: "BMW", records: []core.Record{rec("BMW", "S 1000 RR", 895000)}}
	yamaha := &stubExtractor{name: "yamaha", brand: "Yamaha", err: errors.New("boom")}
	honda := &stubExtractor{name: "honda", brand: "Honda", records: []core.Record{rec("Honda", "CB 500X", 275000)}}
	kawasaki := &stubExtractor{name: "kawasaki", brand: "Kawasaki", records: []core.Record{rec("Kawasaki", "Z 900", 425000), rec("Kawasaki", "Ninja 650", 295000)}}

	for _, mode := range []Mode{Sequential, Concurrent} {
		p := New([]extract.Extractor{bmw, yamaha, honda, kawasaki}, WithMode(mode))
		p.wait = noWait

		res, err := p.RunAll(context.Background())
		require.NoError(t, err)
		require.Len(t, res.Records, 4)
		require.Equal(t, 4, res.Stats.Total)
		require.Equal(t, []string{"yamaha: boom"}, res.Stats.Errors)
		require.Equal(t, "S 1000 RR", res.Records[0].Name)
		require.Equal(t, "Ninja 650", res.Records[3].Name)
		require.Len(t, res.Stats.Sources, 4)
		require.Equal(t, 3, res.Stats.LiveSources())
		require.Equal(t, core.BrandStats{Count: 2, MinPrice: 295000, MaxPrice: 425000, AvgPrice: 360000}, res.Stats.ByBrand["Kawasaki"])
		require.NotEmpty(t, res.Stats.RunID)
	}
}

func TestRunAllRecoversPanics(t *testing.T) {
	bad := &stubExtractor{name: "bad", brand: "Bad", panics: true}
	good := &stubExtractor{name: "good", brand: "Good", records: []core.Record{rec("Good", "One", 50000)}}

	p := New([]extract.Extractor{bad, good}, WithMode(Concurrent))
	res, err := p.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	require.Len(t, res.Stats.Errors, 1)
	require.Contains(t, res.Stats.Errors[0], "panic: selector exploded")
}

func TestRunAllReportsFallback(t *testing.T) {
	yamaha := &stubExtractor{
		name:    "yamaha",
		brand:   "Yamaha",
		state:   extract.StateFallback,
		cause:   errors.New("fetching: unexpected status 503"),
		records: []core.Record{rec("Yamaha", "MT-07", 289000), rec("Yamaha", "MT-09", 385000)},
	}
	p := New([]extract.Extractor{yamaha})

	res, err := p.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	stat := res.Stats.Sources[0]
	require.False(t, stat.Live)
	require.Equal(t, 2, stat.Count)
	require.Equal(t, "fetching: unexpected status 503", stat.Error)
	require.Equal(t, []string{"yamaha: fetching: unexpected status 503"}, res.Stats.Errors)
}

func TestRunAllNoRecords(t *testing.T) {
	p := New([]extract.Extractor{
		&stubExtractor{name: "a", brand: "A", err: errors.New("down")},
		&stubExtractor{name: "b", brand: "B", err: errors.New("down")},
	}, WithDelay(0))

	res, err := p.RunAll(context.Background())
	require.ErrorIs(t, err, ErrNoRecords)
	require.NotNil(t, res)
	require.Len(t, res.Stats.Errors, 2)
	require.Equal(t, 0, res.Stats.Total)
}

func TestSequentialDelayBetweenSources(t *testing.T) {
	var mu sync.Mutex
	var waits []time.Duration

	p := New([]extract.Extractor{
		&stubExtractor{name: "a", brand: "A", records: []core.Record{rec("A", "x", 20000)}},
		&stubExtractor{name: "b", brand: "B", records: []core.Record{rec("B", "y", 20000)}},
		&stubExtractor{name: "c", brand: "C", records: []core.Record{rec("C", "z", 20000)}},
	}, WithDelay(1500*time.Millisecond))
	p.wait = func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		waits = append(waits, d)
		return nil
	}

	_, err := p.RunAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, []time.Duration{1500 * time.Millisecond, 1500 * time.Millisecond}, waits)
}

func TestSequentialDelayHonorsCancellation(t *testing.T) {
	first := &stubExtractor{name: "a", brand: "A", records: []core.Record{rec("A", "x", 20000)}}
	second := &stubExtractor{name: "b", brand: "B", records: []core.Record{rec("B", "y", 20000)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	res, err := New([]extract.Extractor{first, second}, WithDelay(time.Hour)).RunAll(ctx)
	require.NoError(t, err)
	require.Less(t, time.Since(start), time.Minute)
	require.Equal(t, int32(0), second.calls.Load())
	require.Len(t, res.Records, 1)
	require.Contains(t, res.Stats.Sources[1].Error, "not started")
}

func TestConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	release := make(chan struct{})
	var extractors []extract.Extractor
	for _, name := range []string{"a", "b", "c", "d"} {
		extractors = append(extractors, &blockingExtractor{name: name, running: &running, peak: &peak, release: release})
	}

	p := New(extractors, WithMode(Concurrent), WithConcurrency(2))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.RunAll(context.Background())
	}()

	require.Eventually(t, func() bool { return running.Load() == 2 }, time.Second, time.Millisecond)
	close(release)
	<-done
	require.Equal(t, int32(2), peak.Load())
}

type blockingExtractor struct {
	name    string
	running *atomic.Int32
	peak    *atomic.Int32
	release chan struct{}
}

func (b *blockingExtractor) Name() string  { return b.name }
func (b *blockingExtractor) Brand() string { return "B" }

func (b *blockingExtractor) Extract(context.Context) (*extract.Outcome, error) {
	n := b.running.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-b.release
	b.running.Add(-1)
	return &extract.Outcome{State: extract.StateValidated}, nil
}

func TestRunOne(t *testing.T) {
	a := &stubExtractor{name: "a", brand: "A", records: []core.Record{rec("A", "x", 20000)}}
	b := &stubExtractor{name: "b", brand: "B", records: []core.Record{rec("B", "y", 20000)}}
	p := New([]extract.Extractor{a, b})

	res, err := p.RunOne(context.Background(), "b")
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	require.Equal(t, int32(0), a.calls.Load())

	_, err = p.RunOne(context.Background(), "suzuki")
	require.ErrorIs(t, err, ErrUnknownSource)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("concurrent")
	require.NoError(t, err)
	require.Equal(t, Concurrent, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	require.Equal(t, Sequential, m)

	_, err = ParseMode("parallel")
	require.Error(t, err)
}
