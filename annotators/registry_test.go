package annotators

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nvr-ai/go-annotators/annotators/annotator"
	"github.com/nvr-ai/go-annotators/images"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ModelDir = t.TempDir()
	return cfg
}

func testImage() gocv.Mat {
	m := gocv.Zeros(64, 96, gocv.MatTypeCV8UC3)
	for r := 0; r < 64; r++ {
		for c := 48; c < 96; c++ {
			m.SetUCharAt(r, c*3, 255)
			m.SetUCharAt(r, c*3+1, 255)
			m.SetUCharAt(r, c*3+2, 255)
		}
	}
	return m
}

type fakeAnnotator struct {
	name   annotator.Name
	closed atomic.Bool
}

func (f *fakeAnnotator) Name() annotator.Name { return f.name }

func (f *fakeAnnotator) Process(_ context.Context, img gocv.Mat, _ annotator.Options) (gocv.Mat, bool, error) {
	return img.Clone(), true, nil
}

func (f *fakeAnnotator) Close() error {
	f.closed.Store(true)
	return nil
}

func TestProceduralAnnotators(t *testing.T) {
	r, err := NewRegistry(testConfig(t), nil)
	require.NoError(t, err)
	defer r.Close()

	img := testImage()
	defer img.Close()
	before := images.Checksum(img)

	tests := []struct {
		name   annotator.Name
		wantOK bool
	}{
		{annotator.ScribbleXDOG, true},
		{annotator.Canny, true},
		{annotator.ContentShuffle, true},
		{annotator.None, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			out, ok, err := r.Process(context.Background(), tt.name, img, annotator.Options{
				Resolution: 64,
				Seed:       annotator.Int64(1),
			})
			require.NoError(t, err)
			defer out.Close()

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, images.Shape{Height: 64, Width: 96, Channels: 3}, images.ShapeOf(out))
			assert.Equal(t, before, images.Checksum(img))
			assert.True(t, r.Loaded(tt.name))
		})
	}

	stats := r.Timings().Snapshot()
	require.Len(t, stats, len(tests))
	for _, s := range stats {
		assert.Equal(t, int64(1), s.Count, s.Name)
	}
}

func TestNoneReturnsCopy(t *testing.T) {
	r, err := NewRegistry(testConfig(t), nil)
	require.NoError(t, err)
	defer r.Close()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 2, 3, 4), 5, 7, gocv.MatTypeCV8UC4)
	defer img.Close()

	out, ok, err := r.Process(context.Background(), annotator.None, img, annotator.Options{})
	require.NoError(t, err)
	defer out.Close()

	assert.False(t, ok)
	assert.Equal(t, images.Checksum(img), images.Checksum(out))
}

func TestMissingModelIsIsolated(t *testing.T) {
	log, hook := test.NewNullLogger()
	r, err := NewRegistry(testConfig(t), log)
	require.NoError(t, err)
	defer r.Close()

	img := testImage()
	defer img.Close()

	_, ok, err := r.Process(context.Background(), annotator.Hed, img, annotator.Options{})
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrModelNotFound))
	assert.False(t, r.Loaded(annotator.Hed))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, annotator.Hed, hook.LastEntry().Data["annotator"])

	out, ok, err := r.Process(context.Background(), annotator.ScribbleXDOG, img, annotator.Options{})
	require.NoError(t, err)
	defer out.Close()
	assert.True(t, ok)
}

func TestPreload(t *testing.T) {
	r, err := NewRegistry(testConfig(t), logrus.New())
	require.NoError(t, err)
	defer r.Close()

	failures := r.Preload(context.Background())
	for _, name := range annotator.Names() {
		if name.Pretrained() {
			assert.True(t, errors.Is(failures[name], ErrModelNotFound), name)
		} else {
			assert.NotContains(t, failures, name)
			assert.True(t, r.Loaded(name))
		}
	}

	failures = r.Preload(context.Background(), annotator.Canny, "Sketch")
	assert.Len(t, failures, 1)
	assert.True(t, errors.Is(failures["Sketch"], ErrUnknownAnnotator))
}

func TestUnknownName(t *testing.T) {
	r, err := NewRegistry(testConfig(t), nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Get(context.Background(), "Sketch")
	assert.True(t, errors.Is(err, ErrUnknownAnnotator))
	assert.False(t, r.Loaded("Sketch"))
}

func TestDisabledModel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Models[annotator.Zoe] = ModelConfig{Disabled: true}
	r, err := NewRegistry(cfg, nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Get(context.Background(), annotator.Zoe)
	assert.True(t, errors.Is(err, ErrDisabled))
}

func TestFailedLoadIsRetried(t *testing.T) {
	var calls atomic.Int32
	r := newRegistry(testConfig(t), nil, func(name annotator.Name, _ Config, _ logrus.FieldLogger) (annotator.Annotator, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("transient")
		}
		return &fakeAnnotator{name: name}, nil
	})
	defer r.Close()

	_, err := r.Get(context.Background(), annotator.Midas)
	assert.Error(t, err)

	a, err := r.Get(context.Background(), annotator.Midas)
	require.NoError(t, err)
	assert.Equal(t, annotator.Midas, a.Name())
	assert.Equal(t, int32(2), calls.Load())
}

func TestConcurrentGetLoadsOnce(t *testing.T) {
	var calls atomic.Int32
	r := newRegistry(testConfig(t), nil, func(name annotator.Name, _ Config, _ logrus.FieldLogger) (annotator.Annotator, error) {
		calls.Add(1)
		return &fakeAnnotator{name: name}, nil
	})
	defer r.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Get(context.Background(), annotator.Openpose)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestCanceledContextSkipsLoad(t *testing.T) {
	var calls atomic.Int32
	r := newRegistry(testConfig(t), nil, func(name annotator.Name, _ Config, _ logrus.FieldLogger) (annotator.Annotator, error) {
		calls.Add(1)
		return &fakeAnnotator{name: name}, nil
	})
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Get(ctx, annotator.Lineart)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClose(t *testing.T) {
	fakes := map[annotator.Name]*fakeAnnotator{}
	var mu sync.Mutex
	r := newRegistry(testConfig(t), nil, func(name annotator.Name, _ Config, _ logrus.FieldLogger) (annotator.Annotator, error) {
		mu.Lock()
		defer mu.Unlock()
		fakes[name] = &fakeAnnotator{name: name}
		return fakes[name], nil
	})

	require.Empty(t, r.Preload(context.Background(), annotator.Hed, annotator.Zoe))
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	assert.True(t, fakes[annotator.Hed].closed.Load())
	assert.True(t, fakes[annotator.Zoe].closed.Load())

	_, err := r.Get(context.Background(), annotator.Hed)
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestFactoryReceivesRegistryLogger(t *testing.T) {
	log, _ := test.NewNullLogger()
	var got logrus.FieldLogger
	r := newRegistry(testConfig(t), log, func(name annotator.Name, _ Config, l logrus.FieldLogger) (annotator.Annotator, error) {
		got = l
		return &fakeAnnotator{name: name}, nil
	})
	defer r.Close()

	_, err := r.Get(context.Background(), annotator.Hed)
	require.NoError(t, err)
	assert.Same(t, log, got)
}
