package metrics

import (
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/vcmclient/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultStore(t *testing.T) {
	s := NewDefaultStore()

	assert.Equal(t, 8+NumADCs+NumDACs, s.Len())

	all := s.All()
	assert.Equal(t, ModuleStatus, all[0].Name)
	assert.Equal(t, ADC(0), all[8].Name)
	assert.Equal(t, DAC(NumDACs-1), all[len(all)-1].Name)

	for _, m := range all {
		assert.False(t, m.IsSet(), m.Name)
	}
}

func TestUpdateKnownNames(t *testing.T) {
	s := NewDefaultStore()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range KnownNames() {
		v := Number(float64(i))
		_, err := s.Update(name, ts, v)
		require.NoError(t, err)

		m, ok := s.Get(name)
		require.True(t, ok)
		assert.Equal(t, ts, m.Timestamp)
		assert.Equal(t, v, m.Value)
	}
}

func TestUpdateReplacesBdSeq(t *testing.T) {
	s := NewDefaultStore()
	t1 := time.Unix(100, 0)
	t2 := time.Unix(200, 0)

	changed, err := s.Update(BdSeq, t1, Number(1))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Update(BdSeq, t2, Number(2))
	require.NoError(t, err)
	assert.True(t, changed)

	m, ok := s.Get(BdSeq)
	require.True(t, ok)
	assert.Equal(t, t2, m.Timestamp)
	assert.Equal(t, Number(2), m.Value)
}

func TestUpdateSameValueNotChanged(t *testing.T) {
	s := NewDefaultStore()

	_, err := s.Update(ADC(3), time.Unix(1, 0), Number(0.5))
	require.NoError(t, err)

	changed, err := s.Update(ADC(3), time.Unix(2, 0), Number(0.5))
	require.NoError(t, err)
	assert.False(t, changed)

	m, _ := s.Get(ADC(3))
	assert.Equal(t, time.Unix(2, 0), m.Timestamp)
}

func TestUpdateUnknownName(t *testing.T) {
	s := NewDefaultStore()
	before := s.All()

	var calls int
	s.Subscribe(func(Metric, bool) { calls++ })

	changed, err := s.Update("Inputs/ADC99", time.Now(), Number(1))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrUnknownMetric))
	assert.False(t, changed)
	assert.Equal(t, before, s.All())
	assert.Zero(t, calls)

	_, ok := s.Get("Inputs/ADC99")
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	s := NewDefaultStore()
	_, err := s.Update(FirmwareVersion, time.Now(), Text("1.2.3"))
	require.NoError(t, err)

	s.Reset()

	m, ok := s.Get(FirmwareVersion)
	require.True(t, ok)
	assert.False(t, m.IsSet())
	assert.True(t, m.Timestamp.IsZero())
	assert.Equal(t, len(KnownNames()), s.Len())
}

func TestSubscribe(t *testing.T) {
	s := NewDefaultStore()

	type call struct {
		m       Metric
		changed bool
	}
	var got []call
	s.Subscribe(func(m Metric, changed bool) {
		// The store lock is released before subscribers run.
		_, _ = s.Get(m.Name)
		got = append(got, call{m, changed})
	})

	ts := time.Unix(10, 0)
	_, _ = s.Update(TestBenchStatus, ts, Bool(true))
	_, _ = s.Update(TestBenchStatus, ts, Bool(true))

	require.Len(t, got, 2)
	assert.True(t, got[0].changed)
	assert.False(t, got[1].changed)
	assert.Equal(t, Bool(true), got[1].m.Value)
}

func TestConcurrentReaders(t *testing.T) {
	s := NewDefaultStore()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				_, _ = s.Update(ADC(i), time.Now(), Number(float64(j)))
				_ = s.All()
			}
		}()
	}
	wg.Wait()

	for i := range 8 {
		m, _ := s.Get(ADC(i))
		assert.Equal(t, Number(99), m.Value)
	}
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		in   any
		want Value
		str  string
	}{
		{int64(-3), Number(-3), "-3"},
		{uint64(7), Number(7), "7"},
		{float32(0.1), Number(0.1), "0.1"},
		{0.25, Number(0.25), "0.25"},
		{true, Bool(true), "true"},
		{"ONLINE", Text("ONLINE"), "ONLINE"},
		{[]byte{0xde, 0xad}, Text("dead"), "dead"},
	}

	for _, tt := range tests {
		got, err := ValueOf(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.str, got.String())
	}

	_, err := ValueOf(struct{}{})
	assert.True(t, errors.HasCode(err, ErrInvalidValue))
}

func TestValueInt(t *testing.T) {
	n, ok := Number(2).Int()
	assert.True(t, ok)
	assert.Equal(t, int64(2), n)

	_, ok = Number(2.5).Int()
	assert.False(t, ok)

	_, ok = Text("2").Int()
	assert.False(t, ok)

	assert.Equal(t, "", Value{}.String())
}
