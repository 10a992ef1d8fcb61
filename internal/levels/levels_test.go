package levels

import (
	"math"
	"testing"
	"time"

	"crypto-setup-sentry/pkg/types"
)

func flatSeries(n int, close float64) *types.Series {
	s := &types.Series{Symbol: "TEST-USDT"}
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s.Candles = append(s.Candles, &types.Candle{
			Timestamp: ts.Add(time.Duration(i) * time.Hour),
			Open:      close,
			High:      close + 0.5,
			Low:       close - 0.5,
			Close:     close,
			Volume:    1000,
		})
	}
	return s
}

func TestResistanceShortSeries(t *testing.T) {
	f := NewFinder(5)
	s := flatSeries(10, 100) // 不足 2*5+1

	if got := f.Resistance(s); got != nil {
		t.Errorf("序列过短时应返回nil，got %v", got)
	}
}

func TestResistanceFindsLocalPeak(t *testing.T) {
	f := NewFinder(5)
	s := flatSeries(40, 100)
	s.Candles[20].High = 110

	got := f.Resistance(s)
	found := false
	for _, level := range got {
		if level == 110 {
			found = true
		}
	}
	if !found {
		t.Errorf("应找到110的局部高点，got %v", got)
	}
}

func TestLevelsIdempotentAndSeparated(t *testing.T) {
	f := NewFinder(5)
	s := flatSeries(60, 100)
	s.Candles[15].High = 108
	s.Candles[35].High = 108.3 // 与108相差不足1%
	s.Candles[50].High = 115

	first := f.Resistance(s)
	second := f.Resistance(s)

	if len(first) != len(second) {
		t.Fatalf("重复搜索结果应一致: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("重复搜索结果应一致: %v vs %v", first, second)
		}
	}

	for i := 1; i < len(first); i++ {
		if math.Abs(first[i]-first[i-1])/first[i] <= 0.01 {
			t.Errorf("保留的相邻位相差不应低于1%%: %v", first)
		}
	}
}

func TestMergeDropsNearbyLevels(t *testing.T) {
	got := merge([]float64{100, 100.5, 102})

	want := []float64{100, 102}
	if len(got) != len(want) {
		t.Fatalf("merge结果 = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("merge结果 = %v, want %v", got, want)
		}
	}
}

func TestNearestAbove(t *testing.T) {
	levels := []float64{95, 102, 110}

	got, ok := NearestAbove(levels, 100, 100)
	if !ok || got != 102 {
		t.Errorf("NearestAbove = %v/%v, want 102/true", got, ok)
	}

	if _, ok := NearestAbove(levels, 100, 120); ok {
		t.Error("没有高于floor的位时应返回false")
	}
}

func TestNearest(t *testing.T) {
	got, ok := Nearest([]float64{95, 102, 110}, 100)
	if !ok || got != 102 {
		t.Errorf("Nearest = %v/%v, want 102/true", got, ok)
	}

	if _, ok := Nearest(nil, 100); ok {
		t.Error("空位列表应返回false")
	}
}
