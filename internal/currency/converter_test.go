package currency

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConverter(t *testing.T, handler http.HandlerFunc) *Converter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conv := New(NewMemoryCache(time.Minute), "test-key")
	conv.baseURL = srv.URL
	return conv
}

func TestConvertSameCurrencyIdentity(t *testing.T) {
	// При совпадении валют сумма возвращается как есть, без обращения
	// к кэшу или внешнему API.
	conv := New(NewMemoryCache(time.Minute), "")

	assert.Equal(t, 150.5, conv.Convert(150.5, "USD", "USD"))
	assert.Equal(t, 0.0, conv.Convert(0, "COP", "COP"))
	assert.Equal(t, -20.0, conv.Convert(-20, "USD", "USD"))
}

func TestRateFromAPI(t *testing.T) {
	conv := newTestConverter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":"success","conversion_rate":4123.5}`)
	})

	assert.Equal(t, 4123.5, conv.Rate("USD", "COP"))
	assert.Equal(t, 4123.5*10, conv.Convert(10, "USD", "COP"))
}

func TestRateCachedAfterFirstFetch(t *testing.T) {
	calls := 0
	conv := newTestConverter(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"result":"success","conversion_rate":4000}`)
	})

	conv.Rate("USD", "COP")
	conv.Rate("USD", "COP")
	conv.Rate("USD", "COP")
	assert.Equal(t, 1, calls)

	// После сброса кэша курс запрашивается заново.
	conv.ClearCache()
	conv.Rate("USD", "COP")
	assert.Equal(t, 2, calls)
}

func TestRateFallbackOnServerError(t *testing.T) {
	conv := newTestConverter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.Equal(t, 4000.0, conv.Rate("USD", "COP"))
	assert.Equal(t, 0.00025, conv.Rate("COP", "USD"))
	// Для неизвестной пары приблизительный курс - единица.
	assert.Equal(t, 1.0, conv.Rate("EUR", "USD"))
}

func TestRateFallbackOnBadPayload(t *testing.T) {
	conv := newTestConverter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":"error","conversion_rate":0}`)
	})

	assert.Equal(t, 4000.0, conv.Rate("USD", "COP"))
}

func TestRateFallbackWithoutAPIKey(t *testing.T) {
	conv := New(NewMemoryCache(time.Minute), "")
	assert.Equal(t, 4000.0, conv.Rate("USD", "COP"))
}

func TestRateFallbackNotCached(t *testing.T) {
	// Приблизительный курс не должен застревать в кэше: как только API
	// оживёт, должен использоваться настоящий.
	healthy := false
	conv := newTestConverter(t, func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"result":"success","conversion_rate":4200}`)
	})

	assert.Equal(t, 4000.0, conv.Rate("USD", "COP"))
	healthy = true
	assert.Equal(t, 4200.0, conv.Rate("USD", "COP"))
}

func TestMemoryCacheTTL(t *testing.T) {
	cache := NewMemoryCache(10 * time.Millisecond)
	cache.Set("USD-COP", 4000)

	rate, ok := cache.Get("USD-COP")
	require.True(t, ok)
	assert.Equal(t, 4000.0, rate)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.Get("USD-COP")
	assert.False(t, ok)
}

func TestMemoryCacheZeroTTLLivesUntilClear(t *testing.T) {
	cache := NewMemoryCache(0)
	cache.Set("USD-COP", 4000)

	_, ok := cache.Get("USD-COP")
	require.True(t, ok)

	cache.Clear()
	_, ok = cache.Get("USD-COP")
	assert.False(t, ok)
}
