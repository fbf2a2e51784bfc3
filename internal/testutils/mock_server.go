package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MockRateServer imitates an upstream rate API. The base currency is read
// from the "from" query parameter or else the last path segment, so both
// exchangerate-api (/latest/USD) and frankfurter (/latest?from=USD) URL
// shapes work.
type MockRateServer struct {
	server   *httptest.Server
	requests atomic.Int64

	mutex      sync.Mutex
	rates      map[string]map[string]float64
	failStatus int
	rawBody    string
	delay      time.Duration
	lastAgent  string
}

// ExchangeRateResponse is the body the mock answers with
type ExchangeRateResponse struct {
	Base      string             `json:"base"`
	Timestamp int64              `json:"timestamp"`
	Rates     map[string]float64 `json:"rates"`
}

// NewMockRateServer serves SampleRates for USD
func NewMockRateServer() *MockRateServer {
	mock := &MockRateServer{
		rates: map[string]map[string]float64{"USD": SampleRates()},
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handler))
	return mock
}

func (m *MockRateServer) handler(w http.ResponseWriter, r *http.Request) {
	m.requests.Add(1)

	m.mutex.Lock()
	failStatus, rawBody, delay := m.failStatus, m.rawBody, m.delay
	m.lastAgent = r.UserAgent()
	m.mutex.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if failStatus != 0 {
		http.Error(w, http.StatusText(failStatus), failStatus)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if rawBody != "" {
		_, _ = w.Write([]byte(rawBody))
		return
	}

	base := strings.ToUpper(r.URL.Query().Get("from"))
	if base == "" {
		base = strings.ToUpper(r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
	}

	m.mutex.Lock()
	rates, found := m.rates[base]
	m.mutex.Unlock()
	if !found {
		http.Error(w, `{"error":"unsupported base"}`, http.StatusNotFound)
		return
	}

	_ = json.NewEncoder(w).Encode(ExchangeRateResponse{
		Base:      base,
		Timestamp: time.Now().Unix(),
		Rates:     rates,
	})
}

// URL returns a provider template; the base code is appended to it
func (m *MockRateServer) URL() string {
	return m.server.URL + "/latest/"
}

// Close closes the mock server
func (m *MockRateServer) Close() {
	m.server.Close()
}

// Requests counts requests served so far
func (m *MockRateServer) Requests() int {
	return int(m.requests.Load())
}

// LastUserAgent returns the User-Agent of the latest request
func (m *MockRateServer) LastUserAgent() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.lastAgent
}

// SetRates sets the rates served for base
func (m *MockRateServer) SetRates(base string, rates map[string]float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rates[strings.ToUpper(base)] = rates
}

// FailWith makes every request answer status; zero restores normal answers
func (m *MockRateServer) FailWith(status int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failStatus = status
}

// RespondWith makes every request answer body verbatim with 200
func (m *MockRateServer) RespondWith(body string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rawBody = body
}

// Delay holds every response for d
func (m *MockRateServer) Delay(d time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.delay = d
}
