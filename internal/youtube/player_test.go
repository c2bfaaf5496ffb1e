package youtube

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHeaderTransport(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	client := &http.Client{Transport: &headerTransport{
		base:    http.DefaultTransport,
		headers: DefaultStrategies[1].Headers,
	}}

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("User-Agent", "caller-agent")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if ua := got.Get("User-Agent"); ua != DefaultStrategies[1].Headers["User-Agent"] {
		t.Errorf("User-Agent = %q", ua)
	}
	if req.Header.Get("User-Agent") != "caller-agent" {
		t.Error("caller's request must not be modified")
	}
}

func TestPlayerAttempts(t *testing.T) {
	attempts := PlayerAttempts(DefaultStrategies, time.Second)
	if len(attempts) != len(DefaultStrategies) {
		t.Fatalf("len = %d, want %d", len(attempts), len(DefaultStrategies))
	}
	for i, a := range attempts {
		if a.Name != DefaultStrategies[i].Name {
			t.Errorf("attempt %d = %q", i, a.Name)
		}
		ps, ok := a.Source.(*PlayerSource)
		if !ok {
			t.Fatalf("attempt %d source is %T", i, a.Source)
		}
		if ps.client.HTTPClient.Timeout != time.Second {
			t.Errorf("timeout = %v", ps.client.HTTPClient.Timeout)
		}
	}
}

func TestDefaultStrategiesOmitAcceptEncoding(t *testing.T) {
	for _, s := range DefaultStrategies {
		if _, ok := s.Headers["Accept-Encoding"]; ok {
			t.Errorf("strategy %q sets Accept-Encoding", s.Name)
		}
	}
}
