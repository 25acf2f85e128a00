package recordsfetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recordsJSON = `{
  "world_records": {"333": {"single": 305, "average": 390}, "333mbf": {"single": 380347200}},
  "continental_records": {"_Europe": {"333": {"single": 353, "average": 440}}},
  "national_records": {"Poland": {"333": {"single": 420, "average": 512, "best_of_three": 1}}}
}`

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("unexpected Accept header %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(recordsJSON))
	}))
	defer server.Close()

	entries, err := NewClient(server.URL, nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 7)

	snapshot := resultsdomain.NewRecordsSnapshot(time.Now(), entries)
	tests := []struct {
		key  resultsdomain.RecordKey
		want resultsdomain.AttemptResult
	}{
		{resultsdomain.RecordKey{Scope: resultsdomain.Scope{Kind: resultsdomain.ScopeWorld}, EventCode: "333", Type: resultsdomain.StatSingle}, 305},
		{resultsdomain.RecordKey{Scope: resultsdomain.Scope{Kind: resultsdomain.ScopeWorld}, EventCode: "333mbf", Type: resultsdomain.StatSingle}, 380347200},
		{resultsdomain.RecordKey{Scope: resultsdomain.Scope{Kind: resultsdomain.ScopeContinent, ID: "_Europe"}, EventCode: "333", Type: resultsdomain.StatAverage}, 440},
		{resultsdomain.RecordKey{Scope: resultsdomain.Scope{Kind: resultsdomain.ScopeCountry, ID: "Poland"}, EventCode: "333", Type: resultsdomain.StatSingle}, 420},
	}
	for _, tt := range tests {
		got, ok := snapshot.Record(tt.key)
		assert.True(t, ok, "missing %+v", tt.key)
		assert.Equal(t, tt.want, got, "%+v", tt.key)
	}
}

func TestClient_FetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "maintenance", http.StatusServiceUnavailable)
			},
			wantErr: "unexpected status 503",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"world_records": [`))
			},
			wantErr: "failed to decode records",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewClient(server.URL, nil).Fetch(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewClient_DefaultURL(t *testing.T) {
	assert.Equal(t, DefaultURL, NewClient("", nil).url)
}
