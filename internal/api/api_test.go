package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/brocaar/moca-monitor/internal/moca"
	"github.com/brocaar/moca-monitor/internal/storage"
	"github.com/brocaar/moca-monitor/internal/test"
)

type APITestSuite struct {
	suite.Suite
	test.DatabaseTestSuiteBase

	server *httptest.Server
}

func (ts *APITestSuite) SetupSuite() {
	ts.DatabaseTestSuiteBase.SetupSuite()
	ts.server = httptest.NewServer(newHandler())
}

func (ts *APITestSuite) TearDownSuite() {
	ts.server.Close()
}

func (ts *APITestSuite) get(path string) *http.Response {
	resp, err := http.Get(ts.server.URL + path)
	require.NoError(ts.T(), err)
	return resp
}

func (ts *APITestSuite) TestAdapters() {
	assert := require.New(ts.T())

	resp := ts.get("/api/adapters")
	defer resp.Body.Close()
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.Equal("application/json", resp.Header.Get("Content-Type"))

	var body adaptersResponse
	assert.NoError(json.NewDecoder(resp.Body).Decode(&body))
	assert.NotNil(body.Adapters)
}

func (ts *APITestSuite) TestMethodNotAllowed() {
	assert := require.New(ts.T())

	resp, err := http.Post(ts.server.URL+"/api/adapters", "application/json", nil)
	assert.NoError(err)
	defer resp.Body.Close()
	assert.Equal(http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(ts.server.URL+"/api/adapters/living-room/report", "application/json", nil)
	assert.NoError(err)
	defer resp.Body.Close()
	assert.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
}

func (ts *APITestSuite) TestReport() {
	assert := require.New(ts.T())
	ctx := context.Background()

	ts.T().Run("Unknown adapter", func(t *testing.T) {
		assert := require.New(t)

		resp := ts.get("/api/adapters/unknown/report")
		defer resp.Body.Close()
		assert.Equal(http.StatusNotFound, resp.StatusCode)
	})

	report := moca.Report{
		PolledAt:       time.Now().UTC().Truncate(time.Millisecond),
		OwnNodeID:      0,
		NCNodeID:       3,
		NetworkVersion: 0x20,
		Nodes:          []moca.NodeID{0, 3},
		NodeVersions:   []moca.Version{0x20, 0x20},
		Rates:          [][]uint32{{78, 97}, {70, 78}},
		VLRates:        [][]uint32{{46, 0}, {38, 46}},
		GCDRates:       []uint32{78, 78},
	}
	assert.NoError(storage.SavePhyRateReport(ctx, "api-test", report))

	ts.T().Run("Snapshot fallback", func(t *testing.T) {
		assert := require.New(t)

		resp := ts.get("/api/adapters/api-test/report")
		defer resp.Body.Close()
		assert.Equal(http.StatusOK, resp.StatusCode)

		var got moca.Report
		assert.NoError(json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(report, got)
	})

	ts.T().Run("Unknown resource", func(t *testing.T) {
		assert := require.New(t)

		resp := ts.get("/api/adapters/api-test/frames")
		defer resp.Body.Close()
		assert.Equal(http.StatusNotFound, resp.StatusCode)

		resp = ts.get("/api/adapters/api-test")
		defer resp.Body.Close()
		assert.Equal(http.StatusNotFound, resp.StatusCode)
	})
}

func (ts *APITestSuite) TestHistory() {
	assert := require.New(ts.T())
	ctx := context.Background()

	polledAt := time.Now().UTC().Truncate(time.Millisecond)
	rates := []uint32{78, 97, 70, 78}

	items := make([]storage.PhyRateMeasurement, len(rates))
	for i, rate := range rates {
		items[i] = storage.PhyRateMeasurement{
			Adapter:    "api-history",
			PolledAt:   polledAt.Add(time.Duration(i-len(rates)) * time.Minute),
			FromNode:   0,
			ToNode:     3,
			RateMbps:   rate,
			VLRateMbps: 46,
		}
	}
	assert.NoError(storage.CreatePhyRateMeasurements(ctx, storage.DB(), items))

	ts.T().Run("Window with measurements", func(t *testing.T) {
		assert := require.New(t)

		resp := ts.get("/api/adapters/api-history/history?from=0&to=3&window=1h")
		defer resp.Body.Close()
		assert.Equal(http.StatusOK, resp.StatusCode)

		var body historyResponse
		assert.NoError(json.NewDecoder(resp.Body).Decode(&body))

		assert.Equal("api-history", body.Adapter)
		assert.Equal(moca.NodeID(0), body.FromNode)
		assert.Equal(moca.NodeID(3), body.ToNode)
		assert.Len(body.Measurements, 4)
		assert.Equal(uint32(78), body.Measurements[0].RateMbps)

		assert.Equal(4, body.Stats.Count)
		assert.Equal(float64(70), body.Stats.Min)
		assert.Equal(float64(97), body.Stats.Max)
		assert.Equal(80.75, body.Stats.Mean)
		assert.InDelta(11.471, body.Stats.StdDev, 0.001)
	})

	ts.T().Run("Empty window", func(t *testing.T) {
		assert := require.New(t)

		resp := ts.get("/api/adapters/api-history/history?from=3&to=0&window=1h")
		defer resp.Body.Close()
		assert.Equal(http.StatusOK, resp.StatusCode)

		var body historyResponse
		assert.NoError(json.NewDecoder(resp.Body).Decode(&body))
		assert.Len(body.Measurements, 0)
		assert.NotNil(body.Measurements)
		assert.Equal(0, body.Stats.Count)
	})

	ts.T().Run("Invalid parameters", func(t *testing.T) {
		assert := require.New(t)

		for _, path := range []string{
			"/api/adapters/api-history/history",
			"/api/adapters/api-history/history?from=16&to=3",
			"/api/adapters/api-history/history?from=0&to=banana",
			"/api/adapters/api-history/history?from=0&to=3&window=banana",
			"/api/adapters/api-history/history?from=0&to=3&window=-1h",
		} {
			resp := ts.get(path)
			resp.Body.Close()
			assert.Equal(http.StatusBadRequest, resp.StatusCode, path)
		}
	})
}

func TestAPI(t *testing.T) {
	if os.Getenv("TEST_POSTGRES_DSN") == "" {
		t.Skip("TEST_POSTGRES_DSN is not set")
	}

	suite.Run(t, new(APITestSuite))
}
