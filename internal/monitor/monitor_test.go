package monitor

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/brocaar/moca-monitor/internal/config"
	"github.com/brocaar/moca-monitor/internal/integration"
	"github.com/brocaar/moca-monitor/internal/moca"
	"github.com/brocaar/moca-monitor/internal/storage"
	"github.com/brocaar/moca-monitor/internal/test"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

type fakeSource struct {
	localInfo    moca.RegisterDump
	localInfoErr error

	netInfo map[moca.NodeID]moca.RegisterDump
	fmr     map[uint16]moca.RegisterDump
}

func (f *fakeSource) LocalInfo(ctx context.Context) (moca.RegisterDump, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.localInfo, f.localInfoErr
}

func (f *fakeSource) NetInfo(ctx context.Context, node moca.NodeID) (moca.RegisterDump, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.netInfo[node], nil
}

func (f *fakeSource) FMRInfo(ctx context.Context, targetMask uint16, format uint8) (moca.RegisterDump, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.fmr[targetMask], nil
}

// twoNodeSource returns a fake adapter on a two node MoCA 2.0 network
// (nodes 0 and 3).
func twoNodeSource() *fakeSource {
	return &fakeSource{
		localInfo: moca.RegisterDump{
			"0x0", "0x0", "0x0", "0x0", "0x0", "0x0", "0x0",
			"0x0", "0x0", "0x0", "0x0", "0x20", "0x9",
		},
		netInfo: map[moca.NodeID]moca.RegisterDump{
			0: {"0x0", "0x0", "0x0", "0x0", "0x20"},
			3: {"0x0", "0x0", "0x0", "0x0", "0x20"},
		},
		fmr: map[uint16]moca.RegisterDump{
			1 << 0: fmrDump("0x050701F4", "0x012C0900", "0x02580000"),
			1 << 3: fmrDump("0x040601C2", "0x00FA0507", "0x01F4012C"),
		},
	}
}

// fmrDump prepends the filler words before the FMR payload.
func fmrDump(words ...string) moca.RegisterDump {
	dump := make(moca.RegisterDump, 10, 10+len(words))
	for i := range dump {
		dump[i] = "0x0"
	}
	return append(dump, words...)
}

type publishedReport struct {
	adapterName string
	report      moca.Report
}

type testPublisher struct {
	mu      sync.Mutex
	reports []publishedReport
}

func (p *testPublisher) PublishReport(ctx context.Context, adapterName string, report moca.Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reports = append(p.reports, publishedReport{adapterName, report})
	return nil
}

func (p *testPublisher) Close() error {
	return nil
}

func (p *testPublisher) published() []publishedReport {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]publishedReport, len(p.reports))
	copy(out, p.reports)
	return out
}

func TestMeasurements(t *testing.T) {
	assert := require.New(t)

	polledAt := time.Now().UTC()
	report := moca.Report{
		PolledAt:     polledAt,
		Nodes:        []moca.NodeID{0, 3},
		NodeVersions: []moca.Version{0x20, 0x11},
		Rates:        [][]uint32{{78, 97}, {70, 78}},
		VLRates:      [][]uint32{{46, 0}, {38, 46}},
		GCDRates:     []uint32{78, 118},
	}

	phy, node := measurements("living-room", report)

	assert.Len(phy, 4)
	assert.Equal(storage.PhyRateMeasurement{
		Adapter:    "living-room",
		PolledAt:   polledAt,
		FromNode:   0,
		ToNode:     3,
		RateMbps:   97,
		VLRateMbps: 0,
	}, phy[1])
	assert.Equal(storage.PhyRateMeasurement{
		Adapter:    "living-room",
		PolledAt:   polledAt,
		FromNode:   3,
		ToNode:     0,
		RateMbps:   70,
		VLRateMbps: 38,
	}, phy[2])

	assert.Len(node, 2)
	assert.Equal(storage.NodeMeasurement{
		Adapter:     "living-room",
		PolledAt:    polledAt,
		Node:        3,
		GCDMbps:     118,
		MocaVersion: 0x11,
	}, node[1])
}

type MonitorTestSuite struct {
	suite.Suite
	test.DatabaseTestSuiteBase
}

func (ts *MonitorTestSuite) TestPoll() {
	assert := require.New(ts.T())
	ctx := context.Background()

	pub := &testPublisher{}
	integration.SetPublisher(pub)
	defer integration.SetPublisher(nil)

	m := &adapterMonitor{
		name:     "poll-test",
		source:   twoNodeSource(),
		interval: time.Minute,
		timeout:  5 * time.Second,
	}
	assert.NoError(m.poll(ctx))

	report, ok := GetReport("poll-test")
	assert.True(ok)
	assert.Equal([]moca.NodeID{0, 3}, report.Nodes)
	assert.Equal([][]uint32{{78, 97}, {70, 78}}, report.Rates)

	snapshot, err := storage.GetPhyRateReport(ctx, "poll-test")
	assert.NoError(err)
	assert.Equal(report.Rates, snapshot.Rates)
	assert.Equal(report.GCDRates, snapshot.GCDRates)

	start := report.PolledAt.Add(-time.Minute)
	end := report.PolledAt.Add(time.Minute)

	phy, err := storage.GetPhyRateMeasurements(ctx, storage.DB(), "poll-test", 0, 3, start, end)
	assert.NoError(err)
	assert.Len(phy, 1)
	assert.Equal(uint32(97), phy[0].RateMbps)
	assert.Equal(uint32(0), phy[0].VLRateMbps)

	node, err := storage.GetNodeMeasurements(ctx, storage.DB(), "poll-test", 3, start, end)
	assert.NoError(err)
	assert.Len(node, 1)
	assert.Equal(uint32(78), node[0].GCDMbps)
	assert.Equal(moca.Version(0x20), node[0].MocaVersion)

	published := pub.published()
	assert.Len(published, 1)
	assert.Equal("poll-test", published[0].adapterName)
	assert.Equal(report.Rates, published[0].report.Rates)
}

func (ts *MonitorTestSuite) TestPollFailureKeepsLastReport() {
	assert := require.New(ts.T())
	ctx := context.Background()

	src := twoNodeSource()
	m := &adapterMonitor{
		name:     "failure-test",
		source:   src,
		interval: time.Minute,
		timeout:  5 * time.Second,
	}

	assert.NoError(m.poll(ctx))
	first, ok := GetReport("failure-test")
	assert.True(ok)

	src.localInfoErr = errors.New("no route to host")
	assert.Error(m.poll(ctx))

	second, ok := GetReport("failure-test")
	assert.True(ok)
	assert.Equal(first.PolledAt, second.PolledAt)
}

func (ts *MonitorTestSuite) TestSetupAndStop() {
	assert := require.New(ts.T())

	conf := test.GetConfig()
	conf.Monitor.Interval = time.Hour
	conf.Monitor.Timeout = time.Second
	conf.Monitor.Adapters = []config.AdapterConfig{
		{Name: "hallway", Host: "127.0.0.1:9", Timeout: time.Second},
	}

	assert.NoError(Setup(conf))
	assert.Equal([]string{"hallway"}, Adapters())

	assert.NoError(Stop())
	assert.NoError(Stop())
}

func (ts *MonitorTestSuite) TestSetupInvalidConfig() {
	assert := require.New(ts.T())

	conf := test.GetConfig()
	conf.Monitor.Interval = 0
	assert.Error(Setup(conf))

	conf = test.GetConfig()
	conf.Monitor.Adapters = []config.AdapterConfig{
		{Name: "twin", Host: "127.0.0.1:9"},
		{Name: "twin", Host: "127.0.0.2:9"},
	}
	assert.Error(Setup(conf))
}

func TestMonitor(t *testing.T) {
	if os.Getenv("TEST_POSTGRES_DSN") == "" {
		t.Skip("TEST_POSTGRES_DSN is not set")
	}

	suite.Run(t, new(MonitorTestSuite))
}
