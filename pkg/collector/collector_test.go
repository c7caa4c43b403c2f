package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costlens/costlens/pkg/cloud"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCollector struct {
	service string
	records []ResourceRecord
	err     error
	delay   time.Duration

	mu      *sync.Mutex
	running *int
	peak    *int
}

func (f *fakeCollector) Service() string { return f.service }

func (f *fakeCollector) Collect(context.Context) ([]ResourceRecord, error) {
	if f.mu != nil {
		f.mu.Lock()
		*f.running++
		if *f.running > *f.peak {
			*f.peak = *f.running
		}
		f.mu.Unlock()
		defer func() {
			f.mu.Lock()
			*f.running--
			f.mu.Unlock()
		}()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.records, f.err
}

func TestSweepPreservesDispatchOrder(t *testing.T) {
	var collectors []Collector
	for i := 0; i < 9; i++ {
		// Earlier collectors sleep longer so completion order inverts
		// dispatch order within each batch.
		collectors = append(collectors, &fakeCollector{
			service: fmt.Sprintf("svc-%d", i),
			delay:   time.Duration(9-i) * time.Millisecond,
			records: []ResourceRecord{{ResourceID: fmt.Sprintf("r-%d", i), Service: fmt.Sprintf("svc-%d", i)}},
		})
	}

	result := Sweep(context.Background(), discardLogger(), collectors)
	require.Empty(t, result.Errors)
	require.Len(t, result.Records, 9)
	for i, rec := range result.Records {
		assert.Equal(t, fmt.Sprintf("r-%d", i), rec.ResourceID)
	}
}

func TestSweepCapturesFailuresAndCompletes(t *testing.T) {
	collectors := []Collector{
		&fakeCollector{service: "EC2", records: []ResourceRecord{{ResourceID: "i-1", Service: "EC2"}}},
		&fakeCollector{service: "IAM", err: errors.New("access denied")},
		&fakeCollector{service: "S3", records: []ResourceRecord{{ResourceID: "bucket", Service: "S3"}}},
		&fakeCollector{service: "RDS", err: errors.New("throttled")},
		&fakeCollector{service: "SQS", records: []ResourceRecord{{ResourceID: "q", Service: "SQS"}}},
	}

	result := Sweep(context.Background(), discardLogger(), collectors)
	assert.Len(t, result.Records, 3)
	require.Equal(t, []string{"IAM: access denied", "RDS: throttled"}, result.Errors)
}

func TestSweepBoundsParallelism(t *testing.T) {
	var mu sync.Mutex
	running, peak := 0, 0

	var collectors []Collector
	for i := 0; i < 16; i++ {
		collectors = append(collectors, &fakeCollector{
			service: fmt.Sprintf("svc-%d", i),
			delay:   5 * time.Millisecond,
			mu:      &mu,
			running: &running,
			peak:    &peak,
		})
	}

	Sweep(context.Background(), discardLogger(), collectors)
	assert.LessOrEqual(t, peak, batchSize)
	assert.GreaterOrEqual(t, peak, 2, "batches should actually run in parallel")
}

func TestNewMockCollectorsCoversAllServices(t *testing.T) {
	collectors := NewMockCollectors(cloud.NewMock(1))
	require.Len(t, collectors, 16)

	seen := map[string]bool{}
	for _, c := range collectors {
		seen[c.Service()] = true
	}
	for _, svc := range []string{
		"EC2", "EBS", "S3", "RDS", "Lambda", "ELB", "CloudFront", "VPC",
		"AutoScaling", "ElasticBeanstalk", "DynamoDB", "SNS", "SQS",
		"Route53", "IAM", "CloudFormation",
	} {
		assert.True(t, seen[svc], "missing collector for %s", svc)
	}

	result := Sweep(context.Background(), discardLogger(), collectors)
	assert.Empty(t, result.Errors)

	ids := map[string]bool{}
	for _, rec := range result.Records {
		assert.NotEmpty(t, rec.ResourceID)
		assert.NotEmpty(t, rec.Service)
		ids[rec.ResourceID] = true
	}
	assert.True(t, ids["i-0a1b2c3d4e5f00004"], "seeded underutilized instance must appear in inventory")
	assert.True(t, ids["vol-0a1b2c3d4e5f00001"])
}
