// Package collector enumerates the resource inventory of one workspace
// across AWS services and feeds it to the persistence layer.
package collector

import (
	"context"
	"fmt"
	"log/slog"
)

// ResourceRecord is one inventory row as observed upstream. The cost model
// fills EstimatedMonthlyCost later for the services it prices; everything
// else ships with a nil cost.
type ResourceRecord struct {
	ResourceID           string
	ARN                  string
	Service              string
	Type                 string
	Name                 string
	Tags                 map[string]string
	State                string
	EstimatedMonthlyCost *float64
	Metadata             map[string]any
}

// Collector enumerates one service. Collect returns records in upstream
// enumeration order.
type Collector interface {
	Service() string
	Collect(ctx context.Context) ([]ResourceRecord, error)
}

// batchSize bounds parallel API pressure per workspace.
const batchSize = 4

// Result is the outcome of one full sweep. Errors holds one
// "<Service>: <message>" entry per failed collector; a failed collector
// never aborts the sweep.
type Result struct {
	Records []ResourceRecord
	Errors  []string
}

// Sweep runs the collectors in batches of four, awaiting each batch before
// dispatching the next. Records are concatenated in dispatch order
// regardless of which goroutine finished first.
func Sweep(ctx context.Context, log *slog.Logger, collectors []Collector) Result {
	var result Result

	type outcome struct {
		records []ResourceRecord
		err     error
	}

	for start := 0; start < len(collectors); start += batchSize {
		end := start + batchSize
		if end > len(collectors) {
			end = len(collectors)
		}
		batch := collectors[start:end]
		outcomes := make([]outcome, len(batch))

		done := make(chan int, len(batch))
		for i, c := range batch {
			go func(i int, c Collector) {
				records, err := c.Collect(ctx)
				outcomes[i] = outcome{records: records, err: err}
				done <- i
			}(i, c)
		}
		for range batch {
			<-done
		}

		for i, c := range batch {
			if outcomes[i].err != nil {
				msg := fmt.Sprintf("%s: %s", c.Service(), outcomes[i].err.Error())
				result.Errors = append(result.Errors, msg)
				log.Warn("[resource-sync] collector failed",
					"service", c.Service(), "error", outcomes[i].err)
				continue
			}
			result.Records = append(result.Records, outcomes[i].records...)
			log.Debug("[resource-sync] collector finished",
				"service", c.Service(), "records", len(outcomes[i].records))
		}
	}
	return result
}
