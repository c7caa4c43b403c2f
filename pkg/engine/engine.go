// Package engine runs the per-workspace job: inventory sync, analysis,
// recommendation persistence, job-run bookkeeping.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/costlens/costlens/pkg/analyzer"
	"github.com/costlens/costlens/pkg/cloud"
	"github.com/costlens/costlens/pkg/collector"
	"github.com/costlens/costlens/pkg/models"
	"github.com/costlens/costlens/pkg/pricing"
	"github.com/costlens/costlens/pkg/store"
)

// staleAfter is the sweep cutoff: resources not seen for this long after a
// successful collection are soft-deleted.
const staleAfter = time.Hour

// CollectorFactory builds the per-service collector set for one workspace.
type CollectorFactory func(ctx context.Context, ws cloud.Workspace) ([]collector.Collector, error)

type Engine struct {
	store      store.Store
	clients    cloud.Factory
	collectors CollectorFactory
	log        *slog.Logger

	// now is injectable for tests.
	now func() time.Time
}

func New(st store.Store, clients cloud.Factory, collectors CollectorFactory, log *slog.Logger) *Engine {
	return &Engine{
		store:      st,
		clients:    clients,
		collectors: collectors,
		log:        log,
		now:        time.Now,
	}
}

// ProcessWorkspace runs one full job against one workspace. A missing
// workspace is logged and skipped without a JobRun row. Inventory failures
// are warnings; analysis failures fail the job run.
func (e *Engine) ProcessWorkspace(ctx context.Context, workspaceID string) error {
	ctx, span := otel.Tracer("costlens/engine").Start(ctx, "engine.ProcessWorkspace")
	span.SetAttributes(attribute.String("workspace.id", workspaceID))
	defer span.End()

	ws, err := e.store.GetWorkspace(ctx, workspaceID)
	if errors.Is(err, store.ErrNotFound) {
		e.log.Warn("[engine] workspace not found, skipping", "workspace", workspaceID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load workspace %s: %w", workspaceID, err)
	}

	run := &models.JobRun{
		WorkspaceID: ws.ID,
		Status:      models.JobStatusRunning,
		StartedAt:   e.now(),
	}
	if err := e.store.CreateJobRun(ctx, run); err != nil {
		return fmt.Errorf("create job run: %w", err)
	}

	wsCtx := cloud.Workspace{ID: ws.ID, RoleArn: ws.RoleArn, AWSAccountID: ws.AWSAccountID}

	// Inventory sync is best-effort; a broken sync must not block analysis.
	if err := e.syncInventory(ctx, wsCtx); err != nil {
		e.log.Warn("[engine] inventory sync failed", "workspace", ws.ID, "error", err)
	}

	recommendations, err := e.analyze(ctx, wsCtx)
	if err != nil {
		msg := err.Error()
		if ctx.Err() != nil {
			msg = "cancelled"
		}
		e.log.Error("[engine] job failed", "workspace", ws.ID, "error", err)
		if failErr := e.store.FailJobRun(context.WithoutCancel(ctx), run.ID, msg, e.now()); failErr != nil {
			e.log.Error("[engine] recording job failure failed", "workspace", ws.ID, "error", failErr)
		}
		return err
	}

	if err := e.store.UpdateWorkspaceStatus(ctx, ws.ID, models.WorkspaceStatusConnected); err != nil {
		e.log.Error("[engine] workspace status update failed", "workspace", ws.ID, "error", err)
	}
	if err := e.store.CompleteJobRun(ctx, run.ID, recommendations, e.now()); err != nil {
		return fmt.Errorf("complete job run: %w", err)
	}

	e.log.Info("[engine] job completed",
		"workspace", ws.ID, "recommendations", recommendations)
	return nil
}

// syncInventory runs the collector sweep and upserts every record. Per-record
// upsert failures are logged and skipped; per-collector failures arrive as
// sweep errors and are logged the same way.
func (e *Engine) syncInventory(ctx context.Context, ws cloud.Workspace) error {
	collectors, err := e.collectors(ctx, ws)
	if err != nil {
		return fmt.Errorf("build collectors: %w", err)
	}

	result := collector.Sweep(ctx, e.log, collectors)
	for _, msg := range result.Errors {
		e.log.Warn("[resource-sync] partial failure", "workspace", ws.ID, "error", msg)
	}

	now := e.now()
	stored := 0
	for _, rec := range result.Records {
		err := e.store.UpsertResource(ctx, ws.ID, store.ResourceUpsert{
			ResourceID:           rec.ResourceID,
			ARN:                  rec.ARN,
			Service:              rec.Service,
			Type:                 rec.Type,
			Name:                 rec.Name,
			Tags:                 toJSONMap(rec.Tags),
			Metadata:             rec.Metadata,
			State:                rec.State,
			EstimatedMonthlyCost: rec.EstimatedMonthlyCost,
		}, now)
		if err != nil {
			e.log.Warn("[resource-sync] upsert failed",
				"workspace", ws.ID, "resource", rec.ResourceID, "error", err)
			continue
		}
		stored++
	}

	stale, err := e.store.MarkStaleResources(ctx, ws.ID, now.Add(-staleAfter))
	if err != nil {
		return fmt.Errorf("stale sweep: %w", err)
	}
	e.log.Info("[resource-sync] inventory synced",
		"workspace", ws.ID, "stored", stored, "stale", stale,
		"collectorErrors", len(result.Errors))
	return nil
}

// inventories is everything the analysis path fetches from the cloud client.
type inventories struct {
	instances []cloud.EC2Instance
	metrics   map[string]cloud.CPUMetrics
	volumes   []cloud.EBSVolume
	buckets   []cloud.S3Bucket
	databases []cloud.RDSInstance
	functions []cloud.LambdaFunction
	balancers []cloud.LoadBalancer
	gateways  []cloud.NatGateway
	addresses []cloud.ElasticIP
}

// analyze runs the analysis path: parallel fetch, cost application, analyzer
// run, recommendation upsert. Returns the number of recommendations stored.
// A panic in any step is converted to an error so the job run can be marked
// failed instead of taking the scheduler down.
func (e *Engine) analyze(ctx context.Context, ws cloud.Workspace) (stored int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	client, err := e.clients(ctx, ws)
	if err != nil {
		return 0, fmt.Errorf("cloud client: %w", err)
	}

	inv, err := e.fetchInventories(ctx, client)
	if err != nil {
		return 0, err
	}

	now := e.now()
	if err := e.applyCosts(ctx, ws.ID, inv, now); err != nil {
		return 0, err
	}

	findings := analyzer.RunAll(analyzer.Inputs{
		Instances:  inv.instances,
		CPUMetrics: inv.metrics,
		Volumes:    inv.volumes,
		Buckets:    inv.buckets,
		Databases:  inv.databases,
		Functions:  inv.functions,
		Balancers:  inv.balancers,
		Gateways:   inv.gateways,
		Addresses:  inv.addresses,
	}, now)

	for _, f := range findings {
		err := e.store.UpsertRecommendation(ctx, ws.ID, store.RecommendationUpsert{
			Type:                    f.Type,
			ResourceID:              f.ResourceID,
			Description:             f.Description,
			EstimatedMonthlySavings: f.EstimatedMonthlySavings,
			Confidence:              f.Confidence,
			Metadata:                f.Metadata,
		})
		if err != nil {
			e.log.Warn("[engine] recommendation upsert failed",
				"workspace", ws.ID, "resource", f.ResourceID, "type", f.Type, "error", err)
			continue
		}
		stored++
	}
	return stored, nil
}

// fetchInventories launches the eight list calls concurrently. The metric
// fetch starts as soon as the EC2 ids are known. Panics inside a fetch
// goroutine are converted to fetch errors; a bare recover in the caller
// would never see them.
func (e *Engine) fetchInventories(ctx context.Context, client cloud.Client) (*inventories, error) {
	inv := &inventories{}
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		fetches []error
	)
	fail := func(name string, err error) {
		mu.Lock()
		fetches = append(fetches, fmt.Errorf("%s: %w", name, err))
		mu.Unlock()
	}
	fetch := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fail(name, fmt.Errorf("panic: %v", r))
				}
			}()
			if err := fn(); err != nil {
				fail(name, err)
			}
		}()
	}

	instanceIDs := make(chan []string, 1)

	fetch("ec2 instances", func() error {
		// The ids channel must be fed on every path or the metric fetch
		// blocks forever.
		ids := []string{}
		defer func() { instanceIDs <- ids }()

		instances, err := client.ListEC2Instances(ctx)
		if err != nil {
			return err
		}
		inv.instances = instances
		for _, inst := range instances {
			ids = append(ids, inst.InstanceID)
		}
		return nil
	})
	fetch("cpu metrics", func() error {
		ids := <-instanceIDs
		if len(ids) == 0 {
			return nil
		}
		metrics, err := client.GetEC2CPUMetrics(ctx, ids)
		if err != nil {
			return err
		}
		inv.metrics = metrics
		return nil
	})
	fetch("ebs volumes", func() error {
		volumes, err := client.ListEBSVolumes(ctx)
		inv.volumes = volumes
		return err
	})
	fetch("s3 buckets", func() error {
		buckets, err := client.ListS3Buckets(ctx)
		inv.buckets = buckets
		return err
	})
	fetch("rds instances", func() error {
		databases, err := client.ListRDSInstances(ctx)
		inv.databases = databases
		return err
	})
	fetch("lambda functions", func() error {
		functions, err := client.ListLambdaFunctions(ctx)
		inv.functions = functions
		return err
	})
	fetch("load balancers", func() error {
		balancers, err := client.ListLoadBalancers(ctx)
		inv.balancers = balancers
		return err
	})
	fetch("nat gateways", func() error {
		gateways, err := client.ListNatGateways(ctx)
		inv.gateways = gateways
		return err
	})
	fetch("elastic ips", func() error {
		addresses, err := client.ListElasticIPs(ctx)
		inv.addresses = addresses
		return err
	})
	fetch("cost data", func() error {
		// Fetched for snapshot completeness; a failure is tolerable.
		if _, err := client.GetCostData(ctx); err != nil {
			e.log.Debug("[engine] cost data fetch failed", "error", err)
		}
		return nil
	})
	wg.Wait()

	if len(fetches) > 0 {
		return nil, errors.Join(fetches...)
	}
	return inv, nil
}

// applyCosts upserts the analysis-path resources with their estimated
// monthly cost. These rows overlap the inventory sync on resource id; the
// upsert overwrites cost and state and leaves everything else refreshed.
func (e *Engine) applyCosts(ctx context.Context, workspaceID string, inv *inventories, now time.Time) error {
	upsert := func(rec store.ResourceUpsert) {
		if err := e.store.UpsertResource(ctx, workspaceID, rec, now); err != nil {
			e.log.Warn("[engine] cost upsert failed",
				"workspace", workspaceID, "resource", rec.ResourceID, "error", err)
		}
	}

	for _, inst := range inv.instances {
		cost := pricing.Round2(pricing.EC2MonthlyCost(inst.InstanceType, inst.State))
		upsert(store.ResourceUpsert{
			ResourceID:           inst.InstanceID,
			Service:              "EC2",
			Type:                 inst.InstanceType,
			Name:                 inst.Name,
			Tags:                 toJSONMap(inst.Tags),
			State:                inst.State,
			EstimatedMonthlyCost: &cost,
		})
	}
	for _, vol := range inv.volumes {
		cost := pricing.Round2(pricing.EBSMonthlyCost(vol.VolumeType, vol.SizeGiB))
		upsert(store.ResourceUpsert{
			ResourceID:           vol.VolumeID,
			Service:              "EBS",
			Type:                 vol.VolumeType,
			State:                vol.State,
			EstimatedMonthlyCost: &cost,
			Metadata:             models.JSONMap{"sizeGiB": vol.SizeGiB},
		})
	}
	for _, bucket := range inv.buckets {
		cost := pricing.Round2(pricing.S3MonthlyCost(bucket.SizeBytes, bucket.StorageClass))
		upsert(store.ResourceUpsert{
			ResourceID:           bucket.Name,
			ARN:                  "arn:aws:s3:::" + bucket.Name,
			Service:              "S3",
			Type:                 "bucket",
			Name:                 bucket.Name,
			EstimatedMonthlyCost: &cost,
			Metadata: models.JSONMap{
				"sizeBytes":    bucket.SizeBytes,
				"storageClass": bucket.StorageClass,
			},
		})
	}
	for _, db := range inv.databases {
		cost := pricing.Round2(pricing.RDSMonthlyCost(db.InstanceClass, db.Status))
		upsert(store.ResourceUpsert{
			ResourceID:           db.InstanceID,
			Service:              "RDS",
			Type:                 db.InstanceClass,
			Name:                 db.InstanceID,
			State:                db.Status,
			EstimatedMonthlyCost: &cost,
			Metadata:             models.JSONMap{"engine": db.Engine},
		})
	}
	for _, fn := range inv.functions {
		cost := pricing.Round2(pricing.LambdaMonthlyCost(fn.MemoryMB, fn.AvgDurationMs, fn.AvgInvocationsPerDay))
		upsert(store.ResourceUpsert{
			ResourceID:           fn.Name,
			Service:              "Lambda",
			Type:                 fn.Runtime,
			Name:                 fn.Name,
			EstimatedMonthlyCost: &cost,
			Metadata:             models.JSONMap{"memoryMB": fn.MemoryMB},
		})
	}
	for _, lb := range inv.balancers {
		cost := pricing.Round2(pricing.LoadBalancerMonthlyCost())
		upsert(store.ResourceUpsert{
			ResourceID:           lb.ARN,
			ARN:                  lb.ARN,
			Service:              "ELB",
			Type:                 lb.Type,
			Name:                 lb.Name,
			State:                lb.State,
			EstimatedMonthlyCost: &cost,
		})
	}
	for _, ngw := range inv.gateways {
		dailyGB := ngw.BytesProcessedPerDay / float64(1<<30)
		cost := pricing.Round2(pricing.NATGatewayMonthlyCost(dailyGB))
		upsert(store.ResourceUpsert{
			ResourceID:           ngw.NatGatewayID,
			Service:              "VPC",
			Type:                 "nat-gateway",
			State:                ngw.State,
			EstimatedMonthlyCost: &cost,
			Metadata:             models.JSONMap{"vpcId": ngw.VpcID},
		})
	}
	for _, addr := range inv.addresses {
		cost := pricing.Round2(pricing.ElasticIPMonthlyCost(addr.AssociationID != ""))
		state := "unassociated"
		if addr.AssociationID != "" {
			state = "associated"
		}
		upsert(store.ResourceUpsert{
			ResourceID:           addr.AllocationID,
			Service:              "VPC",
			Type:                 "elastic-ip",
			State:                state,
			EstimatedMonthlyCost: &cost,
			Metadata:             models.JSONMap{"publicIp": addr.PublicIP},
		})
	}
	return nil
}

func toJSONMap(tags map[string]string) models.JSONMap {
	if len(tags) == 0 {
		return nil
	}
	out := make(models.JSONMap, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
