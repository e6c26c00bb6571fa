package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"netsync/internal/config"
	"netsync/internal/domain"
	"netsync/internal/source"
	"netsync/internal/store"
)

// Result is the outcome of one load run
type Result struct {
	RunID      string
	Namespace  string
	Store      *store.Store
	Quarantine *Quarantine
	Stats      Stats
}

// Snapshot serializes the loaded graph for hand-off
func (r *Result) Snapshot() (*domain.Snapshot, error) {
	return r.Store.Snapshot(r.RunID, r.Namespace)
}

// Adapter loads a controller's inventory into a fresh node store
type Adapter struct {
	client source.Client
	cfg    *config.LoadConfig
	rules  []roleRule
	log    *zap.Logger
}

// New creates an adapter. cfg is read but never modified.
func New(client source.Client, cfg *config.LoadConfig, logger *zap.Logger) (*Adapter, error) {
	if client == nil {
		return nil, errors.New("adapter requires a source client")
	}
	if cfg == nil {
		cfg = &config.DefaultConfig().Load
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rules, err := compileRoleRules(cfg.HostnameMap)
	if err != nil {
		return nil, fmt.Errorf("compile hostname map: %w", err)
	}

	return &Adapter{
		client: client,
		cfg:    cfg,
		rules:  rules,
		log:    logger.Named("adapter"),
	}, nil
}

// Name returns the identifier of this adapter
func (a *Adapter) Name() string {
	return "dna_center"
}

// Load runs the pipeline: catch-all prefix, locations, then devices with
// their ports and addresses. Only a failed device fetch or a cancelled
// context is returned as an error; bad records are quarantined.
func (a *Adapter) Load(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := a.log.With(zap.String("run_id", runID))
	namespace := a.cfg.Namespace()

	st := store.New(log)
	result := &Result{
		RunID:      runID,
		Namespace:  namespace,
		Store:      st,
		Quarantine: &Quarantine{},
	}

	catchAll := domain.Prefix{Network: domain.CatchAllPrefix, Namespace: namespace, Tenant: a.cfg.Tenant}
	if err := st.Add(catchAll); err != nil {
		return nil, fmt.Errorf("insert catch-all prefix: %w", err)
	}

	hierarchy, err := a.loadLocations(ctx, st, log)
	if err != nil {
		return nil, err
	}

	devices, err := a.client.GetDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch devices: %w", err)
	}

	addresses := NewAddressLoader(st, namespace, a.cfg.Tenant, a.cfg.Debug, log)
	loader := &DeviceLoader{
		store:      st,
		client:     a.client,
		hierarchy:  hierarchy,
		ports:      NewPortLoader(st, a.client, addresses, a.cfg.Debug, log),
		cfg:        a.cfg,
		rules:      a.rules,
		quarantine: result.Quarantine,
		stats:      &result.Stats,
		log:        log.Named("devices"),
	}
	if err := loader.Load(ctx, devices); err != nil {
		return nil, fmt.Errorf("load devices: %w", err)
	}

	if a.cfg.ShowFailures {
		a.reportFailures(log, result.Quarantine)
	}

	log.Info("Load complete",
		zap.Int("devices_input", result.Stats.Input),
		zap.Int("devices_loaded", result.Stats.Loaded),
		zap.Int("devices_quarantined", result.Stats.Quarantined),
		zap.Int("devices_excluded", result.Stats.Excluded),
		zap.Int("buildings", st.Count(domain.KindBuilding)),
		zap.Int("ports", st.Count(domain.KindPort)))

	return result, nil
}

// loadLocations seeds the controller location and loads the source
// hierarchy. A source without locations is logged and leaves devices to be
// quarantined for lack of a building.
func (a *Adapter) loadLocations(ctx context.Context, st *store.Store, log *zap.Logger) (*HierarchyLoader, error) {
	hierarchy := NewHierarchyLoader(st, nil, a.cfg, log)
	hierarchy.LoadController(a.cfg.Controller)

	locations, err := a.client.GetLocations(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Error("Unable to fetch locations", zap.Error(err))
		locations = nil
	}
	if len(locations) == 0 {
		log.Error("No location data was returned from the controller. Unable to proceed.")
		return hierarchy, nil
	}

	index := BuildLocationIndex(locations, a.cfg.ImportGlobal, a.cfg.TopLevelName)
	hierarchy.SetIndex(index)
	hierarchy.LoadAreas(index.Areas)
	hierarchy.LoadBuildings(index.Buildings)
	hierarchy.LoadFloors(index.Floors)
	return hierarchy, nil
}

func (a *Adapter) reportFailures(log *zap.Logger, q *Quarantine) {
	if q.Len() == 0 {
		log.Info("There weren't any failed device loads. Congratulations!")
		return
	}
	dump, err := json.MarshalIndent(q.Records(), "", "  ")
	if err != nil {
		log.Warn("Unable to render failed device loads", zap.Error(err))
		return
	}
	log.Warn(fmt.Sprintf("List of %d devices that were unable to be loaded. %s", q.Len(), dump))
}
