package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfwise/shelfwise-server/internal/config"
	"github.com/shelfwise/shelfwise-server/internal/logger"
	"github.com/shelfwise/shelfwise-server/internal/recent"
	"github.com/shelfwise/shelfwise-server/internal/service"
	"github.com/shelfwise/shelfwise-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// RecentTrackerHandle wraps the tracker with shutdown capability.
type RecentTrackerHandle struct {
	*recent.Tracker
}

// Shutdown implements do.Shutdownable.
func (h *RecentTrackerHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRecentTracker provides the per-user recently viewed label paths.
func ProvideRecentTracker(i do.Injector) (*RecentTrackerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &RecentTrackerHandle{Tracker: recent.NewTracker(cfg.Recent.Capacity, cfg.Recent.IdleTTL)}, nil
}

// ProvideAccessGuard provides the visibility guard shared by every read path.
func ProvideAccessGuard(i do.Injector) (*service.AccessGuard, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAccessGuard(storeHandle.Store, log.Logger), nil
}

// ProvideUserService provides the user and social graph service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, v, log.Logger), nil
}

// ProvideTaxonomyService provides the label key and value service.
func ProvideTaxonomyService(i do.Injector) (*service.TaxonomyService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTaxonomyService(storeHandle.Store, v, log.Logger), nil
}

// ProvideLabelResolver provides the label path resolver.
func ProvideLabelResolver(i do.Injector) (*service.LabelResolver, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	guard := do.MustInvoke[*service.AccessGuard](i)
	trackerHandle := do.MustInvoke[*RecentTrackerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLabelResolver(storeHandle.Store, guard, trackerHandle.Tracker, log.Logger), nil
}

// ProvideShelfService provides the shelf service.
func ProvideShelfService(i do.Injector) (*service.ShelfService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	guard := do.MustInvoke[*service.AccessGuard](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewShelfService(storeHandle.Store, guard, v, log.Logger), nil
}

// ProvideResultMaterializer provides the set-operation result writer.
func ProvideResultMaterializer(i do.Injector) (*service.ResultMaterializer, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewResultMaterializer(log.Logger), nil
}

// ProvideSetOperationEngine provides the shelf set-operation engine.
func ProvideSetOperationEngine(i do.Injector) (*service.SetOperationEngine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	guard := do.MustInvoke[*service.AccessGuard](i)
	materializer := do.MustInvoke[*service.ResultMaterializer](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSetOperationEngine(storeHandle.Store, guard, materializer, log.Logger, cfg.SetOps.MaxOperandItems), nil
}
