package api

import (
	"github.com/shelfwise/shelfwise-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Users    *service.UserService
	Taxonomy *service.TaxonomyService
	Labels   *service.LabelResolver
	Shelves  *service.ShelfService
	SetOps   *service.SetOperationEngine
}
