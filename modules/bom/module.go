package bom

import (
	"embed"

	"github.com/partstack/partstack/modules/bom/infrastructure/persistence"
	"github.com/partstack/partstack/modules/bom/presentation/controllers"
	"github.com/partstack/partstack/modules/bom/services"
	"github.com/partstack/partstack/pkg/application"
)

//go:embed infrastructure/persistence/schema/bom-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)

	app.RegisterServices(
		services.NewBOMService(
			persistence.NewPartRepository(),
			persistence.NewImportJobRepository(),
			persistence.NewPgRecordStore(),
			app.EventPublisher(),
		),
	)

	app.RegisterControllers(
		controllers.NewBOMAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "bom"
}
