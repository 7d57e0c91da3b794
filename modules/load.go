package modules

import (
	"github.com/partstack/partstack/modules/bom"
	"github.com/partstack/partstack/pkg/application"
)

var BuiltInModules = []application.Module{
	bom.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range append(BuiltInModules, externalModules...) {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
