package application

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"reflect"
	"sort"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/partstack/partstack/pkg/eventbus"
)

// Controller is the unit of HTTP surface registered by modules.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

// Module wires a feature area (services, controllers, schema) into the app.
type Module interface {
	Name() string
	Register(app Application) error
}

type Application interface {
	Pool() *pgxpool.Pool
	Logger() *logrus.Logger
	EventPublisher() eventbus.EventBus

	RegisterServices(services ...any)
	Service(service any) any

	RegisterControllers(controllers ...Controller)
	Controllers() []Controller

	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	Middleware() []mux.MiddlewareFunc

	Migrations() *MigrationRegistry
}

type ApplicationOptions struct {
	Pool     *pgxpool.Pool
	EventBus eventbus.EventBus
	Logger   *logrus.Logger
}

func New(opts *ApplicationOptions) Application {
	return &application{
		pool:        opts.Pool,
		eventBus:    opts.EventBus,
		logger:      opts.Logger,
		services:    map[reflect.Type]any{},
		controllers: map[string]Controller{},
		migrations:  &MigrationRegistry{},
	}
}

type application struct {
	pool        *pgxpool.Pool
	eventBus    eventbus.EventBus
	logger      *logrus.Logger
	services    map[reflect.Type]any
	controllers map[string]Controller
	middleware  []mux.MiddlewareFunc
	migrations  *MigrationRegistry
}

func (a *application) Pool() *pgxpool.Pool               { return a.pool }
func (a *application) Logger() *logrus.Logger            { return a.logger }
func (a *application) EventPublisher() eventbus.EventBus { return a.eventBus }
func (a *application) Migrations() *MigrationRegistry    { return a.migrations }
func (a *application) Middleware() []mux.MiddlewareFunc  { return a.middleware }

func (a *application) RegisterServices(services ...any) {
	for _, service := range services {
		serviceType := reflect.TypeOf(service).Elem()
		a.services[serviceType] = service
	}
}

// Service looks up a registered service by the type of the given zero value,
// e.g. app.Service(services.BOMService{}).(*services.BOMService).
func (a *application) Service(service any) any {
	serviceType := reflect.TypeOf(service)
	svc, ok := a.services[serviceType]
	if !ok {
		panic(fmt.Sprintf("service %s not found", serviceType.Name()))
	}
	return svc
}

func (a *application) RegisterControllers(controllers ...Controller) {
	for _, controller := range controllers {
		a.controllers[controller.Key()] = controller
	}
}

func (a *application) Controllers() []Controller {
	keys := make([]string, 0, len(a.controllers))
	for key := range a.controllers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]Controller, 0, len(keys))
	for _, key := range keys {
		out = append(out, a.controllers[key])
	}
	return out
}

func (a *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	a.middleware = append(a.middleware, middleware...)
}

// MigrationRegistry collects embedded schema files from modules and applies
// them on startup. Statements are expected to be idempotent (IF NOT EXISTS).
type MigrationRegistry struct {
	schemas []*embed.FS
}

func (m *MigrationRegistry) RegisterSchema(fsys *embed.FS) {
	m.schemas = append(m.schemas, fsys)
}

func (m *MigrationRegistry) Apply(ctx context.Context, pool *pgxpool.Pool) error {
	for _, fsys := range m.schemas {
		err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			content, err := fs.ReadFile(fsys, path)
			if err != nil {
				return fmt.Errorf("read schema %s: %w", path, err)
			}
			if _, err := pool.Exec(ctx, string(content)); err != nil {
				return fmt.Errorf("apply schema %s: %w", path, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
