// Package kinds maps application kind tags to the factories that construct
// their handles. It is the single extension point for adding new kinds.
package kinds

import (
	"github.com/goofcode/just-start-server/internal/app"
	"github.com/goofcode/just-start-server/internal/infrastructure/logging"
	"github.com/goofcode/just-start-server/internal/kinds/springboot"
	"github.com/goofcode/just-start-server/internal/kinds/tomcat"
	"github.com/goofcode/just-start-server/internal/shared/types"
)

// Deps carries what every factory needs to build handles.
type Deps struct {
	Logger *logging.Logger
}

// Default returns the factory table with all built-in kinds registered.
// Every types.Kind value must appear here exactly once.
func Default(deps Deps) map[types.Kind]app.Factory {
	log := deps.Logger
	if log == nil {
		log = logging.NewNop()
	}

	return map[types.Kind]app.Factory{
		types.KindTomcat: func(id, workspace string) (app.Runnable, error) {
			return tomcat.New(id, workspace, log), nil
		},
		types.KindSpringBoot: func(id, workspace string) (app.Runnable, error) {
			return springboot.New(id, workspace, log), nil
		},
	}
}
