// Package wiring composes the production adapters into an application.
package wiring

import (
	"go.trai.ch/again/internal/adapters/cas"
	"go.trai.ch/again/internal/adapters/config"
	"go.trai.ch/again/internal/adapters/fs"
	"go.trai.ch/again/internal/adapters/logger"
	"go.trai.ch/again/internal/adapters/shell"
	"go.trai.ch/again/internal/app"
	"go.trai.ch/again/internal/core/ports"
)

// Components bundles the wired application with the collaborators the CLI
// needs direct access to.
type Components struct {
	App    *app.App
	Logger *logger.Logger
}

// New wires the production adapters. Stores are created lazily per store
// root by the application, so none is constructed here.
func New() *Components {
	log := logger.New()

	return &Components{
		App: app.New(
			config.NewLoader(log),
			fs.NewWalker(),
			shell.NewExecutor(log),
			log,
			func(root string) ports.Store { return cas.NewStore(root, log) },
		),
		Logger: log,
	}
}
