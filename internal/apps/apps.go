// Package apps starts and stops the app modules hosted by the core.
package apps

import (
	"fmt"

	"corelab/internal/events"
	"corelab/internal/logger"
	"corelab/internal/registry"
	"corelab/pkg/coretypes"
)

// App is a module living in the core process. Start subscribes it to the
// bus; Stop removes those subscriptions.
type App interface {
	Info() coretypes.AppInfo
	Start(bus *events.Bus) error
	Stop(bus *events.Bus)
}

// StartAll registers each app and starts it, in order. It stops at the first
// failure; apps already started stay running.
func StartAll(reg *registry.Registry, bus *events.Bus, apps ...App) error {
	for _, app := range apps {
		info := app.Info()
		if err := reg.Register(info); err != nil {
			return fmt.Errorf("failed to register app %s: %w", info.ID, err)
		}
		if err := app.Start(bus); err != nil {
			reg.Unregister(info.ID)
			return fmt.Errorf("failed to start app %s: %w", info.ID, err)
		}
		logger.Info("App started", "app", info.ID, "version", info.Version)
	}
	return nil
}

// StopAll stops apps in reverse order and unregisters them.
func StopAll(reg *registry.Registry, bus *events.Bus, apps ...App) {
	for i := len(apps) - 1; i >= 0; i-- {
		info := apps[i].Info()
		apps[i].Stop(bus)
		reg.Unregister(info.ID)
		logger.Debug("App stopped", "app", info.ID)
	}
}
