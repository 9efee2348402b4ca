package app

import (
	"github.com/Kakcalu13/webots-controllers/internal/registry"
	"github.com/Kakcalu13/webots-controllers/modules/gyro"
	"github.com/Kakcalu13/webots-controllers/modules/motor"
	"github.com/Kakcalu13/webots-controllers/modules/pressure"
	"github.com/Kakcalu13/webots-controllers/modules/proximity"
	"github.com/Kakcalu13/webots-controllers/modules/servo"
	"github.com/Kakcalu13/webots-controllers/modules/vision"
)

// coreModules is the definitive list of all device modules compiled into
// the controller binary. Motor and vision carry per-session state, so the
// list is built fresh for every App.
func coreModules() []registry.Module {
	return []registry.Module{
		&servo.Module{},
		motor.New(),
		&gyro.Module{},
		&proximity.Module{},
		&pressure.Module{},
		vision.New(),
	}
}
