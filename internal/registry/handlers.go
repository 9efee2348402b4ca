package registry

import (
	"fmt"
	"log/slog"
)

// RegisteredEncoder binds a sensor encoder to an input device type.
type RegisteredEncoder struct {
	DeviceType string
	Fn         SensorEncoder
}

// RegisteredDecoder binds an actuator decoder to an output device type.
type RegisteredDecoder struct {
	DeviceType string
	Fn         ActuatorDecoder
}

// RegisterEncoder registers a sensor encoder for a device type.
func (r *Registry) RegisterEncoder(handler *RegisteredEncoder) {
	if _, exists := r.EncoderRegistry[handler.DeviceType]; exists {
		panic(fmt.Sprintf("sensor encoder for device type '%s' already registered", handler.DeviceType))
	}
	slog.Debug("Registering sensor encoder.", "deviceType", handler.DeviceType)
	r.EncoderRegistry[handler.DeviceType] = handler
}

// RegisterDecoder registers an actuator decoder for a device type.
func (r *Registry) RegisterDecoder(handler *RegisteredDecoder) {
	if _, exists := r.DecoderRegistry[handler.DeviceType]; exists {
		panic(fmt.Sprintf("actuator decoder for device type '%s' already registered", handler.DeviceType))
	}
	slog.Debug("Registering actuator decoder.", "deviceType", handler.DeviceType)
	r.DecoderRegistry[handler.DeviceType] = handler
}
