package capability

import (
	"fmt"
	"os"

	"github.com/Kakcalu13/webots-controllers/internal/mjcf"
)

// Generate builds the capability document for a scene. Every actuator and
// sensor whose type maps to a device type present in the template becomes a
// device instance; indices are dense per device type, in scene order. The
// template's index-0 entry seeds the properties of every instance, and
// template device types with no matching hardware are pruned.
func Generate(doc *mjcf.Document, template Capabilities) (Capabilities, error) {
	if doc == nil {
		return Capabilities{}, fmt.Errorf("nil scene document")
	}

	caps := Capabilities{
		Input:  make(map[string]Group),
		Output: make(map[string]Group),
	}

	for _, sensor := range doc.Sensors {
		deviceType, ok := SensingTypes[sensor.Type]
		if !ok {
			continue
		}
		seed, ok := templateSeed(template.Input, deviceType)
		if !ok {
			continue
		}
		group := caps.Input[deviceType]
		if group == nil {
			group = Group{}
			caps.Input[deviceType] = group
		}
		index := len(group)
		props := seed
		props.CustomName = mjcf.NormalizeSensorName(sensor.Name, sensor.Type)
		props.FeagiIndex = index
		group[deviceID(index)] = props
	}

	// Pressure devices read contact forces, which every scene provides, so
	// the template's pressure group survives without a matching <sensor>.
	if group, ok := template.Input[DevicePressure]; ok && len(group) > 0 {
		caps.Input[DevicePressure] = cloneGroup(group)
	}

	for _, actuator := range doc.Actuators {
		deviceType, ok := TransmissionTypes[actuator.Type]
		if !ok {
			continue
		}
		seed, ok := templateSeed(template.Output, deviceType)
		if !ok {
			continue
		}
		group := caps.Output[deviceType]
		if group == nil {
			group = Group{}
			caps.Output[deviceType] = group
		}
		index := len(group)
		props := seed
		props.CustomName = actuator.Name
		props.FeagiIndex = index

		switch deviceType {
		case DeviceServo:
			props.MinValue = actuator.CtrlRange[0]
			props.MaxValue = actuator.CtrlRange[1]
		case DeviceMotor:
			props.MaxPower = actuator.CtrlRange[1]
			if props.RollingWindowLen < 1 {
				props.RollingWindowLen = 2
			}
		}
		group[deviceID(index)] = props
	}

	return caps, nil
}

// templateSeed returns the index-0 property template for a device type.
func templateSeed(groups map[string]Group, deviceType string) (Properties, bool) {
	group, ok := groups[deviceType]
	if !ok {
		return Properties{}, false
	}
	seed, ok := group["0"]
	if !ok && len(group) > 0 {
		// Tolerate templates keyed off a different first id.
		for _, props := range group {
			return props, true
		}
	}
	return seed, ok
}

func deviceID(index int) string {
	return fmt.Sprintf("%d", index)
}

// WriteFile exports the generated document as indented JSON, mirroring the
// capability dump the platform tooling expects next to the scene file.
func WriteFile(path string, caps Capabilities) error {
	data, err := caps.MarshalIndent()
	if err != nil {
		return fmt.Errorf("failed to encode capabilities: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write capabilities file: %w", err)
	}
	return nil
}
