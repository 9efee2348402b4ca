// Package mjcf parses the subset of the MuJoCo MJCF scene format the
// controller needs: the actuator and sensor inventories that drive
// capability generation.
package mjcf

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Actuator is a single entry from the scene's <actuator> section. Type is
// the element tag ("position", "motor", ...). CtrlRange holds the parsed
// ctrlrange attribute as [min, max]; it stays zero when absent.
type Actuator struct {
	Name      string
	Type      string
	CtrlRange [2]float64
}

// Sensor is a single entry from the scene's <sensor> section. Type is the
// element tag ("framequat", "distance", "rangefinder", ...).
type Sensor struct {
	Name string
	Type string
}

// Document is the parsed scene description.
type Document struct {
	ModelName string
	Actuators []Actuator
	Sensors   []Sensor
}

// Actuator returns the actuator with the given name, or nil.
func (d *Document) Actuator(name string) *Actuator {
	for i := range d.Actuators {
		if d.Actuators[i].Name == name {
			return &d.Actuators[i]
		}
	}
	return nil
}

// ControlCount reports the number of controls the scene exposes, one per
// actuator.
func (d *Document) ControlCount() int {
	return len(d.Actuators)
}

// NormalizeSensorName strips the "_quat" suffix frame-orientation sensors
// carry at runtime, so sensor names line up with the scene inventory.
func NormalizeSensorName(name, sensorType string) string {
	if sensorType == "framequat" {
		return strings.TrimSuffix(name, "_quat")
	}
	return name
}

// ParseFile reads and parses an MJCF document from disk.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model file %q: %w", path, err)
	}
	return doc, nil
}

// Parse decodes an MJCF document. Actuator and sensor sections hold
// children of arbitrary element names, so they are walked token by token
// rather than decoded into fixed structs.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	doc := &Document{}
	rootSeen := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed XML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "mujoco":
			rootSeen = true
			doc.ModelName = attr(start, "model")
		case "actuator":
			if err := parseActuators(dec, doc); err != nil {
				return nil, err
			}
		case "sensor":
			if err := parseSensors(dec, doc); err != nil {
				return nil, err
			}
		}
	}

	if !rootSeen {
		return nil, fmt.Errorf("not an MJCF document: missing <mujoco> root")
	}
	return doc, nil
}

func parseActuators(dec *xml.Decoder, doc *Document) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("malformed actuator section: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			a := Actuator{
				Name: attr(t, "name"),
				Type: t.Name.Local,
			}
			if raw := attr(t, "ctrlrange"); raw != "" {
				rng, err := parseRange(raw)
				if err != nil {
					return fmt.Errorf("actuator %q: %w", a.Name, err)
				}
				a.CtrlRange = rng
			}
			doc.Actuators = append(doc.Actuators, a)
			if err := dec.Skip(); err != nil {
				return fmt.Errorf("malformed actuator element: %w", err)
			}
		case xml.EndElement:
			if t.Name.Local == "actuator" {
				return nil
			}
		}
	}
}

func parseSensors(dec *xml.Decoder, doc *Document) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("malformed sensor section: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			doc.Sensors = append(doc.Sensors, Sensor{
				Name: attr(t, "name"),
				Type: t.Name.Local,
			})
			if err := dec.Skip(); err != nil {
				return fmt.Errorf("malformed sensor element: %w", err)
			}
		case xml.EndElement:
			if t.Name.Local == "sensor" {
				return nil
			}
		}
	}
}

func parseRange(raw string) ([2]float64, error) {
	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return [2]float64{}, fmt.Errorf("ctrlrange must have two values, got %q", raw)
	}
	var rng [2]float64
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return [2]float64{}, fmt.Errorf("invalid ctrlrange value %q: %w", field, err)
		}
		rng[i] = v
	}
	return rng, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
