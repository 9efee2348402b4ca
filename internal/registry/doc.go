// Package registry maps FEAGI device types to the Go codecs that encode
// sensor readings into sensory bursts and decode motor bursts into
// simulator commands. Device modules register themselves here at startup.
package registry
