package main

import (
	"github.com/tanujdesk/remotedesk/internal/protocol"
)

// logSimulator stands in for the platform input-injection primitive
// (spec.md §1 external collaborator): it records every call at debug level
// instead of driving the OS input stack, which this module does not ship.
type logSimulator struct{}

func (logSimulator) MoveMouse(x, y int32) error {
	log.Debug("input: move mouse", "x", x, "y", y)
	return nil
}

func (logSimulator) MouseButtonDown(x, y int32, b protocol.MouseButton) error {
	log.Debug("input: mouse button down", "x", x, "y", y, "button", b)
	return nil
}

func (logSimulator) MouseButtonUp(x, y int32, b protocol.MouseButton) error {
	log.Debug("input: mouse button up", "x", x, "y", y, "button", b)
	return nil
}

func (logSimulator) MouseWheel(dx, dy int32) error {
	log.Debug("input: mouse wheel", "dx", dx, "dy", dy)
	return nil
}

func (logSimulator) KeyDown(key protocol.KeyCode) error {
	log.Debug("input: key down", "key", key)
	return nil
}

func (logSimulator) KeyUp(key protocol.KeyCode) error {
	log.Debug("input: key up", "key", key)
	return nil
}
