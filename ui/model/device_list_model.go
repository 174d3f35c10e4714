package model

import "github.com/soocke/pixel-cam-go/domain/device"

// DeviceListModel holds discovered devices and the selected uri.
type DeviceListModel struct {
	devices  []device.Info
	selected string
}

// Set replaces the device list. The selection is kept even if the device
// vanished so that a reconnect attempt can report the failure.
func (m *DeviceListModel) Set(devices []device.Info) {
	if m == nil {
		return
	}
	m.devices = append(m.devices[:0], devices...)
}

func (m *DeviceListModel) Devices() []device.Info {
	if m == nil {
		return nil
	}
	return m.devices
}

func (m *DeviceListModel) Select(uri string) {
	if m != nil {
		m.selected = uri
	}
}

func (m *DeviceListModel) Selected() string {
	if m == nil {
		return ""
	}
	return m.selected
}

// Index is the position of uri in the list or -1.
func (m *DeviceListModel) Index(uri string) int {
	if m == nil {
		return -1
	}
	for i, d := range m.devices {
		if d.URI == uri {
			return i
		}
	}
	return -1
}

// Labels renders the list for a combobox.
func (m *DeviceListModel) Labels() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.devices))
	for i, d := range m.devices {
		out[i] = d.String()
	}
	return out
}
