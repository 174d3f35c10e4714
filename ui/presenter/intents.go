package presenter

// The view reports selections as list indexes. These helpers map them back
// to messages against the lists the view was last given. They return nil
// when the index no longer matches anything.

func SelectDeviceAt(s *State, index int) Msg {
	devices := s.Devices.Devices()
	if index < 0 || index >= len(devices) {
		return nil
	}
	return MsgDeviceSelected{URI: devices[index].URI}
}

func SelectFormatAt(s *State, index int) Msg {
	if index < 0 || index >= len(s.Conn.Formats) {
		return nil
	}
	return MsgFormatSelected{Format: s.Conn.Formats[index]}
}

// ApplyControlAt parses text for the control at index. Invalid input becomes
// a warning in the log instead of a command.
func ApplyControlAt(s *State, index int, text string) Msg {
	if index < 0 || index >= len(s.Conn.Controls) {
		return nil
	}
	c, err := ParseControlInput(s.Conn.Controls[index], text)
	if err != nil {
		return logWarn("%v", err)
	}
	return MsgControlChanged{Control: c}
}
