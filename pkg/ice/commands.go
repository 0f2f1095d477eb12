package ice

import "fmt"

// SetTemperature sets the servo setpoint of channel ch.
func (d *Device) SetTemperature(ch int, celsius float64) (string, error) {
	return d.Send(fmt.Sprintf("TempSet %d %s", ch, formatValue(celsius)))
}

// TempSetpoint queries the setpoint of channel ch.
func (d *Device) TempSetpoint(ch int) (string, error) {
	return d.Send(fmt.Sprintf("TempSet? %d", ch))
}

// SetTempMin sets the lower temperature bound of channel ch.
func (d *Device) SetTempMin(ch int, celsius float64) (string, error) {
	return d.Send(fmt.Sprintf("TempMin %d %s", ch, formatValue(celsius)))
}

// SetTempMax sets the upper temperature bound of channel ch.
func (d *Device) SetTempMax(ch int, celsius float64) (string, error) {
	return d.Send(fmt.Sprintf("TempMax %d %s", ch, formatValue(celsius)))
}

// SetGain sets the servo gain of channel ch.
func (d *Device) SetGain(ch int, gain float64) (string, error) {
	return d.Send(fmt.Sprintf("Gain %d %s", ch, formatValue(gain)))
}

// SetServo turns the temperature servo of channel ch on or off.
func (d *Device) SetServo(ch int, on bool) (string, error) {
	return d.Send(fmt.Sprintf("Servo %d %s", ch, onOff(on)))
}

// TempError reads the error signal of channel ch. On a response error the
// returned value is NaN.
func (d *Device) TempError(ch int) (float64, error) {
	resp, err := d.Send(fmt.Sprintf("TError? %d", ch))
	if err != nil && !IsResponseError(err) {
		return 0, err
	}

	v, perr := parseFloat(resp)
	if err != nil {
		return v, err
	}
	return v, perr
}

// SetCurrentLimit sets the laser current limit in mA.
func (d *Device) SetCurrentLimit(mA float64) (string, error) {
	return d.Send(fmt.Sprintf("CurrLim %s", formatValue(mA)))
}

// SetCurrent sets the laser current in mA.
func (d *Device) SetCurrent(mA float64) (string, error) {
	return d.Send(fmt.Sprintf("CurrSet %s", formatValue(mA)))
}

// SetLaser turns the laser of the active card on or off.
func (d *Device) SetLaser(on bool) (string, error) {
	return d.Send("Laser " + onOff(on))
}

// SetLaserChannel switches one output of a multi-output card, such as the
// amplifier card that is shut off before the lasers.
func (d *Device) SetLaserChannel(n int, on bool) (string, error) {
	return d.Send(fmt.Sprintf("Laser %d %s", n, onOff(on)))
}

// Laser queries the laser state of the active card.
func (d *Device) Laser() (LaserState, string, error) {
	resp, err := d.Send("Laser?")
	if err != nil && !IsResponseError(err) {
		return LaserUnknown, resp, err
	}
	return ParseLaserState(resp), resp, err
}
