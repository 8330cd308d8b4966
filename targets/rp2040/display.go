//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ssd1306"

	"leadscrew/controller/config"
)

// initDisplay brings up the SSD1306 panel on SPI0
func initDisplay(cfg *config.Config) (drivers.Displayer, error) {
	pins := cfg.Display
	err := machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 8 * machine.MHz,
		SCK:       machine.Pin(pins.Clock),
		SDO:       machine.Pin(pins.Data),
		SDI:       machine.NoPin,
	})
	if err != nil {
		return nil, err
	}
	d := ssd1306.NewSPI(machine.SPI0, machine.Pin(pins.DC), machine.Pin(pins.Reset), machine.Pin(pins.CS))
	d.Configure(ssd1306.Config{
		Width:  cfg.DisplayWidth,
		Height: cfg.DisplayHeight,
	})
	d.ClearDisplay()
	return d, nil
}
