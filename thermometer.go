package main

import (
	"fmt"
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/brutella/hc/accessory"
)

// Thermometer measures temperature in degrees C.
type Thermometer interface {
	Name() string
	Temperature() float64
	Update() error
}

// W1Thermometer reads a DS18B20 probe through the kernel's 1-wire sysfs
// interface.  A w1_slave file looks like:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
type W1Thermometer struct {
	name        string
	path        string
	temperature float64
	accessory   *accessory.Thermometer
}

// NewW1Thermometer creates a thermometer for a w1_slave device path.
func NewW1Thermometer(name, manufacturer, path string) *W1Thermometer {
	return &W1Thermometer{
		name: name,
		path: path,
		accessory: accessory.NewTemperatureSensor(
			AccessoryInfo(name, manufacturer), 0.0, -20.0, 100.0, 0.1),
	}
}

// Name returns the thermometer's name.
func (t *W1Thermometer) Name() string {
	return t.name
}

// Temperature returns the last successfully read temperature.
func (t *W1Thermometer) Temperature() float64 {
	return t.temperature
}

// Accessory returns the HomeKit accessory for the probe.
func (t *W1Thermometer) Accessory() *accessory.Accessory {
	return t.accessory.Accessory
}

// Update re-reads the probe.  On failure the previous reading is kept and the
// datastore's age field is what tells consumers the value is stale.
func (t *W1Thermometer) Update() error {
	data, err := ioutil.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", t.path, err)
	}
	celsius, err := parseW1Payload(string(data))
	if err != nil {
		return fmt.Errorf("parse %s: %w", t.path, err)
	}
	t.temperature = celsius
	t.accessory.TempSensor.CurrentTemperature.SetValue(celsius)
	return nil
}

func parseW1Payload(payload string) (float64, error) {
	if !strings.Contains(payload, "YES") {
		return 0.0, fmt.Errorf("crc check failed")
	}
	idx := strings.LastIndex(payload, "t=")
	if idx < 0 {
		return 0.0, fmt.Errorf("no temperature in payload")
	}
	raw := strings.TrimSpace(payload[idx+2:])
	milli, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0.0, err
	}
	return float64(milli) / 1000.0, nil
}
