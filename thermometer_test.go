package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const w1Good = "72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n" +
	"72 01 4b 46 7f ff 0e 10 57 t=23125\n"

const w1BadCrc = "72 01 4b 46 7f ff 0e 10 57 : crc=57 NO\n" +
	"72 01 4b 46 7f ff 0e 10 57 t=23125\n"

func TestParseW1Payload(t *testing.T) {
	t.Run("Good", func(t *testing.T) {
		celsius, err := parseW1Payload(w1Good)
		assert.NoError(t, err)
		assert.Equal(t, 23.125, celsius)
	})

	t.Run("Negative", func(t *testing.T) {
		celsius, err := parseW1Payload("x : crc=aa YES\nx t=-1562\n")
		assert.NoError(t, err)
		assert.Equal(t, -1.562, celsius)
	})

	t.Run("BadCrc", func(t *testing.T) {
		_, err := parseW1Payload(w1BadCrc)
		assert.Error(t, err)
	})

	t.Run("MissingValue", func(t *testing.T) {
		_, err := parseW1Payload("x : crc=aa YES\n")
		assert.Error(t, err)
	})
}

func TestW1Thermometer(t *testing.T) {
	dir, err := ioutil.TempDir("", "w1")
	assert.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "w1_slave")
	assert.NoError(t, ioutil.WriteFile(path, []byte(w1Good), 0644))

	therm := NewW1Thermometer("Test Probe", mftr, path)
	assert.Equal(t, "Test Probe", therm.Name())

	t.Run("Update", func(t *testing.T) {
		assert.NoError(t, therm.Update())
		assert.Equal(t, 23.125, therm.Temperature())
	})

	t.Run("FailureKeepsLastReading", func(t *testing.T) {
		assert.NoError(t, ioutil.WriteFile(path, []byte(w1BadCrc), 0644))
		assert.Error(t, therm.Update())
		assert.Equal(t, 23.125, therm.Temperature())
	})

	t.Run("MissingDevice", func(t *testing.T) {
		missing := NewW1Thermometer("Gone", mftr, filepath.Join(dir, "nope"))
		assert.Error(t, missing.Update())
	})
}
