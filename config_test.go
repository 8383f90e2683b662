package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func flagTestSetup(args []string) *Config {
	name := "ConfigTest"
	if len(args) > 0 {
		name += args[0]
	}
	flags := flag.NewFlagSet(name, flag.PanicOnError)
	return NewConfig(flags, args)
}

func TestConfigAuth(t *testing.T) {
	config := flagTestSetup([]string{})
	if !config.Authorized(defaultPin) {
		t.Error("Authorization failed")
	}
	if config.Authorized("bogus-password") {
		t.Error("Authorization should have failed")
	}
	config.SetAuth("NewPassword")
	if !config.Authorized("NewPassword") {
		t.Error("Updated password should authorize")
	}
}

func TestConfig_forceRrd(t *testing.T) {
	c := flagTestSetup([]string{"-f"})
	if !*c.forceRrd {
		t.Errorf("Flag value not persisted")
	}
}

func TestConfig_SslCert(t *testing.T) {
	value := "This is my ssl cert path"
	c := flagTestSetup([]string{"-ssl_cert", value})
	if *c.sslCertificate != value {
		t.Errorf("Flag value not persisted")
	}
}

func TestConfig_ControlParameters(t *testing.T) {
	c := flagTestSetup([]string{
		"-on_delta", "7.5", "-off_delta", "1.5",
		"-flow_threshold", "4.0", "-cycle_count", "5",
		"-cycle_on", "20.5", "-cycle_pause", "10.25",
	})
	assert.Equal(t, 7.5, c.cfg.OnDelta)
	assert.Equal(t, 1.5, c.cfg.OffDelta)
	assert.Equal(t, 4.0, c.cfg.FlowThreshold)
	assert.Equal(t, uint32(5), c.cfg.CycleCount)
	assert.Equal(t, 20.5, c.cfg.CycleOn)
	assert.Equal(t, 10.25, c.cfg.CyclePause)
}

func TestConfigClampsInvertedDeadband(t *testing.T) {
	c := flagTestSetup([]string{"-on_delta", "2.0", "-off_delta", "6.0"})
	if c.cfg.OffDelta != c.cfg.OnDelta {
		t.Errorf("off_delta %0.2f should have been clamped to on_delta %0.2f",
			c.cfg.OffDelta, c.cfg.OnDelta)
	}
}

func TestConfigApply(t *testing.T) {
	c := flagTestSetup([]string{"-on_delta", "6.0", "-cycle_count", "4"})
	store := NewDatastore()
	c.Apply(store)

	onDelta, _, err := store.GetFloat(ResourceCPOnDelta, 0)
	assert.NoError(t, err)
	assert.Equal(t, 6.0, onDelta)
	count, _, err := store.GetUint32(ResourcePPCycleCount, 0)
	assert.NoError(t, err)
	assert.Equal(t, uint32(4), count)
	pause, _, err := store.GetFloat(ResourcePPCyclePauseDuration, 0)
	assert.NoError(t, err)
	assert.Equal(t, defaultCyclePause, pause)
}

func TestConfigSave(t *testing.T) {
	serverConfiguration = fmt.Sprintf("/test-server-%d.conf", rand.Uint32())
	defer os.Remove("/tmp" + serverConfiguration)

	args := []string{"-p", "-data_dir", "/tmp"}
	c := flagTestSetup(args)
	c.SetAuth("FakePassword")
	c.cfg.OnDelta = 9.75
	c.cfg.Pin = "This-is-my-test-pin"

	t.Run("SaveTest", func(t *testing.T) {
		if err := c.Save(); err != nil {
			t.Error(err.Error())
		}
	})

	t.Run("ReadTest", func(t *testing.T) {
		c := flagTestSetup(args)
		if c.cfg.Pin != "This-is-my-test-pin" {
			t.Errorf("Pin value not persisted")
		}
		if c.cfg.OnDelta != 9.75 {
			t.Error("On delta not persisted")
		}
		if !c.Authorized("FakePassword") {
			t.Errorf("Auth was not persisted")
		}
	})

	if len(c.String()) < 100 {
		t.Error("Really just for coverage, but it should be at least 100 characters long...")
	}

	t.Run("NoSaveUnlessPersist", func(t *testing.T) {
		serverConfiguration = fmt.Sprintf("/test-server-%d.conf", rand.Uint32())
		c := flagTestSetup([]string{"-data_dir", "/tmp"})
		if err := c.Save(); err != nil {
			t.Error("Expected no error")
		}
		if _, err := os.Stat("/tmp" + serverConfiguration); err == nil {
			t.Error("Should have returned a PathError")
		}
	})
}
