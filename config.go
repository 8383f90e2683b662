package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	defaultSslCert       = "/etc/ssl/certs/pool-monitor.crt"
	defaultSslKey        = "/etc/ssl/private/pool-monitor.key"
	defaultDataDir       = "/var/cache/pool-monitor"
	defaultPidFile       = "/tmp/pool-monitor.pid"
	defaultPin           = "74023718"
	defaultBroker        = ""
	defaultHotProbe      = "/sys/bus/w1/devices/28-000006c5d1f2/w1_slave"
	defaultColdProbe     = "/sys/bus/w1/devices/28-000006c61f4a/w1_slave"
	defaultOnDelta       = 5.0
	defaultOffDelta      = 2.0
	defaultFlowThreshold = 5.0
	defaultCycleCount    = uint(3)
	defaultCycleOn       = 30.0
	defaultCyclePause    = 15.0
	defaultForceRrd      = false
	serverConfiguration  = "/server.conf"
)

// PersistedConfig holds the parameters that can be changed at runtime via the
// web interface and saved across restarts.
type PersistedConfig struct {
	Auth          []byte  `json:"auth,omitempty"`
	Pin           string  `json:"homekitPin"`
	Broker        string  `json:"mqttBroker"`
	OnDelta       float64 `json:"onDelta"`
	OffDelta      float64 `json:"offDelta"`
	FlowThreshold float64 `json:"flowThreshold"`
	CycleCount    uint32  `json:"cycleCount"`
	CycleOn       float64 `json:"cycleOnSeconds"`
	CyclePause    float64 `json:"cyclePauseSeconds"`
}

// Config carries the command line flags and the persisted runtime settings.
type Config struct {
	// Commandline only
	sslCertificate *string
	sslPrivateKey  *string
	dataDirectory  *string
	hotProbe       *string
	coldProbe      *string
	port           *int
	forceRrd       *bool
	persist        *bool
	pidfile        *string

	// Updatable
	cfg PersistedConfig

	// Internal
	mtime time.Time
	ctime time.Time
}

// NewConfig parses flags into a Config and loads any persisted overrides.
func NewConfig(fs *flag.FlagSet, args []string) *Config {
	c := Config{
		ctime: time.Now(),
	}
	c.sslCertificate = fs.String("ssl_cert", defaultSslCert,
		"SSL cert to use for web server and homekit server")
	c.sslPrivateKey = fs.String("ssl_key", defaultSslKey,
		"SSL private key to use for web server and homekit server")
	c.dataDirectory = fs.String("data_dir", defaultDataDir,
		"Directory for homekit and rrd data")
	c.hotProbe = fs.String("hot_probe", defaultHotProbe,
		"Path to the w1 device for the hot (roof return) probe")
	c.coldProbe = fs.String("cold_probe", defaultColdProbe,
		"Path to the w1 device for the cold (pool) probe")
	c.port = fs.Int("port", 443, "Port for the status web server")
	pin := fs.String("pin", defaultPin,
		"8-digit Homekit pin shown to users who want to add the device")
	broker := fs.String("broker", defaultBroker,
		"MQTT broker URI for telemetry (tcp://host:1883), empty disables publishing")
	onDelta := fs.Float64("on_delta", defaultOnDelta,
		"Temperature differential in degrees C that turns the circulation pump on")
	offDelta := fs.Float64("off_delta", defaultOffDelta,
		"Temperature differential in degrees C that turns the circulation pump off")
	flowThreshold := fs.Float64("flow_threshold", defaultFlowThreshold,
		"Flow rate in litres/minute at or below which the priming pump runs")
	cycleCount := fs.Uint("cycle_count", defaultCycleCount,
		"Number of priming pump cycles per trigger")
	cycleOn := fs.Float64("cycle_on", defaultCycleOn,
		"Priming pump on-time in seconds per cycle")
	cyclePause := fs.Float64("cycle_pause", defaultCyclePause,
		"Pause in seconds between priming pump cycles")
	c.forceRrd = fs.Bool("f", defaultForceRrd,
		"force creation of new RRD files if present")
	c.pidfile = fs.String("pid", defaultPidFile,
		"File to write the process id into.")
	c.persist = fs.Bool("p", false,
		"If true, any parameter values changed via the web interface are saved to a file "+
			"and read on startup.  If false, any saved values will be ignored on start.")
	fs.Parse(args)

	c.cfg = PersistedConfig{
		Pin:           *pin,
		Broker:        *broker,
		OnDelta:       *onDelta,
		OffDelta:      *offDelta,
		FlowThreshold: *flowThreshold,
		CycleCount:    uint32(*cycleCount),
		CycleOn:       *cycleOn,
		CyclePause:    *cyclePause,
	}
	c.SetAuth(*pin)
	c.load()
	c.validate()
	return &c
}

func crypt(s string) []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
	return hash
}

// SetAuth updates the password for the web interface.
func (c *Config) SetAuth(password string) {
	c.cfg.Auth = crypt(password)
}

// Authorized checks a password against the stored hash.
func (c *Config) Authorized(password string) bool {
	return bcrypt.CompareHashAndPassword(c.cfg.Auth, []byte(password)) == nil
}

// validate clamps misordered thresholds so the hysteresis deadband is never
// inverted.
func (c *Config) validate() {
	if c.cfg.OffDelta > c.cfg.OnDelta {
		Warn("off_delta %0.2f > on_delta %0.2f inverts the deadband, clamping",
			c.cfg.OffDelta, c.cfg.OnDelta)
		c.cfg.OffDelta = c.cfg.OnDelta
	}
}

// Apply seeds the datastore with the control parameters.  The control tasks
// only ever see configuration through the datastore.
func (c *Config) Apply(store *Datastore) {
	store.SetFloat(ResourceCPOnDelta, 0, c.cfg.OnDelta)
	store.SetFloat(ResourceCPOffDelta, 0, c.cfg.OffDelta)
	store.SetFloat(ResourceFlowThreshold, 0, c.cfg.FlowThreshold)
	store.SetUint32(ResourcePPCycleCount, 0, c.cfg.CycleCount)
	store.SetFloat(ResourcePPCycleOnDuration, 0, c.cfg.CycleOn)
	store.SetFloat(ResourcePPCyclePauseDuration, 0, c.cfg.CyclePause)
}

func (c *Config) path() string {
	return *c.dataDirectory + serverConfiguration
}

func (c *Config) load() {
	if !*c.persist {
		return
	}
	data, err := ioutil.ReadFile(c.path())
	if err != nil {
		return
	}
	saved := PersistedConfig{}
	if check(json.Unmarshal(data, &saved), "Corrupt saved config %s, ignoring", c.path()) != nil {
		return
	}
	c.cfg = saved
	if info, err := os.Stat(c.path()); err == nil {
		c.mtime = info.ModTime()
	}
	Info("Loaded saved configuration from %s", c.path())
}

// Save writes the persisted settings to disk if persistence is enabled.
func (c *Config) Save() error {
	if !*c.persist {
		return nil
	}
	data, err := json.Marshal(&c.cfg)
	if err != nil {
		return err
	}
	c.mtime = time.Now()
	return ioutil.WriteFile(c.path(), data, os.FileMode(0600))
}

func (c *Config) String() string {
	return fmt.Sprintf("Config: {data_dir:%q, pin:%q, broker:%q, on_delta:%0.2f, "+
		"off_delta:%0.2f, flow_threshold:%0.2f, cycle_count:%d, cycle_on:%0.1f, "+
		"cycle_pause:%0.1f, forceRrd:%t, persist:%t, mtime:%q, ctime:%q}",
		*c.dataDirectory, c.cfg.Pin, c.cfg.Broker, c.cfg.OnDelta, c.cfg.OffDelta,
		c.cfg.FlowThreshold, c.cfg.CycleCount, c.cfg.CycleOn, c.cfg.CyclePause,
		*c.forceRrd, *c.persist, c.mtime.Format(time.RFC3339),
		c.ctime.Format(time.RFC3339))
}
