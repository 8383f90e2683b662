package main

import (
	"flag"
	"os"

	"github.com/brutella/hc"
)

func main() {
	config := NewConfig(flag.CommandLine, os.Args[1:])
	if err := OpenGPIO(); err != nil {
		Fatal("Could not initialize GPIO: %s", err.Error())
	}
	defer CloseGPIO()

	pm := NewPoolMonitor(config)
	pm.Start()

	server := NewServer(*config.port, pm)
	server.Start()

	transport, err := hc.NewIPTransport(
		hc.Config{Pin: config.cfg.Pin, StoragePath: *config.dataDirectory},
		pm.pumps.CPRelay().Accessory(),
		pm.pumps.PPRelay().Accessory(),
		pm.hotTemp.Accessory(),
		pm.coldTemp.Accessory())
	if err != nil {
		Fatal("Could not start HomeKit transport: %s", err.Error())
	}

	hc.OnTermination(func() {
		pm.Stop()
		server.Stop()
		transport.Stop()
	})

	transport.Start()
	Info("Exiting")
}
