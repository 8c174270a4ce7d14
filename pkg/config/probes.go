package config

import (
	"fmt"
	"log"
	"time"
)

const defaultLivenessInterval = 20 * time.Second

// ProbesConfig sets how often the health monitor pings MongoDB to refresh the gRPC health status.
type ProbesConfig struct {
	LivenessInterval time.Duration `koanf:"livenessinterval"`
}

func (c *ProbesConfig) String() string {
	return fmt.Sprintf("\n--- Probes ---\n  livenessinterval: %s\n", c.LivenessInterval)
}

func (c *ProbesConfig) Validate() error {
	if c.LivenessInterval <= 0 {
		log.Println("Using default value for probes.livenessinterval")
		c.LivenessInterval = defaultLivenessInterval
	}
	return nil
}
