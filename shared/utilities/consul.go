package utilities

import (
	"fmt"
	"net"
	"strconv"

	consul "github.com/hashicorp/consul/api"
)

// ServiceRegistration describes how a service announces itself to Consul.
type ServiceRegistration struct {
	Name            string
	ID              string
	Host            string
	GRPCAddr        string
	HTTPPort        int
	Tags            []string
	CheckInterval   string
	DeregisterAfter string
}

// RegisterConsulService registers the service with the local Consul agent using a
// gRPC health check against GRPCAddr. It returns a function that deregisters it.
func RegisterConsulService(client *consul.Client, reg ServiceRegistration) (func() error, error) {
	_, grpcPort, err := net.SplitHostPort(reg.GRPCAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid gRPC address %q: %w", reg.GRPCAddr, err)
	}
	if _, err := strconv.Atoi(grpcPort); err != nil {
		return nil, fmt.Errorf("invalid gRPC port %q: %w", grpcPort, err)
	}

	interval := reg.CheckInterval
	if interval == "" {
		interval = "10s"
	}
	deregisterAfter := reg.DeregisterAfter
	if deregisterAfter == "" {
		deregisterAfter = "1m"
	}

	registration := &consul.AgentServiceRegistration{
		ID:      reg.ID,
		Name:    reg.Name,
		Address: reg.Host,
		Port:    reg.HTTPPort,
		Tags:    reg.Tags,
		Check: &consul.AgentServiceCheck{
			GRPC:                           net.JoinHostPort(reg.Host, grpcPort),
			Interval:                       interval,
			DeregisterCriticalServiceAfter: deregisterAfter,
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, fmt.Errorf("failed to register service with consul: %w", err)
	}

	return func() error {
		return client.Agent().ServiceDeregister(reg.ID)
	}, nil
}
