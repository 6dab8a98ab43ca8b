// publisher.go answers the question "which container publishes this host
// port?" for the whois command.
//
// The Docker API does the heavy lifting: the `publish` filter on the
// container list endpoint matches containers with a port publication on
// the given host port, so filtering happens server-side. The results are
// mapped into model.PortBinding values to decouple the rest of the
// application from the Docker SDK types.
package docker

import (
	"context"
	"strconv"
	"strings"

	// Docker API types for container listing results.
	// types.Container is the struct returned by ContainerList.
	"github.com/docker/docker/api/types"

	// container package provides ListOptions for Docker container operations.
	"github.com/docker/docker/api/types/container"

	// filters package provides Args type for building Docker API query filters.
	"github.com/docker/docker/api/types/filters"

	"github.com/mmr-tortoise/portguard/internal/model"
)

// FindPortPublishers queries the Docker daemon for running containers
// that publish the given host port and returns their port bindings.
//
// Only running containers are listed: a stopped container does not hold
// its published ports, so it cannot be the process occupying a lock port.
// An empty result means no container publishes the port — the squatter
// is an ordinary host process.
func FindPortPublishers(ctx context.Context, cli *Client, port uint16) ([]model.PortBinding, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("publish", strconv.Itoa(int(port))),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	var bindings []model.PortBinding
	for _, c := range containers {
		bindings = append(bindings, containerBindings(c, port)...)
	}

	return bindings, nil
}

// containerBindings extracts the port bindings of a single container that
// publish the given host port. This is a pure mapping function with no
// side effects.
//
// The `publish` filter matches on any protocol and any host interface,
// so a container can contribute more than one binding (e.g., the same
// port on tcp and udp, or on two host IPs).
func containerBindings(c types.Container, hostPort uint16) []model.PortBinding {
	// Docker returns container names with a leading "/" that is an
	// artifact of the API, not meaningful to users.
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	var bindings []model.PortBinding
	for _, p := range c.Ports {
		// Ports without a PublicPort are exposed but not published —
		// they occupy nothing on the host.
		if p.PublicPort == 0 || p.PublicPort != hostPort {
			continue
		}

		bindings = append(bindings, model.PortBinding{
			ContainerID:   c.ID,
			ContainerName: name,
			Image:         c.Image,
			HostIP:        p.IP,
			HostPort:      p.PublicPort,
			ContainerPort: p.PrivatePort,
			Protocol:      p.Type,
		})
	}

	return bindings
}
