// Package ocisource adapts the OCI SDK clients to the source interfaces of the
// scope and inventory packages.
package ocisource

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/oracle/oci-go-sdk/v65/announcementsservice"
	"github.com/oracle/oci-go-sdk/v65/cloudguard"
	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/common/auth"
	"github.com/oracle/oci-go-sdk/v65/core"
	"github.com/oracle/oci-go-sdk/v65/database"
	"github.com/oracle/oci-go-sdk/v65/filestorage"
	"github.com/oracle/oci-go-sdk/v65/identity"
	"github.com/oracle/oci-go-sdk/v65/loadbalancer"
	"github.com/oracle/oci-go-sdk/v65/monitoring"
	"github.com/oracle/oci-go-sdk/v65/objectstorage"
	"github.com/oracle/oci-go-sdk/v65/osmanagement"
)

// Config selects the credentials and transport settings.
type Config struct {
	ConfigFile        string
	Profile           string
	Region            string
	InstancePrincipal bool
	ConnectTimeout    time.Duration
	ReadTimeout       time.Duration
}

// Clients holds the OCI service clients the report uses.
type Clients struct {
	Identity      identity.IdentityClient
	OSManagement  osmanagement.OsManagementClient
	ObjectStorage objectstorage.ObjectStorageClient
	FileStorage   filestorage.FileStorageClient
	CloudGuard    cloudguard.CloudGuardClient
	Database      database.DatabaseClient
	LoadBalancer  loadbalancer.LoadBalancerClient
	Network       core.VirtualNetworkClient
	Compute       core.ComputeClient
	Monitoring    monitoring.MonitoringClient
	Announcements announcementsservice.AnnouncementClient

	TenancyID string
	Region    string
}

func configProvider(cfg Config) (common.ConfigurationProvider, error) {
	if cfg.InstancePrincipal {
		p, err := auth.InstancePrincipalConfigurationProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create instance principal config provider: %w", err)
		}
		return p, nil
	}
	if cfg.ConfigFile == "" && cfg.Profile == "" {
		return common.DefaultConfigProvider(), nil
	}
	return common.CustomProfileConfigProvider(cfg.ConfigFile, cfg.Profile), nil
}

// NewClients initializes every client with the configured credentials, region and timeouts.
func NewClients(ctx context.Context, cfg Config) (*Clients, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	provider, err := configProvider(cfg)
	if err != nil {
		return nil, err
	}
	tenancyID, err := provider.TenancyOCID()
	if err != nil {
		return nil, fmt.Errorf("failed to read tenancy OCID: %w", err)
	}

	c := &Clients{TenancyID: tenancyID}

	if c.Identity, err = identity.NewIdentityClientWithConfigurationProvider(provider); err != nil {
		return nil, fmt.Errorf("failed to create identity client: %w", err)
	}
	if c.OSManagement, err = osmanagement.NewOsManagementClientWithConfigurationProvider(provider); err != nil {
		return nil, fmt.Errorf("failed to create os management client: %w", err)
	}
	if c.ObjectStorage, err = objectstorage.NewObjectStorageClientWithConfigurationProvider(provider); err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	if c.FileStorage, err = filestorage.NewFileStorageClientWithConfigurationProvider(provider); err != nil {
		return nil, fmt.Errorf("failed to create file storage client: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.CloudGuard, err = cloudguard.NewCloudGuardClientWithConfigurationProvider(provider); err != nil {
		return nil, fmt.Errorf("failed to create cloud guard client: %w", err)
	}
	if c.Database, err = database.NewDatabaseClientWithConfigurationProvider(provider); err != nil {
		return nil, fmt.Errorf("failed to create database client: %w", err)
	}
	if c.LoadBalancer, err = loadbalancer.NewLoadBalancerClientWithConfigurationProvider(provider); err != nil {
		return nil, fmt.Errorf("failed to create load balancer client: %w", err)
	}
	if c.Network, err = core.NewVirtualNetworkClientWithConfigurationProvider(provider); err != nil {
		return nil, fmt.Errorf("failed to create virtual network client: %w", err)
	}
	if c.Compute, err = core.NewComputeClientWithConfigurationProvider(provider); err != nil {
		return nil, fmt.Errorf("failed to create compute client: %w", err)
	}
	if c.Monitoring, err = monitoring.NewMonitoringClientWithConfigurationProvider(provider); err != nil {
		return nil, fmt.Errorf("failed to create monitoring client: %w", err)
	}
	if c.Announcements, err = announcementsservice.NewAnnouncementClientWithConfigurationProvider(provider); err != nil {
		return nil, fmt.Errorf("failed to create announcements client: %w", err)
	}

	c.Region = cfg.Region
	if c.Region == "" {
		if c.Region, err = provider.Region(); err != nil {
			return nil, fmt.Errorf("failed to read region: %w", err)
		}
	}

	httpClient := newHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout)
	for _, client := range c.regional() {
		client.SetRegion(c.Region)
	}
	for _, base := range c.bases() {
		base.HTTPClient = httpClient
	}

	return c, nil
}

type regional interface {
	SetRegion(region string)
}

func (c *Clients) regional() []regional {
	return []regional{
		&c.Identity, &c.OSManagement, &c.ObjectStorage, &c.FileStorage, &c.CloudGuard,
		&c.Database, &c.LoadBalancer, &c.Network, &c.Compute, &c.Monitoring, &c.Announcements,
	}
}

func (c *Clients) bases() []*common.BaseClient {
	return []*common.BaseClient{
		&c.Identity.BaseClient, &c.OSManagement.BaseClient, &c.ObjectStorage.BaseClient,
		&c.FileStorage.BaseClient, &c.CloudGuard.BaseClient, &c.Database.BaseClient,
		&c.LoadBalancer.BaseClient, &c.Network.BaseClient, &c.Compute.BaseClient,
		&c.Monitoring.BaseClient, &c.Announcements.BaseClient,
	}
}

// newHTTPClient applies the connect timeout to dialing and the read timeout to the whole request.
func newHTTPClient(connect, read time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: connect, KeepAlive: 30 * time.Second}
	return &http.Client{
		Timeout: read,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   connect,
			ResponseHeaderTimeout: read,
			MaxIdleConnsPerHost:   10,
		},
	}
}
