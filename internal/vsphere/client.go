// Package vsphere implements the executor.ActionExecutor interface
// against a vCenter endpoint using govmomi.
//
// One Client holds one authenticated session; Execute is safe to call
// from many workers concurrently, sharing only the read-only connection
// parameters and the underlying SOAP client.
package vsphere

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/vim25/soap"

	"github.com/aryankumar/vmpower/internal/util"
)

// Config holds read-only connection parameters for a vCenter endpoint
type Config struct {
	// Host is the vCenter hostname or URL; a bare hostname is expanded
	// to https://host/sdk
	Host string

	// Username for session login
	Username string

	// Password for session login
	Password string

	// Insecure skips TLS certificate verification
	Insecure bool

	// Timeout bounds the login call
	Timeout time.Duration
}

// Client wraps a govmomi session against one vCenter
type Client struct {
	cfg    Config
	logger *slog.Logger

	client *govmomi.Client
	finder *find.Finder
}

// NewClient creates an unconnected client. Call Connect before Execute.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: vCenter host is required", util.ErrInvalidConfig)
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: vCenter credentials are required", util.ErrInvalidConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Connect establishes the vCenter session
func (c *Client) Connect(ctx context.Context) error {
	u, err := soap.ParseURL(c.cfg.Host)
	if err != nil {
		return fmt.Errorf("%w: invalid vCenter URL %q: %v", util.ErrInvalidConfig, c.cfg.Host, err)
	}
	u.User = url.UserPassword(c.cfg.Username, c.cfg.Password)

	loginCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	vc, err := govmomi.NewClient(loginCtx, u, c.cfg.Insecure)
	if err != nil {
		return fmt.Errorf("%w: login to %s: %v", util.ErrConnection, u.Host, err)
	}

	finder := find.NewFinder(vc.Client, true)

	// Pin the default datacenter so plain VM names resolve. With more
	// than one datacenter callers must use full inventory paths.
	if dc, err := finder.DefaultDatacenter(ctx); err == nil {
		finder.SetDatacenter(dc)
	} else {
		c.logger.Debug("no default datacenter, lookups require inventory paths", "error", err)
	}

	c.client = vc
	c.finder = finder

	c.logger.Info("connected to vCenter",
		"host", u.Host,
		"version", vc.ServiceContent.About.Version)

	return nil
}

// HealthCheck verifies the session is still authenticated
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("%w: not connected", util.ErrConnection)
	}

	healthCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sess, err := c.client.SessionManager.UserSession(healthCtx)
	if err != nil {
		return fmt.Errorf("%w: session check: %v", util.ErrConnection, err)
	}
	if sess == nil {
		return fmt.Errorf("%w: session expired", util.ErrConnection)
	}

	return nil
}

// Close logs out of the vCenter session
func (c *Client) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}

	err := c.client.Logout(ctx)
	c.client = nil
	c.finder = nil

	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	c.logger.Debug("disconnected from vCenter", "host", c.cfg.Host)
	return nil
}

// String returns a string representation of the client
func (c *Client) String() string {
	return fmt.Sprintf("Client{Host: %s, Connected: %v}", c.cfg.Host, c.client != nil)
}
