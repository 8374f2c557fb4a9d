package config

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"time"

	"github.com/CNES/opensand-sub000/pkg/alerts"
)

const (
	defaultStatusInterval = time.Second
	defaultStatusTimeout  = 10 * time.Second
	defaultBufferSize     = 1000
	defaultMaxSizeMB      = 10
	defaultMaxBackups     = 5
	defaultMaxAgeDays     = 28
)

type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// LogConfig describes the rotating log file of a binary. An empty File
// logs to stdout only.
type LogConfig struct {
	File       string `json:"file"`         // e.g., /var/log/opensand/collector.log
	MaxSizeMB  int    `json:"max_size_mb"`  // rotate after this many megabytes
	MaxBackups int    `json:"max_backups"`  // rotated files kept
	MaxAgeDays int    `json:"max_age_days"` // days a rotated file is kept
	Compress   bool   `json:"compress"`
}

// Validate fills the rotation defaults.
func (c *LogConfig) Validate() error {
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return errNegativeValue
	}

	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = defaultMaxSizeMB
	}

	if c.MaxBackups == 0 {
		c.MaxBackups = defaultMaxBackups
	}

	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = defaultMaxAgeDays
	}

	return nil
}

// CollectorConfig represents the configuration for a collector instance.
type CollectorConfig struct {
	ListenAddr     string    `json:"listen_addr"`   // UDP, e.g., :5358
	TransferAddr   string    `json:"transfer_addr"` // TCP, empty disables transfers
	HostsFile      string    `json:"hosts_file"`    // watched for changes
	StorageDir     string    `json:"storage_dir"`   // parent of the storage folders, default os.TempDir()
	StatusInterval Duration  `json:"status_interval"`
	StatusTimeout  Duration  `json:"status_timeout"`
	ServiceName    string    `json:"service_name"`
	Log            LogConfig `json:"log"`
}

func (c *CollectorConfig) Validate() error {
	if c.ListenAddr == "" {
		return errListenAddrRequired
	}

	if time.Duration(c.StatusInterval) <= 0 {
		c.StatusInterval = Duration(defaultStatusInterval)
	}

	if time.Duration(c.StatusTimeout) <= 0 {
		c.StatusTimeout = Duration(defaultStatusTimeout)
	}

	if c.ServiceName == "" {
		c.ServiceName = "opensand-collector"
	}

	return c.Log.Validate()
}

// ManagerConfig represents the configuration for a manager instance.
type ManagerConfig struct {
	ListenAddr    string        `json:"listen_addr"`    // UDP, e.g., :0
	CollectorAddr string        `json:"collector_addr"` // UDP, e.g., 192.168.18.1:5358
	TransferPort  int           `json:"transfer_port"`
	HTTPAddr      string        `json:"http_addr"`   // empty disables the API
	DBPath        string        `json:"db_path"`     // empty disables recording
	BufferSize    int           `json:"buffer_size"` // recent points kept per probe
	Retention     Duration      `json:"retention"`   // zero keeps everything
	RunsDir       string        `json:"runs_dir"`    // where transfers are extracted
	Alerts        alerts.Config `json:"alerts"`      // event webhooks
	Log           LogConfig     `json:"log"`
}

func (c *ManagerConfig) Validate() error {
	if c.ListenAddr == "" {
		return errListenAddrRequired
	}

	if c.CollectorAddr == "" {
		return errCollectorAddrRequired
	}

	if _, err := netip.ParseAddrPort(c.CollectorAddr); err != nil {
		return fmt.Errorf("%w: %w", errInvalidCollectorAddr, err)
	}

	if c.TransferPort < 0 || c.TransferPort > 65535 {
		return fmt.Errorf("%w: %d", errInvalidPort, c.TransferPort)
	}

	if c.BufferSize < 0 || c.Retention < 0 {
		return errNegativeValue
	}

	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}

	if c.RunsDir == "" {
		c.RunsDir = "runs"
	}

	if err := c.Alerts.Validate(); err != nil {
		return err
	}

	return c.Log.Validate()
}

// CollectorAddrPort is the parsed collector address.
func (c *ManagerConfig) CollectorAddrPort() netip.AddrPort {
	ap, _ := netip.ParseAddrPort(c.CollectorAddr)

	return ap
}
