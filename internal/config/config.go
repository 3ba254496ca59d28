package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"recoveryctl/internal/errors"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the console looks for its configuration
const DefaultPath = "/etc/recoveryctl.yaml"

// VolumeSpec describes one entry of the device volume table
type VolumeSpec struct {
	MountPoint  string `yaml:"mount_point"`
	FSType      string `yaml:"fs_type"`
	Device      string `yaml:"device"`
	Device2     string `yaml:"device2,omitempty"`
	VoldManaged bool   `yaml:"vold_managed,omitempty"`
	Length      int64  `yaml:"length,omitempty"`
}

// Config represents the console configuration.
// It covers storage layout, the volume table, browse and install toggles,
// capability overrides and the collaborator command templates.
type Config struct {
	Storage struct {
		Primary        string   `yaml:"primary"`          // Primary storage mount point
		Extra          []string `yaml:"extra"`            // Vold-managed removable volumes
		SettingsDir    string   `yaml:"settings_dir"`     // Subdirectory of primary holding console records
		FreeBrowseRoot string   `yaml:"free_browse_root"` // Start folder for free browse mode
	} `yaml:"storage"`
	Volumes []VolumeSpec `yaml:"volumes"`
	Browse  struct {
		ShowHidden   bool   `yaml:"show_hidden"`   // Include entries starting with HiddenPrefix
		HiddenPrefix string `yaml:"hidden_prefix"` // Marker for hidden names
	} `yaml:"browse"`
	Install struct {
		SignatureCheck bool `yaml:"signature_check"` // Verify package signatures
		VerifyMD5      bool `yaml:"verify_md5"`      // Verify package md5sum before install
	} `yaml:"install"`
	Capabilities struct {
		ForbidMount  string `yaml:"forbid_mount"`  // Comma separated mount points that may not be mounted
		ForbidFormat string `yaml:"forbid_format"` // Comma separated mount points that may not be formatted
	} `yaml:"capabilities"`
	Markers struct {
		NoConfirm    string `yaml:"no_confirm"`    // Presence disables confirmation prompts
		ManyConfirm  string `yaml:"many_confirm"`  // Presence selects the eleven-choice prompt
		LastInstall  string `yaml:"last_install"`  // Folder of the last installed package
		BackupFormat string `yaml:"backup_format"` // Default nandroid format token
	} `yaml:"markers"`
	Backend struct {
		Install      string `yaml:"install"`
		Sideload     string `yaml:"sideload"`
		FormatVolume string `yaml:"format_volume"`
		FormatDevice string `yaml:"format_device"`
		Backup       string `yaml:"backup"`
		Restore      string `yaml:"restore"`
		DedupeGC     string `yaml:"dedupe_gc"`
		Partition    string `yaml:"partition"`
		Mount        string `yaml:"mount"`
		Unmount      string `yaml:"unmount"`
		Share        string `yaml:"share"`
		Unshare      string `yaml:"unshare"`
	} `yaml:"backend"`
	Watch struct {
		Enabled     bool     `yaml:"enabled"`     // Refresh menus when storage changes
		Directories []string `yaml:"directories"` // Directories to watch
	} `yaml:"watch"`
	Log struct {
		File  string `yaml:"file"`
		JSON  bool   `yaml:"json"`
		Debug bool   `yaml:"debug"`
		Level string `yaml:"level"`
	} `yaml:"log"`
	Theme struct {
		Name string `yaml:"name"`
	} `yaml:"theme"`

	path string
	// restore puts back the file values replaced by environment overrides
	restore []func(*Config)
}

// envOverrides are read from RECOVERYCTL_* variables
type envOverrides struct {
	PrimaryStorage string `envconfig:"PRIMARY_STORAGE"`
	ShowHidden     *bool  `envconfig:"SHOW_HIDDEN"`
	LogFile        string `envconfig:"LOG_FILE"`
	Debug          *bool  `envconfig:"DEBUG"`
}

// LoadConfig loads configuration from DefaultPath
func LoadConfig() (*Config, error) {
	return LoadConfigFile(DefaultPath)
}

// LoadConfigFile loads configuration from a specific file path, then applies
// environment overrides. If the file doesn't exist, defaults are used.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.NewConfigError("error parsing config file", path, errors.InvalidConfig, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.NewFileError("error reading config file", path, errors.FileAccessDenied, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process("recoveryctl", &env); err != nil {
		return errors.NewConfigError("invalid environment override", "RECOVERYCTL_*", errors.InvalidConfig, err)
	}
	if env.PrimaryStorage != "" {
		primary := c.Storage.Primary
		c.restore = append(c.restore, func(o *Config) { o.Storage.Primary = primary })
		c.Storage.Primary = env.PrimaryStorage
	}
	if env.ShowHidden != nil {
		showHidden := c.Browse.ShowHidden
		c.restore = append(c.restore, func(o *Config) { o.Browse.ShowHidden = showHidden })
		c.Browse.ShowHidden = *env.ShowHidden
	}
	if env.LogFile != "" {
		logFile := c.Log.File
		c.restore = append(c.restore, func(o *Config) { o.Log.File = logFile })
		c.Log.File = env.LogFile
	}
	if env.Debug != nil {
		debug := c.Log.Debug
		c.restore = append(c.restore, func(o *Config) { o.Log.Debug = debug })
		c.Log.Debug = *env.Debug
	}
	return nil
}

// defaultConfig returns the default configuration with safe defaults.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Storage.Primary = "/sdcard"
	cfg.Storage.Extra = []string{}
	cfg.Storage.SettingsDir = "clockworkmod"
	cfg.Storage.FreeBrowseRoot = "/"

	cfg.Volumes = []VolumeSpec{
		{MountPoint: "/tmp", FSType: "ramdisk", Device: "ramdisk"},
		{MountPoint: "/boot", FSType: "emmc", Device: "/dev/block/platform/msm_sdcc.1/by-name/boot"},
		{MountPoint: "/recovery", FSType: "emmc", Device: "/dev/block/platform/msm_sdcc.1/by-name/recovery"},
		{MountPoint: "/system", FSType: "ext4", Device: "/dev/block/platform/msm_sdcc.1/by-name/system"},
		{MountPoint: "/cache", FSType: "ext4", Device: "/dev/block/platform/msm_sdcc.1/by-name/cache"},
		{MountPoint: "/data", FSType: "ext4", Device: "/dev/block/platform/msm_sdcc.1/by-name/userdata"},
		{MountPoint: "/sdcard", FSType: "datamedia", Device: "/dev/null"},
	}

	cfg.Browse.ShowHidden = false
	cfg.Browse.HiddenPrefix = "."

	cfg.Install.SignatureCheck = false
	cfg.Install.VerifyMD5 = false

	cfg.Markers.NoConfirm = ".no_confirm"
	cfg.Markers.ManyConfirm = ".many_confirm"
	cfg.Markers.LastInstall = ".last_install_path"
	cfg.Markers.BackupFormat = ".default_backup_format"

	cfg.Backend.Install = "/sbin/install-zip {path}"
	cfg.Backend.Sideload = "/sbin/adb-sideload"
	cfg.Backend.FormatVolume = "/sbin/format-volume --wipe-media={wipe_media} {mount_point}"
	cfg.Backend.FormatDevice = "/sbin/format-device {device} {fstype} {mount_point}"
	cfg.Backend.Backup = "/sbin/nandroid backup {path} --format {format} --parts {parts}"
	cfg.Backend.Restore = "/sbin/nandroid restore {path} --parts {parts}"
	cfg.Backend.DedupeGC = "/sbin/dedupe gc {path}"
	cfg.Backend.Partition = "/sbin/sdparted -es {ext_size} -ss {swap_size} -efs {fstype} -s"
	cfg.Backend.Mount = "mount {mount_point}"
	cfg.Backend.Unmount = "umount {mount_point}"
	cfg.Backend.Share = "/sbin/vdc volume share {mount_point} ums"
	cfg.Backend.Unshare = "/sbin/vdc volume unshare {mount_point} ums"

	cfg.Watch.Enabled = true
	cfg.Watch.Directories = []string{"/storage", "/mnt/media_rw"}

	cfg.Log.File = "/tmp/recoveryctl.log"
	cfg.Log.Level = "info"

	cfg.Theme.Name = "default"

	return cfg
}

// New returns a configuration with default values
func New() *Config {
	return defaultConfig()
}

// Path returns the file the configuration was loaded from, if any
func (c *Config) Path() string {
	return c.path
}

// SettingsPath returns the absolute path of a record under the settings
// directory of primary storage.
func (c *Config) SettingsPath(name string) string {
	return filepath.Join(c.Storage.Primary, c.Storage.SettingsDir, name)
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewFileError("failed to create config directory", dir, errors.FileCreateFailed, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewFileError("failed to write config file", path, errors.FileOperationFailed, err)
	}
	return nil
}

// Save writes the configuration back to the file it was loaded from.
// Values that came from RECOVERYCTL_* variables are written with their file
// values so the overrides stay session-only.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.NewConfigError("no config file to save to", "path", errors.ConfigNotFound, nil)
	}
	out := *c
	for _, restore := range c.restore {
		restore(&out)
	}
	return SaveConfig(&out, c.path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}

	if !filepath.IsAbs(c.Storage.Primary) {
		return errors.NewConfigError("primary storage must be an absolute path", "storage.primary", errors.InvalidConfig, nil)
	}
	for i, p := range c.Storage.Extra {
		if !filepath.IsAbs(p) {
			return errors.NewConfigError(fmt.Sprintf("extra storage %d must be an absolute path", i), "storage.extra", errors.InvalidConfig, nil)
		}
	}
	if c.Storage.SettingsDir == "" || filepath.IsAbs(c.Storage.SettingsDir) || strings.Contains(c.Storage.SettingsDir, "..") {
		return errors.NewConfigError("settings_dir must be a relative subdirectory", "storage.settings_dir", errors.InvalidConfig, nil)
	}

	seen := make(map[string]bool, len(c.Volumes))
	for i, v := range c.Volumes {
		if !filepath.IsAbs(v.MountPoint) {
			return errors.NewConfigError(fmt.Sprintf("volume %d: mount point must be absolute", i), "volumes", errors.InvalidConfig, nil)
		}
		if v.FSType == "" {
			return errors.NewConfigError(fmt.Sprintf("volume %s: fs_type is required", v.MountPoint), "volumes", errors.InvalidConfig, nil)
		}
		if seen[v.MountPoint] {
			return errors.NewConfigError(fmt.Sprintf("duplicate volume %s", v.MountPoint), "volumes", errors.InvalidConfig, nil)
		}
		seen[v.MountPoint] = true
	}

	if c.Browse.HiddenPrefix == "" {
		return errors.NewConfigError("hidden_prefix cannot be empty", "browse.hidden_prefix", errors.InvalidConfig, nil)
	}

	for name, m := range map[string]string{
		"markers.no_confirm":    c.Markers.NoConfirm,
		"markers.many_confirm":  c.Markers.ManyConfirm,
		"markers.last_install":  c.Markers.LastInstall,
		"markers.backup_format": c.Markers.BackupFormat,
	} {
		if m == "" || strings.ContainsRune(m, '/') {
			return errors.NewConfigError("marker must be a plain file name", name, errors.InvalidConfig, nil)
		}
	}

	valid := false
	for _, t := range ListThemes() {
		if t == c.Theme.Name {
			valid = true
		}
	}
	if !valid {
		return errors.NewConfigError(fmt.Sprintf("unknown theme %q", c.Theme.Name), "theme.name", errors.InvalidConfig, nil)
	}

	return nil
}

// GetTheme returns a predefined palette by name.
// If the theme doesn't exist, returns the default theme.
func GetTheme(name string) map[string]string {
	themes := map[string]map[string]string{
		"default": {
			"primary":  "213", // Purple
			"success":  "114", // Green
			"warning":  "220", // Yellow
			"error":    "196", // Red
			"info":     "39",  // Blue
			"emphasis": "212", // Light Pink
			"border":   "213", // Purple
		},
		"dark": {
			"primary":  "105",
			"success":  "78",
			"warning":  "214",
			"error":    "160",
			"info":     "33",
			"emphasis": "147",
			"border":   "105",
		},
		"monochrome": {
			"primary":  "245",
			"success":  "252",
			"warning":  "241",
			"error":    "255",
			"info":     "248",
			"emphasis": "255",
			"border":   "245",
		},
	}

	if theme, exists := themes[name]; exists {
		return theme
	}
	return themes["default"]
}

// ListThemes returns a list of available theme names.
func ListThemes() []string {
	return []string{"default", "dark", "monochrome"}
}
