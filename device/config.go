package device

const (
	// PageSize is the size of one linear memory page.
	PageSize = 65536

	// DefaultPages is the memory size used when Config.Pages is 0 (16MB).
	DefaultPages = 256

	// MaxPages is the largest linear memory a device can have (2GB).
	MaxPages = 32768

	// DefaultReserve is the number of low bytes never handed out by the allocator.
	DefaultReserve = 64
)

// Config holds configuration for opening a device.
// A nil Config selects every default.
type Config struct {
	// Name identifies the device in logs and Device.Name.
	// Empty means "device<ID>".
	Name string

	// Pages sets the fixed memory size in 64KB pages.
	// 0 means DefaultPages.
	Pages uint32

	// Reserve sets how many bytes at address 0 are kept out of the allocator.
	// 0 means DefaultReserve.
	Reserve uint64
}

func (c *Config) pages() uint32 {
	if c == nil || c.Pages == 0 {
		return DefaultPages
	}
	return c.Pages
}

func (c *Config) reserve() uint64 {
	if c == nil || c.Reserve == 0 {
		return DefaultReserve
	}
	return c.Reserve
}

func (c *Config) name() string {
	if c == nil {
		return ""
	}
	return c.Name
}
