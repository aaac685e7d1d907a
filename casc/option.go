package casc

const defaultLocaleMask = LocaleAll

type config struct {
	localeMask uint32
}

// Option configures OpenHandler.
type Option func(*config)

func (c *config) apply(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// WithLocale restricts the root table to blocks whose locale bits intersect
// mask. The default is LocaleAll.
func WithLocale(mask Locale) Option {
	return func(c *config) {
		c.localeMask = uint32(mask)
	}
}
