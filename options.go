package jxf

// CodecOption configures a Codec during creation.
//
// Example:
//
//	// Defaults: tolerance sampling, no extensions, GOMAXPROCS workers
//	c := jxf.New()
//
//	// Coarse preview sampling with a custom extension
//	c := jxf.New(
//	    jxf.WithSampling(jxf.FixedCount(16)),
//	    jxf.WithExtension("ACME_units", acmeUnits),
//	)
type CodecOption func(*codecOptions)

type codecOptions struct {
	extensions map[string]ExtensionHandler
	sampling   SampleConfig
	outline    OutlineOptions
	workers    int
	resolver   BufferResolver
}

func defaultOptions() codecOptions {
	return codecOptions{
		sampling: DefaultSampleConfig(),
		outline:  DefaultOutlineOptions(),
	}
}

// WithExtension registers a handler for the named extension.
// New panics if the handler cannot handle name.
func WithExtension(name string, h ExtensionHandler) CodecOption {
	return func(o *codecOptions) {
		if o.extensions == nil {
			o.extensions = make(map[string]ExtensionHandler)
		}
		o.extensions[name] = h
	}
}

// WithSampling sets the sampling config used by Evaluate and EvaluateAll.
// An invalid config is kept and reported by every evaluation.
func WithSampling(cfg SampleConfig) CodecOption {
	return func(o *codecOptions) {
		o.sampling = cfg
	}
}

// WithOutline sets the options used by Codec.Outline.
func WithOutline(opts OutlineOptions) CodecOption {
	return func(o *codecOptions) {
		o.outline = opts
	}
}

// WithWorkers bounds the number of entities EvaluateAll evaluates at once.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) CodecOption {
	return func(o *codecOptions) {
		o.workers = n
	}
}

// WithResolver sets the resolver used when Evaluate or EvaluateAll is
// called with a nil resolver.
func WithResolver(r BufferResolver) CodecOption {
	return func(o *codecOptions) {
		o.resolver = r
	}
}
