package opc

// Option configures a Package
type Option func(*Package)

// WithConfig uses cfg instead of the global configuration
func WithConfig(cfg *Config) Option {
	return func(p *Package) {
		p.config = NewConfigWithDefaults(cfg)
	}
}

// WithLogger uses logger instead of the global logger
func WithLogger(logger *Logger) Option {
	return func(p *Package) {
		p.logger = logger
	}
}

// WithMetrics records package activity in m
func WithMetrics(m *Metrics) Option {
	return func(p *Package) {
		p.metrics = m
	}
}

// WithMarshaller registers a marshaller for a content type
func WithMarshaller(contentType string, m Marshaller) Option {
	return func(p *Package) {
		p.marshallers[contentType] = m
	}
}

// WithUnmarshaller registers an unmarshaller for a content type. It replaces
// the built-in one when the content type is the same.
func WithUnmarshaller(contentType string, u Unmarshaller) Option {
	return func(p *Package) {
		p.unmarshallers[contentType] = u
	}
}
