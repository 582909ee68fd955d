package docstore

// Option applies a configuration option to the Memory store.
type Option func(*Memory)

// WithIDGenerator overrides the document id generator, mainly for tests
// that need deterministic ids.
func WithIDGenerator(gen func() string) Option {
	return func(m *Memory) {
		if gen != nil {
			m.newID = gen
		}
	}
}
