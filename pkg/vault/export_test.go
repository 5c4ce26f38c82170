package vault

// WithKV replaces the KV v2 backend.
func WithKV(kv kvStore) Option {
	return func(o *options) { o.kv = kv }
}
