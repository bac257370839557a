package postgres

// Option configures Postgres on construction.
type Option func(*Postgres)

// MaxPoolSize caps the number of pooled connections.
func MaxPoolSize(size int) Option {
	return func(p *Postgres) {
		p.maxPoolSize = size
	}
}
