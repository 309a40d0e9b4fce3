package filter

const defaultRetain = 100

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithRetain sets how many final-list candidates are kept. It should be at
// least the selection prefix.
func WithRetain(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.retain = n
		}
	}
}

// WithObserver registers a hook that sees every stage survivor.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}
