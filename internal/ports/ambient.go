package ports

// AmbientSource exposes the host's preference for a dark appearance.
// PrefersDark is a synchronous read; an error means the host cannot report a
// preference. Subscribe delivers every change of the signal until the returned
// subscription is cancelled.
type AmbientSource interface {
	PrefersDark() (bool, error)
	Subscribe(fn func(dark bool)) Subscription
}
