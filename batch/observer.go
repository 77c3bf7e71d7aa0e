// SPDX-License-Identifier: MIT

package batch

// Observer receives progress after each processed batch: done rows out of total.
type Observer interface {
	Observe(done, total int)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(done, total int)

func (f ObserverFunc) Observe(done, total int) { f(done, total) }

// NopObserver discards progress.
type NopObserver struct{}

func (NopObserver) Observe(int, int) {}

// Observers fans progress out to every member in order.
type Observers []Observer

func (obs Observers) Observe(done, total int) {
	for _, o := range obs {
		if o != nil {
			o.Observe(done, total)
		}
	}
}
