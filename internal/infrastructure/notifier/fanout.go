package notifier

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchwire/internal/domain/match"
	"github.com/riskibarqy/matchwire/internal/usecase"
	"github.com/sourcegraph/conc/pool"
)

// Sink is a named notifier so fan-out failures can say which sink failed.
type Sink struct {
	Name     string
	Notifier usecase.EventNotifier
}

// Fanout delivers every event to all sinks concurrently. A failing sink does
// not stop delivery to the others; errors are joined.
type Fanout struct {
	sinks []Sink
}

func NewFanout(sinks ...Sink) *Fanout {
	out := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink.Notifier == nil {
			continue
		}
		out = append(out, sink)
	}
	return &Fanout{sinks: out}
}

func (f *Fanout) Len() int {
	return len(f.sinks)
}

func (f *Fanout) Notify(ctx context.Context, event match.DomainEvent) error {
	switch len(f.sinks) {
	case 0:
		return nil
	case 1:
		return wrapSinkErr(f.sinks[0].Name, f.sinks[0].Notifier.Notify(ctx, event))
	}

	p := pool.New().WithMaxGoroutines(len(f.sinks)).WithErrors()
	for _, sink := range f.sinks {
		p.Go(func() error {
			return wrapSinkErr(sink.Name, sink.Notifier.Notify(ctx, event))
		})
	}
	return p.Wait()
}

func wrapSinkErr(name string, err error) error {
	if err == nil {
		return nil
	}
	if name == "" {
		return err
	}
	return crerr.Wrapf(err, "sink %s", name)
}
