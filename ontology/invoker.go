package ontology

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mielalabs/mpl-magick/grimoire"
	"github.com/mielalabs/mpl-magick/mpl"
)

// Invoker answers an invocation with the entity record, the caller's
// parameters and the entity's gematria and Tesla harmonics.
type Invoker struct {
	logger *log.Logger
}

func NewInvoker(logger *log.Logger) *Invoker {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Invoker{logger: logger.WithPrefix("invoke")}
}

func (inv *Invoker) Invoke(_ context.Context, entity string, record mpl.Value, params []mpl.Arg) (mpl.Value, error) {
	fields := record.Vessel()
	out := make(map[string]mpl.Value, len(fields)+len(params)+2)
	for k, v := range fields {
		out[k] = v
	}
	for _, p := range params {
		out[p.Name] = p.Value
	}

	name := entity
	if n, ok := fields["name"]; ok && n.Kind() == mpl.KindString {
		name = n.String()
	}
	if i := strings.LastIndex(name, "_"); i >= 0 {
		name = name[i+1:]
	}
	raw := grimoire.Gematria(name)
	harmonics := make(map[string]mpl.Value, 4)
	for k, v := range grimoire.Harmonics(raw) {
		harmonics[k] = mpl.NewInt(v)
	}
	out["gematria"] = mpl.NewInt(raw)
	out["harmonics"] = mpl.NewVessel(harmonics)

	inv.logger.Info("entity invoked", "entity", entity, "type", fields["_type"].String(), "gematria", raw)
	return mpl.NewVessel(out), nil
}
