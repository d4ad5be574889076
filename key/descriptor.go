package key

import (
	"fmt"

	"github.com/rungalileo/gcache/errs"
)

// IDArg identifies which bound argument carries the entity identity for a
// registration, and how to turn it into a string. If Extractor is nil, the
// argument's default stringification (fmt.Sprint) is used directly.
type IDArg struct {
	// Name is the bound argument name (see Descriptor.ArgNames) that holds
	// the identity, or the structured value the identity is extracted from.
	Name string
	// Extractor, if set, is applied to the named argument's value to
	// produce the id string, e.g. func(u any) string { return u.(User).ID }.
	Extractor func(any) string
}

// Descriptor is the registration-time shape of a cached function: how to
// build a Key from its bound call arguments, plus the invalidation and
// serialization policy for results produced under this use case.
//
// Go has no runtime parameter-name introspection, so ArgNames supplies the
// positional-to-name mapping a Python decorator would otherwise infer from
// inspect.signature — it is the one piece of registration Go requires that
// the original implementation did not.
type Descriptor struct {
	// KeyType is the logical entity family this use case caches results
	// for, e.g. "user_id".
	KeyType string

	// ArgNames maps each positional call argument, in order, to the name
	// used by IDArg and ArgAdapters and reported in the canonical key.
	ArgNames []string

	// IDArg identifies the entity id within the bound arguments.
	IDArg IDArg

	// ArgAdapters maps an argument name to a function producing its
	// canonical string form. Names without an adapter fall back to
	// fmt.Sprint. If IDArg.Name has an adapter, the adapted value is
	// additionally placed into Args even though the id itself still comes
	// from IDArg.Extractor (or the raw value).
	ArgAdapters map[string]func(any) string

	// IgnoreArgs lists argument names excluded from the key entirely
	// (neither id nor args) — typically request-scoped plumbing like a
	// context or a tracing span.
	IgnoreArgs []string

	// UseCase is this registration's cache-metrics and config-lookup
	// identifier. Must not be ReservedUseCase.
	UseCase string

	// TrackForInvalidation opts this use case into watermark-checked
	// shared-tier reads (see the tier/remote package).
	TrackForInvalidation bool

	// DefaultConfig is used when the configuration oracle returns nothing
	// (or errors) for a built Key.
	DefaultConfig *Config

	// Serializer overrides the default serializer for this use case's
	// results on the shared tier. Nil selects the package default.
	Serializer Serializer
}

// Validate checks registration-time invariants that do not depend on a
// particular call: the use case must be non-empty and not reserved, and
// IDArg must name a bound argument.
func (d Descriptor) Validate() error {
	if d.UseCase == "" {
		return errs.NewKeyBuildError("use_case", fmt.Errorf("use case must not be empty"))
	}
	if d.UseCase == ReservedUseCase {
		return errs.NewReservedUseCaseError(d.UseCase)
	}
	if d.IDArg.Name == "" {
		return errs.NewKeyBuildError("id_arg", fmt.Errorf("descriptor must name an id argument"))
	}
	found := false
	for _, n := range d.ArgNames {
		if n == d.IDArg.Name {
			found = true
			break
		}
	}
	if !found {
		return errs.NewKeyBuildError(d.IDArg.Name, fmt.Errorf("id_arg %q is not among ArgNames", d.IDArg.Name))
	}
	return nil
}

func (d Descriptor) ignoreSet() map[string]struct{} {
	s := make(map[string]struct{}, len(d.IgnoreArgs))
	for _, n := range d.IgnoreArgs {
		s[n] = struct{}{}
	}
	return s
}

// Bind assembles a Key from a call's bound arguments (name -> value, keyed
// by the names in ArgNames). It recovers from a panicking extractor or
// adapter and reports it as a KeyBuildError, matching the controller's
// requirement to bypass rather than crash on a bad key.
func (d Descriptor) Bind(args map[string]any) (k Key, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.NewKeyBuildError(d.IDArg.Name, fmt.Errorf("panic building key: %v", r))
		}
	}()

	idVal, ok := args[d.IDArg.Name]
	if !ok {
		return Key{}, errs.NewKeyBuildError(d.IDArg.Name, fmt.Errorf("argument %q not present in call", d.IDArg.Name))
	}

	var id string
	if d.IDArg.Extractor != nil {
		id = d.IDArg.Extractor(idVal)
	} else {
		id = fmt.Sprint(idVal)
	}

	ignore := d.ignoreSet()
	kargs := make([]Arg, 0, len(args))
	for _, name := range d.ArgNames {
		if _, skip := ignore[name]; skip {
			continue
		}
		val, present := args[name]
		if !present {
			continue
		}
		adapter, hasAdapter := d.ArgAdapters[name]
		if name == d.IDArg.Name && !hasAdapter {
			// The id argument is not duplicated into Args unless it also
			// has an explicit adapter (spec.md §3).
			continue
		}
		var strVal string
		if hasAdapter {
			strVal = adapter(val)
		} else {
			strVal = fmt.Sprint(val)
		}
		kargs = append(kargs, Arg{Name: name, Value: strVal})
	}

	return New(d.KeyType, id, d.UseCase, kargs...), nil
}
