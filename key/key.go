// Package key implements the URN-shaped cache-key grammar and the
// per-layer TTL/ramp configuration model that every other gcache
// component builds on.
package key

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Layer identifies a tier that a Config/Descriptor can address.
type Layer int

const (
	// Local identifies the process-local tier.
	Local Layer = iota
	// Remote identifies the shared network tier.
	Remote
)

// String renders the layer the way it appears in metric labels.
func (l Layer) String() string {
	switch l {
	case Local:
		return "LOCAL"
	case Remote:
		return "REMOTE"
	default:
		return "UNKNOWN"
	}
}

// ReservedUseCase is forbidden for user registration; it is the use case
// under which the watermark engine stores its own bookkeeping keys.
const ReservedUseCase = "watermark"

// Arg is one canonicalized, stringified call argument.
type Arg struct {
	Name  string
	Value string
}

// Key is an immutable cache key value. Two Keys built from the same
// effective (KeyType, ID, Args, UseCase) are deeply equal and produce
// identical canonical strings, regardless of the original argument order.
// Because Args is a slice, Key itself is not comparable with == and cannot
// be used directly as a map key; its canonical string is used for that.
type Key struct {
	KeyType string
	ID      string
	Args    []Arg
	UseCase string
}

// New builds a Key directly, sorting args into canonical order. Most
// callers go through Descriptor.Bind instead; New is exposed for tests and
// for callers constructing keys outside of a registered function (e.g.
// Remove, Invalidate helpers that need a concrete key without a call).
func New(keyType, id, useCase string, args ...Arg) Key {
	sorted := make([]Arg, len(args))
	copy(sorted, args)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return Key{KeyType: keyType, ID: id, Args: sorted, UseCase: useCase}
}

// Canonical renders the wire format:
//
//	urn:<prefix>:<key_type>:<id>?<name1>=<v1>&<name2>=<v2>#<use_case>
//
// The doubled "urn:" is intentional; it is kept for compatibility with
// already-deployed keys.
func (k Key) Canonical(prefix string) string {
	var b strings.Builder
	b.WriteString("urn:")
	b.WriteString(prefix)
	b.WriteByte(':')
	b.WriteString(k.KeyType)
	b.WriteByte(':')
	b.WriteString(k.ID)
	if len(k.Args) > 0 {
		b.WriteByte('?')
		for i, a := range k.Args {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(a.Name)
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(a.Value))
		}
	}
	b.WriteByte('#')
	b.WriteString(k.UseCase)
	return b.String()
}

// String implements fmt.Stringer by returning the canonical URN built with
// the "urn" default prefix, matching the original implementation's
// str(key) == key.urn convention for a key built without an explicit
// prefix.
func (k Key) String() string {
	return k.Canonical("urn")
}

// EntityKey returns the (KeyType, ID) pair that identifies the logical
// entity this Key's result is scoped to, independent of UseCase and Args.
// This is exactly the pair the watermark engine keys on.
func (k Key) EntityKey() (keyType, id string) { return k.KeyType, k.ID }

// entityTag renders the hash-tag-bracketed prefix shared by a Key's
// envelope and its watermark, so a clustered shared-tier client can
// co-locate both on the same shard and fetch them in a single round trip.
func entityTag(prefix, keyType, id string) string {
	return fmt.Sprintf("{%s:%s:%s}", prefix, keyType, id)
}

// WatermarkField is the field name appended to an entity tag to form the
// full watermark storage key, e.g. "{urn:user_id:42}#watermark".
const WatermarkField = "watermark"

// WatermarkKey renders the storage key for the watermark guarding every
// envelope for (keyType, id), regardless of UseCase or Args.
func WatermarkKey(prefix, keyType, id string) string {
	return entityTag(prefix, keyType, id) + "#" + WatermarkField
}

// TrackedCanonical renders the same canonical string as Canonical, but with
// the key_type:id segment wrapped in a cluster hash-tag so the envelope key
// and WatermarkKey(prefix, k.KeyType, k.ID) co-locate on the same shard.
// Only meaningful for descriptors with TrackForInvalidation set.
func (k Key) TrackedCanonical(prefix string) string {
	var b strings.Builder
	b.WriteString("urn:")
	b.WriteString(entityTag(prefix, k.KeyType, k.ID))
	if len(k.Args) > 0 {
		b.WriteByte('?')
		for i, a := range k.Args {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(a.Name)
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(a.Value))
		}
	}
	b.WriteByte('#')
	b.WriteString(k.UseCase)
	return b.String()
}
