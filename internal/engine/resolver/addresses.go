package resolver

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"go.heddle.dev/heddle/internal/core/domain"
	"go.trai.ch/zerr"
)

var addressLiteral = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}$`)

// resolveAddresses finalizes every package's named-address table in two
// phases. Collect: each edge's substitutions are resolved in the declarer's
// namespace and applied onto the target as renaming entries. Finalize:
// walking dependencies-first, each package's table becomes the union of its
// dependencies' tables, its own declarations and the collected renamings,
// with the root overlaying dev and command-line assignments last. Addresses
// may legitimately stay unassigned, consumers decide whether that is fatal.
func (r *Resolver) resolveAddresses(rg *domain.ResolvedGraph, subst map[edgeKey]map[string]string, cfg domain.BuildConfig) error {
	if err := r.collectSubstitutions(rg, subst, cfg); err != nil {
		return err
	}
	return finalizeTables(rg, cfg)
}

func (r *Resolver) collectSubstitutions(rg *domain.ResolvedGraph, subst map[edgeKey]map[string]string, cfg domain.BuildConfig) error {
	for _, e := range rg.Graph.Edges() {
		table := subst[edgeKey{from: e.From, to: e.To}]
		if len(table) == 0 {
			continue
		}
		declarer := rg.ResolvedPackages[e.From]
		target := rg.ResolvedPackages[e.To]
		ns := namespace(declarer, e.From == rg.Root, cfg)

		for _, addr := range slices.Sorted(maps.Keys(table)) {
			value, err := resolveValue(table[addr], ns, e.From, e.To, addr)
			if err != nil {
				return err
			}
			if err := applyRenaming(target, e.To, e.From, addr, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// namespace is the set of names a declarer can substitute from: its own
// assigned addresses, plus the dev and command-line overlays when the
// declarer is the root.
func namespace(rp *domain.ResolvedPackage, isRoot bool, cfg domain.BuildConfig) map[string]string {
	ns := make(map[string]string, len(rp.Manifest.Addresses))
	for name, v := range rp.Manifest.Addresses {
		if v.Assigned {
			ns[name] = v.Value
		}
	}
	if isRoot {
		if cfg.DevActive() {
			maps.Copy(ns, rp.Manifest.DevAddresses)
		}
		maps.Copy(ns, cfg.AdditionalNamedAddresses)
	}
	return ns
}

// resolveValue turns one substitution value into a concrete address: either
// a hex literal, or the name of an address bound in the declarer's namespace.
func resolveValue(raw string, ns map[string]string, from, to domain.InternedString, addr string) (string, error) {
	if strings.HasPrefix(raw, "0x") {
		if !addressLiteral.MatchString(raw) {
			err := zerr.With(domain.ErrManifestParse, "package", from.String())
			err = zerr.With(err, "address", addr)
			return "", zerr.With(err, "cause", fmt.Sprintf("substitution value %q is not a valid address literal", raw))
		}
		return raw, nil
	}
	value, ok := ns[raw]
	if !ok {
		err := zerr.With(domain.ErrUnboundAddress, "package", from.String())
		err = zerr.With(err, "address", raw)
		return "", zerr.With(err, "dependency", to.String())
	}
	return value, nil
}

// applyRenaming records one inbound substitution on the target. The target
// must declare the address, and nobody may assign it twice with different
// values.
func applyRenaming(target *domain.ResolvedPackage, to, from domain.InternedString, addr, value string) error {
	declared, ok := target.Manifest.Addresses[addr]
	if !ok {
		err := zerr.With(domain.ErrUnboundAddress, "package", to.String())
		err = zerr.With(err, "address", addr)
		return zerr.With(err, "cause", fmt.Sprintf("%s substitutes an address the package does not declare", from.String()))
	}
	if declared.Assigned && declared.Value != value {
		return addressConflict(to, addr, to.String(), declared.Value, from.String(), value)
	}
	if prev, exists := target.Renaming[addr]; exists {
		if prev.Value != value {
			return addressConflict(to, addr, prev.From.String(), prev.Value, from.String(), value)
		}
		return nil
	}
	if target.Renaming == nil {
		target.Renaming = make(map[string]domain.Renaming)
	}
	target.Renaming[addr] = domain.Renaming{From: from, Value: value}
	return nil
}

// finalizeTables computes every package's final address table, dependencies
// first so each union only looks one level down.
func finalizeTables(rg *domain.ResolvedGraph, cfg domain.BuildConfig) error {
	for name := range rg.Graph.Walk() {
		rp := rg.ResolvedPackages[name]
		final := make(map[string]domain.AddressValue)
		origin := make(map[string]string)

		merge := func(addr string, v domain.AddressValue, from string) error {
			prev, seen := final[addr]
			switch {
			case !seen || (!prev.Assigned && v.Assigned):
				final[addr] = v
				origin[addr] = from
			case prev.Assigned && v.Assigned && prev.Value != v.Value:
				return addressConflict(name, addr, origin[addr], prev.Value, from, v.Value)
			}
			return nil
		}

		for _, depName := range rg.Graph.Neighbors(name, domain.Outgoing) {
			depTable := rg.ResolvedPackages[depName].ResolvedTable
			for _, addr := range slices.Sorted(maps.Keys(depTable)) {
				if err := merge(addr, depTable[addr], depName.String()); err != nil {
					return err
				}
			}
		}
		for _, addr := range slices.Sorted(maps.Keys(rp.Manifest.Addresses)) {
			if err := merge(addr, rp.Manifest.Addresses[addr], name.String()); err != nil {
				return err
			}
		}
		for _, addr := range slices.Sorted(maps.Keys(rp.Renaming)) {
			ren := rp.Renaming[addr]
			prev, seen := final[addr]
			if seen && prev.Assigned && prev.Value != ren.Value {
				return addressConflict(name, addr, origin[addr], prev.Value, ren.From.String(), ren.Value)
			}
			final[addr] = domain.Addr(ren.Value)
			origin[addr] = ren.From.String()
		}

		if name == rg.Root {
			if cfg.DevActive() {
				for addr, v := range rp.Manifest.DevAddresses {
					final[addr] = domain.Addr(v)
				}
			}
			for addr, v := range cfg.AdditionalNamedAddresses {
				final[addr] = domain.Addr(v)
			}
		}
		rp.ResolvedTable = final
	}
	return nil
}

func addressConflict(pkg domain.InternedString, addr, firstFrom, firstValue, secondFrom, secondValue string) error {
	err := zerr.With(domain.ErrAddressConflict, "package", pkg.String())
	err = zerr.With(err, "address", addr)
	err = zerr.With(err, "first", fmt.Sprintf("%s from %s", firstValue, firstFrom))
	return zerr.With(err, "second", fmt.Sprintf("%s from %s", secondValue, secondFrom))
}
