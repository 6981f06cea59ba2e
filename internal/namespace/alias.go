package namespace

import "strings"

// AddAlias registers name as an alias. A target starting with '(' is interned
// as an equation; any other target must be an existing entry name, whose
// type the alias takes on. Adding a name that already exists is a no-op.
// Aliases to aliases are refused so that resolution is always one step.
//
// It returns the total entry count.
func (r *Registry) AddAlias(name, target string) (int, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	if err := checkName(name); err != nil {
		return r.count, err
	}
	if _, err := r.Lookup(name); err == nil {
		return r.count, nil
	}

	var t Target
	target = strings.TrimSpace(target)
	if strings.HasPrefix(target, "(") {
		eh, err := r.Intern(target)
		if err != nil {
			return r.count, err
		}
		t = Target{Kind: TargetEquation, Handle: eh, Type: TypeEquation}
	} else {
		th, te, err := r.entryByName(target)
		if err != nil {
			return r.count, err
		}
		if te.Type == TypeAlias {
			return r.count, errorf(KindInvalid, "alias %s: target %s is itself an alias", name, target)
		}
		t = Target{Kind: TargetEntry, Handle: th, Type: te.Type}
	}

	_, err := r.put(Entry{
		Name:   name,
		Type:   TypeAlias,
		Group:  GroupAlias,
		target: &t,
	})
	return r.count, err
}

// AliasTarget returns the destination of the alias at h.
func (r *Registry) AliasTarget(h Handle) (Target, error) {
	e, err := r.entry(h)
	if err != nil {
		return Target{}, err
	}
	if e.Type != TypeAlias || e.target == nil {
		return Target{}, errorf(KindType, "%s is not an alias", e.Name)
	}
	return *e.target, nil
}

// LoadAliases reads whitespace-separated pairs of alias name and target, one
// pair per line, and adds each. Bad pairs are collected and reported after
// the rest have been added.
func (r *Registry) LoadAliases(text string) (added int, errs []error) {
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			errs = append(errs, errorf(KindScan, "alias %q has no target", fields[0]))
			continue
		}
		before := r.count
		// The target may be an equation containing spaces.
		target := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		if _, err := r.AddAlias(fields[0], target); err != nil {
			errs = append(errs, err)
			continue
		}
		if r.count > before {
			added++
		}
	}
	return added, errs
}
