package zone

// Options controls a reconcile run.
type Options struct {
	// DryRun reports what would change without calling any mutating
	// directory operation.
	DryRun bool
}

// Result reports the outcome of one reconcile invocation.
type Result struct {
	Changed bool              `json:"changed" yaml:"changed"`
	ID      string            `json:"id,omitempty" yaml:"id,omitempty"`
	Data    map[string]any    `json:"data,omitempty" yaml:"data,omitempty"`
	Diff    map[string]Change `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// Reconcile converges a single zone toward the desired state with the
// minimal action: create, update, delete or nothing. The desired state is
// validated before any network call. A missing remote zone is a valid state;
// every other load failure surfaces immediately. Mutation failures abort
// with no compensating action.
func Reconcile(dir Directory, desired *DesiredState, opts Options) (*Result, error) {
	if err := desired.Validate(); err != nil {
		return nil, err
	}

	remote, err := dir.Load(desired.Name)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}

	if remote == nil {
		if desired.State == StateAbsent {
			return &Result{}, nil
		}
		attrs := desired.Attributes()
		if opts.DryRun {
			return &Result{Changed: true, Diff: creationDiff(attrs)}, nil
		}
		created, err := dir.Create(desired.Name, attrs)
		if err != nil {
			return nil, err
		}
		return &Result{Changed: true, ID: created.ID, Data: created.Data}, nil
	}

	if desired.State == StateAbsent {
		if opts.DryRun {
			return &Result{Changed: true}, nil
		}
		if err := dir.Delete(remote); err != nil {
			return nil, err
		}
		return &Result{Changed: true}, nil
	}

	diff := Diff(desired, remote.Data)
	if len(diff) == 0 {
		return &Result{ID: remote.ID, Data: remote.Data}, nil
	}
	if opts.DryRun {
		return &Result{Changed: true, ID: remote.ID, Diff: diff}, nil
	}
	updated, err := dir.Update(remote, Updates(diff))
	if err != nil {
		return nil, err
	}
	return &Result{Changed: true, ID: updated.ID, Data: updated.Data, Diff: diff}, nil
}

func creationDiff(attrs map[string]any) map[string]Change {
	if len(attrs) == 0 {
		return nil
	}
	diff := make(map[string]Change, len(attrs))
	for key, value := range attrs {
		diff[key] = Change{To: value}
	}
	return diff
}
