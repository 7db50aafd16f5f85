package zone

import (
	"errors"
	"testing"
)

type fakeDirectory struct {
	zones map[string]*RemoteZone

	loads   int
	creates int
	updates int
	deletes int

	lastCreateAttrs map[string]any
	lastUpdateAttrs map[string]any

	loadErr   error
	createErr error
	updateErr error
	deleteErr error
}

func newFakeDirectory(zones ...*RemoteZone) *fakeDirectory {
	dir := &fakeDirectory{zones: map[string]*RemoteZone{}}
	for _, z := range zones {
		dir.zones[z.Name] = z
	}
	return dir
}

func (f *fakeDirectory) Load(name string) (*RemoteZone, error) {
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	z, ok := f.zones[name]
	if !ok {
		return nil, ErrZoneMissing
	}
	return z, nil
}

func (f *fakeDirectory) Create(name string, attrs map[string]any) (*RemoteZone, error) {
	f.creates++
	f.lastCreateAttrs = attrs
	if f.createErr != nil {
		return nil, f.createErr
	}
	data := make(map[string]any, len(attrs))
	for k, v := range attrs {
		data[k] = v
	}
	z := &RemoteZone{ID: "zone-" + name, Name: name, Data: data}
	f.zones[name] = z
	return z, nil
}

func (f *fakeDirectory) Update(zone *RemoteZone, attrs map[string]any) (*RemoteZone, error) {
	f.updates++
	f.lastUpdateAttrs = attrs
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	data := make(map[string]any, len(zone.Data)+len(attrs))
	for k, v := range zone.Data {
		data[k] = v
	}
	for k, v := range attrs {
		data[k] = v
	}
	z := &RemoteZone{ID: zone.ID, Name: zone.Name, Data: data}
	f.zones[zone.Name] = z
	return z, nil
}

func (f *fakeDirectory) Delete(zone *RemoteZone) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.zones, zone.Name)
	return nil
}

func (f *fakeDirectory) mutations() int {
	return f.creates + f.updates + f.deletes
}

func TestReconcileAbsentZoneAbsentIntent(t *testing.T) {
	dir := newFakeDirectory()
	desired := &DesiredState{Name: "example.com", State: StateAbsent}

	result, err := Reconcile(dir, desired, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Changed {
		t.Error("expected changed=false when nothing exists and nothing is wanted")
	}
	if result.ID != "" || result.Data != nil {
		t.Errorf("expected empty result, got %+v", result)
	}
	if dir.mutations() != 0 {
		t.Errorf("expected no mutations, got %d", dir.mutations())
	}
}

func TestReconcileCreatesMissingZone(t *testing.T) {
	dir := newFakeDirectory()
	desired := &DesiredState{
		Name:    "example.com",
		Refresh: intPtr(200),
		Retry:   intPtr(100),
	}

	result, err := Reconcile(dir, desired, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Changed {
		t.Error("expected changed=true on create")
	}
	if result.ID == "" {
		t.Error("expected zone id on create")
	}
	if dir.creates != 1 {
		t.Fatalf("expected 1 create, got %d", dir.creates)
	}
	if len(dir.lastCreateAttrs) != 2 {
		t.Fatalf("create attrs = %v, want refresh and retry only", dir.lastCreateAttrs)
	}
	if dir.lastCreateAttrs[AttrRefresh] != 200 || dir.lastCreateAttrs[AttrRetry] != 100 {
		t.Errorf("create attrs = %v", dir.lastCreateAttrs)
	}
}

func TestReconcileDeletesExistingZone(t *testing.T) {
	dir := newFakeDirectory(&RemoteZone{ID: "z1", Name: "example.com", Data: map[string]any{"refresh": 200}})
	desired := &DesiredState{Name: "example.com", State: StateAbsent}

	result, err := Reconcile(dir, desired, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Changed {
		t.Error("expected changed=true on delete")
	}
	if result.ID != "" || result.Data != nil {
		t.Errorf("delete result should carry no id or data, got %+v", result)
	}
	if dir.deletes != 1 {
		t.Fatalf("expected 1 delete, got %d", dir.deletes)
	}
	if _, ok := dir.zones["example.com"]; ok {
		t.Error("zone still present after delete")
	}
}

func TestReconcileUpdatesOnlyDifferingAttributes(t *testing.T) {
	dir := newFakeDirectory(&RemoteZone{
		ID:   "z1",
		Name: "example.com",
		Data: map[string]any{"refresh": 200, "retry": 100},
	})
	desired := &DesiredState{Name: "example.com", Refresh: intPtr(300), Retry: intPtr(100)}

	result, err := Reconcile(dir, desired, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Changed {
		t.Error("expected changed=true on update")
	}
	if dir.updates != 1 {
		t.Fatalf("expected 1 update, got %d", dir.updates)
	}
	if len(dir.lastUpdateAttrs) != 1 || dir.lastUpdateAttrs[AttrRefresh] != 300 {
		t.Fatalf("update attrs = %v, want exactly {refresh: 300}", dir.lastUpdateAttrs)
	}
	change, ok := result.Diff[AttrRefresh]
	if !ok {
		t.Fatal("expected refresh in result diff")
	}
	if change.From != 200 || change.To != 300 {
		t.Errorf("refresh change = %+v", change)
	}
}

func TestReconcileNoChangeWhenInSync(t *testing.T) {
	dir := newFakeDirectory(&RemoteZone{
		ID:   "z1",
		Name: "example.com",
		Data: map[string]any{"refresh": 300, "retry": 100},
	})
	desired := &DesiredState{Name: "example.com", Refresh: intPtr(300)}

	result, err := Reconcile(dir, desired, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Changed {
		t.Error("expected changed=false when already in sync")
	}
	if result.ID != "z1" {
		t.Errorf("expected id z1, got %q", result.ID)
	}
	if result.Data == nil {
		t.Error("expected current data in result")
	}
	if dir.mutations() != 0 {
		t.Errorf("expected no mutations, got %d", dir.mutations())
	}
}

func TestReconcileIdempotent(t *testing.T) {
	dir := newFakeDirectory()
	desired := &DesiredState{Name: "example.com", Refresh: intPtr(300), Networks: []int{1, 2}}

	first, err := Reconcile(dir, desired, Options{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !first.Changed {
		t.Fatal("first run should create")
	}

	second, err := Reconcile(dir, desired, Options{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Changed {
		t.Errorf("second run should be a no-op, got diff %v", second.Diff)
	}
	if dir.mutations() != 1 {
		t.Errorf("expected exactly 1 mutation across both runs, got %d", dir.mutations())
	}
}

func TestReconcileDryRunNeverMutates(t *testing.T) {
	tests := []struct {
		name    string
		dir     *fakeDirectory
		desired *DesiredState
	}{
		{
			name:    "create",
			dir:     newFakeDirectory(),
			desired: &DesiredState{Name: "example.com", Refresh: intPtr(300)},
		},
		{
			name: "update",
			dir: newFakeDirectory(&RemoteZone{
				ID: "z1", Name: "example.com", Data: map[string]any{"refresh": 200},
			}),
			desired: &DesiredState{Name: "example.com", Refresh: intPtr(300)},
		},
		{
			name: "delete",
			dir: newFakeDirectory(&RemoteZone{
				ID: "z1", Name: "example.com", Data: map[string]any{"refresh": 200},
			}),
			desired: &DesiredState{Name: "example.com", State: StateAbsent},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Reconcile(tt.dir, tt.desired, Options{DryRun: true})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.Changed {
				t.Error("dry run should still report the pending change")
			}
			if tt.dir.mutations() != 0 {
				t.Errorf("dry run mutated the directory %d time(s)", tt.dir.mutations())
			}
		})
	}
}

func TestReconcileDryRunCreateDiff(t *testing.T) {
	dir := newFakeDirectory()
	desired := &DesiredState{Name: "example.com", Refresh: intPtr(300)}

	result, err := Reconcile(dir, desired, Options{DryRun: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	change, ok := result.Diff[AttrRefresh]
	if !ok {
		t.Fatal("expected refresh in creation diff")
	}
	if change.From != nil || change.To != 300 {
		t.Errorf("creation change = %+v, want To=300 with empty From", change)
	}
}

func TestReconcileValidatesBeforeLoading(t *testing.T) {
	dir := newFakeDirectory()
	link := "master.example.com"
	desired := &DesiredState{Name: "example.com", Link: &link, Networks: []int{1}}

	if _, err := Reconcile(dir, desired, Options{}); err == nil {
		t.Fatal("expected validation error")
	}
	if dir.loads != 0 {
		t.Errorf("invalid input should not reach the directory, got %d loads", dir.loads)
	}
}

func TestReconcileLoadFailureIsFatal(t *testing.T) {
	dir := newFakeDirectory()
	dir.loadErr = &ProviderError{Code: 500, Message: "internal error"}
	desired := &DesiredState{Name: "example.com", Refresh: intPtr(300)}

	_, err := Reconcile(dir, desired, Options{})
	if err == nil {
		t.Fatal("expected load error to surface")
	}
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Code != 500 {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir.mutations() != 0 {
		t.Errorf("expected no mutations after failed load, got %d", dir.mutations())
	}
}

func TestReconcileCreateFailureSurfaces(t *testing.T) {
	dir := newFakeDirectory()
	dir.createErr = &ProviderError{Code: 400, Message: "invalid zone"}
	desired := &DesiredState{Name: "example.com", Refresh: intPtr(300)}

	if _, err := Reconcile(dir, desired, Options{}); err == nil {
		t.Fatal("expected create error to surface")
	}
}
