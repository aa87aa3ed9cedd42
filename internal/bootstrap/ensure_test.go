package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

// fakeCatalog is an in-memory Catalog. Names are matched exactly.
type fakeCatalog struct {
	databases map[string]bool
	created   []string
	closed    int

	existsErr error
	createErr error
}

func newFakeCatalog(names ...string) *fakeCatalog {
	c := &fakeCatalog{databases: map[string]bool{}}
	for _, n := range names {
		c.databases[n] = true
	}
	return c
}

func (c *fakeCatalog) DatabaseExists(ctx context.Context, name string) (bool, error) {
	if c.existsErr != nil {
		return false, c.existsErr
	}
	return c.databases[name], nil
}

func (c *fakeCatalog) CreateDatabase(ctx context.Context, name string) error {
	if c.createErr != nil {
		return c.createErr
	}
	c.databases[name] = true
	c.created = append(c.created, name)
	return nil
}

func (c *fakeCatalog) Close(ctx context.Context) error {
	c.closed++
	return nil
}

func (c *fakeCatalog) opener() Opener {
	return func(ctx context.Context, d Descriptor) (Catalog, error) { return c, nil }
}

func TestEnsurer_AlreadyExists(t *testing.T) {
	cat := newFakeCatalog("postgres", "orders")
	var out bytes.Buffer
	e := &Ensurer{Open: cat.opener(), Out: &out}

	got, err := e.Ensure(context.Background(), Descriptor{Host: "db", Port: 5432, Database: "orders"})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if got != OutcomeExisted {
		t.Errorf("outcome = %v, want existed", got)
	}
	if len(cat.created) != 0 {
		t.Errorf("expected no mutation, created %v", cat.created)
	}
	if want := "Database 'orders' already exists.\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if cat.closed != 1 {
		t.Errorf("catalog closed %d times, want 1", cat.closed)
	}
}

func TestEnsurer_CreatesOnceThenExists(t *testing.T) {
	cat := newFakeCatalog("postgres")
	d := Descriptor{Host: "db", Port: 5432, Database: "orders"}

	var out bytes.Buffer
	e := &Ensurer{Open: cat.opener(), Out: &out}

	got, err := e.Ensure(context.Background(), d)
	if err != nil {
		t.Fatalf("first Ensure: %v", err)
	}
	if got != OutcomeCreated {
		t.Errorf("first outcome = %v, want created", got)
	}
	want := "Database 'orders' not found. Creating...\nCreated database.\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}

	out.Reset()
	got, err = e.Ensure(context.Background(), d)
	if err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if got != OutcomeExisted {
		t.Errorf("second outcome = %v, want existed", got)
	}
	if len(cat.created) != 1 {
		t.Errorf("created %v, want exactly one creation", cat.created)
	}
}

func TestEnsurer_CaseSensitive(t *testing.T) {
	cat := newFakeCatalog("orders")
	e := &Ensurer{Open: cat.opener(), Out: &bytes.Buffer{}}

	got, err := e.Ensure(context.Background(), Descriptor{Database: "Orders"})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if got != OutcomeCreated {
		t.Errorf("outcome = %v, want created for a differently cased name", got)
	}
}

func TestEnsurer_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		open      Opener
		cat       *fakeCatalog
		wantStage Stage
		wantClose int
	}{
		{
			name:      "connect",
			open:      func(ctx context.Context, d Descriptor) (Catalog, error) { return nil, boom },
			wantStage: StageConnect,
		},
		{
			name:      "check",
			cat:       &fakeCatalog{databases: map[string]bool{}, existsErr: boom},
			wantStage: StageCheck,
			wantClose: 1,
		},
		{
			name:      "create",
			cat:       &fakeCatalog{databases: map[string]bool{}, createErr: boom},
			wantStage: StageCreate,
			wantClose: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			open := tt.open
			if open == nil {
				open = tt.cat.opener()
			}
			e := &Ensurer{Open: open, Out: &bytes.Buffer{}}

			_, err := e.Ensure(context.Background(), Descriptor{Database: "orders"})
			if !errors.Is(err, boom) {
				t.Fatalf("error = %v, want wrapped boom", err)
			}
			if got := StageOf(err); got != tt.wantStage {
				t.Errorf("stage = %q, want %q", got, tt.wantStage)
			}
			if tt.cat != nil && tt.cat.closed != tt.wantClose {
				t.Errorf("closed = %d, want %d", tt.cat.closed, tt.wantClose)
			}
		})
	}
}

func TestOutcome_String(t *testing.T) {
	if OutcomeExisted.String() != "existed" || OutcomeCreated.String() != "created" || Outcome(0).String() != "unknown" {
		t.Error("unexpected Outcome strings")
	}
}
