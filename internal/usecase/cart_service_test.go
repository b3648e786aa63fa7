package usecase

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"github.com/zakupnik/backend/internal/domain"
)

// MockCartRepository is an in-memory domain.CartRepository with the same
// compare-and-set contract as the sqlite store.
type MockCartRepository struct {
	lines          map[string]domain.CartLine
	forceConflicts int
	upserts        int
}

func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{lines: make(map[string]domain.CartLine)}
}

func lineKey(userID, referenceID string) string { return userID + "\x00" + referenceID }

func (m *MockCartRepository) Upsert(ctx context.Context, line *domain.CartLine) error {
	m.upserts++
	if m.forceConflicts > 0 {
		m.forceConflicts--
		return domain.ErrCartConflict
	}
	key := lineKey(line.UserID, line.ReferenceID)
	stored, exists := m.lines[key]
	if exists && stored.Version != line.Version {
		return domain.ErrCartConflict
	}
	if !exists && line.Version != 0 {
		return domain.ErrCartConflict
	}
	line.Version++
	m.lines[key] = *line
	return nil
}

func (m *MockCartRepository) Get(ctx context.Context, userID, referenceID string) (*domain.CartLine, error) {
	stored, ok := m.lines[lineKey(userID, referenceID)]
	if !ok {
		return nil, domain.ErrLineNotFound
	}
	out := stored
	return &out, nil
}

func (m *MockCartRepository) ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error) {
	var out []domain.CartLine
	for _, l := range m.lines {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReferenceID < out[j].ReferenceID })
	return out, nil
}

func (m *MockCartRepository) Clear(ctx context.Context, userID string) error {
	for key, l := range m.lines {
		if l.UserID == userID {
			delete(m.lines, key)
		}
	}
	return nil
}

// MockSupplierDirectory resolves suppliers from fixed maps.
type MockSupplierDirectory struct {
	names    map[string]string
	minimums map[string]float64
}

func (m *MockSupplierDirectory) SupplierName(ctx context.Context, supplierID string) (string, error) {
	name, ok := m.names[supplierID]
	if !ok {
		return "", domain.ErrSupplierUnknown
	}
	return name, nil
}

func (m *MockSupplierDirectory) SupplierMinimum(ctx context.Context, supplierID string) (float64, error) {
	minimum, ok := m.minimums[supplierID]
	if !ok {
		return 0, domain.ErrSupplierUnknown
	}
	return minimum, nil
}

func acceptedDecision(offer domain.CandidateOffer, alternates ...domain.CandidateOffer) *domain.MatchDecision {
	d := &domain.MatchDecision{
		Offer:   &offer,
		Reason:  domain.ReasonOK,
		Message: domain.ReasonOK.Message(),
		Score:   100,
		Phase:   domain.PhaseStrict,
	}
	for _, alt := range alternates {
		d.Alternates = append(d.Alternates, domain.Alternate{Offer: alt, Score: 90, TotalCost: alt.Price})
	}
	return d
}

func cartOffer(id, supplier, name string, price float64) domain.CandidateOffer {
	return domain.CandidateOffer{
		ID:         id,
		SupplierID: supplier,
		Name:       name,
		Price:      price,
		Active:     true,
	}
}

func newCartService(repo domain.CartRepository, suppliers domain.SupplierDirectory) *CartService {
	return NewCartService(repo, suppliers, CartServiceConfig{}, zerolog.Nop())
}

func TestAddLine(t *testing.T) {
	ctx := context.Background()
	ref := domain.ReferenceItem{ID: "ref-1", Name: "Кальмар тушка 1кг"}

	t.Run("rejects empty user", func(t *testing.T) {
		svc := newCartService(NewMockCartRepository(), &MockSupplierDirectory{})
		_, err := svc.AddLine(ctx, "", ref, acceptedDecision(cartOffer("a", "s1", "Кальмар тушка с/м 1кг", 500)), 1)
		if !errors.Is(err, domain.ErrInvalidReference) {
			t.Errorf("error = %v, want ErrInvalidReference", err)
		}
	})

	t.Run("rejects decision without selected offer", func(t *testing.T) {
		svc := newCartService(NewMockCartRepository(), &MockSupplierDirectory{})
		rejected := &domain.MatchDecision{Reason: domain.ReasonNoCandidatesOverThreshold}
		_, err := svc.AddLine(ctx, "u1", ref, rejected, 1)
		if !errors.Is(err, domain.ErrInvalidOffer) {
			t.Errorf("error = %v, want ErrInvalidOffer", err)
		}
	})

	t.Run("snapshots offer with quantity math and savings", func(t *testing.T) {
		repo := NewMockCartRepository()
		svc := newCartService(repo, &MockSupplierDirectory{})
		selected := cartOffer("a", "s1", "Кальмар тушка с/м 1кг", 500)
		selected.MinOrderQty = 5
		alt := cartOffer("b", "s2", "Кальмар тушка с/м 1кг", 540)

		line, err := svc.AddLine(ctx, "u1", ref, acceptedDecision(selected, alt), 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if line.EffectiveQty != 5 {
			t.Errorf("EffectiveQty = %d, want 5 (minimum order)", line.EffectiveQty)
		}
		if line.LineTotal != 2500 {
			t.Errorf("LineTotal = %v, want 2500", line.LineTotal)
		}
		if !line.Substitution {
			t.Error("differing names must mark the line as a substitution")
		}
		if line.Savings != 200 {
			t.Errorf("Savings = %v, want 200 ((540-500)*5)", line.Savings)
		}
		if line.Version != 1 {
			t.Errorf("Version = %d, want 1 after insert", line.Version)
		}
	})

	t.Run("same normalized name is not a substitution", func(t *testing.T) {
		svc := newCartService(NewMockCartRepository(), &MockSupplierDirectory{})
		selected := cartOffer("a", "s1", "кальмар  ТУШКА 1кг", 500)
		line, err := svc.AddLine(ctx, "u1", ref, acceptedDecision(selected), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if line.Substitution {
			t.Error("case and spacing differences must not mark a substitution")
		}
	})

	t.Run("replaces existing line keeping its identity", func(t *testing.T) {
		repo := NewMockCartRepository()
		svc := newCartService(repo, &MockSupplierDirectory{})
		offer := cartOffer("a", "s1", "Кальмар тушка с/м 1кг", 500)

		first, err := svc.AddLine(ctx, "u1", ref, acceptedDecision(offer), 1)
		if err != nil {
			t.Fatalf("first add: %v", err)
		}
		second, err := svc.AddLine(ctx, "u1", ref, acceptedDecision(offer), 4)
		if err != nil {
			t.Fatalf("second add: %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("line id changed on update: %s -> %s", first.ID, second.ID)
		}
		if second.Version != 2 {
			t.Errorf("Version = %d, want 2 after replace", second.Version)
		}
		lines, _ := repo.ListByUser(ctx, "u1")
		if len(lines) != 1 {
			t.Fatalf("lines = %d, want 1 (one line per reference)", len(lines))
		}
		if lines[0].UserQty != 4 {
			t.Errorf("UserQty = %d, want 4", lines[0].UserQty)
		}
	})

	t.Run("retries after losing the version race", func(t *testing.T) {
		repo := NewMockCartRepository()
		repo.forceConflicts = 2
		svc := newCartService(repo, &MockSupplierDirectory{})

		line, err := svc.AddLine(ctx, "u1", ref, acceptedDecision(cartOffer("a", "s1", "Кальмар тушка с/м 1кг", 500)), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if line == nil {
			t.Fatal("expected a stored line after retries")
		}
		if repo.upserts != 3 {
			t.Errorf("upserts = %d, want 3", repo.upserts)
		}
	})

	t.Run("gives up after bounded retries", func(t *testing.T) {
		repo := NewMockCartRepository()
		repo.forceConflicts = casRetries
		svc := newCartService(repo, &MockSupplierDirectory{})

		_, err := svc.AddLine(ctx, "u1", ref, acceptedDecision(cartOffer("a", "s1", "Кальмар тушка с/м 1кг", 500)), 1)
		if !errors.Is(err, domain.ErrCartConflict) {
			t.Errorf("error = %v, want ErrCartConflict", err)
		}
	})
}

// seedLine puts an accepted decision for the offer into the user's cart.
func seedLine(t *testing.T, svc *CartService, userID, refID string, offer domain.CandidateOffer, qty int) domain.CartLine {
	t.Helper()
	ref := domain.ReferenceItem{ID: refID, Name: offer.Name}
	line, err := svc.AddLine(context.Background(), userID, ref, acceptedDecision(offer), qty)
	if err != nil {
		t.Fatalf("seeding line %s: %v", refID, err)
	}
	return *line
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart yields no groups", func(t *testing.T) {
		svc := newCartService(NewMockCartRepository(), &MockSupplierDirectory{})
		groups, err := svc.Checkout(ctx, "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(groups) != 0 {
			t.Errorf("groups = %d, want 0", len(groups))
		}
	})

	t.Run("tops up a small deficit and persists the raise", func(t *testing.T) {
		repo := NewMockCartRepository()
		dir := &MockSupplierDirectory{
			names:    map[string]string{"s1": "База №1"},
			minimums: map[string]float64{"s1": 10000},
		}
		svc := newCartService(repo, dir)

		cheap := cartOffer("cheap", "s1", "Кальмар тушка с/м 1кг", 400)
		cheap.StepQty = 1
		bulky := cartOffer("bulky", "s1", "Креветка с/м 1кг", 600)
		bulky.MinOrderQty = 2
		cheapLine := seedLine(t, svc, "u1", "ref-cheap", cheap, 20) // 8000
		seedLine(t, svc, "u1", "ref-bulky", bulky, 2)               // 1200, deficit 800

		groups, err := svc.Checkout(ctx, "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(groups) != 1 {
			t.Fatalf("groups = %d, want 1", len(groups))
		}
		g := groups[0]
		if g.Status != domain.ReasonOK {
			t.Errorf("status = %s, want OK", g.Status)
		}
		if g.Subtotal != 10000 || g.Deficit != 0 {
			t.Errorf("subtotal = %v deficit = %v, want 10000 and 0", g.Subtotal, g.Deficit)
		}
		if len(g.TopUps) != 1 {
			t.Fatalf("topUps = %d, want 1", len(g.TopUps))
		}
		up := g.TopUps[0]
		if up.LineID != cheapLine.ID || up.StepsAdded != 2 || up.QtyAdded != 2 || up.CostAdded != 800 {
			t.Errorf("topUp = %+v, want 2 steps of the 400 line", up)
		}

		stored, err := repo.Get(ctx, "u1", "ref-cheap")
		if err != nil {
			t.Fatalf("reading persisted line: %v", err)
		}
		if stored.EffectiveQty != 22 || stored.LineTotal != 8800 {
			t.Errorf("persisted qty = %d total = %v, want 22 and 8800", stored.EffectiveQty, stored.LineTotal)
		}
		if stored.Version != 2 {
			t.Errorf("persisted version = %d, want 2", stored.Version)
		}
	})

	t.Run("large deficit is reported, not fixed", func(t *testing.T) {
		repo := NewMockCartRepository()
		dir := &MockSupplierDirectory{
			names:    map[string]string{"s1": "База №1"},
			minimums: map[string]float64{"s1": 20000},
		}
		svc := newCartService(repo, dir)
		seedLine(t, svc, "u1", "ref-1", cartOffer("a", "s1", "Кальмар тушка с/м 1кг", 400), 20) // 8000

		groups, err := svc.Checkout(ctx, "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		g := groups[0]
		if g.Status != domain.ReasonSupplierMinNotMet {
			t.Errorf("status = %s, want SUPPLIER_MIN_NOT_MET", g.Status)
		}
		if len(g.TopUps) != 0 {
			t.Errorf("topUps = %d, want 0 for an oversized deficit", len(g.TopUps))
		}
		stored, _ := repo.Get(ctx, "u1", "ref-1")
		if stored.EffectiveQty != 20 {
			t.Errorf("persisted qty = %d, want untouched 20", stored.EffectiveQty)
		}
	})

	t.Run("unknown supplier has no minimum to enforce", func(t *testing.T) {
		svc := newCartService(NewMockCartRepository(), &MockSupplierDirectory{})
		seedLine(t, svc, "u1", "ref-1", cartOffer("a", "ghost", "Кальмар тушка с/м 1кг", 400), 1)

		groups, err := svc.Checkout(ctx, "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		g := groups[0]
		if g.Minimum != 0 || g.Status != domain.ReasonOK {
			t.Errorf("minimum = %v status = %s, want 0 and OK", g.Minimum, g.Status)
		}
	})

	t.Run("groups are ordered by supplier id", func(t *testing.T) {
		dir := &MockSupplierDirectory{
			names:    map[string]string{"s1": "База №1", "s2": "База №2"},
			minimums: map[string]float64{"s1": 0, "s2": 0},
		}
		svc := newCartService(NewMockCartRepository(), dir)
		seedLine(t, svc, "u1", "ref-1", cartOffer("a", "s2", "Кальмар тушка с/м 1кг", 400), 1)
		seedLine(t, svc, "u1", "ref-2", cartOffer("b", "s1", "Креветка с/м 1кг", 600), 1)

		groups, err := svc.Checkout(ctx, "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(groups) != 2 || groups[0].SupplierID != "s1" || groups[1].SupplierID != "s2" {
			t.Errorf("group order = %v, want [s1 s2]", []string{groups[0].SupplierID, groups[1].SupplierID})
		}
		if groups[0].SupplierName != "База №1" {
			t.Errorf("supplierName = %q, want База №1", groups[0].SupplierName)
		}
	})

	t.Run("lost write race aborts checkout", func(t *testing.T) {
		repo := NewMockCartRepository()
		dir := &MockSupplierDirectory{
			names:    map[string]string{"s1": "База №1"},
			minimums: map[string]float64{"s1": 10000},
		}
		svc := newCartService(repo, dir)
		cheap := cartOffer("cheap", "s1", "Кальмар тушка с/м 1кг", 400)
		cheap.StepQty = 1
		seedLine(t, svc, "u1", "ref-cheap", cheap, 24) // 9600, deficit 400

		repo.forceConflicts = 1
		_, err := svc.Checkout(ctx, "u1")
		if !errors.Is(err, domain.ErrCartConflict) {
			t.Errorf("error = %v, want ErrCartConflict", err)
		}
	})
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	repo := NewMockCartRepository()
	svc := newCartService(repo, &MockSupplierDirectory{})
	seedLine(t, svc, "u1", "ref-1", cartOffer("a", "s1", "Кальмар тушка с/м 1кг", 400), 1)

	if err := svc.Clear(ctx, "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines, err := svc.Cart(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("lines = %d, want 0 after clear", len(lines))
	}
}
